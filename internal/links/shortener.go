package links

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/multierr"
)

// ErrNotShortened is returned when no provider produced a link.
var ErrNotShortened = errors.New("could not shorten link")

// Endpoints are the shortening services, tried in field order.
type Endpoints struct {
	CleanURI string
	IsGD     string
	TinyURL  string
}

var DefaultEndpoints = Endpoints{
	CleanURI: "https://cleanuri.com/api/v1/shorten",
	IsGD:     "https://is.gd/create.php",
	TinyURL:  "https://tinyurl.com/api-create.php",
}

// Shortener turns long invite links into short ones using public services.
// It never touches the document; callers decide what to do with the result.
type Shortener struct {
	client    *http.Client
	endpoints Endpoints
}

func NewShortener(client *http.Client, endpoints Endpoints) *Shortener {
	if client == nil {
		client = http.DefaultClient
	}
	return &Shortener{client: client, endpoints: endpoints}
}

// Shorten returns the first short link any provider gives for long.
func (s *Shortener) Shorten(ctx context.Context, long string) (string, error) {
	var errs error
	attempts := []func(context.Context, string) (string, error){
		s.cleanURI,
		s.isGD,
		s.tinyURL,
	}
	for _, try := range attempts {
		short, err := try(ctx, long)
		if err == nil {
			return short, nil
		}
		errs = multierr.Append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("%w: %w", ErrNotShortened, errs)
}

func (s *Shortener) cleanURI(ctx context.Context, long string) (string, error) {
	if s.endpoints.CleanURI == "" {
		return "", errors.New("cleanuri: no endpoint")
	}
	form := url.Values{"url": {long}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoints.CleanURI, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("cleanuri: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")

	body, err := s.do(req)
	if err != nil {
		return "", fmt.Errorf("cleanuri: %w", err)
	}
	var out struct {
		ResultURL string `json:"result_url"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("cleanuri: failed to decode response: %w", err)
	}
	if out.ResultURL == "" {
		return "", errors.New("cleanuri: empty result")
	}
	return out.ResultURL, nil
}

func (s *Shortener) isGD(ctx context.Context, long string) (string, error) {
	return s.plain(ctx, "is.gd", s.endpoints.IsGD, url.Values{"format": {"simple"}, "url": {long}})
}

func (s *Shortener) tinyURL(ctx context.Context, long string) (string, error) {
	return s.plain(ctx, "tinyurl", s.endpoints.TinyURL, url.Values{"url": {long}})
}

// plain calls a GET endpoint that answers with the short link as text.
func (s *Shortener) plain(ctx context.Context, name, endpoint string, q url.Values) (string, error) {
	if endpoint == "" {
		return "", fmt.Errorf("%s: no endpoint", name)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	body, err := s.do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	short := strings.TrimSpace(string(body))
	if !strings.HasPrefix(short, "http") {
		return "", fmt.Errorf("%s: unexpected response %q", name, short)
	}
	return short, nil
}

func (s *Shortener) do(req *http.Request) ([]byte, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 64<<10))
}

package i18n

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/text/language"

	"github.com/AlexTLDR/flok/internal/apperr"
	"github.com/AlexTLDR/flok/internal/op"
)

func TestResolveTag(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		cookie  string
		accept  string
		want    language.Tag
		persist bool
	}{
		{name: "query wins", url: "/?lang=en", cookie: "da", want: English, persist: true},
		{name: "regional query", url: "/?lang=en-GB", want: English, persist: true},
		{name: "unsupported query falls through", url: "/?lang=fr", cookie: "en", want: English},
		{name: "cookie", url: "/", cookie: "en", want: English},
		{name: "accept language", url: "/", accept: "fr-FR,en;q=0.8", want: English},
		{name: "danish browser", url: "/", accept: "da-DK,da;q=0.9", want: Danish},
		{name: "fallback", url: "/", want: Danish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: LangCookieName, Value: tt.cookie})
			}
			if tt.accept != "" {
				r.Header.Set("Accept-Language", tt.accept)
			}
			got, persist := ResolveTag(r, Danish)
			if got != tt.want || persist != tt.persist {
				t.Errorf("ResolveTag() = %v, %v, expected %v, %v", got, persist, tt.want, tt.persist)
			}
		})
	}
}

func TestPrinterThroughEnv(t *testing.T) {
	tests := []struct {
		tag  language.Tag
		want string
	}{
		{tag: Danish, want: "Mia svarede Måske"},
		{tag: English, want: "Mia answered Maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.tag.String(), func(t *testing.T) {
			env := op.Env{Printer: Printer(tt.tag)}
			if got := env.T("%s svarede %s", "Mia", env.T("Måske")); got != tt.want {
				t.Errorf("got %q, expected %q", got, tt.want)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := apperr.Policy(apperr.CodeRSVPDeadline, "deadline passed")
	if got := ErrorMessage(Printer(Danish), err); got != "Svarfristen er overskredet" {
		t.Errorf("danish: %q", got)
	}
	if got := ErrorMessage(Printer(English), err); got != "The RSVP deadline has passed" {
		t.Errorf("english: %q", got)
	}
	if got := ErrorMessage(Printer(English), errors.New("boom")); got != "Something went wrong" {
		t.Errorf("generic: %q", got)
	}
}

func TestSetLanguageCookie(t *testing.T) {
	w := httptest.NewRecorder()
	SetLanguageCookie(w, English)
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != LangCookieName || cookies[0].Value != "en" {
		t.Errorf("unexpected cookies %v", cookies)
	}
}

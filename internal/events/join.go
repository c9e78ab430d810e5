package events

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/AlexTLDR/flok/internal/apperr"
	"github.com/AlexTLDR/flok/internal/document"
)

var (
	eventFragment = regexp.MustCompile(`(?i)#event:([A-Za-z0-9_-]+)`)
	eventQuery    = regexp.MustCompile(`(?i)[?&]event=([A-Za-z0-9_-]+)`)
	httpPrefix    = regexp.MustCompile(`(?i)https?:`)
)

// ResolveJoinCode finds the event a pasted code refers to. Accepted forms,
// in order: a raw event id, text containing #event:<id>, a URL carrying the
// id in its fragment or event query, a bare event= query, an invite token.
func ResolveJoinCode(doc *document.Document, code string) (*document.Event, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "empty join code")
	}
	if ev, ok := doc.Event(code); ok {
		return ev, nil
	}
	if id := linkedEventID(code); id != "" {
		if ev, ok := doc.Event(id); ok {
			return ev, nil
		}
	}
	if ev, ok := doc.EventByToken(code); ok {
		return ev, nil
	}
	return nil, apperr.NotFound(apperr.CodeNoMatch, "no event matches the code")
}

func linkedEventID(code string) string {
	if m := eventFragment.FindStringSubmatch(code); m != nil {
		return m[1]
	}
	if httpPrefix.MatchString(code) {
		if u, err := url.Parse(code); err == nil {
			if m := eventFragment.FindStringSubmatch("#" + u.Fragment); m != nil {
				return m[1]
			}
			if id := u.Query().Get("event"); id != "" {
				return id
			}
		}
	}
	if m := eventQuery.FindStringSubmatch(code); m != nil {
		return m[1]
	}
	return ""
}

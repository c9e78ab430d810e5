package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/AlexTLDR/flok/internal/apperr"
	"github.com/AlexTLDR/flok/internal/document"
	"github.com/AlexTLDR/flok/internal/i18n"
	"github.com/AlexTLDR/flok/internal/links"
	"github.com/AlexTLDR/flok/internal/server/views"
)

// HandleCalendarFile downloads an event as an .ics file. The path may name
// the event by id or by invite token.
func HandleCalendarFile(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		doc := c.doc()
		ev, _, ok := c.viewable(doc, eventIDOf(doc, c.vars("id")))
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+links.ICSFilename(ev)+`"`)
		if _, err := w.Write([]byte(links.ICS(ev, c.env.Now))); err != nil {
			log.Printf("Warning: failed to write calendar file: %v", err)
		}
	}
}

type eventLinks struct {
	InviteURL      string      `json:"inviteUrl"`
	SnapshotURL    string      `json:"snapshotUrl"`
	PortableURL    string      `json:"portableUrl"`
	CalendarFile   string      `json:"calendarFile"`
	GoogleCalendar string      `json:"googleCalendar"`
	Maps           links.Maps  `json:"maps"`
	Share          links.Share `json:"share"`
	InviteText     string      `json:"inviteText"`
	InviteToken    string      `json:"inviteToken"`
}

// HandleEventLinks collects every way of sharing or saving an event. The
// optional contact query personalizes the invite text.
func HandleEventLinks(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		ev, _, ok := c.viewable(c.doc(), c.vars("id"))
		if !ok {
			return
		}
		cfg := s.GetConfig()
		origin := strings.TrimRight(cfg.BaseURL, "/")
		code, err := links.EncodeSnapshot(ev)
		if err != nil {
			c.fail(err)
			return
		}
		portable, err := links.ShortInviteURL(origin, ev)
		if err != nil {
			c.fail(err)
			return
		}
		invite := links.EventURL(origin, ev.ID)
		contact := r.URL.Query().Get("contact")
		share := links.ShareLinks(ev, invite, links.ShareOptions{
			Origin:        origin,
			FacebookAppID: cfg.FacebookAppID,
			Contact:       contact,
		})
		c.ok(http.StatusOK, eventLinks{
			InviteURL:      invite,
			SnapshotURL:    origin + "/s/" + code,
			PortableURL:    portable,
			CalendarFile:   origin + "/events/" + ev.ID + "/calendar.ics",
			GoogleCalendar: links.GoogleCalendarURL(ev),
			Maps:           links.MapsLinks(ev.Address),
			Share:          share,
			InviteText:     links.InviteText(ev, invite, contact, nil),
			InviteToken:    ev.InviteToken,
		})
	}
}

type shortenRequest struct {
	URL string `json:"url"`
}

type shortenResponse struct {
	URL       string `json:"url"`
	Shortened bool   `json:"shortened"`
}

// HandleShorten asks the public shorteners for a short link. When all of
// them fail the long link comes back unchanged.
func HandleShorten(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		var body shortenRequest
		if !c.decode(&body) {
			return
		}
		long := strings.TrimSpace(body.URL)
		if !strings.HasPrefix(long, "http://") && !strings.HasPrefix(long, "https://") {
			c.fail(apperr.Validation(apperr.CodeInvalidInput, "only http links can be shortened"))
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), s.GetConfig().ShortenerTimeout)
		defer cancel()
		short, err := s.GetShortener().Shorten(ctx, long)
		if err != nil {
			log.Printf("Warning: failed to shorten link: %v", err)
			c.ok(http.StatusOK, shortenResponse{URL: long})
			return
		}
		c.ok(http.StatusOK, shortenResponse{URL: short, Shortened: true})
	}
}

// HandleRoute resolves a deep link's fragment and query.
func HandleRoute(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, links.ParseRoute(q.Get("fragment"), q.Get("query")))
}

type languageRequest struct {
	Lang string `json:"lang"`
}

// HandleSetLanguage stores the visitor's language choice.
func HandleSetLanguage(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		var body languageRequest
		if !c.decode(&body) {
			return
		}
		tag, ok := i18n.Parse(body.Lang)
		if !ok {
			c.fail(apperr.Validation(apperr.CodeInvalidInput, "unsupported language"))
			return
		}
		i18n.SetLanguageCookie(w, tag)
		c.ok(http.StatusOK, map[string]string{"lang": tag.String()})
	}
}

// HandleSnapshotPage renders the preview of a portable invite. It needs no
// session and never reads the document.
func HandleSnapshotPage(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := s.GetConfig()
		tag, persist := i18n.ResolveTag(r, cfg.LanguageTag())
		if persist {
			i18n.SetLanguageCookie(w, tag)
		}
		p := i18n.Printer(tag)
		t := func(key string, a ...any) string { return p.Sprintf(key, a...) }

		inv := views.Invite{}
		status := http.StatusOK
		if snap, ok := links.DecodeSnapshot(mux.Vars(r)["code"]); ok {
			ev := snap.Event()
			inv = views.Invite{
				Found:       true,
				Title:       ev.Title,
				Description: ev.Description,
				Address:     ev.Address,
				When:        links.TimeRange(ev, nil),
				Cover:       ev.Cover,
				Public:      ev.IsPublic,
				CalendarURL: links.GoogleCalendarURL(ev),
			}
			if ev.ID != "" {
				inv.OpenURL = links.EventURL(cfg.BaseURL, ev.ID)
			}
		} else {
			status = http.StatusNotFound
		}

		title := inv.Title
		if title == "" {
			title = t("Invitationen kunne ikke læses")
		}
		themes := cfg.Themes()
		page := views.Layout(views.Page{
			Lang:       tag.String(),
			Title:      title,
			LightTheme: themes.Light,
			DarkTheme:  themes.Dark,
		}, views.InvitePreview(t, inv))

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := page.Render(r.Context(), w); err != nil {
			log.Printf("Failed to render snapshot page: %v", err)
		}
	}
}

// eventIDOf accepts an invite token in place of an event id.
func eventIDOf(doc *document.Document, idOrToken string) document.ID {
	if _, ok := doc.Event(idOrToken); ok {
		return idOrToken
	}
	if ev, ok := doc.EventByToken(idOrToken); ok {
		return ev.ID
	}
	return idOrToken
}

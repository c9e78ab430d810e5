package links

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/AlexTLDR/flok/internal/document"
)

// GoogleCalendarURL prefills an event in Google Calendar.
func GoogleCalendarURL(ev *document.Event) string {
	tz := ev.Timezone
	if tz == "" {
		tz = document.DefaultTimezone
	}
	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", titleOf(ev))
	q.Set("details", ev.Description)
	q.Set("location", ev.Address)
	q.Set("dates", icsTime(ev.Start)+"/"+icsTime(ev.EndOrDefault()))
	q.Set("ctz", tz)
	return "https://calendar.google.com/calendar/render?" + q.Encode()
}

// Maps holds search links for an address.
type Maps struct {
	Apple  string `json:"apple"`
	Google string `json:"google"`
	Embed  string `json:"embed"`
}

// MapsLinks returns map searches for address, or the zero value when empty.
func MapsLinks(address string) Maps {
	address = strings.TrimSpace(address)
	if address == "" {
		return Maps{}
	}
	q := component(address)
	return Maps{
		Apple:  "https://maps.apple.com/?q=" + q,
		Google: "https://www.google.com/maps/search/?api=1&query=" + q,
		Embed:  "https://www.google.com/maps?q=" + q + "&output=embed",
	}
}

// Share holds the deep links an invite can be sent through.
type Share struct {
	SMS       string `json:"sms"`
	WhatsApp  string `json:"whatsapp"`
	Facebook  string `json:"facebook"`
	Messenger string `json:"messenger,omitempty"`
	Email     string `json:"email"`
}

// ShareOptions carries what the links need besides the event.
type ShareOptions struct {
	Origin        string
	FacebookAppID string
	Contact       string
	Location      *time.Location
}

// ShareLinks builds every share link for ev pointing at inviteURL. The
// Facebook dialog and Messenger need an app id; without one Facebook falls
// back to the sharer and Messenger is left out.
func ShareLinks(ev *document.Event, inviteURL string, o ShareOptions) Share {
	text := InviteText(ev, inviteURL, o.Contact, o.Location)
	u := component(inviteURL)
	quote := component(fmt.Sprintf("Du er inviteret til %s. Kom og vær med!", ev.Title))
	redirect := component(o.Origin)

	s := Share{
		SMS:      "sms:?&body=" + component(text),
		WhatsApp: "https://wa.me/?text=" + component(text),
		Facebook: "https://www.facebook.com/sharer/sharer.php?u=" + u + "&quote=" + quote,
		Email:    Mailto("Invitation "+ev.Title, text),
	}
	if o.FacebookAppID != "" {
		appID := component(o.FacebookAppID)
		s.Facebook = "https://www.facebook.com/dialog/share?app_id=" + appID +
			"&display=popup&href=" + u + "&quote=" + quote + "&redirect_uri=" + redirect
		s.Messenger = "https://www.facebook.com/dialog/send?app_id=" + appID +
			"&link=" + u + "&redirect_uri=" + redirect
	}
	return s
}

// Mailto opens a blank mail with subject and body.
func Mailto(subject, body string) string {
	return "mailto:?subject=" + component(subject) + "&body=" + component(body)
}

// InviteText is the message a host sends to a contact.
func InviteText(ev *document.Event, inviteURL, contact string, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hej %s\n\n", strings.TrimSpace(contact))
	fmt.Fprintf(&b, "Du er inviteret til %s.\n\n", ev.Title)
	fmt.Fprintf(&b, "Tid: %s\n", TimeRange(ev, loc))
	fmt.Fprintf(&b, "Sted: %s\n\n", ev.Address)
	fmt.Fprintf(&b, "Læs mere og svar her: %s\n\n", inviteURL)
	b.WriteString("Kærlig hilsen\nVærten")
	return b.String()
}

// TimeRange formats the event's time span in loc, or in the event's own
// zone when loc is nil.
func TimeRange(ev *document.Event, loc *time.Location) string {
	if loc == nil {
		loc = eventLocation(ev)
	}
	start := ev.Start.In(loc)
	if ev.End == nil {
		return start.Format("2. Jan 2006 15:04")
	}
	end := ev.End.In(loc)
	if start.YearDay() == end.YearDay() && start.Year() == end.Year() {
		return start.Format("2. Jan 2006") + " kl. " + start.Format("15:04") + "–" + end.Format("15:04")
	}
	return start.Format("2. Jan 2006 15:04") + " – " + end.Format("2. Jan 2006 15:04")
}

func eventLocation(ev *document.Event) *time.Location {
	if ev.Timezone != "" {
		if loc, err := time.LoadLocation(ev.Timezone); err == nil {
			return loc
		}
	}
	if loc, err := time.LoadLocation(document.DefaultTimezone); err == nil {
		return loc
	}
	return time.UTC
}

// component escapes s like encodeURIComponent, spaces as %20.
func component(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

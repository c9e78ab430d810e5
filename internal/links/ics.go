// Package links builds calendar files, share links and portable invite
// snapshots for events. Nothing here touches the document.
package links

import (
	"strings"
	"time"

	"github.com/AlexTLDR/flok/internal/document"
)

const (
	icsTimeLayout = "20060102T150405Z"
	fallbackTitle = "Begivenhed"
)

var icsEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\n", `\n`)

func escapeICS(s string) string {
	return icsEscaper.Replace(s)
}

func icsTime(t time.Time) string {
	return t.UTC().Format(icsTimeLayout)
}

func titleOf(ev *document.Event) string {
	if ev.Title == "" {
		return fallbackTitle
	}
	return ev.Title
}

// ICS renders ev as a single-event iCalendar file. Times are UTC and lines
// are CRLF separated.
func ICS(ev *document.Event, now time.Time) string {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Flok//DA",
		"BEGIN:VEVENT",
		"UID:" + ev.ID + "@flok.local",
		"DTSTAMP:" + icsTime(now),
		"DTSTART:" + icsTime(ev.Start),
		"DTEND:" + icsTime(ev.EndOrDefault()),
		"SUMMARY:" + escapeICS(titleOf(ev)),
		"DESCRIPTION:" + escapeICS(ev.Description),
		"LOCATION:" + escapeICS(ev.Address),
		"END:VEVENT",
		"END:VCALENDAR",
	}
	return strings.Join(lines, "\r\n")
}

// ICSFilename is a download name derived from the title.
func ICSFilename(ev *document.Event) string {
	var b strings.Builder
	for _, r := range strings.ToLower(titleOf(ev)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	name := strings.Trim(b.String(), "-")
	if name == "" {
		name = "event"
	}
	return name + ".ics"
}

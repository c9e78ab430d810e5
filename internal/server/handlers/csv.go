package handlers

import (
	"encoding/csv"
	"log"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/AlexTLDR/flok/internal/apperr"
	"github.com/AlexTLDR/flok/internal/document"
	"github.com/AlexTLDR/flok/internal/identity"
	"github.com/AlexTLDR/flok/internal/op"
	"github.com/AlexTLDR/flok/internal/rsvp"
)

// csvTimeLayout is how answer times appear in the export.
const csvTimeLayout = "2006-01-02 15:04"

// csvRowData holds formatted data for a single CSV row
type csvRowData struct {
	name       string
	phone      string
	email      string
	answer     string
	children   string
	waitlisted string
	answeredAt string
}

func (r csvRowData) fields() []string {
	return []string{r.name, r.phone, r.email, r.answer, r.children, r.waitlisted, r.answeredAt}
}

// escapeCSVField keeps every record on one line
func escapeCSVField(field string) string {
	return strings.ReplaceAll(strings.ReplaceAll(field, "\r\n", " "), "\n", " ")
}

// formatAttendeeForCSV converts one answer to CSV row data
func formatAttendeeForCSV(doc *document.Document, ev *document.Event, env op.Env, id document.ID, a document.RSVP) csvRowData {
	yes, no := env.T("Ja"), env.T("Nej")
	row := csvRowData{
		name:       escapeCSVField(identity.DisplayName(doc, ev.ID, id, env.T("Gæst"))),
		answer:     rsvp.Label(env, a.Status),
		children:   strconv.Itoa(len(a.WithChildren)),
		waitlisted: no,
		answeredAt: a.At.In(eventZone(ev)).Format(csvTimeLayout),
	}
	if u, ok := doc.User(id); ok {
		row.phone = u.Phone
		row.email = u.Email
	}
	if slices.Contains(ev.WaitlistQueue, id) {
		row.waitlisted = yes
	}
	return row
}

func eventZone(ev *document.Event) *time.Location {
	loc, err := time.LoadLocation(ev.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// writeCSVHeaders sets HTTP headers and writes CSV header row
func writeCSVHeaders(w http.ResponseWriter, out *csv.Writer, env op.Env, filename string) error {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	// Write UTF-8 BOM for Excel compatibility
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}
	return out.Write([]string{
		env.T("Navn"), env.T("Telefon"), env.T("E-mail"), env.T("Svar"),
		env.T("Børn"), env.T("Venteliste"), env.T("Svaret"),
	})
}

// HandleGuestListCSV exports an event's answers for its hosts, oldest
// answer first.
func HandleGuestListCSV(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		doc := c.doc()
		id := c.vars("id")
		ev, found := doc.Event(id)
		if !found {
			c.fail(apperr.NotFound(apperr.CodeEventNotFound, "event not found"))
			return
		}
		if err := identity.RequireManager(ev, c.actor(doc, id)); err != nil {
			c.fail(err)
			return
		}

		ids := make([]document.ID, 0, len(ev.Attendees))
		for aid := range ev.Attendees {
			ids = append(ids, aid)
		}
		slices.SortFunc(ids, func(a, b document.ID) int {
			return ev.Attendees[a].At.Compare(ev.Attendees[b].At)
		})

		out := csv.NewWriter(w)
		if err := writeCSVHeaders(w, out, c.env, "gaesteliste-"+ev.ID+".csv"); err != nil {
			log.Printf("Warning: failed to write guest list: %v", err)
			return
		}
		for _, aid := range ids {
			row := formatAttendeeForCSV(doc, ev, c.env, aid, ev.Attendees[aid])
			if err := out.Write(row.fields()); err != nil {
				log.Printf("Warning: failed to write guest list: %v", err)
				return
			}
		}
		out.Flush()
		if err := out.Error(); err != nil {
			log.Printf("Warning: failed to write guest list: %v", err)
		}
	}
}

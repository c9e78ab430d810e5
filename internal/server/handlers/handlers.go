package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/text/message"

	"github.com/AlexTLDR/flok/internal/apperr"
	"github.com/AlexTLDR/flok/internal/config"
	"github.com/AlexTLDR/flok/internal/document"
	"github.com/AlexTLDR/flok/internal/i18n"
	"github.com/AlexTLDR/flok/internal/identity"
	"github.com/AlexTLDR/flok/internal/links"
	"github.com/AlexTLDR/flok/internal/media"
	"github.com/AlexTLDR/flok/internal/op"
	"github.com/AlexTLDR/flok/internal/store"
	"github.com/AlexTLDR/flok/internal/undo"
)

// maxBodyBytes bounds a JSON request; posts may carry inline images.
const maxBodyBytes = 8 << 20

// Server interface defines the methods needed by handlers
type Server interface {
	GetStore() *store.Store
	GetConfig() *config.Config
	GetUndo() *undo.Registry
	GetMedia() media.Store
	GetShortener() *links.Shortener
	// SessionID returns the id bound to the request's session cookie,
	// issuing a new one when the request has none.
	SessionID(w http.ResponseWriter, r *http.Request) (string, error)
}

// call is the per-request state shared by every API handler.
type call struct {
	s   Server
	w   http.ResponseWriter
	r   *http.Request
	sid string
	p   *message.Printer
	env op.Env
}

func begin(s Server, w http.ResponseWriter, r *http.Request) (*call, bool) {
	tag, persist := i18n.ResolveTag(r, s.GetConfig().LanguageTag())
	if persist {
		i18n.SetLanguageCookie(w, tag)
	}
	c := &call{s: s, w: w, r: r, p: i18n.Printer(tag)}
	c.env = op.Env{Now: s.GetStore().Now(), Printer: c.p}

	sid, err := s.SessionID(w, r)
	if err != nil {
		log.Printf("Failed to load session: %v", err)
		c.fail(err)
		return nil, false
	}
	c.sid = sid
	return c, true
}

func (c *call) doc() *document.Document {
	return c.s.GetStore().Current()
}

// actor resolves the session against doc. eventID scopes temporary logins.
func (c *call) actor(doc *document.Document, eventID document.ID) identity.Actor {
	return identity.Resolve(doc, c.sid, eventID)
}

func (c *call) vars(name string) string {
	return mux.Vars(c.r)[name]
}

// decode reads the JSON body into v. An empty body leaves v untouched.
func (c *call) decode(v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(c.w, c.r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		c.fail(apperr.Wrap(apperr.KindValidation, apperr.CodeInvalidInput, "invalid request body", err))
		return false
	}
	return true
}

// update runs fn through the store and writes the error response on failure.
func (c *call) update(fn store.MutateFunc) bool {
	if _, err := c.s.GetStore().Update(c.r.Context(), fn); err != nil {
		c.fail(err)
		return false
	}
	return true
}

// remember registers cmd for undo by this session.
func (c *call) remember(cmd undo.Command) string {
	if cmd == nil {
		return ""
	}
	return c.s.GetUndo().Put(c.sid, cmd, c.env.Now)
}

func (c *call) ok(status int, v any) {
	writeJSON(c.w, status, v)
}

type errorBody struct {
	Error string      `json:"error"`
	Code  apperr.Code `json:"code,omitempty"`
}

func (c *call) fail(err error) {
	status := apperr.HTTPStatus(err)
	body := errorBody{Error: i18n.ErrorMessage(c.p, err)}
	if e, ok := apperr.As(err); ok {
		body.Code = e.Code
	}
	if status >= http.StatusInternalServerError {
		log.Printf("Request %s %s failed: %v", c.r.Method, c.r.URL.Path, err)
	}
	writeJSON(c.w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Warning: failed to write response: %v", err)
	}
}

type undoBody struct {
	Undo string `json:"undo,omitempty"`
}

// HandleUndo applies an undo token issued to this session.
func HandleUndo(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		if _, err := s.GetStore().Undo(r.Context(), s.GetUndo(), c.sid, c.vars("token")); err != nil {
			c.fail(err)
			return
		}
		c.ok(http.StatusOK, map[string]bool{"undone": true})
	}
}

type healthBody struct {
	Status  string       `json:"status"`
	Storage store.Status `json:"storage"`
}

// HandleHealth reports liveness and whether the stored document could be
// read. An unreadable document answers 503.
func HandleHealth(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := healthBody{Status: "healthy", Storage: s.GetStore().Status(r.Context())}
		status := http.StatusOK
		if !body.Storage.Loaded {
			body.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, body)
	}
}

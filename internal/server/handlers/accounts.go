package handlers

import (
	"net/http"

	"github.com/AlexTLDR/flok/internal/accounts"
	"github.com/AlexTLDR/flok/internal/apperr"
	"github.com/AlexTLDR/flok/internal/document"
	"github.com/AlexTLDR/flok/internal/identity"
	"github.com/AlexTLDR/flok/internal/social"
)

// meResponse describes who the session acts as.
type meResponse struct {
	Kind     string         `json:"kind"`
	User     *document.User `json:"user,omitempty"`
	EventID  document.ID    `json:"eventId,omitempty"`
	Username string         `json:"username,omitempty"`
}

func describe(doc *document.Document, a identity.Actor) meResponse {
	resp := meResponse{Kind: a.Kind.String(), EventID: a.EventID, Username: a.Username}
	if u, ok := doc.User(a.ID()); ok && !a.IsZero() {
		resp.User = u
	}
	return resp
}

// HandleMe returns the session's actor. Temporary logins count for any
// event here.
func HandleMe(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		doc := c.doc()
		c.ok(http.StatusOK, describe(doc, c.actor(doc, "")))
	}
}

// HandleRegister creates a permanent account and signs the session in.
func HandleRegister(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		var body accounts.Contact
		if !c.decode(&body) {
			return
		}
		var user *document.User
		if !c.update(func(doc *document.Document) (*document.Document, error) {
			next, u, err := accounts.Register(doc, c.env, c.sid, body, s.GetConfig().PhoneRegion)
			user = u
			return next, err
		}) {
			return
		}
		c.ok(http.StatusCreated, user)
	}
}

type loginRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// HandleLogin signs the session in by email or phone.
func HandleLogin(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		var body loginRequest
		if !c.decode(&body) {
			return
		}
		var user *document.User
		if !c.update(func(doc *document.Document) (*document.Document, error) {
			next, u, err := accounts.Login(doc, c.sid, body.Email, body.Phone, s.GetConfig().PhoneRegion)
			user = u
			return next, err
		}) {
			return
		}
		c.ok(http.StatusOK, user)
	}
}

// HandleLogout drops the account from the session.
func HandleLogout(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		if !c.update(func(doc *document.Document) (*document.Document, error) {
			return accounts.Logout(doc, c.sid), nil
		}) {
			return
		}
		c.ok(http.StatusNoContent, nil)
	}
}

// HandleConvert upgrades a temporary login to a permanent account.
func HandleConvert(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		var body accounts.Contact
		if !c.decode(&body) {
			return
		}
		var user *document.User
		if !c.update(func(doc *document.Document) (*document.Document, error) {
			next, u, err := accounts.ConvertToPermanent(doc, c.sid, c.actor(doc, ""), body, s.GetConfig().PhoneRegion)
			user = u
			return next, err
		}) {
			return
		}
		c.ok(http.StatusOK, user)
	}
}

// HandleUpdateProfile edits the session user's profile.
func HandleUpdateProfile(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		var body accounts.Profile
		if !c.decode(&body) {
			return
		}
		var user *document.User
		if !c.update(func(doc *document.Document) (*document.Document, error) {
			actor := c.actor(doc, "")
			next, err := accounts.UpdateProfile(doc, actor, body)
			if err == nil {
				user, _ = next.User(actor.ID())
			}
			return next, err
		}) {
			return
		}
		c.ok(http.StatusOK, user)
	}
}

// profileResponse is another user's profile as anyone may see it.
type profileResponse struct {
	ID       document.ID      `json:"id"`
	Name     string           `json:"name"`
	IsParent bool             `json:"isParent"`
	Children []document.Child `json:"children"`
	Socials  document.Socials `json:"socials"`
	Relation social.Status    `json:"relation"`
}

// HandleProfile shows a user's public profile and how the session user
// relates to them.
func HandleProfile(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		doc := c.doc()
		u, found := doc.User(c.vars("id"))
		if !found {
			c.fail(apperr.NotFound(apperr.CodeUserNotFound, "user not found"))
			return
		}
		resp := profileResponse{
			ID:       u.ID,
			Name:     u.Name,
			IsParent: u.IsParent,
			Children: u.Children,
			Socials:  u.Socials,
			Relation: social.StatusNone,
		}
		if actor := c.actor(doc, ""); actor.IsAccount() {
			resp.Relation = social.StatusOf(doc, actor.ID(), u.ID)
		}
		c.ok(http.StatusOK, resp)
	}
}

type tempLoginRequest struct {
	Username string `json:"username"`
	PIN      string `json:"pin"`
}

// HandleCreateTempLogin registers a username and PIN on an event.
func HandleCreateTempLogin(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		var body tempLoginRequest
		if !c.decode(&body) {
			return
		}
		var resp meResponse
		if !c.update(func(doc *document.Document) (*document.Document, error) {
			next, actor, err := accounts.CreateTempLogin(doc, c.env, c.sid, c.vars("id"), body.Username, body.PIN)
			if err == nil {
				resp = describe(next, actor)
			}
			return next, err
		}) {
			return
		}
		c.ok(http.StatusCreated, resp)
	}
}

// HandleTempAuth signs in with an existing temporary login.
func HandleTempAuth(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		var body tempLoginRequest
		if !c.decode(&body) {
			return
		}
		var resp meResponse
		if !c.update(func(doc *document.Document) (*document.Document, error) {
			next, actor, err := accounts.AuthTemp(doc, c.env, c.sid, c.vars("id"), body.Username, body.PIN)
			if err == nil {
				resp = describe(next, actor)
			}
			return next, err
		}) {
			return
		}
		c.ok(http.StatusOK, resp)
	}
}

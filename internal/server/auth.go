package server

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/AlexTLDR/flok/internal/accounts"
	"github.com/AlexTLDR/flok/internal/apperr"
	"github.com/AlexTLDR/flok/internal/document"
)

func (s *Server) getGoogleOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.config.GoogleClientID,
		ClientSecret: s.config.GoogleClientSecret,
		RedirectURL:  s.config.GoogleRedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: s.oauthEndpoint,
	}
}

// redirectHome sends the browser back to the app, with an optional login
// outcome for the client to show.
func (s *Server) redirectHome(w http.ResponseWriter, r *http.Request, outcome string) {
	target := "/"
	if outcome != "" {
		target += "?" + url.Values{"login": {outcome}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.config.GoogleEnabled() {
		http.NotFound(w, r)
		return
	}

	state := uuid.NewString()
	session, _ := s.sessionStore.Get(r, sessionName)
	session.Values[oauthStateKey] = state
	if err := session.Save(r, w); err != nil {
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	authURL := s.getGoogleOAuthConfig().AuthCodeURL(state)
	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

// handleGoogleCallback signs in the existing account whose email Google
// vouches for. Google never creates accounts.
func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if !s.config.GoogleEnabled() {
		http.NotFound(w, r)
		return
	}

	session, _ := s.sessionStore.Get(r, sessionName)
	want, _ := session.Values[oauthStateKey].(string)
	if want == "" || r.URL.Query().Get("state") != want {
		http.Error(w, "Invalid OAuth state", http.StatusBadRequest)
		return
	}
	delete(session.Values, oauthStateKey)

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Code not found", http.StatusBadRequest)
		return
	}

	oauthConfig := s.getGoogleOAuthConfig()
	token, err := oauthConfig.Exchange(r.Context(), code)
	if err != nil {
		log.Printf("Failed to exchange OAuth code: %v", err)
		http.Error(w, "Failed to exchange token", http.StatusInternalServerError)
		return
	}

	// Get user info
	client := oauthConfig.Client(r.Context(), token)
	resp, err := client.Get(s.userInfoURL)
	if err != nil {
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		http.Error(w, "Failed to read user info", http.StatusInternalServerError)
		return
	}

	var userInfo struct {
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
	}
	if err := json.Unmarshal(data, &userInfo); err != nil {
		http.Error(w, "Failed to parse user info", http.StatusInternalServerError)
		return
	}
	if userInfo.Email == "" || !userInfo.VerifiedEmail {
		http.Error(w, "Unauthorized: email is not verified", http.StatusUnauthorized)
		return
	}

	sid, err := s.SessionID(w, r)
	if err != nil {
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}
	_, err = s.store.Update(r.Context(), func(doc *document.Document) (*document.Document, error) {
		next, _, err := accounts.LoginByEmail(doc, sid, userInfo.Email)
		return next, err
	})
	switch {
	case apperr.KindOf(err) == apperr.KindNotFound:
		s.redirectHome(w, r, "unknown")
		return
	case err != nil:
		log.Printf("Failed to sign in with Google: %v", err)
		http.Error(w, "Failed to sign in", http.StatusInternalServerError)
		return
	}

	if err := session.Save(r, w); err != nil {
		log.Printf("Warning: failed to clear OAuth state: %v", err)
	}
	s.redirectHome(w, r, "")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sid, err := s.SessionID(w, r)
	if err != nil {
		http.Error(w, "Failed to load session", http.StatusInternalServerError)
		return
	}
	if _, err := s.store.Update(r.Context(), func(doc *document.Document) (*document.Document, error) {
		return accounts.Logout(doc, sid), nil
	}); err != nil {
		log.Printf("Failed to log out: %v", err)
	}
	s.redirectHome(w, r, "")
}

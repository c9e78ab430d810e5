package server

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/rs/cors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/AlexTLDR/flok/internal/config"
	"github.com/AlexTLDR/flok/internal/links"
	"github.com/AlexTLDR/flok/internal/media"
	"github.com/AlexTLDR/flok/internal/server/handlers"
	"github.com/AlexTLDR/flok/internal/social"
	"github.com/AlexTLDR/flok/internal/store"
	"github.com/AlexTLDR/flok/internal/undo"
)

const (
	sessionName   = "flok-session"
	sessionIDKey  = "sid"
	oauthStateKey = "oauth-state"
)

type Server struct {
	config       *config.Config
	store        *store.Store
	undo         *undo.Registry
	media        media.Store
	shortener    *links.Shortener
	sessionStore *sessions.CookieStore
	router       *mux.Router

	oauthEndpoint oauth2.Endpoint
	userInfoURL   string
}

type Option func(*Server)

// WithMedia sets where post images are stored. Images stay inline by
// default.
func WithMedia(m media.Store) Option {
	return func(s *Server) { s.media = m }
}

// WithShortener replaces the default link shortener.
func WithShortener(sh *links.Shortener) Option {
	return func(s *Server) { s.shortener = sh }
}

// GetStore implements handlers.Server interface
func (s *Server) GetStore() *store.Store {
	return s.store
}

// GetConfig implements handlers.Server interface
func (s *Server) GetConfig() *config.Config {
	return s.config
}

// GetUndo implements handlers.Server interface
func (s *Server) GetUndo() *undo.Registry {
	return s.undo
}

// GetMedia implements handlers.Server interface
func (s *Server) GetMedia() media.Store {
	return s.media
}

// GetShortener implements handlers.Server interface
func (s *Server) GetShortener() *links.Shortener {
	return s.shortener
}

// SessionID implements handlers.Server interface
func (s *Server) SessionID(w http.ResponseWriter, r *http.Request) (string, error) {
	session, _ := s.sessionStore.Get(r, sessionName)
	if sid, ok := session.Values[sessionIDKey].(string); ok && sid != "" {
		return sid, nil
	}
	sid := uuid.NewString()
	session.Values[sessionIDKey] = sid
	if err := session.Save(r, w); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}
	return sid, nil
}

func New(cfg *config.Config, st *store.Store, opts ...Option) *Server {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode
	sessionStore.Options.MaxAge = 365 * 24 * 60 * 60

	s := &Server{
		config:        cfg,
		store:         st,
		undo:          undo.NewRegistry(cfg.UndoWindow),
		media:         media.Inline{},
		shortener:     links.NewShortener(nil, links.DefaultEndpoints),
		sessionStore:  sessionStore,
		router:        mux.NewRouter(),
		oauthEndpoint: google.Endpoint,
		userInfoURL:   "https://www.googleapis.com/oauth2/v2/userinfo",
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router
	r.HandleFunc("/health", handlers.HandleHealth(s)).Methods(http.MethodGet)

	// Public pages
	r.HandleFunc("/s/{code}", handlers.HandleSnapshotPage(s)).Methods(http.MethodGet)
	r.HandleFunc("/events/{id}/calendar.ics", handlers.HandleCalendarFile(s)).Methods(http.MethodGet)

	// Auth routes
	r.HandleFunc("/auth/google", s.handleGoogleLogin).Methods(http.MethodGet)
	r.HandleFunc("/auth/google/callback", s.handleGoogleCallback).Methods(http.MethodGet)
	r.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodGet, http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()

	// Accounts
	api.HandleFunc("/me", handlers.HandleMe(s)).Methods(http.MethodGet)
	api.HandleFunc("/me/profile", handlers.HandleUpdateProfile(s)).Methods(http.MethodPut)
	api.HandleFunc("/accounts/register", handlers.HandleRegister(s)).Methods(http.MethodPost)
	api.HandleFunc("/accounts/login", handlers.HandleLogin(s)).Methods(http.MethodPost)
	api.HandleFunc("/accounts/logout", handlers.HandleLogout(s)).Methods(http.MethodPost)
	api.HandleFunc("/accounts/convert", handlers.HandleConvert(s)).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}", handlers.HandleProfile(s)).Methods(http.MethodGet)

	// Events
	api.HandleFunc("/events", handlers.HandleListEvents(s)).Methods(http.MethodGet)
	api.HandleFunc("/events", handlers.HandleCreateEvent(s)).Methods(http.MethodPost)
	api.HandleFunc("/events/{id}", handlers.HandleGetEvent(s)).Methods(http.MethodGet)
	api.HandleFunc("/events/{id}", handlers.HandleUpdateEvent(s)).Methods(http.MethodPut)
	api.HandleFunc("/events/{id}", handlers.HandleDeleteEvent(s)).Methods(http.MethodDelete)
	api.HandleFunc("/events/{id}/duplicate", handlers.HandleDuplicateEvent(s)).Methods(http.MethodPost)
	api.HandleFunc("/events/{id}/archive", handlers.HandleToggleArchive(s)).Methods(http.MethodPost)
	api.HandleFunc("/events/{id}/token", handlers.HandleRotateToken(s)).Methods(http.MethodPost)
	api.HandleFunc("/events/{id}/links", handlers.HandleEventLinks(s)).Methods(http.MethodGet)
	api.HandleFunc("/events/{id}/guests.csv", handlers.HandleGuestListCSV(s)).Methods(http.MethodGet)
	api.HandleFunc("/events/{id}/temp-login", handlers.HandleCreateTempLogin(s)).Methods(http.MethodPost)
	api.HandleFunc("/events/{id}/temp-auth", handlers.HandleTempAuth(s)).Methods(http.MethodPost)
	api.HandleFunc("/join", handlers.HandleJoin(s)).Methods(http.MethodPost)

	// Answers and invites
	api.HandleFunc("/events/{id}/rsvp", handlers.HandleRSVPSubmit(s)).Methods(http.MethodPost)
	api.HandleFunc("/events/{id}/waitlist/{user}/promote", handlers.HandlePromote(s)).Methods(http.MethodPost)
	api.HandleFunc("/events/{id}/invites", handlers.HandleSendInvites(s)).Methods(http.MethodPost)
	api.HandleFunc("/invites", handlers.HandlePendingInvites(s)).Methods(http.MethodGet)
	api.HandleFunc("/invites/{id}/accept", handlers.HandleAcceptInvite(s)).Methods(http.MethodPost)
	api.HandleFunc("/invites/{id}/decline", handlers.HandleDeclineInvite(s)).Methods(http.MethodPost)

	// Feed
	api.HandleFunc("/events/{id}/feed", handlers.HandleFeed(s)).Methods(http.MethodGet)
	api.HandleFunc("/events/{id}/posts", handlers.HandleAddPost(s)).Methods(http.MethodPost)
	api.HandleFunc("/events/{id}/polls", handlers.HandleAddPoll(s)).Methods(http.MethodPost)
	api.HandleFunc("/events/{id}/chat", handlers.HandleAddChat(s)).Methods(http.MethodPost)
	api.HandleFunc("/events/{id}/posts/{post}", handlers.HandleDeletePost(s)).Methods(http.MethodDelete)
	api.HandleFunc("/events/{id}/posts/{post}/vote", handlers.HandleVote(s)).Methods(http.MethodPost)
	api.HandleFunc("/events/{id}/posts/{post}/like", handlers.HandleLikePost(s)).Methods(http.MethodPost)
	api.HandleFunc("/events/{id}/posts/{post}/pin", handlers.HandlePinPost(s)).Methods(http.MethodPut)
	api.HandleFunc("/events/{id}/posts/{post}/comments", handlers.HandleAddComment(s)).Methods(http.MethodPost)
	api.HandleFunc("/events/{id}/posts/{post}/comments/{comment}/like", handlers.HandleLikeComment(s)).Methods(http.MethodPost)

	// Friends and notifications
	api.HandleFunc("/friends", handlers.HandleFriends(s)).Methods(http.MethodGet)
	api.HandleFunc("/friends/{id}/request", handlers.HandleFriendStep(s, social.SendRequest)).Methods(http.MethodPost)
	api.HandleFunc("/friends/{id}/accept", handlers.HandleFriendStep(s, social.Accept)).Methods(http.MethodPost)
	api.HandleFunc("/friends/{id}/decline", handlers.HandleFriendStep(s, handlers.DeclineFriend)).Methods(http.MethodPost)
	api.HandleFunc("/friends/{id}/cancel", handlers.HandleFriendStep(s, handlers.CancelFriendRequest)).Methods(http.MethodPost)
	api.HandleFunc("/friends/{id}", handlers.HandleUnfriend(s)).Methods(http.MethodDelete)
	api.HandleFunc("/notifications", handlers.HandleNotifications(s)).Methods(http.MethodGet)
	api.HandleFunc("/notifications", handlers.HandleClearNotifications(s)).Methods(http.MethodDelete)
	api.HandleFunc("/notifications/read", handlers.HandleMarkNotificationsRead(s)).Methods(http.MethodPost)

	// Undo, links and preferences
	api.HandleFunc("/undo/{token}", handlers.HandleUndo(s)).Methods(http.MethodPost)
	api.HandleFunc("/shorten", handlers.HandleShorten(s)).Methods(http.MethodPost)
	api.HandleFunc("/route", handlers.HandleRoute).Methods(http.MethodGet)
	api.HandleFunc("/language", handlers.HandleSetLanguage(s)).Methods(http.MethodPost)
}

// Handler is the router behind the CORS policy.
func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   s.config.Origins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}).Handler(s.router)
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/deskchat/internal/backend"
	"github.com/jeranaias/deskchat/internal/chat"
	"github.com/jeranaias/deskchat/internal/config"
	"github.com/jeranaias/deskchat/internal/model"
	"github.com/jeranaias/deskchat/internal/render"
	"github.com/jeranaias/deskchat/internal/session"
	"github.com/jeranaias/deskchat/internal/util"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 10 * time.Second

// maxFormBytes caps the POST /ask body.
const maxFormBytes = 64 * 1024

//go:embed assets/index.html assets/style.css
var assets embed.FS

var pageTemplate = template.Must(template.ParseFS(assets, "assets/index.html"))

// ============================================================================
// CONFIGURATION
// ============================================================================

// Config configures the web front end.
type Config struct {
	Addr       string
	CookieName string
	SessionTTL time.Duration
	RateLimit  float64 // requests per second per IP on POST /ask
	RateBurst  int
	UI         config.UIConfig

	// BackendTimeout is how long one answer may take. Responses are
	// allowed this long plus writeMargin to be written.
	BackendTimeout time.Duration
}

// writeMargin is added to the backend timeout for the response write deadline.
const writeMargin = 30 * time.Second

// minWriteTimeout is the write deadline when no backend timeout is known.
const minWriteTimeout = 120 * time.Second

// writeTimeout returns the HTTP write deadline for a backend timeout.
func writeTimeout(backendTimeout time.Duration) time.Duration {
	if d := backendTimeout + writeMargin; d > minWriteTimeout {
		return d
	}
	return minWriteTimeout
}

// ConfigFrom extracts the server settings from the application config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Addr:       cfg.Server.Addr,
		CookieName: cfg.Server.CookieName,
		SessionTTL: cfg.Server.SessionTTL(),
		RateLimit:  cfg.Server.RateLimit,
		RateBurst:  cfg.Server.RateBurst,
		UI:         cfg.UI,

		BackendTimeout: cfg.Backend.Timeout(),
	}
}

// ============================================================================
// SERVER
// ============================================================================

// Server serves the chat page. Each browser session gets its own transcript
// and session identifier, tracked with a cookie.
type Server struct {
	cfg      Config
	log      logrus.FieldLogger
	sessions *session.Store
	limiter  *RateLimiter
	router   chi.Router

	// mu guards the settings that change on config reload.
	mu    sync.RWMutex
	asker chat.Asker
	ui    config.UIConfig
}

// New creates a server sending questions through client.
func New(cfg Config, client chat.Asker, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.CookieName == "" {
		cfg.CookieName = config.DefaultCookieName
	}

	s := &Server{
		cfg:     cfg,
		log:     log,
		limiter: NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		asker:   client,
		ui:      cfg.UI,
	}

	storeCfg := session.DefaultConfig()
	if cfg.SessionTTL > 0 {
		storeCfg.TTL = cfg.SessionTTL
	}
	s.sessions = session.NewStore(storeCfg, func(sess *model.Session) *chat.Handler {
		return chat.NewHandlerForSession(sess, askerFunc(s.Ask), log)
	})
	s.sessions.SetExpireCallback(func(id string) {
		log.WithField("session_id", id).Debug("session expired")
	})

	s.setupRoutes()
	return s
}

// askerFunc adapts a function to chat.Asker.
type askerFunc func(ctx context.Context, req backend.AskRequest) (*backend.AskResponse, error)

func (f askerFunc) Ask(ctx context.Context, req backend.AskRequest) (*backend.AskResponse, error) {
	return f(ctx, req)
}

// Ask forwards to the current backend client. Sessions call this rather
// than holding a client so a reload reaches all of them.
func (s *Server) Ask(ctx context.Context, req backend.AskRequest) (*backend.AskResponse, error) {
	s.mu.RLock()
	a := s.asker
	s.mu.RUnlock()
	return a.Ask(ctx, req)
}

// SetBackend replaces the backend client for subsequent requests.
func (s *Server) SetBackend(client chat.Asker) {
	s.mu.Lock()
	s.asker = client
	s.mu.Unlock()
}

// ApplyConfig picks up a reloaded configuration: a new backend client and
// page text. The listen address and session settings need a restart.
func (s *Server) ApplyConfig(cfg *config.Config) {
	client := backend.NewClient(backend.Config{
		Endpoint:  cfg.Backend.URL,
		Timeout:   cfg.Backend.Timeout(),
		UserAgent: cfg.Backend.UserAgent,
		Logger:    s.log,
	})

	s.mu.Lock()
	s.asker = client
	s.ui = cfg.UI
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"endpoint": client.Endpoint(),
		"timeout":  client.Timeout().String(),
	}).Info("configuration reloaded")
}

// Sessions returns the session store.
func (s *Server) Sessions() *session.Store {
	return s.sessions
}

// Handler returns the HTTP handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) uiConfig() config.UIConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ui
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(s.log))
	r.Use(RecoveryMiddleware(s.log))
	r.Use(SecurityHeadersMiddleware())

	static, err := fs.Sub(assets, "assets")
	if err != nil {
		panic(err)
	}

	r.Get("/", s.handleIndex)
	r.With(RateLimitMiddleware(s.limiter, s.log)).Post("/ask", s.handleAsk)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	s.router = r
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	h := s.sessionFor(w, r)
	s.renderPage(w, http.StatusOK, h, "", "")
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	h := s.sessionFor(w, r)
	question := r.PostForm.Get("question")

	// Blank submissions do nothing.
	if chat.Normalize(question) == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if _, err := h.Submit(r.Context(), question); err != nil {
		if errors.Is(err, chat.ErrEmptyQuestion) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		s.log.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"session_id": h.SessionID(),
			"kind":       backend.TypeOf(err).String(),
			"question":   util.TruncateWidth(util.OneLine(question), 80),
		}).Warn("question not answered")
		s.renderPage(w, http.StatusBadGateway, h, render.ErrorText(err), question)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Sessions: s.sessions.Len()})
}

// sessionFor returns the caller's session, starting a new one (and setting
// the cookie) when the cookie is missing, malformed or expired.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) *chat.Handler {
	var id string
	if c, err := r.Cookie(s.cfg.CookieName); err == nil {
		id = c.Value
	}

	h, created := s.sessions.GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     s.cfg.CookieName,
			Value:    h.SessionID(),
			Path:     "/",
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})
		s.log.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"session_id": h.SessionID(),
		}).Debug("session started")
	}
	return h
}

// ============================================================================
// PAGE
// ============================================================================

// pageData feeds assets/index.html.
type pageData struct {
	UI           config.UIConfig
	Messages     []messageView
	Error        string
	Question     string
	SessionShort string
}

type messageView struct {
	Class   string
	Sender  string
	HTML    template.HTML
	Sources []string
}

func (s *Server) renderPage(w http.ResponseWriter, status int, h *chat.Handler, errText, question string) {
	entries := h.Transcript().Entries()
	messages := make([]messageView, 0, len(entries))
	for _, e := range entries {
		messages = append(messages, messageView{
			Class:   e.Sender.String(),
			Sender:  e.Sender.DisplayName(),
			HTML:    render.HTML(e.Text),
			Sources: e.Sources,
		})
	}

	data := pageData{
		UI:           s.uiConfig(),
		Messages:     messages,
		Error:        errText,
		Question:     question,
		SessionShort: util.ShortID(h.SessionID(), 8),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, data); err != nil {
		s.log.WithError(err).Error("render page")
	}
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// within ShutdownTimeout. The session janitor runs for the same lifetime.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout(s.cfg.BackendTimeout),
		IdleTimeout:       120 * time.Second,
	}
	go s.sessions.Start(ctx)
	go s.cleanupLimiter(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.cfg.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("server stopped")
	return nil
}

func (s *Server) cleanupLimiter(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.limiter.Cleanup()
		}
	}
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Package stub is an in-process fake of the BuildMart negotiation backend.
//
// It serves the same wire contract as the real backend (login, start, chat,
// start-new) with a deterministic scripted negotiator instead of the dialogue
// graph, so the client can be developed and tested end to end without network
// access to BuildMart.
package stub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/buildmart/haggle/internal/domain"
	"github.com/buildmart/haggle/internal/logging"
)

// demoAccount is a fixed login the stub accepts.
type demoAccount struct {
	password string
	builder  string
}

var demoAccounts = map[string]demoAccount{
	"pat@acmebuilders.test": {password: "hunter2", builder: "Acme Builders"},
	"sam@skylinehomes.test": {password: "letmein", builder: "Skyline Homes"},
	"demo@buildmart.test":   {password: "demo", builder: "Demo Builder"},
}

// session is one authenticated builder's state.
type session struct {
	builder string
	conv    *conversation
}

// Server is the stub negotiation backend.
type Server struct {
	log   *logging.Logger
	watch *watchHub

	mu       sync.Mutex
	sessions map[string]*session

	httpServer *http.Server
}

// New creates a stub server with no sessions.
func New(log *logging.Logger) *Server {
	return &Server{
		log:      log.Sub("stub"),
		watch:    newWatchHub(log.Sub("watch")),
		sessions: make(map[string]*session),
	}
}

// Router returns the stub's HTTP handler. Exposed separately from Start so
// tests can mount it on httptest.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(api chi.Router) {
		api.Post("/login", s.handleLogin)
		api.Post("/chat/start", s.handleStart)
		api.Post("/chat", s.handleChat)
		api.Post("/chat/start-new", s.handleStartNew)
		api.Get("/debug/watch", s.handleWatch)
	})

	return r
}

// Start listens on addr and serves until the context is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(l net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.log.Info().Str("addr", ln.Addr().String()).Int("accounts", len(demoAccounts)).Msg("stub backend ready")

	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down stub backend")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.watch.CloseAll()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// chatPayload is the response body shared by the conversation routes.
type chatPayload struct {
	Chat              []domain.Turn `json:"chat"`
	ConversationEnded bool          `json:"conversation_ended"`
	Error             string        `json:"error,omitempty"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, ok := demoAccounts[strings.ToLower(strings.TrimSpace(payload.Email))]
	if !ok || account.password != payload.Password {
		// Rejections ride the application channel, not an HTTP status
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"error":   "Invalid email or password",
		})
		return
	}

	token := uuid.New().String()
	s.mu.Lock()
	s.sessions[token] = &session{builder: account.builder}
	s.mu.Unlock()

	s.log.Info().Str("builder", account.builder).Msg("builder logged in")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"session_token": token,
		"builder_name":  account.builder,
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionToken string `json:"session_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[payload.SessionToken]
	if !ok {
		respondError(w, http.StatusUnauthorized, "invalid session token")
		return
	}

	// Start resumes an existing conversation; a fresh one begins empty
	if sess.conv == nil {
		sess.conv = newConversation()
		s.log.Debug().Str("builder", sess.builder).Msg("conversation created")
	}

	respondJSON(w, http.StatusOK, chatPayload{
		Chat:              sess.conv.turns,
		ConversationEnded: sess.conv.ended,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message      string `json:"message"`
		SessionToken string `json:"session_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[payload.SessionToken]
	if !ok {
		respondError(w, http.StatusUnauthorized, "invalid session token")
		return
	}
	if sess.conv == nil {
		sess.conv = newConversation()
	}

	message := strings.TrimSpace(payload.Message)
	switch {
	case message == "":
		respondJSON(w, http.StatusOK, chatPayload{Chat: []domain.Turn{}, Error: "empty message"})
		return
	case sess.conv.ended:
		respondJSON(w, http.StatusOK, chatPayload{Chat: []domain.Turn{}, Error: "conversation has ended, start a new one"})
		return
	case strings.HasPrefix(message, "!error"):
		// Dev directive: force the application-error channel
		msg := strings.TrimSpace(strings.TrimPrefix(message, "!error"))
		if msg == "" {
			msg = "forced error"
		}
		respondJSON(w, http.StatusOK, chatPayload{Chat: []domain.Turn{}, Error: msg})
		return
	}

	negotiate(sess.conv, message)

	n := len(sess.conv.turns)
	s.watch.Broadcast(watchEvent{Builder: sess.builder, Turn: sess.conv.turns[n-2], Ended: false})
	s.watch.Broadcast(watchEvent{Builder: sess.builder, Turn: sess.conv.turns[n-1], Ended: sess.conv.ended})

	s.log.Debug().
		Str("builder", sess.builder).
		Int("turns", n).
		Bool("ended", sess.conv.ended).
		Msg("turn exchanged")

	respondJSON(w, http.StatusOK, chatPayload{
		Chat:              sess.conv.turns,
		ConversationEnded: sess.conv.ended,
	})
}

func (s *Server) handleStartNew(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionToken string `json:"session_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[payload.SessionToken]
	if !ok {
		respondError(w, http.StatusUnauthorized, "invalid session token")
		return
	}

	sess.conv = nil
	s.log.Debug().Str("builder", sess.builder).Msg("conversation discarded")

	respondJSON(w, http.StatusOK, chatPayload{Chat: []domain.Turn{}, ConversationEnded: false})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"bookstore/internal/util"
	"bookstore/pkg/domain"
	"bookstore/services/bookstore/internal/app"
)

const maxBodyBytes = 1 << 20

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	TrustedProxies *util.TrustedProxies
}

// Server exposes the auth and book endpoints over HTTP.
type Server struct {
	app     *app.App
	trusted *util.TrustedProxies
	mux     *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("server: app is required")
	}
	s := &Server{
		app:     cfg.App,
		trusted: cfg.TrustedProxies,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("bookstore", s.trusted, util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc("/api/auth/register", s.handleRegister)
	s.mux.HandleFunc("/api/auth/login", s.handleLogin)

	// books
	s.mux.Handle("/api/book", s.withIdentity(s.handleBooks))
	s.mux.Handle("/api/book/", s.withIdentity(s.handleBookByID))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req authRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ok, err := s.app.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "Username already exists.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Registration successful"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req authRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token, ok, err := s.app.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

type identityHandler func(http.ResponseWriter, *http.Request, string)

// withIdentity resolves the bearer token to a username before next runs.
func (s *Server) withIdentity(next identityHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		username, ok, err := s.app.Authenticate(token)
		if err != nil || !ok {
			util.LoggerFromContext(r.Context()).Debug("token rejected", "err", err)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, username)
	})
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request, identity string) {
	switch r.Method {
	case http.MethodGet:
		books, err := s.app.GetBooks(r.Context(), identity)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, books)
	case http.MethodPost:
		var fields domain.BookFields
		if err := decodeJSON(r, &fields); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		book, err := s.app.AddBook(r.Context(), identity, fields)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		w.Header().Set("Location", "/api/book/"+strconv.FormatInt(book.ID, 10))
		writeJSON(w, http.StatusCreated, book)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// /api/book/{id}
func (s *Server) handleBookByID(w http.ResponseWriter, r *http.Request, identity string) {
	raw := strings.TrimPrefix(r.URL.Path, "/api/book/")
	if raw == "" {
		s.handleBooks(w, r, identity)
		return
	}
	if strings.Contains(raw, "/") {
		notFound(w, "not found")
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		book, ok, err := s.app.GetBookByID(r.Context(), id)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		if !ok {
			notFound(w, "book not found")
			return
		}
		writeJSON(w, http.StatusOK, book)
	case http.MethodPut:
		var fields domain.BookFields
		if err := decodeJSON(r, &fields); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		book, err := s.app.UpdateBook(r.Context(), id, fields, identity)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, book)
	case http.MethodDelete:
		deleted, err := s.app.DeleteBook(r.Context(), id, identity)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		if !deleted {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Book deleted"})
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, app.ErrUsernameAndPasswordRequired),
		errors.Is(err, app.ErrIdentityRequired),
		errors.Is(err, app.ErrInvalidPrice):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	default:
		util.LoggerFromContext(r.Context()).Error("request failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	return dec.Decode(dst)
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

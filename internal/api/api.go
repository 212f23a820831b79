package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/joescharf/mossy/internal/models"
	"github.com/joescharf/mossy/internal/streaks"
	"github.com/joescharf/mossy/internal/tracker"
)

// Server provides the REST API handlers.
type Server struct {
	svc *tracker.Service
}

// NewServer creates a new API server over the tracker service.
func NewServer(svc *tracker.Service) *Server {
	return &Server{svc: svc}
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/users", s.listUsers)
	mux.HandleFunc("POST /api/v1/users", s.createUser)
	mux.HandleFunc("GET /api/v1/users/{id}", s.getUser)

	mux.HandleFunc("GET /api/v1/users/{id}/catalog", s.getCatalog)
	mux.HandleFunc("PUT /api/v1/users/{id}/catalog", s.putCatalog)

	mux.HandleFunc("GET /api/v1/users/{id}/days/{day}", s.getDay)
	mux.HandleFunc("PUT /api/v1/users/{id}/days/{day}/completions", s.putCompletions)

	mux.HandleFunc("GET /api/v1/users/{id}/streaks", s.getStreaks)
	mux.HandleFunc("GET /api/v1/users/{id}/history", s.getHistory)

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps "not found" errors to 404 and everything else to 500.
func writeStoreError(w http.ResponseWriter, err error) {
	if strings.Contains(err.Error(), "not found") {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	slog.Warn("api request failed", "error", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

// user resolves the {id} path value by id or name, writing 404 when absent.
func (s *Server) user(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	u, err := s.svc.ResolveUser(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return nil, false
	}
	return u, true
}

// queryInt reads an optional positive integer query parameter.
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + key + ": " + raw)
	}
	return n, nil
}

// --- Users ---

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.Store().ListUsers(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	u, err := s.svc.CreateUser(r.Context(), body.Name)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			writeError(w, http.StatusConflict, "user already exists: "+body.Name)
			return
		}
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	u, ok := s.user(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// --- Catalog ---

// getCatalog returns the catalog in canonical form, whatever shape it was stored in.
func (s *Server) getCatalog(w http.ResponseWriter, r *http.Request) {
	u, ok := s.user(w, r)
	if !ok {
		return
	}
	c, err := s.svc.Catalog(r.Context(), u.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	doc, err := c.Document()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// putCatalog merges the top-level keys of the body into the stored catalog.
func (s *Server) putCatalog(w http.ResponseWriter, r *http.Request) {
	u, ok := s.user(w, r)
	if !ok {
		return
	}
	var patch models.Document
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	merged, err := s.svc.Store().SaveCatalog(r.Context(), u.ID, patch)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	doc, err := merged.Catalog().Document()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// --- Days ---

func (s *Server) getDay(w http.ResponseWriter, r *http.Request) {
	u, ok := s.user(w, r)
	if !ok {
		return
	}
	day := r.PathValue("day")
	if _, err := s.svc.ResolveDay(day); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	view, err := s.svc.Day(r.Context(), u.ID, day)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) putCompletions(w http.ResponseWriter, r *http.Request) {
	u, ok := s.user(w, r)
	if !ok {
		return
	}
	day := r.PathValue("day")
	if _, err := s.svc.ResolveDay(day); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var comps models.DayCompletions
	if err := json.NewDecoder(r.Body).Decode(&comps); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	view, err := s.svc.SetCompletions(r.Context(), u.ID, day, comps)
	if err != nil {
		if errors.Is(err, tracker.ErrUnknownTask) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// --- Streaks & history ---

func (s *Server) getStreaks(w http.ResponseWriter, r *http.Request) {
	u, ok := s.user(w, r)
	if !ok {
		return
	}
	window, err := queryInt(r, "window")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	threshold, err := queryInt(r, "threshold")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.svc.Streaks(r.Context(), u.ID, streaks.Options{WindowDays: window, Threshold: threshold})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	u, ok := s.user(w, r)
	if !ok {
		return
	}
	days, err := queryInt(r, "days")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	history, err := s.svc.History(r.Context(), u.ID, days)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

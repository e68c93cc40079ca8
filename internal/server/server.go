package server

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"arcade/internal/catalog"
	"arcade/internal/leaderboard"
	"arcade/internal/relay"
)

const (
	defaultTopN = 10
	maxTopN     = 100
)

// Server is the HTTP server: static site, catalog and leaderboard API,
// and the websocket relay endpoint.
type Server struct {
	mux        *http.ServeMux
	catalog    *catalog.Catalog
	scores     *leaderboard.Store
	dispatcher *relay.Dispatcher
	limiter    *limiter
	logger     *log.Logger
	webFS      fs.FS
}

// New creates a server with all routes. webFS should be the "web"
// subdirectory of the embedded filesystem.
func New(cat *catalog.Catalog, scores *leaderboard.Store, dispatcher *relay.Dispatcher,
	logger *log.Logger, webFS fs.FS, window time.Duration, maxRequests int) *Server {
	s := &Server{
		mux:        http.NewServeMux(),
		catalog:    cat,
		scores:     scores,
		dispatcher: dispatcher,
		limiter:    newLimiter(window, maxRequests),
		logger:     logger,
		webFS:      webFS,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	// API routes
	s.mux.HandleFunc("GET /api/games", s.handleListGames)
	s.mux.HandleFunc("GET /api/leaderboard/{game}", s.handleGetLeaderboard)
	s.mux.HandleFunc("POST /api/leaderboard/{game}", s.handleSubmitScore)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	// Match relay
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)

	// Static files
	s.mux.Handle("/", http.FileServer(http.FS(s.webFS)))
}

// ServeHTTP applies the fixed-window limiter to the HTTP surface only;
// relay traffic rides one upgraded connection and is never counted.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/ws" && !s.limiter.allow(clientIP(r)) {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.List())
}

func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	game := r.PathValue("game")
	if _, ok := s.catalog.Get(game); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown game"})
		return
	}
	n := defaultTopN
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		n = min(parsed, maxTopN)
	}
	entries, err := s.scores.Top(game, n)
	if err != nil {
		s.logger.Error("leaderboard query", "game", game, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "leaderboard unavailable"})
		return
	}
	if entries == nil {
		entries = []leaderboard.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type submitScoreRequest struct {
	Player string `json:"player"`
	Score  int    `json:"score"`
}

func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	game := r.PathValue("game")
	if _, ok := s.catalog.Get(game); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown game"})
		return
	}
	var req submitScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.Player = strings.TrimSpace(req.Player)
	if req.Player == "" || req.Score < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "player and non-negative score required"})
		return
	}
	if err := s.scores.Submit(game, req.Player, req.Score); err != nil {
		s.logger.Error("submit score", "game", game, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not record score"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

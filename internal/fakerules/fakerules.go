// Package fakerules is an in-process stand-in for the rule server, used by
// tests. It serves the same routes, counts calls per path, and lets a test
// script the /move and /ai_move replies.
package fakerules

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/amparooliver/frontend-Mastergoal/pkg/types"
)

type MoveFunc func(req types.MoveRequest) (status int, body any)
type AIFunc func() (status int, body any)

type Server struct {
	*httptest.Server

	mu     sync.Mutex
	state  types.GameState
	moves  []types.LegalMove
	onMove MoveFunc
	onAI   AIFunc
	calls  map[string]int
	moveRx []types.MoveRequest
	start  []types.StartGameRequest
	gate   map[string]chan struct{}
}

func New(initial types.GameState, moves []types.LegalMove) *Server {
	s := &Server{
		state: initial,
		moves: moves,
		calls: make(map[string]int),
		gate:  make(map[string]chan struct{}),
	}

	r := chi.NewRouter()
	r.Use(s.count)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/state", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.State())
	})
	r.Get("/legal_moves", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		moves := append([]types.LegalMove{}, s.moves...)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, moves)
	})
	r.Post("/start_game", func(w http.ResponseWriter, r *http.Request) {
		var req types.StartGameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.start = append(s.start, req)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, types.StateEnvelope{State: s.State()})
	})
	r.Post("/restart", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.StateEnvelope{State: s.State()})
	})
	r.Post("/move", func(w http.ResponseWriter, r *http.Request) {
		var req types.MoveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.moveRx = append(s.moveRx, req)
		fn := s.onMove
		s.mu.Unlock()
		if fn == nil {
			fn = s.defaultMove
		}
		status, body := fn(req)
		writeJSON(w, status, body)
	})
	r.Post("/ai_move", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		fn := s.onAI
		s.mu.Unlock()
		if fn == nil {
			fn = s.defaultAI
		}
		status, body := fn()
		writeJSON(w, status, body)
	})

	s.Server = httptest.NewServer(r)
	return s
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.URL.Path]++
		g := s.gate[r.URL.Path]
		s.mu.Unlock()
		if g != nil {
			<-g
		}
		next.ServeHTTP(w, r)
	})
}

// Hold makes requests to path block until the returned func is called.
func (s *Server) Hold(path string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.gate[path] = ch
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.gate, path)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *Server) State() types.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Server) SetState(st types.GameState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Server) SetMoves(moves []types.LegalMove) {
	s.mu.Lock()
	s.moves = moves
	s.mu.Unlock()
}

func (s *Server) OnMove(fn MoveFunc) {
	s.mu.Lock()
	s.onMove = fn
	s.mu.Unlock()
}

func (s *Server) OnAIMove(fn AIFunc) {
	s.mu.Lock()
	s.onAI = fn
	s.mu.Unlock()
}

func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

func (s *Server) ResetCalls() {
	s.mu.Lock()
	clear(s.calls)
	s.mu.Unlock()
}

func (s *Server) MoveRequests() []types.MoveRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.MoveRequest{}, s.moveRx...)
}

func (s *Server) StartRequests() []types.StartGameRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.StartGameRequest{}, s.start...)
}

// defaultMove accepts everything and hands the turn over.
func (s *Server) defaultMove(types.MoveRequest) (int, any) {
	s.mu.Lock()
	s.state.CurrentTeam = s.state.CurrentTeam.Other()
	st := s.state
	s.mu.Unlock()
	return http.StatusOK, types.MoveResponse{Success: true, State: &st}
}

func (s *Server) defaultAI() (int, any) {
	return s.defaultMove(types.MoveRequest{})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/amparooliver/frontend-Mastergoal/internal/hub"
	"github.com/amparooliver/frontend-Mastergoal/internal/session"
	"github.com/amparooliver/frontend-Mastergoal/pkg/types"
)

// How long a handler waits on a session before giving up.
const sessionTimeout = 3 * time.Second

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// CreateGame starts a new session. The body is a SessionConfig; omitted
// fields keep their defaults and an empty body means a default game.
func CreateGame(h *hub.Hub, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := types.DefaultSessionConfig()
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}

		for {
			code, err := GenerateCode()
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to generate code")
				return
			}
			reply := make(chan hub.Created, 1)
			h.Inbox() <- hub.CreateSession{Code: code, Config: cfg, Reply: reply}
			res := <-reply
			switch {
			case errors.Is(res.Err, hub.ErrCodeTaken):
				log.Debugw("collision on code, regenerating", "code", code)
				continue
			case errors.Is(res.Err, types.ErrInvalidConfig):
				writeError(w, http.StatusBadRequest, res.Err.Error())
				return
			case res.Err != nil:
				writeError(w, http.StatusInternalServerError, "failed to create game")
				return
			}

			writeJSON(w, http.StatusCreated, struct {
				Code string `json:"code"`
			}{Code: code})
			return
		}
	}
}

// ListGames answers with the codes of the running games, sorted.
func ListGames(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan []string, 1)
		h.Inbox() <- hub.ListSessions{Reply: reply}
		codes := <-reply
		slices.Sort(codes)
		writeJSON(w, http.StatusOK, struct {
			Games []string `json:"games"`
		}{Games: codes})
	}
}

func GetGame(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := lookup(h, w, r)
		if s == nil {
			return
		}
		reply := make(chan session.View, 1)
		if !send(s, session.GetState{Reply: reply}) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		select {
		case v := <-reply:
			writeJSON(w, http.StatusOK, v)
		case <-time.After(sessionTimeout):
			writeError(w, http.StatusServiceUnavailable, "game busy")
		}
	}
}

func RefreshGame(h *hub.Hub) http.HandlerFunc {
	return forward(h, session.Refresh{})
}

func RestartGame(h *hub.Hub) http.HandlerFunc {
	return forward(h, session.Restart{})
}

func DeleteGame(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if lookup(h, w, r) == nil {
			return
		}
		h.Inbox() <- hub.RemoveSession{Code: chi.URLParam(r, "code")}
		w.WriteHeader(http.StatusNoContent)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// forward hands msg to the session and answers 202 without waiting.
func forward(h *hub.Hub, msg session.Msg) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := lookup(h, w, r)
		if s == nil {
			return
		}
		if !send(s, msg) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func lookup(h *hub.Hub, w http.ResponseWriter, r *http.Request) *session.Session {
	reply := make(chan *session.Session, 1)
	h.Inbox() <- hub.GetSession{Code: chi.URLParam(r, "code"), Reply: reply}
	s := <-reply
	if s == nil {
		writeError(w, http.StatusNotFound, "game not found")
	}
	return s
}

func send(s *session.Session, msg session.Msg) bool {
	select {
	case s.Inbox() <- msg:
		return true
	case <-s.Done():
		return false
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

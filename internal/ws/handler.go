package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/amparooliver/frontend-Mastergoal/internal/hub"
	"github.com/amparooliver/frontend-Mastergoal/internal/session"
	"github.com/amparooliver/frontend-Mastergoal/internal/types"
)

// Options loosens the accept checks, for a renderer served from another origin.
type Options struct {
	OriginPatterns []string
	ReadTimeout    time.Duration
}

func Handler(h *hub.Hub, log *zap.SugaredLogger, opts Options) http.HandlerFunc {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 5 * time.Minute
	}
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		reply := make(chan *session.Session, 1)
		h.Inbox() <- hub.GetSession{Code: code, Reply: reply}
		s := <-reply
		if s == nil {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: opts.OriginPatterns})
		if err != nil {
			log.Debugw("websocket accept failed", "code", code, "error", err)
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan session.Snapshot, 8)
		clientID := uuid.NewString()
		clog := log.With("code", code, "client", clientID)

		s.Inbox() <- session.Join{ClientID: clientID, Outbox: out}
		defer func() {
			select {
			case s.Inbox() <- session.Leave{ClientID: clientID}:
			case <-s.Done():
			}
		}()
		clog.Infow("renderer connected")

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for snap := range out {
				msg := types.ServerMessage{Type: "StateSnapshot", Version: snap.Version, Snapshot: &snap}
				ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				err := wsjson.Write(ctx, conn, msg)
				cancel()
				if err != nil {
					clog.Debugw("snapshot write failed", "error", err)
					return
				}
			}
			// Outbox closed: the session dropped us or stopped.
			conn.Close(websocket.StatusGoingAway, "session closed")
		}()

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), opts.ReadTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					clog.Debugw("websocket read ended", "error", err)
				}
				clog.Infow("renderer disconnected")
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				sendError(r.Context(), conn, "bad json")
				continue
			}

			msg, ok := toSessionMsg(cm)
			if !ok {
				sendError(r.Context(), conn, "unknown type")
				continue
			}

			select {
			case s.Inbox() <- msg:
			case <-s.Done():
				return
			}
		}
	}
}

func sendError(ctx context.Context, conn *websocket.Conn, text string) {
	_ = wsjson.Write(ctx, conn, types.ServerMessage{Type: "Error", Error: text})
}

func toSessionMsg(m types.ClientMessage) (session.Msg, bool) {
	switch m.Type {
	case "CellClicked":
		if m.Row == nil || m.Col == nil {
			return nil, false
		}
		return session.CellClicked{Row: *m.Row, Col: *m.Col}, true
	case "Refresh":
		return session.Refresh{}, true
	case "Restart":
		return session.Restart{}, true
	default:
		return nil, false
	}
}

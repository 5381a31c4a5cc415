package hub

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/amparooliver/frontend-Mastergoal/internal/session"
	"github.com/amparooliver/frontend-Mastergoal/pkg/types"
)

var ErrCodeTaken = errors.New("game code already in use")

// Factory builds a session for a new game. It must not block on the network;
// NewSession only validates and then syncs in the background.
type Factory func(ctx context.Context, cfg types.SessionConfig) (*session.Session, error)

type HubMsg interface{ isHubMsg() }

type Created struct {
	Session *session.Session
	Err     error
}

type CreateSession struct {
	Code   string
	Config types.SessionConfig
	Reply  chan Created
}

type GetSession struct {
	Code  string
	Reply chan *session.Session
}

// ListSessions replies with the codes of every live session.
type ListSessions struct {
	Reply chan []string
}

type RemoveSession struct {
	Code string
}

type ShutdownHub struct{}

func (CreateSession) isHubMsg() {}
func (GetSession) isHubMsg()    {}
func (ListSessions) isHubMsg()  {}
func (RemoveSession) isHubMsg() {}
func (ShutdownHub) isHubMsg()   {}

type Hub struct {
	inbox    chan HubMsg
	sessions map[string]*session.Session
	factory  Factory
	log      *zap.SugaredLogger
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewHub(parent context.Context, factory Factory, log *zap.SugaredLogger) *Hub {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		sessions: make(map[string]*session.Session),
		factory:  factory,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateSession:
				if h.live(msg.Code) != nil {
					msg.Reply <- Created{Err: ErrCodeTaken}
					break
				}
				s, err := h.factory(h.ctx, msg.Config)
				if err != nil {
					h.log.Warnw("session not created", "code", msg.Code, "error", err)
					msg.Reply <- Created{Err: err}
					break
				}
				h.sessions[msg.Code] = s
				h.log.Infow("session created", "code", msg.Code, "mode", msg.Config.Mode)
				msg.Reply <- Created{Session: s}

			case GetSession:
				msg.Reply <- h.live(msg.Code) // may be nil

			case ListSessions:
				codes := make([]string, 0, len(h.sessions))
				for code := range h.sessions {
					if h.live(code) != nil {
						codes = append(codes, code)
					}
				}
				msg.Reply <- codes

			case RemoveSession:
				if s := h.sessions[msg.Code]; s != nil {
					stop(s)
					delete(h.sessions, msg.Code)
					h.log.Infow("session removed", "code", msg.Code)
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

// live returns the session for code, forgetting it if it already stopped.
func (h *Hub) live(code string) *session.Session {
	s := h.sessions[code]
	if s == nil {
		return nil
	}
	select {
	case <-s.Done():
		delete(h.sessions, code)
		return nil
	default:
		return s
	}
}

func (h *Hub) shutdown() {
	for code, s := range h.sessions {
		stop(s)
		delete(h.sessions, code)
	}
	h.cancel()
}

func stop(s *session.Session) {
	select {
	case s.Inbox() <- session.Shutdown{}:
	case <-s.Done():
	}
}

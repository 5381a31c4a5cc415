// Package session is the client-side game controller. One goroutine owns the
// cached authoritative state, the legal-move index, the local selection and
// the turn clock; requests to the rule server run on their own goroutines and
// post their results back into the same inbox, so nothing here needs a lock.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/amparooliver/frontend-Mastergoal/internal/board"
	"github.com/amparooliver/frontend-Mastergoal/internal/syncclient"
	"github.com/amparooliver/frontend-Mastergoal/internal/turnclock"
	"github.com/amparooliver/frontend-Mastergoal/pkg/types"
)

const noticeOffline = "could not reach the game server"

// Remote is the slice of the rule server the session drives.
type Remote interface {
	StartGame(ctx context.Context, req types.StartGameRequest) (syncclient.StateReply, error)
	Restart(ctx context.Context) (syncclient.StateReply, error)
	Refresh(ctx context.Context) (syncclient.RefreshReply, error)
	SubmitMove(ctx context.Context, req types.MoveRequest) (syncclient.MoveReply, error)
	RequestAIMove(ctx context.Context) (syncclient.MoveReply, error)
}

type Option func(*Session)

func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Session) { s.log = l }
}

func WithClock(c clock.Clock) Option {
	return func(s *Session) { s.clk = c }
}

type Session struct {
	inbox  chan Msg
	ctx    context.Context
	cancel context.CancelFunc
	cfg    types.SessionConfig
	remote Remote
	log    *zap.SugaredLogger
	clk    clock.Clock
	ticker *clock.Ticker

	state   *types.GameState
	index   *board.LegalIndex
	sel     board.Selection
	turn    *turnclock.TurnClock
	lastSeq uint64
	gen     int
	ready   bool
	version int

	submitting bool
	aiArmed    bool
	aiInFlight bool
	gameOver   bool
	winner     string
	notice     string

	clients map[string]chan Snapshot
}

// NewSession validates cfg, starts the loop and kicks off the first sync:
// a /start_game, or just a refresh when cfg.Resume is set.
func NewSession(parent context.Context, cfg types.SessionConfig, remote Remote, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(parent)

	s := &Session{
		inbox:   make(chan Msg, 64),
		ctx:     ctx,
		cancel:  cancel,
		cfg:     cfg,
		remote:  remote,
		log:     zap.NewNop().Sugar(),
		clk:     clock.New(),
		index:   board.NewLegalIndex(nil),
		sel:     board.NoSelection,
		clients: make(map[string]chan Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.turn = turnclock.New(s.clk, cfg.TimerEnabled)

	if cfg.TimerEnabled {
		// Created here so a mock clock sees the ticker before any Add.
		s.ticker = s.clk.Ticker(time.Second)
		go s.runTicker()
	}
	go s.loop()

	if cfg.Resume {
		s.log.Infow("resuming game", "mode", cfg.Mode)
		s.refresh(reasonInitial)
	} else {
		s.log.Infow("starting game", "mode", cfg.Mode, "level", cfg.Level, "timer", cfg.TimerEnabled)
		req := cfg.StartRequest()
		s.async(func(ctx context.Context) Msg {
			reply, err := s.remote.StartGame(ctx, req)
			return started{reply: reply, err: err}
		})
	}
	return s, nil
}

// Expose the inbox so the transport layers can send messages.
func (s *Session) Inbox() chan<- Msg { return s.inbox }

func (s *Session) Done() <-chan struct{} { return s.ctx.Done() }

func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Join:
				s.clients[msg.ClientID] = msg.Outbox
				select {
				case msg.Outbox <- s.snapshot():
				default:
				}

			case Leave:
				delete(s.clients, msg.ClientID)

			case CellClicked:
				s.click(board.Cell{Row: msg.Row, Col: msg.Col})

			case Refresh:
				s.aiArmed = true
				s.refresh(reasonManual)

			case Restart:
				s.log.Infow("restarting game")
				s.async(func(ctx context.Context) Msg {
					reply, err := s.remote.Restart(ctx)
					return restarted{reply: reply, err: err}
				})

			case GetState:
				msg.Reply <- View{Snapshot: s.snapshot(), NumClients: len(s.clients)}

			case Shutdown:
				s.shutdown()
				return

			case started:
				s.onStarted(msg)
			case refreshed:
				s.onRefreshed(msg)
			case moved:
				s.onMoved(msg)
			case aiMoved:
				s.onAIMoved(msg)
			case restarted:
				s.onRestarted(msg)
			case tick:
				s.onTick()
			}
		}
	}
}

func (s *Session) shutdown() {
	for id, ch := range s.clients {
		close(ch)
		delete(s.clients, id)
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	s.cancel()
}

// async runs fn off the loop and feeds its result back in.
func (s *Session) async(fn func(ctx context.Context) Msg) {
	go func() {
		m := fn(s.ctx)
		select {
		case s.inbox <- m:
		case <-s.ctx.Done():
		}
	}()
}

func (s *Session) runTicker() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.ticker.C:
			select {
			case s.inbox <- tick{}:
			case <-s.ctx.Done():
				return
			}
		}
	}
}

func (s *Session) acting() types.Team {
	if s.state == nil {
		return ""
	}
	return s.cfg.ActingTeam(s.state.CurrentTeam)
}

func (s *Session) click(at board.Cell) {
	prev := s.sel
	sel, move, err := board.Click(s.sel, board.ClickContext{
		State:    s.state,
		Index:    s.index,
		Acting:   s.acting(),
		Busy:     s.submitting,
		GameOver: s.gameOver,
	}, at)
	s.sel = sel
	if err != nil {
		s.log.Debugw("click ignored", "row", at.Row, "col", at.Col, "reason", err)
	}
	if move != nil {
		s.submit(*move)
	}
	if move != nil || s.sel != prev {
		s.publish()
	}
}

func (s *Session) submit(move types.LegalMove) {
	req := types.MoveRequest{Type: move.Type, From: move.From, To: move.To}
	s.submitting = true
	s.notice = ""
	s.log.Infow("submitting move", "type", req.Type, "from", req.From, "to", req.To)
	gen := s.gen
	s.async(func(ctx context.Context) Msg {
		reply, err := s.remote.SubmitMove(ctx, req)
		return moved{gen: gen, req: req, reply: reply, err: err}
	})
}

func (s *Session) refresh(reason refreshReason) {
	s.async(func(ctx context.Context) Msg {
		reply, err := s.remote.Refresh(ctx)
		return refreshed{reason: reason, reply: reply, err: err}
	})
}

// apply installs an authoritative state unless a newer one already landed.
// fresh marks the first state of a game, where the score may legitimately
// drop back to zero.
func (s *Session) apply(seq uint64, st types.GameState, fresh bool) bool {
	if seq <= s.lastSeq {
		s.log.Debugw("dropping stale reply", "seq", seq, "last", s.lastSeq)
		return false
	}
	s.lastSeq = seq

	prev := s.state
	if fresh {
		prev = nil
	}
	if goalsWentBack(prev, &st) {
		s.log.Warnw("goal count went backwards",
			"left_before", prev.LeftGoals, "left_after", st.LeftGoals,
			"right_before", prev.RightGoals, "right_after", st.RightGoals)
	}
	if turnChanged(prev, &st) {
		s.log.Debugw("turn changed", "team", st.CurrentTeam)
		if s.cfg.IsAITeam(st.CurrentTeam) && !s.gameOver {
			s.aiArmed = true
		}
	}

	s.state = &st
	s.sel = board.NoSelection
	if !s.gameOver {
		d := st.TimerDuration
		if d <= 0 {
			d = float64(s.cfg.TimerDuration)
		}
		s.turn.Sync(st.TurnStartTime, d)
	}
	return true
}

func (s *Session) onStarted(m started) {
	if m.err != nil {
		s.log.Errorw("start game failed", "error", m.err)
		s.notice = fmt.Sprintf("could not start game: %v", m.err)
		s.publish()
		return
	}
	s.apply(m.reply.Seq, m.reply.State, true)
	s.refresh(reasonInitial)
	s.publish()
}

func (s *Session) onRefreshed(m refreshed) {
	if m.err != nil {
		s.log.Warnw("refresh failed", "reason", m.reason, "error", m.err)
		s.notice = noticeOffline
		s.publish()
		return
	}
	if s.notice == noticeOffline {
		s.notice = ""
	}
	if s.apply(m.reply.Seq, m.reply.State, false) {
		s.index = board.NewLegalIndex(m.reply.Moves)
		s.ready = true
		s.log.Debugw("refreshed", "reason", m.reason, "team", m.reply.State.CurrentTeam, "legal_moves", s.index.Len())
	}
	s.maybeRequestAI()
	s.publish()
}

func (s *Session) onMoved(m moved) {
	s.submitting = false
	s.sel = board.NoSelection

	if m.gen != s.gen {
		s.log.Debugw("dropping move reply from before restart", "from", m.req.From, "to", m.req.To)
		s.publish()
		return
	}
	if m.err != nil {
		var rej *syncclient.RejectedError
		switch {
		case errors.Is(m.err, syncclient.ErrTimerExpired):
			s.log.Infow("move rejected, turn time ran out", "from", m.req.From, "to", m.req.To)
			s.notice = "time ran out for this turn"
		case errors.As(m.err, &rej):
			s.log.Warnw("move rejected", "from", m.req.From, "to", m.req.To, "error", rej)
			s.notice = "move rejected: " + rej.Message
		default:
			s.log.Warnw("move failed", "from", m.req.From, "to", m.req.To, "error", m.err)
			s.notice = noticeOffline
		}
		s.refresh(reasonRejected)
		s.publish()
		return
	}

	resp := m.reply.Response
	applied := s.applyMove(m.reply)
	// A stale state does not make the verdict stale: the game is over.
	if resp.GameOver {
		s.finish(resp.Winner)
		s.publish()
		return
	}
	if resp.AITurn && applied && !s.gameOver && s.cfg.Mode == types.ModeSingle {
		s.aiArmed = true
	}
	s.refresh(reasonMove)
	s.publish()
}

func (s *Session) maybeRequestAI() {
	if !wantsOpponentMove(s.cfg, s.state, s.aiArmed, s.aiInFlight, s.gameOver) {
		// Only disarm once a confirmed state says the AI is not on turn.
		if s.state != nil && !s.cfg.IsAITeam(s.state.CurrentTeam) {
			s.aiArmed = false
		}
		return
	}
	s.aiArmed = false
	s.aiInFlight = true
	s.log.Infow("requesting opponent move", "team", s.state.CurrentTeam)
	gen := s.gen
	s.async(func(ctx context.Context) Msg {
		reply, err := s.remote.RequestAIMove(ctx)
		return aiMoved{gen: gen, reply: reply, err: err}
	})
}

// applyMove installs the state carried by a move reply, if any and if newer.
func (s *Session) applyMove(reply syncclient.MoveReply) bool {
	if reply.Response.State == nil {
		return true
	}
	if !s.apply(reply.Seq, *reply.Response.State, false) {
		return false
	}
	// Legal moves belong to the previous position until the next refresh.
	s.index = board.NewLegalIndex(nil)
	return true
}

func (s *Session) onAIMoved(m aiMoved) {
	s.aiInFlight = false
	if m.gen != s.gen {
		// The restarted game may already want its own opponent move.
		s.log.Debugw("dropping opponent move from before restart")
		s.maybeRequestAI()
		s.publish()
		return
	}
	if m.err != nil {
		s.log.Warnw("opponent move failed", "error", m.err)
		s.notice = "opponent move failed, refresh to retry"
		s.publish()
		return
	}

	resp := m.reply.Response
	s.applyMove(m.reply)
	if resp.GameOver {
		s.finish(resp.Winner)
		s.publish()
		return
	}
	// The AI can still be on turn after its own move. The refresh decides;
	// maybeRequestAI disarms once the human is on turn.
	s.aiArmed = true
	s.refresh(reasonAI)
	s.publish()
}

func (s *Session) onRestarted(m restarted) {
	if m.err != nil {
		s.log.Warnw("restart failed", "error", m.err)
		s.notice = "could not restart the game"
		s.publish()
		return
	}
	s.gen++
	s.gameOver = false
	s.winner = ""
	s.notice = ""
	s.aiArmed = false
	s.index = board.NewLegalIndex(nil)
	s.apply(m.reply.Seq, m.reply.State, true)
	s.refresh(reasonRestart)
	s.publish()
}

func (s *Session) onTick() {
	if s.gameOver || s.state == nil {
		return
	}
	_, zero := s.turn.Tick()
	if zero {
		s.log.Infow("turn clock reached zero, asking the server", "team", s.state.CurrentTeam)
		s.refresh(reasonExpired)
	}
	s.publish()
}

func (s *Session) finish(winner *types.Team) {
	s.gameOver = true
	s.winner = winnerLabel(winner)
	s.aiArmed = false
	s.sel = board.NoSelection
	s.turn.Stop()
	s.notice = "game over, winner: " + s.winner
	s.log.Infow("game over", "winner", s.winner)
	if s.state != nil {
		s.log.Infow("final score", "left", s.state.LeftGoals, "right", s.state.RightGoals)
	}
}

func (s *Session) publish() {
	s.version++
	s.broadcast(s.snapshot())
}

func (s *Session) broadcast(snap Snapshot) {
	for id, ch := range s.clients {
		select {
		case ch <- snap:
		default:
			// Slow subscriber, drop it.
			close(ch)
			delete(s.clients, id)
		}
	}
}

// Package syncclient talks to the remote rule server. Every call is a single
// request/response round trip; nothing is retried here. Each call is stamped
// with a sequence number taken when the request leaves, so callers can drop
// replies that arrive after a newer one was applied.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/amparooliver/frontend-Mastergoal/pkg/types"
)

// Bodies above this size are treated as malformed.
const maxBody = 1 << 20

type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.SugaredLogger
	seq     atomic.Uint64
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Client) { c.log = l }
}

// New builds a client for baseURL, e.g. "http://localhost:5000".
// No client-side timeout is set; pass a context with a deadline if needed.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		log:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type StateReply struct {
	Seq   uint64
	State types.GameState
}

type LegalMovesReply struct {
	Seq   uint64
	Moves []types.LegalMove
}

// RefreshReply pairs a state with the legal moves fetched alongside it.
type RefreshReply struct {
	Seq   uint64
	State types.GameState
	Moves []types.LegalMove
}

type MoveReply struct {
	Seq      uint64
	Response types.MoveResponse
}

func (c *Client) nextSeq() uint64 { return c.seq.Add(1) }

// Ping hits the server root; free-tier hosts use it as a wake-up call.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", http.MethodGet, "/", nil, nil)
}

func (c *Client) FetchState(ctx context.Context) (StateReply, error) {
	seq := c.nextSeq()
	var st types.GameState
	if err := c.do(ctx, "fetch state", http.MethodGet, "/state", nil, &st); err != nil {
		return StateReply{Seq: seq}, err
	}
	return StateReply{Seq: seq, State: st}, nil
}

func (c *Client) FetchLegalMoves(ctx context.Context) (LegalMovesReply, error) {
	seq := c.nextSeq()
	var moves []types.LegalMove
	if err := c.do(ctx, "fetch legal moves", http.MethodGet, "/legal_moves", nil, &moves); err != nil {
		return LegalMovesReply{Seq: seq}, err
	}
	return LegalMovesReply{Seq: seq, Moves: moves}, nil
}

// Refresh fetches state and legal moves concurrently under one sequence
// number. Either failing fails the whole refresh.
func (c *Client) Refresh(ctx context.Context) (RefreshReply, error) {
	seq := c.nextSeq()
	var (
		st    types.GameState
		moves []types.LegalMove
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.do(gctx, "fetch state", http.MethodGet, "/state", nil, &st)
	})
	g.Go(func() error {
		return c.do(gctx, "fetch legal moves", http.MethodGet, "/legal_moves", nil, &moves)
	})
	if err := g.Wait(); err != nil {
		return RefreshReply{Seq: seq}, err
	}
	return RefreshReply{Seq: seq, State: st, Moves: moves}, nil
}

// SubmitMove posts one move. A success:false body comes back as the reply
// together with a *RejectedError.
func (c *Client) SubmitMove(ctx context.Context, req types.MoveRequest) (MoveReply, error) {
	seq := c.nextSeq()
	var resp types.MoveResponse
	if err := c.do(ctx, "submit move", http.MethodPost, "/move", req, &resp); err != nil {
		return MoveReply{Seq: seq}, err
	}
	if !resp.Success {
		return MoveReply{Seq: seq, Response: resp}, &RejectedError{
			Op:      "submit move",
			Status:  http.StatusOK,
			Code:    resp.Code,
			Message: resp.Error,
		}
	}
	return MoveReply{Seq: seq, Response: resp}, nil
}

func (c *Client) StartGame(ctx context.Context, req types.StartGameRequest) (StateReply, error) {
	seq := c.nextSeq()
	var env types.StateEnvelope
	if err := c.do(ctx, "start game", http.MethodPost, "/start_game", req, &env); err != nil {
		return StateReply{Seq: seq}, err
	}
	return StateReply{Seq: seq, State: env.State}, nil
}

func (c *Client) Restart(ctx context.Context) (StateReply, error) {
	seq := c.nextSeq()
	var env types.StateEnvelope
	if err := c.do(ctx, "restart", http.MethodPost, "/restart", nil, &env); err != nil {
		return StateReply{Seq: seq}, err
	}
	return StateReply{Seq: seq, State: env.State}, nil
}

// RequestAIMove asks the engine to play the side on turn.
func (c *Client) RequestAIMove(ctx context.Context) (MoveReply, error) {
	seq := c.nextSeq()
	var resp types.MoveResponse
	if err := c.do(ctx, "ai move", http.MethodPost, "/ai_move", nil, &resp); err != nil {
		return MoveReply{Seq: seq}, err
	}
	if !resp.Success {
		return MoveReply{Seq: seq, Response: resp}, &RejectedError{
			Op:      "ai move",
			Status:  http.StatusOK,
			Code:    resp.Code,
			Message: resp.Error,
		}
	}
	return MoveReply{Seq: seq, Response: resp}, nil
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debugw("rule server request", "op", op, "method", method, "path", path)
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrTransport, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return fmt.Errorf("%s: %w: read body: %v", op, ErrTransport, err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		return &RejectedError{Op: op, Status: res.StatusCode, Code: eb.Code, Message: eb.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: %w: malformed body: %v", op, ErrTransport, err)
	}
	return nil
}

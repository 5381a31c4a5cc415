package session

import (
	"github.com/amparooliver/frontend-Mastergoal/internal/syncclient"
	"github.com/amparooliver/frontend-Mastergoal/pkg/types"
)

type Msg interface{ isSessionMsg() }

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this subscriber wants snapshots
}

func (Join) isSessionMsg() {}

type Leave struct{ ClientID string }

func (Leave) isSessionMsg() {}

// CellClicked is a click on the display grid.
type CellClicked struct {
	Row int
	Col int
}

func (CellClicked) isSessionMsg() {}

// Refresh re-reads state and legal moves. It also re-arms the opponent move
// when the AI is on turn, which is how a failed /ai_move gets retried.
type Refresh struct{}

func (Refresh) isSessionMsg() {}

type Restart struct{}

func (Restart) isSessionMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

// Completions posted back to the loop by request goroutines.

type refreshReason string

const (
	reasonInitial  refreshReason = "initial"
	reasonMove     refreshReason = "after-move"
	reasonRejected refreshReason = "after-rejection"
	reasonAI       refreshReason = "after-ai"
	reasonExpired  refreshReason = "clock-zero"
	reasonManual   refreshReason = "manual"
	reasonRestart  refreshReason = "after-restart"
)

type started struct {
	reply syncclient.StateReply
	err   error
}

type refreshed struct {
	reason refreshReason
	reply  syncclient.RefreshReply
	err    error
}

// gen is the game generation the request was sent in; a restart bumps it.

type moved struct {
	gen   int
	req   types.MoveRequest
	reply syncclient.MoveReply
	err   error
}

type aiMoved struct {
	gen   int
	reply syncclient.MoveReply
	err   error
}

type restarted struct {
	reply syncclient.StateReply
	err   error
}

type tick struct{}

func (started) isSessionMsg()   {}
func (refreshed) isSessionMsg() {}
func (moved) isSessionMsg()     {}
func (aiMoved) isSessionMsg()   {}
func (restarted) isSessionMsg() {}
func (tick) isSessionMsg()      {}

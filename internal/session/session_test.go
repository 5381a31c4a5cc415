package session

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/amparooliver/frontend-Mastergoal/internal/board"
	"github.com/amparooliver/frontend-Mastergoal/internal/fakerules"
	"github.com/amparooliver/frontend-Mastergoal/internal/syncclient"
	"github.com/amparooliver/frontend-Mastergoal/pkg/types"
)

const (
	waitFor = 2 * time.Second
	poll    = 10 * time.Millisecond
)

func pos(r, c int) types.Pos { return types.Pos{Row: r, Col: c} }

func leftToMove() types.GameState {
	return types.GameState{
		Players: []types.Player{
			{Team: types.TeamLeft, ID: "1", Pos: pos(5, 4)},
			{Team: types.TeamRight, ID: "2", Pos: pos(5, 10)},
		},
		BallPosition:  pos(7, 5),
		CurrentTeam:   types.TeamLeft,
		TurnStartTime: float64(time.Now().Unix()),
		TimerDuration: 30,
	}
}

// One legal step: server (5,4) -> (5,5), i.e. display (4,5) -> (5,5).
func oneStep() []types.LegalMove {
	return []types.LegalMove{{From: pos(5, 4), To: pos(5, 5), Type: types.MoveStep}}
}

var (
	pieceCell = board.Cell{Row: 4, Col: 5}
	destCell  = board.Cell{Row: 5, Col: 5}
)

func singleNoTimer() types.SessionConfig {
	cfg := types.DefaultSessionConfig()
	cfg.TimerEnabled = false
	return cfg
}

func startSession(t *testing.T, srv *fakerules.Server, cfg types.SessionConfig, opts ...Option) *Session {
	t.Helper()
	log := zaptest.NewLogger(t).Sugar()
	client := syncclient.New(srv.URL, syncclient.WithLogger(log))
	opts = append([]Option{WithLogger(log)}, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	s, err := NewSession(ctx, cfg, client, opts...)
	require.NoError(t, err)
	waitView(t, s, func(v View) bool { return v.Ready })
	return s
}

func view(t *testing.T, s *Session) View {
	t.Helper()
	reply := make(chan View, 1)
	s.Inbox() <- GetState{Reply: reply}
	select {
	case v := <-reply:
		return v
	case <-time.After(waitFor):
		t.Fatalf("timed out waiting for view")
		return View{}
	}
}

func waitView(t *testing.T, s *Session, cond func(View) bool) View {
	t.Helper()
	var last View
	require.Eventually(t, func() bool {
		last = view(t, s)
		return cond(last)
	}, waitFor, poll)
	return last
}

func click(s *Session, c board.Cell) {
	s.Inbox() <- CellClicked{Row: c.Row, Col: c.Col}
}

func recvSnapshot(t *testing.T, ch <-chan Snapshot, within time.Duration) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatalf("outbox closed unexpectedly")
		}
		return snap
	case <-time.After(within):
		t.Fatalf("timed out waiting for snapshot")
		return Snapshot{}
	}
}

func TestNewSession_RejectsBadConfig(t *testing.T) {
	cfg := types.DefaultSessionConfig()
	cfg.Level = 9

	_, err := NewSession(context.Background(), cfg, syncclient.New("http://unused"))
	assert.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestStart_StartsThenRefreshes(t *testing.T) {
	srv := fakerules.New(leftToMove(), oneStep())
	defer srv.Close()

	s := startSession(t, srv, singleNoTimer())

	v := view(t, s)
	require.NotNil(t, v.State)
	assert.Equal(t, types.TeamLeft, v.State.CurrentTeam)
	assert.Equal(t, []board.Cell{pieceCell}, v.Movable)
	assert.Equal(t, 1, srv.Calls("/start_game"))
	assert.Equal(t, 1, srv.Calls("/state"))
	assert.Equal(t, 1, srv.Calls("/legal_moves"))
}

func TestResume_SkipsStart(t *testing.T) {
	srv := fakerules.New(leftToMove(), oneStep())
	defer srv.Close()

	cfg := singleNoTimer()
	cfg.Resume = true
	startSession(t, srv, cfg)

	assert.Equal(t, 0, srv.Calls("/start_game"))
	assert.Equal(t, 1, srv.Calls("/state"))
}

func TestClick_SelectThenSubmitInServerCoordinates(t *testing.T) {
	srv := fakerules.New(leftToMove(), oneStep())
	defer srv.Close()
	s := startSession(t, srv, types.SessionConfig{
		Mode: types.ModeDouble, Level: 1, Difficulty: types.DifficultyMedium,
		TimerDuration: 30, Team1Color: "orange", Team2Color: "red",
	})

	click(s, pieceCell)
	v := view(t, s)
	assert.Equal(t, board.Selection{Kind: board.SelectPiece, Cell: pieceCell}, v.Selection)
	assert.Equal(t, []board.Cell{destCell}, v.Destinations)

	click(s, destCell)
	assert.True(t, view(t, s).Selection.Empty(), "selection clears on submit")

	require.Eventually(t, func() bool { return len(srv.MoveRequests()) == 1 }, waitFor, poll)
	assert.Equal(t, types.MoveRequest{Type: types.MoveStep, From: pos(5, 4), To: pos(5, 5)}, srv.MoveRequests()[0])

	v = waitView(t, s, func(v View) bool { return v.State.CurrentTeam == types.TeamRight && !v.Submitting })
	assert.Equal(t, types.TeamRight, v.State.CurrentTeam)
	assert.Equal(t, 0, srv.Calls("/ai_move"), "two players never ask the engine")
}

func TestClick_PieceWithoutMovesIsNotSelected(t *testing.T) {
	srv := fakerules.New(leftToMove(), nil)
	defer srv.Close()
	s := startSession(t, srv, singleNoTimer())

	click(s, pieceCell)
	v := view(t, s)
	assert.True(t, v.Selection.Empty())
	assert.Empty(t, srv.MoveRequests())
}

func TestSinglePlayer_ExactlyOneOpponentMovePerTurn(t *testing.T) {
	srv := fakerules.New(leftToMove(), oneStep())
	defer srv.Close()
	s := startSession(t, srv, singleNoTimer())

	click(s, pieceCell)
	click(s, destCell)

	// Counts are read before the view: the in-flight flag is set before the request leaves.
	require.Eventually(t, func() bool {
		if srv.Calls("/ai_move") != 1 {
			return false
		}
		v := view(t, s)
		return !v.AIThinking && v.State.CurrentTeam == types.TeamLeft
	}, waitFor, poll)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, srv.Calls("/ai_move"))
	assert.Equal(t, 1, srv.Calls("/move"))
}

func TestTimerRejection_RefreshesOnceWithoutRetry(t *testing.T) {
	srv := fakerules.New(leftToMove(), oneStep())
	defer srv.Close()
	srv.OnMove(func(types.MoveRequest) (int, any) {
		return http.StatusOK, types.MoveResponse{Success: false, Error: "timer expired"}
	})
	s := startSession(t, srv, singleNoTimer())
	srv.ResetCalls()

	click(s, pieceCell)
	click(s, destCell)

	require.Eventually(t, func() bool {
		return srv.Calls("/state") == 1 && srv.Calls("/legal_moves") == 1
	}, waitFor, poll)
	time.Sleep(100 * time.Millisecond)
	v := view(t, s)

	assert.Equal(t, 1, srv.Calls("/move"), "rejected move is not retried")
	assert.Equal(t, 1, srv.Calls("/state"))
	assert.Equal(t, 1, srv.Calls("/legal_moves"))
	assert.True(t, v.Selection.Empty())
	assert.Contains(t, v.Notice, "time ran out")
}

func TestClicksIgnoredWhileSubmitting(t *testing.T) {
	srv := fakerules.New(leftToMove(), oneStep())
	defer srv.Close()
	s := startSession(t, srv, types.SessionConfig{
		Mode: types.ModeDouble, Level: 1, Difficulty: types.DifficultyMedium,
		TimerDuration: 30, Team1Color: "orange", Team2Color: "red",
	})

	release := srv.Hold("/move")
	click(s, pieceCell)
	click(s, destCell)
	require.Eventually(t, func() bool { return srv.Calls("/move") == 1 }, waitFor, poll)

	click(s, pieceCell)
	click(s, destCell)
	v := view(t, s)
	assert.True(t, v.Submitting)
	assert.True(t, v.Selection.Empty())

	release()
	waitView(t, s, func(v View) bool { return !v.Submitting })
	assert.Len(t, srv.MoveRequests(), 1)
}

func TestGameOver_StopsFurtherRequests(t *testing.T) {
	srv := fakerules.New(leftToMove(), oneStep())
	defer srv.Close()
	left := types.TeamLeft
	srv.OnMove(func(types.MoveRequest) (int, any) {
		st := leftToMove()
		st.CurrentTeam = types.TeamRight
		st.LeftGoals = 2
		return http.StatusOK, types.MoveResponse{Success: true, State: &st, AITurn: true, GameOver: true, Winner: &left}
	})
	s := startSession(t, srv, singleNoTimer())

	click(s, pieceCell)
	click(s, destCell)

	v := waitView(t, s, func(v View) bool { return v.GameOver })
	assert.Equal(t, "LEFT", v.Winner)
	assert.Contains(t, v.Notice, "LEFT")

	click(s, pieceCell)
	time.Sleep(100 * time.Millisecond)
	v = view(t, s)
	assert.True(t, v.Selection.Empty())
	assert.Equal(t, 0, srv.Calls("/ai_move"))
	assert.Equal(t, 1, srv.Calls("/move"))
}

func TestGameOver_DrawHasNoWinner(t *testing.T) {
	srv := fakerules.New(leftToMove(), oneStep())
	defer srv.Close()
	srv.OnMove(func(types.MoveRequest) (int, any) {
		st := leftToMove()
		return http.StatusOK, types.MoveResponse{Success: true, State: &st, GameOver: true}
	})
	s := startSession(t, srv, singleNoTimer())

	click(s, pieceCell)
	click(s, destCell)

	v := waitView(t, s, func(v View) bool { return v.GameOver })
	assert.Equal(t, "none", v.Winner)
}

func TestFailedOpponentMove_ManualRefreshRetries(t *testing.T) {
	srv := fakerules.New(leftToMove(), oneStep())
	defer srv.Close()
	srv.OnAIMove(func() (int, any) {
		return http.StatusInternalServerError, map[string]string{"error": "engine crashed"}
	})
	s := startSession(t, srv, singleNoTimer())

	click(s, pieceCell)
	click(s, destCell)
	require.Eventually(t, func() bool {
		return srv.Calls("/ai_move") == 1 && !view(t, s).AIThinking
	}, waitFor, poll)
	v := view(t, s)
	assert.Equal(t, types.TeamRight, v.State.CurrentTeam)
	assert.Contains(t, v.Notice, "refresh")

	srv.OnAIMove(nil)
	s.Inbox() <- Refresh{}
	require.Eventually(t, func() bool {
		return srv.Calls("/ai_move") == 2 && view(t, s).State.CurrentTeam == types.TeamLeft
	}, waitFor, poll)
}

func TestRestart_ClearsGameOver(t *testing.T) {
	srv := fakerules.New(leftToMove(), oneStep())
	defer srv.Close()
	srv.OnMove(func(types.MoveRequest) (int, any) {
		st := leftToMove()
		return http.StatusOK, types.MoveResponse{Success: true, State: &st, GameOver: true}
	})
	s := startSession(t, srv, singleNoTimer())
	click(s, pieceCell)
	click(s, destCell)
	waitView(t, s, func(v View) bool { return v.GameOver })

	s.Inbox() <- Restart{}
	v := waitView(t, s, func(v View) bool { return !v.GameOver && v.Ready && len(v.Movable) == 1 })
	assert.Empty(t, v.Winner)
	assert.Equal(t, 1, srv.Calls("/restart"))
}

func TestSinglePlayer_OpponentKeepingTheTurnMovesAgain(t *testing.T) {
	srv := fakerules.New(leftToMove(), oneStep())
	defer srv.Close()
	var aiCalls atomic.Int32
	srv.OnAIMove(func() (int, any) {
		st := srv.State()
		if aiCalls.Add(1) > 1 {
			st.CurrentTeam = types.TeamLeft
			srv.SetState(st)
		}
		// First reply leaves RIGHT on turn.
		return http.StatusOK, types.MoveResponse{Success: true, State: &st}
	})
	s := startSession(t, srv, singleNoTimer())

	click(s, pieceCell)
	click(s, destCell)

	require.Eventually(t, func() bool {
		if srv.Calls("/ai_move") != 2 {
			return false
		}
		v := view(t, s)
		return !v.AIThinking && v.State.CurrentTeam == types.TeamLeft
	}, waitFor, poll)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 2, srv.Calls("/ai_move"))
	assert.Equal(t, 1, srv.Calls("/move"))
}

func TestGameOver_KeptWhenMoveStateIsStale(t *testing.T) {
	srv := fakerules.New(leftToMove(), oneStep())
	defer srv.Close()
	left := types.TeamLeft
	srv.OnMove(func(types.MoveRequest) (int, any) {
		st := leftToMove()
		st.CurrentTeam = types.TeamRight
		return http.StatusOK, types.MoveResponse{Success: true, State: &st, AITurn: true, GameOver: true, Winner: &left}
	})
	s := startSession(t, srv, singleNoTimer())

	release := srv.Hold("/move")
	defer release()
	click(s, pieceCell)
	click(s, destCell)
	require.Eventually(t, func() bool { return srv.Calls("/move") == 1 }, waitFor, poll)

	// A refresh sent after the move lands first, so the move's state is older.
	st := leftToMove()
	st.LeftGoals = 1
	srv.SetState(st)
	s.Inbox() <- Refresh{}
	waitView(t, s, func(v View) bool { return v.State.LeftGoals == 1 })

	release()
	v := waitView(t, s, func(v View) bool { return v.GameOver })
	assert.Equal(t, "LEFT", v.Winner)
	assert.Equal(t, 1, v.State.LeftGoals, "newer state is kept")
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, srv.Calls("/ai_move"))
}

func TestRestart_IgnoresMoveReplyFromPreviousGame(t *testing.T) {
	srv := fakerules.New(leftToMove(), oneStep())
	defer srv.Close()
	left := types.TeamLeft
	srv.OnMove(func(types.MoveRequest) (int, any) {
		st := leftToMove()
		return http.StatusOK, types.MoveResponse{Success: true, State: &st, GameOver: true, Winner: &left}
	})
	s := startSession(t, srv, singleNoTimer())

	release := srv.Hold("/move")
	defer release()
	click(s, pieceCell)
	click(s, destCell)
	require.Eventually(t, func() bool { return srv.Calls("/move") == 1 }, waitFor, poll)

	srv.ResetCalls()
	s.Inbox() <- Restart{}
	// The post-restart refresh is only sent once the restart is applied.
	require.Eventually(t, func() bool { return srv.Calls("/legal_moves") == 1 }, waitFor, poll)

	release()
	waitView(t, s, func(v View) bool { return !v.Submitting })
	time.Sleep(100 * time.Millisecond)
	v := view(t, s)
	assert.False(t, v.GameOver)
	assert.Empty(t, v.Winner)
}

func TestClockZero_TriggersOneRefresh(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Unix(1_700_000_000, 0))

	st := leftToMove()
	st.TurnStartTime = float64(mock.Now().Unix() - 28)
	srv := fakerules.New(st, oneStep())
	defer srv.Close()

	cfg := types.DefaultSessionConfig()
	cfg.Mode = types.ModeDouble
	cfg.TimerEnabled = true
	s := startSession(t, srv, cfg, WithClock(mock))
	require.Equal(t, 2, view(t, s).Remaining)
	before := srv.Calls("/state")

	mock.Add(time.Second)
	waitView(t, s, func(v View) bool { return v.Remaining == 1 })
	mock.Add(time.Second)
	waitView(t, s, func(View) bool { return srv.Calls("/state") == before+1 })

	// Already at zero after the resync: further ticks stay quiet.
	mock.Add(time.Second)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, before+1, srv.Calls("/state"))
	assert.Equal(t, 0, view(t, s).Remaining)
}

func TestJoin_ReceivesSnapshotsAndSlowClientIsDropped(t *testing.T) {
	srv := fakerules.New(leftToMove(), oneStep())
	defer srv.Close()
	s := startSession(t, srv, singleNoTimer())

	fast := make(chan Snapshot, 8)
	slow := make(chan Snapshot, 1)
	s.Inbox() <- Join{ClientID: "fast", Outbox: fast}
	s.Inbox() <- Join{ClientID: "slow", Outbox: slow}

	first := recvSnapshot(t, fast, time.Second)
	assert.True(t, first.Ready)
	assert.Equal(t, 2, view(t, s).NumClients)

	click(s, pieceCell)
	next := recvSnapshot(t, fast, time.Second)
	assert.Greater(t, next.Version, first.Version)
	assert.Equal(t, board.SelectPiece, next.Selection.Kind)

	// slow never drained its join snapshot, so the click broadcast dropped it
	assert.Equal(t, 1, view(t, s).NumClients)
	s.Inbox() <- Leave{ClientID: "fast"}
	assert.Equal(t, 0, view(t, s).NumClients)
}

func TestShutdown_ClosesOutboxes(t *testing.T) {
	srv := fakerules.New(leftToMove(), oneStep())
	defer srv.Close()
	s := startSession(t, srv, singleNoTimer())

	out := make(chan Snapshot, 4)
	s.Inbox() <- Join{ClientID: "c1", Outbox: out}
	recvSnapshot(t, out, time.Second)

	s.Inbox() <- Shutdown{}
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("session did not stop")
	}
	_, ok := <-out
	assert.False(t, ok)
}

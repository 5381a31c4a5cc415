// Package console is the line-mode front end used by `mastergoal play`.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/amparooliver/frontend-Mastergoal/internal/session"
)

const help = "Enter 'row col' to click a cell, 'refresh', 'restart', 'board' or 'q' to quit."

type Console struct {
	s   *session.Session
	in  io.Reader
	out io.Writer
	log *zap.SugaredLogger
}

func New(s *session.Session, in io.Reader, out io.Writer, log *zap.SugaredLogger) *Console {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Console{s: s, in: in, out: out, log: log}
}

// Run redraws on every visible change and turns input lines into session
// messages until the user quits, input ends or ctx is cancelled. Input is
// only read once the first authoritative state has arrived.
func (c *Console) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	snaps := make(chan session.Snapshot, 16)
	id := "console-" + uuid.NewString()
	c.s.Inbox() <- session.Join{ClientID: id, Outbox: snaps}
	defer func() {
		select {
		case c.s.Inbox() <- session.Leave{ClientID: id}:
		case <-c.s.Done():
		}
	}()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	var (
		last    session.Snapshot
		drawn   bool
		reading bool
	)

	for {
		var in <-chan string
		if reading {
			in = lines
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case snap, ok := <-snaps:
			if !ok {
				fmt.Fprintln(c.out, "session closed")
				return nil
			}
			if !drawn || visibleChange(last, snap) {
				Render(c.out, snap)
				drawn = true
			}
			last = snap
			if snap.Ready && !reading {
				reading = true
				fmt.Fprintln(c.out, help)
				go scan(ctx, c.in, lines, scanErr)
			}

		case err := <-scanErr:
			return err

		case line := <-in:
			quit, err := c.handle(line, last)
			if err != nil {
				fmt.Fprintln(c.out, err)
			}
			if quit {
				return nil
			}
		}
	}
}

// scan feeds lines until input ends or ctx is done. A Read already blocked
// on r still has to return before scan can notice.
func scan(ctx context.Context, r io.Reader, lines chan<- string, done chan<- error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		select {
		case lines <- sc.Text():
		case <-ctx.Done():
			return
		}
	}
	select {
	case done <- sc.Err():
	case <-ctx.Done():
	}
}

func (c *Console) handle(line string, last session.Snapshot) (quit bool, err error) {
	line = strings.TrimSpace(line)
	switch strings.ToLower(line) {
	case "":
		return false, nil
	case "q", "quit":
		return true, nil
	case "refresh":
		c.s.Inbox() <- session.Refresh{}
		return false, nil
	case "restart":
		c.s.Inbox() <- session.Restart{}
		return false, nil
	case "board":
		Render(c.out, last)
		return false, nil
	case "help":
		fmt.Fprintln(c.out, help)
		return false, nil
	}

	row, col, err := parseCell(line)
	if err != nil {
		return false, err
	}
	c.log.Debugw("cell entered", "row", row, "col", col)
	c.s.Inbox() <- session.CellClicked{Row: row, Col: col}
	return false, nil
}

func parseCell(line string) (row, col int, err error) {
	fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("want 'row col', got %q", line)
	}
	if row, err = strconv.Atoi(fields[0]); err != nil {
		return 0, 0, fmt.Errorf("bad row %q", fields[0])
	}
	if col, err = strconv.Atoi(fields[1]); err != nil {
		return 0, 0, fmt.Errorf("bad col %q", fields[1])
	}
	return row, col, nil
}

// visibleChange ignores pure clock ticks.
func visibleChange(a, b session.Snapshot) bool {
	return a.State != b.State ||
		a.Selection != b.Selection ||
		a.Submitting != b.Submitting ||
		a.AIThinking != b.AIThinking ||
		a.GameOver != b.GameOver ||
		a.Notice != b.Notice ||
		a.Ready != b.Ready
}

package syncclient

import (
	"errors"
	"fmt"
	"strings"

	"github.com/amparooliver/frontend-Mastergoal/pkg/types"
)

// ErrTransport covers unreachable servers and bodies that do not decode.
var ErrTransport = errors.New("rule server unreachable")

// ErrTimerExpired matches rejections caused by the turn clock running out.
var ErrTimerExpired = errors.New("turn timer expired")

// RejectedError is a non-2xx status or an explicit success:false.
type RejectedError struct {
	Op      string
	Status  int
	Code    string
	Message string
}

func (e *RejectedError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "rejected"
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (%s, status %d)", e.Op, msg, e.Code, e.Status)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Op, msg, e.Status)
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrTimerExpired && e.timerExpired()
}

func (e *RejectedError) timerExpired() bool {
	if e.Code == types.ErrorCodeTimerExpired {
		return true
	}
	// older deployments only say so in the message
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "expired") && strings.Contains(msg, "time")
}

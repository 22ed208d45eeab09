// Package clock provides the countdown that bounds a session.
//
// A clock is single use: Start once, then it ends either by reaching zero
// (Tick 0 followed by exactly one Expired) or by Cancel. Neither path can be
// restarted; a new session needs a new clock.
package clock

import "errors"

type EventKind int

const (
	Tick EventKind = iota + 1
	Expired
)

func (k EventKind) String() string {
	switch k {
	case Tick:
		return "tick"
	case Expired:
		return "expired"
	}
	return "unknown"
}

type Event struct {
	Kind      EventKind
	Remaining int
}

type Handler func(Event)

// Clock is the countdown a session controller consumes. Cancel is idempotent
// and never blocks on an in-flight handler call, so consumers must treat an
// event that races a Cancel as stale.
type Clock interface {
	Start(durationSeconds int, h Handler) error
	Cancel()
}

var (
	ErrAlreadyStarted  = errors.New("clock already started")
	ErrStopped         = errors.New("clock stopped")
	ErrInvalidDuration = errors.New("clock duration must be positive")
)

type state int

const (
	idle state = iota
	running
	stopped
)

func checkStart(s state, durationSeconds int) error {
	switch s {
	case running:
		return ErrAlreadyStarted
	case stopped:
		return ErrStopped
	}
	if durationSeconds <= 0 {
		return ErrInvalidDuration
	}
	return nil
}

package capsule

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for an empty or malformed command.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotLaunched is returned when waiting on a container that never started.
	ErrNotLaunched = errors.New("container not launched")
	// ErrAlreadyReaped is returned on a second Wait or a Signal after Wait.
	ErrAlreadyReaped = errors.New("container already reaped")
)

// Kind classifies launcher errors.
type Kind int

const (
	KindArgument Kind = iota + 1
	KindResource
	KindSpawn
	KindWait
	KindSignal
)

func (k Kind) String() string {
	switch k {
	case KindArgument:
		return "argument"
	case KindResource:
		return "resource"
	case KindSpawn:
		return "spawn"
	case KindWait:
		return "wait"
	case KindSignal:
		return "signal"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is returned by Launch, Wait and Signal.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

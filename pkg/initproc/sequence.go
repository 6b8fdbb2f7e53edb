// Package initproc runs inside the new namespaces as PID 1. It switches
// to the prepared root filesystem, rebuilds /proc, /sys and /dev, and
// finally replaces itself with the requested command.
package initproc

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Policy says what a failing step does to the rest of the sequence.
type Policy int

const (
	// Fatal failures stop the sequence.
	Fatal Policy = iota
	// Tolerated failures are logged and the sequence continues.
	Tolerated
)

func (p Policy) String() string {
	switch p {
	case Fatal:
		return "fatal"
	case Tolerated:
		return "tolerated"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// Step is one privileged operation of the init sequence.
type Step struct {
	Name   string
	Policy Policy
	Run    func() error

	// Undo, if set, runs after a fatal failure of this step.
	Undo func()
}

// StepError reports the step that aborted the sequence.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Sequence runs steps in order, stopping at the first fatal failure.
type Sequence struct {
	Log *logrus.Entry
}

// Run executes steps. It returns a *StepError for the first fatal
// failure, or nil once every step has run.
func (s *Sequence) Run(steps []Step) error {
	log := s.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	for _, st := range steps {
		l := log.WithField("step", st.Name)
		l.Debug("running")

		err := st.Run()
		if err == nil {
			continue
		}

		if st.Policy == Tolerated {
			l.WithError(err).Warn("step failed, continuing")
			continue
		}

		l.WithError(err).Error("step failed")
		if st.Undo != nil {
			st.Undo()
		}
		return &StepError{Step: st.Name, Err: err}
	}
	return nil
}

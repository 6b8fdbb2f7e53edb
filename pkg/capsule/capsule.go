// Package capsule launches a command in new PID, UTS and mount
// namespaces and reaps it.
//
// Launch clones a process that re-executes the running binary with the
// "init" marker; the init process (package initproc) switches to the
// prepared root filesystem and replaces itself with the command. Wait
// blocks until that process exits and normalizes its status.
package capsule

import (
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/rsturla/capsule/pkg/initproc"
	"github.com/sirupsen/logrus"
)

// Spec is the command path followed by its arguments.
type Spec []string

// Validate rejects an empty spec or an empty command path.
func (s Spec) Validate() error {
	if len(s) == 0 || s[0] == "" {
		return ErrInvalidArgument
	}
	return nil
}

// ShellSpec runs command through /bin/sh -c.
func ShellSpec(command string) Spec {
	return Spec{"/bin/sh", "-c", command}
}

// Options are the explicit inputs of a launch.
type Options struct {
	// Env is handed to the init process and, from there, to the command.
	// nil means the caller's environment at launch time.
	Env []string

	// Init configures the init sequence inside the container.
	Init initproc.Config

	// Stdin, Stdout and Stderr become fds 0, 1 and 2 of the container.
	// nil means the caller's own.
	Stdin, Stdout, Stderr *os.File

	// KillOnParentExit sends SIGKILL to the container when the launching
	// thread dies.
	KillOnParentExit bool

	Logger *logrus.Entry
}

func (o Options) logger() *logrus.Entry {
	if o.Logger != nil {
		return o.Logger
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func (o Options) env() []string {
	if o.Env != nil {
		return o.Env
	}
	return os.Environ()
}

func (o Options) files() []uintptr {
	pick := func(f, def *os.File) uintptr {
		if f == nil {
			f = def
		}
		return f.Fd()
	}
	return []uintptr{
		pick(o.Stdin, os.Stdin),
		pick(o.Stdout, os.Stdout),
		pick(o.Stderr, os.Stderr),
	}
}

// Container is the state of one launch.
type Container struct {
	// ID correlates log lines of one container.
	ID string

	// HostPID is the init process as seen from the host, -1 until a
	// launch succeeds.
	HostPID int

	// ExitStatus is the normalized exit status, -1 while unknown.
	ExitStatus int

	mu        sync.Mutex
	reaping   bool
	resources *execResources
	log       *logrus.Entry
}

// NewContainer returns an unlaunched container state.
func NewContainer() *Container {
	return &Container{
		ID:         uuid.NewString(),
		HostPID:    -1,
		ExitStatus: -1,
	}
}

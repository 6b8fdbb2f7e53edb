//go:build linux

package initproc

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"runtime"

	"github.com/rsturla/capsule/pkg/logging"
	"github.com/sirupsen/logrus"
)

// Exit codes of the init process when it cannot run the command.
const (
	ExitSetupFailed   = 125
	ExitNotExecutable = 126
	ExitNotFound      = 127
)

// Main is the init entry point; argv is the command to run. It only
// returns when the sequence fails, with the exit code to use.
func Main(argv []string) int {
	runtime.LockOSThread()

	if len(argv) == 0 {
		fmt.Fprintf(os.Stderr, "Error: %q requires a command argument\n", Marker)
		return ExitSetupFailed
	}

	cfg, err := ConfigFromEnv(os.Environ())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitSetupFailed
	}
	if err := logging.Configure(logrus.StandardLogger(), cfg.LogLevel, cfg.LogFormat, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitSetupFailed
	}
	log := logrus.WithFields(logrus.Fields{
		"phase": "init",
		"pid":   os.Getpid(),
	})
	log.WithField("command", argv).Debug("Running inside container namespace")

	setupEnvironment()

	steps, err := Steps(cfg, argv)
	if err != nil {
		log.WithError(err).Error("preparing init sequence")
		return ExitSetupFailed
	}

	err = (&Sequence{Log: log}).Run(steps)
	return exitCode(err)
}

// exitCode maps a sequence error to the process exit status, following
// the shell convention for commands that cannot be run.
func exitCode(err error) int {
	var se *StepError
	if !errors.As(err, &se) || se.Step != execStepName {
		return ExitSetupFailed
	}
	if errors.Is(se.Err, exec.ErrNotFound) || errors.Is(se.Err, fs.ErrNotExist) {
		return ExitNotFound
	}
	return ExitNotExecutable
}

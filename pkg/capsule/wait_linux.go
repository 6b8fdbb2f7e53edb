//go:build linux

package capsule

import (
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// NormalizeStatus folds a wait status into one integer: the exit code
// for a normal exit, 128+signal when killed, -1 otherwise.
func NormalizeStatus(ws syscall.WaitStatus) int {
	switch {
	case ws.Exited():
		return ws.ExitStatus()
	case ws.Signaled():
		return 128 + int(ws.Signal())
	}
	return -1
}

// Wait blocks until the container's init process exits and returns its
// normalized exit status. The execution resources are released whether
// or not the wait succeeds. Wait may be called once.
func (c *Container) Wait() (int, error) {
	c.mu.Lock()
	if c.HostPID <= 0 {
		c.mu.Unlock()
		return -1, &Error{Op: "wait", Kind: KindArgument, Err: ErrNotLaunched}
	}
	if c.reaping || c.resources == nil {
		c.mu.Unlock()
		return c.ExitStatus, &Error{Op: "wait", Kind: KindArgument, Err: ErrAlreadyReaped}
	}
	c.reaping = true
	pid := c.HostPID
	c.mu.Unlock()

	var ws syscall.WaitStatus
	_, err := syscall.Wait4(pid, &ws, 0, nil)
	for err == syscall.EINTR {
		_, err = syscall.Wait4(pid, &ws, 0, nil)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if rerr := c.resources.release(); rerr != nil {
		c.logger().WithError(rerr).Warn("releasing pidfd")
	}
	c.resources = nil

	if err != nil {
		c.ExitStatus = -1
		c.logger().WithError(err).Error("wait4 failed")
		return -1, &Error{Op: "wait4", Kind: KindWait, Err: err}
	}

	c.ExitStatus = NormalizeStatus(ws)
	c.logger().WithField("exit_status", c.ExitStatus).Info("Container exited")
	return c.ExitStatus, nil
}

// Signal delivers sig to the container's init process. Killing init
// tears down every process in its PID namespace.
func (c *Container) Signal(sig syscall.Signal) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.HostPID <= 0 {
		return &Error{Op: "signal", Kind: KindArgument, Err: ErrNotLaunched}
	}
	if c.resources == nil {
		return &Error{Op: "signal", Kind: KindArgument, Err: ErrAlreadyReaped}
	}

	var err error
	if c.resources.pidfd >= 0 {
		err = unix.PidfdSendSignal(c.resources.pidfd, sig, nil, 0)
	} else {
		err = unix.Kill(c.HostPID, sig)
	}
	if err != nil {
		return &Error{Op: "signal", Kind: KindSignal, Err: err}
	}
	return nil
}

func (c *Container) logger() *logrus.Entry {
	if c.log == nil {
		c.log = logrus.WithField("container", c.ID)
	}
	return c.log
}

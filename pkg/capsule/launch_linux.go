//go:build linux

package capsule

import (
	"errors"
	"fmt"
	"path/filepath"
	"syscall"

	"github.com/rsturla/capsule/pkg/initproc"
	"golang.org/x/sys/unix"
)

// CloneFlags are the namespaces every container gets. The exit signal
// is SIGCHLD, set by the runtime's fork path.
const CloneFlags = unix.CLONE_NEWPID | unix.CLONE_NEWUTS | unix.CLONE_NEWNS

// execResources backs a spawned process until it is reaped. The Go
// runtime clones without CLONE_VM, so the child runs on a copy of the
// parent's stack and the resource the caller owns is the pidfd.
type execResources struct {
	pidfd int
}

func newExecResources() *execResources {
	return &execResources{pidfd: -1}
}

func (r *execResources) release() error {
	if r.pidfd < 0 {
		return nil
	}
	err := unix.Close(r.pidfd)
	r.pidfd = -1
	return err
}

// Launch starts spec in new namespaces and returns its state. The
// returned container is never nil; on error its HostPID is -1.
func Launch(spec Spec, opts Options) (*Container, error) {
	c := NewContainer()
	c.log = opts.logger().WithField("container", c.ID)

	if err := spec.Validate(); err != nil {
		return c, &Error{Op: "launch", Kind: KindArgument, Err: err}
	}

	// Init resolves the root after the clone, from an inherited working
	// directory the caller does not control.
	if r := opts.Init.Rootfs; r != "" && !filepath.IsAbs(r) {
		err := fmt.Errorf("root filesystem %q is not absolute: %w", r, ErrInvalidArgument)
		return c, &Error{Op: "launch", Kind: KindArgument, Err: err}
	}

	handoff, err := opts.Init.EnvEntry()
	if err != nil {
		return c, &Error{Op: "launch", Kind: KindArgument, Err: err}
	}
	env := append(initproc.StripConfig(opts.env()), handoff)

	sys := &syscall.SysProcAttr{Cloneflags: CloneFlags}
	if opts.KillOnParentExit {
		sys.Pdeathsig = syscall.SIGKILL
	}

	c.log.WithField("command", []string(spec)).Info("Creating container")

	attr := &syscall.ProcAttr{
		Env:   env,
		Files: opts.files(),
		Sys:   sys,
	}
	if err := c.spawn(SelfExe, ShimArgs(spec), attr); err != nil {
		return c, err
	}
	return c, nil
}

// LaunchShell runs command through /bin/sh -c.
func LaunchShell(command string, opts Options) (*Container, error) {
	return Launch(ShellSpec(command), opts)
}

// spawn clones the process and records it in c. attr.Sys must not be nil.
func (c *Container) spawn(path string, argv []string, attr *syscall.ProcAttr) error {
	res := newExecResources()
	attr.Sys.PidFD = &res.pidfd

	pid, err := syscall.ForkExec(path, argv, attr)
	if err != nil {
		res.release()
		kind := KindSpawn
		if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.ENOMEM) {
			kind = KindResource
		}
		c.logger().WithError(err).Error("clone failed")
		return &Error{Op: "clone", Kind: kind, Err: err}
	}

	c.HostPID = pid
	c.resources = res
	c.logger().WithField("host_pid", pid).Info("Created container process")
	return nil
}

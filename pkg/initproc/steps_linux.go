//go:build linux

package initproc

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/moby/sys/mount"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Steps builds the init sequence for cfg that ends by executing argv.
// The order matters: / is made rprivate before any other mount so that
// nothing done here can leak into the host's mount namespace, even when
// a later step fails.
func Steps(cfg Config, argv []string) ([]Step, error) {
	cfg = cfg.withDefaults()
	oldRoot := filepath.Join(cfg.Rootfs, oldRootName)

	var filter *SyscallFilter
	if len(cfg.DenySyscalls) > 0 {
		f, err := NewSyscallFilter(cfg.DenySyscalls)
		if err != nil {
			return nil, err
		}
		filter = f
	}

	sysPolicy := Tolerated
	if cfg.StrictSysfs {
		sysPolicy = Fatal
	}

	steps := []Step{
		{
			Name:   "sethostname",
			Policy: Fatal,
			Run:    func() error { return unix.Sethostname([]byte(cfg.Hostname)) },
		},
		{
			Name:   "make / rprivate",
			Policy: Fatal,
			Run:    func() error { return mount.MakeRPrivate("/") },
		},
		{
			Name:   "bind mount " + cfg.Rootfs,
			Policy: Fatal,
			Run:    func() error { return bindRootfs(cfg.Rootfs) },
		},
		{
			Name:   "mkdir " + oldRoot,
			Policy: Fatal,
			Run:    func() error { return mkdirExist(oldRoot, 0700) },
			Undo:   func() { detach(cfg.Rootfs) },
		},
		{
			Name:   "pivot_root",
			Policy: Fatal,
			Run:    func() error { return unix.PivotRoot(cfg.Rootfs, oldRoot) },
			Undo: func() {
				detach(cfg.Rootfs)
				_ = os.Remove(oldRoot)
			},
		},
		{
			Name:   "chdir /",
			Policy: Fatal,
			Run:    func() error { return unix.Chdir("/") },
			Undo:   func() { detach("/" + oldRootName) },
		},
		{
			Name:   "unmount /" + oldRootName,
			Policy: Tolerated,
			Run:    removeOldRoot,
		},
		{
			Name:   "mount /proc",
			Policy: Fatal,
			Run:    procMount.Mount,
		},
		{
			Name:   "mount /sys",
			Policy: sysPolicy,
			Run:    sysMount.Mount,
		},
		{
			Name:   "mount /dev",
			Policy: Fatal,
			Run:    devMount.Mount,
		},
		{
			Name:   "mkdir /dev/pts /dev/shm",
			Policy: Fatal,
			Run: func() error {
				if err := mkdirExist(devptsMount.Target, 0755); err != nil {
					return err
				}
				return mkdirExist(shmMount.Target, 0755)
			},
			Undo: func() { detach(devMount.Target) },
		},
		{
			Name:   "create device nodes",
			Policy: Fatal,
			Run:    func() error { return CreateDevices("/", StandardDevices) },
			Undo:   unwindDev,
		},
		{
			Name:   "mount /dev/pts",
			Policy: Fatal,
			Run:    devptsMount.Mount,
			Undo:   unwindDev,
		},
		{
			Name:   "mount /dev/shm",
			Policy: Fatal,
			Run:    shmMount.Mount,
			Undo:   unwindDev,
		},
	}

	for _, l := range StandardSymlinks {
		steps = append(steps, Step{
			Name:   "symlink " + l.Path,
			Policy: Tolerated,
			Run:    l.Create,
		})
	}

	if filter != nil {
		steps = append(steps, Step{
			Name:   "load seccomp filter",
			Policy: Fatal,
			Run: func() error {
				logrus.WithFields(logrus.Fields{
					"syscalls":     cfg.DenySyscalls,
					"instructions": filter.Len(),
				}).Debug("Loading syscall filter")
				return filter.Load()
			},
		})
	}

	return append(steps, Step{
		Name:   execStepName,
		Policy: Fatal,
		Run:    func() error { return execCommand(argv) },
	}), nil
}

const execStepName = "exec"

// execCommand replaces the init process with argv, searching PATH the
// way execvp does. It only returns on failure.
func execCommand(argv []string) error {
	path, err := exec.LookPath(argv[0])
	if err != nil && !errors.Is(err, exec.ErrDot) {
		return err
	}
	return unix.Exec(path, argv, os.Environ())
}

//go:build linux

package initproc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Device is a character device node created under /dev.
type Device struct {
	Path  string
	Major uint32
	Minor uint32
	Mode  uint32
}

// StandardDevices are the nodes every container gets.
var StandardDevices = []Device{
	{Path: "/dev/null", Major: 1, Minor: 3, Mode: 0666},
	{Path: "/dev/zero", Major: 1, Minor: 5, Mode: 0666},
	{Path: "/dev/full", Major: 1, Minor: 7, Mode: 0666},
	{Path: "/dev/random", Major: 1, Minor: 8, Mode: 0666},
	{Path: "/dev/urandom", Major: 1, Minor: 9, Mode: 0666},
	{Path: "/dev/tty", Major: 5, Minor: 0, Mode: 0666},
	{Path: "/dev/console", Major: 5, Minor: 1, Mode: 0600},
}

// CreateDevices makes the device nodes below root. The umask is cleared
// for the duration so the nodes get exactly their table mode.
func CreateDevices(root string, devices []Device) error {
	old := unix.Umask(0)
	defer unix.Umask(old)

	for _, d := range devices {
		path := filepath.Join(root, d.Path)
		dev := int(unix.Mkdev(d.Major, d.Minor))
		if err := unix.Mknod(path, unix.S_IFCHR|d.Mode, dev); err != nil {
			return fmt.Errorf("mknod %s (%d:%d): %w", path, d.Major, d.Minor, err)
		}
	}
	return nil
}

// Symlink is a link created in /dev once /proc is available.
type Symlink struct {
	Target string
	Path   string
}

// StandardSymlinks point the stdio aliases at the process's own fds.
var StandardSymlinks = []Symlink{
	{Target: "/proc/self/fd/0", Path: "/dev/stdin"},
	{Target: "/proc/self/fd/1", Path: "/dev/stdout"},
	{Target: "/proc/self/fd/2", Path: "/dev/stderr"},
	{Target: "pts/ptmx", Path: "/dev/ptmx"},
}

// Create makes the link, accepting one that already exists.
func (s Symlink) Create() error {
	if err := os.Symlink(s.Target, s.Path); err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}
	return nil
}

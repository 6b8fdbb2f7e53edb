// Package rootfs checks the prepared root filesystem on the host before
// a container is created from it.
package rootfs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/moby/sys/mountinfo"
)

var (
	ErrNotAbsolute  = errors.New("root filesystem path must be absolute")
	ErrNotDirectory = errors.New("root filesystem is not a directory")
	ErrHostRoot     = errors.New("root filesystem cannot be the host root")
)

// Info describes a checked root filesystem.
type Info struct {
	Path string

	// MountPoint is true when Path is already a mount point on the host.
	MountPoint bool

	// Submounts are mount points below Path. They come along with the
	// recursive bind into the container.
	Submounts []string
}

// Check verifies that path is a usable root: absolute, an existing
// directory, and not "/".
func Check(path string) (*Info, error) {
	if !filepath.IsAbs(path) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotAbsolute)
	}
	path = filepath.Clean(path)
	if path == "/" {
		return nil, ErrHostRoot
	}

	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("root filesystem: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotDirectory)
	}

	mounted, err := mountinfo.Mounted(path)
	if err != nil {
		return nil, fmt.Errorf("checking mount point %s: %w", path, err)
	}
	mounts, err := mountinfo.GetMounts(mountinfo.PrefixFilter(path))
	if err != nil {
		return nil, fmt.Errorf("reading mount table: %w", err)
	}

	info := &Info{Path: path, MountPoint: mounted}
	for _, m := range mounts {
		if m.Mountpoint != path {
			info.Submounts = append(info.Submounts, m.Mountpoint)
		}
	}
	return info, nil
}

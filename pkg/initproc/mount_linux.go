//go:build linux

package initproc

import (
	"errors"
	"fmt"
	"os"

	"github.com/moby/sys/mount"
	"golang.org/x/sys/unix"
)

// oldRootName is the directory under the new root that briefly holds the
// previous root during pivot_root.
const oldRootName = "old_root"

// Mount is a single filesystem mount. Options is an fstab-style list
// such as "nosuid,nodev,mode=0755": flags and fs data are split apart
// by the mount package.
type Mount struct {
	Source  string
	Target  string
	FsType  string
	Options string

	// DirMode is used to create Target when it does not exist yet.
	DirMode os.FileMode
}

func (m Mount) String() string {
	return fmt.Sprintf("%s on %s type %s (%s)", m.Source, m.Target, m.FsType, m.Options)
}

// Mount creates the target directory if needed and mounts m.
func (m Mount) Mount() error {
	if m.DirMode != 0 {
		if err := mkdirExist(m.Target, m.DirMode); err != nil {
			return err
		}
	}
	if err := mount.Mount(m.Source, m.Target, m.FsType, m.Options); err != nil {
		return fmt.Errorf("mounting %s: %w", m, err)
	}
	return nil
}

// The container's virtual filesystems, in mount order.
var (
	procMount = Mount{
		Source:  "proc",
		Target:  "/proc",
		FsType:  "proc",
		Options: "nosuid,nodev,noexec",
		DirMode: 0555,
	}
	sysMount = Mount{
		Source:  "sysfs",
		Target:  "/sys",
		FsType:  "sysfs",
		Options: "ro,nosuid,nodev,noexec",
		DirMode: 0555,
	}
	devMount = Mount{
		Source:  "tmpfs",
		Target:  "/dev",
		FsType:  "tmpfs",
		Options: "nosuid,strictatime,mode=0755,size=65536k",
		DirMode: 0755,
	}
	devptsMount = Mount{
		Source:  "devpts",
		Target:  "/dev/pts",
		FsType:  "devpts",
		Options: "nosuid,noexec,newinstance,ptmxmode=0666",
	}
	shmMount = Mount{
		Source:  "tmpfs",
		Target:  "/dev/shm",
		FsType:  "tmpfs",
		Options: "nosuid,nodev,mode=1777",
	}
)

// mkdirExist is mkdir(2) that accepts an existing directory.
func mkdirExist(path string, mode os.FileMode) error {
	if err := os.Mkdir(path, mode); err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}
	return nil
}

// detach lazily unmounts target, ignoring targets that are not mounted.
func detach(target string) {
	_ = mount.Unmount(target)
}

// bindRootfs makes rootfs a mount point so it can become the new root.
func bindRootfs(rootfs string) error {
	return mount.Mount(rootfs, rootfs, "", "rbind")
}

// removeOldRoot detaches the relocated host root and removes its
// holding directory.
func removeOldRoot() error {
	target := "/" + oldRootName
	if err := unix.Unmount(target, unix.MNT_DETACH); err != nil {
		return fmt.Errorf("unmounting %s: %w", target, err)
	}
	if err := os.Remove(target); err != nil {
		return fmt.Errorf("removing %s: %w", target, err)
	}
	return nil
}

// unwindDev detaches the /dev subtree after a failed device setup.
func unwindDev() {
	detach(shmMount.Target)
	detach(devptsMount.Target)
	detach(devMount.Target)
}

//go:build linux

package initproc

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"
)

func TestStandardDevices(t *testing.T) {
	want := map[string][2]uint32{
		"/dev/null":    {1, 3},
		"/dev/zero":    {1, 5},
		"/dev/full":    {1, 7},
		"/dev/random":  {1, 8},
		"/dev/urandom": {1, 9},
		"/dev/tty":     {5, 0},
		"/dev/console": {5, 1},
	}
	if len(StandardDevices) != len(want) {
		t.Fatalf("expected %d devices, got %d", len(want), len(StandardDevices))
	}
	for _, d := range StandardDevices {
		w, ok := want[d.Path]
		if !ok {
			t.Errorf("unexpected device %s", d.Path)
			continue
		}
		if d.Major != w[0] || d.Minor != w[1] {
			t.Errorf("%s: got %d:%d, want %d:%d", d.Path, d.Major, d.Minor, w[0], w[1])
		}
	}
}

func TestCreateDevices(t *testing.T) {
	if os.Geteuid() != 0 {
		t.Skip("mknod needs root")
	}
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "dev"), 0755); err != nil {
		t.Fatal(err)
	}

	if err := CreateDevices(root, StandardDevices); err != nil {
		t.Fatalf("CreateDevices failed: %v", err)
	}

	for _, d := range StandardDevices {
		var st unix.Stat_t
		path := filepath.Join(root, d.Path)
		if err := unix.Stat(path, &st); err != nil {
			t.Fatalf("stat %s: %v", path, err)
		}
		if st.Mode&unix.S_IFMT != unix.S_IFCHR {
			t.Errorf("%s is not a character device", path)
		}
		if st.Mode&0777 != d.Mode {
			t.Errorf("%s: mode %o, want %o", path, st.Mode&0777, d.Mode)
		}
		if unix.Major(st.Rdev) != d.Major || unix.Minor(st.Rdev) != d.Minor {
			t.Errorf("%s: got %d:%d", path, unix.Major(st.Rdev), unix.Minor(st.Rdev))
		}
	}

	// A second pass hits existing nodes.
	if err := CreateDevices(root, StandardDevices[:1]); err == nil {
		t.Errorf("expected an error for an existing node")
	}
}

func TestSymlinkCreate(t *testing.T) {
	dir := t.TempDir()
	l := Symlink{Target: "/proc/self/fd/0", Path: filepath.Join(dir, "stdin")}

	if err := l.Create(); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := l.Create(); err != nil {
		t.Errorf("existing link should be accepted: %v", err)
	}
	got, err := os.Readlink(l.Path)
	if err != nil || got != l.Target {
		t.Errorf("Readlink = %q, %v", got, err)
	}

	missing := Symlink{Target: "x", Path: filepath.Join(dir, "no", "such", "dir")}
	if err := missing.Create(); err == nil {
		t.Errorf("expected error for a missing parent")
	}
}

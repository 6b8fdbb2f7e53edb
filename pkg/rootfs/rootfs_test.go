package rootfs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestCheck(t *testing.T) {
	dir := t.TempDir()

	info, err := Check(dir + "/./")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if info.Path != filepath.Clean(dir) {
		t.Errorf("expected cleaned path %q, got %q", filepath.Clean(dir), info.Path)
	}
	if len(info.Submounts) != 0 {
		t.Errorf("unexpected submounts in a fresh temp dir: %v", info.Submounts)
	}
}

func TestCheckErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want error
	}{
		{"relative", "rootfs", ErrNotAbsolute},
		{"host root", "/", ErrHostRoot},
		{"host root uncleaned", "/tmp/..", ErrHostRoot},
		{"missing", filepath.Join(dir, "missing"), fs.ErrNotExist},
		{"file", file, ErrNotDirectory},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Check(tc.path)
			if !errors.Is(err, tc.want) {
				t.Errorf("Check(%q) = %v, want %v", tc.path, err, tc.want)
			}
		})
	}
}

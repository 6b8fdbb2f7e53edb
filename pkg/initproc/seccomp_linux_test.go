//go:build linux

package initproc

import (
	"testing"

	"github.com/elastic/go-seccomp-bpf/arch"
)

func TestNewSyscallFilter(t *testing.T) {
	if _, err := arch.GetInfo(""); err != nil {
		t.Skipf("seccomp not supported here: %v", err)
	}

	f, err := NewSyscallFilter([]string{"mount", "umount2", "reboot"})
	if err != nil {
		t.Fatalf("NewSyscallFilter failed: %v", err)
	}
	if f.Len() == 0 {
		t.Errorf("expected a non-empty program")
	}

	bigger, err := NewSyscallFilter([]string{"mount", "umount2", "reboot", "kexec_load", "init_module"})
	if err != nil {
		t.Fatalf("NewSyscallFilter failed: %v", err)
	}
	if bigger.Len() <= f.Len() {
		t.Errorf("expected more instructions for more syscalls: %d <= %d", bigger.Len(), f.Len())
	}
}

func TestNewSyscallFilterUnknown(t *testing.T) {
	if _, err := arch.GetInfo(""); err != nil {
		t.Skipf("seccomp not supported here: %v", err)
	}
	if _, err := NewSyscallFilter([]string{"mount", "definitely_not_a_syscall"}); err == nil {
		t.Fatal("expected error for an unknown syscall")
	}
}

func TestCheckProgramSize(t *testing.T) {
	tests := []struct {
		n       int
		wantErr bool
	}{
		{1, false},
		{4096, false},
		{4097, true},
	}
	for _, tc := range tests {
		if err := checkProgramSize(tc.n); (err != nil) != tc.wantErr {
			t.Errorf("checkProgramSize(%d) = %v, wantErr %v", tc.n, err, tc.wantErr)
		}
	}
}

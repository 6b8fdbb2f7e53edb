//go:build linux

package initproc

import (
	"fmt"
	"runtime"

	seccomp "github.com/elastic/go-seccomp-bpf"
	"github.com/elastic/go-seccomp-bpf/arch"
	"golang.org/x/net/bpf"
	"golang.org/x/sys/unix"
)

// SyscallFilter denies a set of syscalls with EPERM and allows the rest.
type SyscallFilter struct {
	policy seccomp.Policy
	size   int
}

// NewSyscallFilter validates names against the running architecture and
// assembles the filter program, so a bad list is rejected before any
// mount is touched.
func NewSyscallFilter(names []string) (*SyscallFilter, error) {
	info, err := arch.GetInfo("")
	if err != nil {
		return nil, fmt.Errorf("seccomp: architecture %s: %w", runtime.GOARCH, err)
	}
	known := make(map[string]bool, len(info.SyscallNumbers))
	for _, n := range info.SyscallNumbers {
		known[n] = true
	}
	for _, n := range names {
		if !known[n] {
			return nil, fmt.Errorf("seccomp: unknown syscall %q on %s", n, runtime.GOARCH)
		}
	}

	f := &SyscallFilter{
		policy: seccomp.Policy{
			DefaultAction: seccomp.ActionAllow,
			Syscalls: []seccomp.SyscallGroup{
				{Action: seccomp.ActionErrno, Names: names},
			},
		},
	}
	insts, err := f.policy.Assemble()
	if err != nil {
		return nil, fmt.Errorf("seccomp: assembling policy: %w", err)
	}
	raw, err := bpf.Assemble(insts)
	if err != nil {
		return nil, fmt.Errorf("seccomp: encoding program: %w", err)
	}
	if err := checkProgramSize(len(raw)); err != nil {
		return nil, err
	}
	f.size = len(raw)
	return f, nil
}

// checkProgramSize rejects programs the kernel would refuse to load.
func checkProgramSize(n int) error {
	if n > unix.BPF_MAXINSNS {
		return fmt.Errorf("seccomp: program has %d instructions, limit is %d", n, unix.BPF_MAXINSNS)
	}
	return nil
}

// Len is the number of BPF instructions in the program.
func (f *SyscallFilter) Len() int {
	return f.size
}

// Load installs the filter on every thread of the process. It sets
// no_new_privs, which the command inherits.
func (f *SyscallFilter) Load() error {
	return seccomp.LoadFilter(seccomp.Filter{
		NoNewPrivs: true,
		Flag:       seccomp.FilterFlagTSync,
		Policy:     f.policy,
	})
}

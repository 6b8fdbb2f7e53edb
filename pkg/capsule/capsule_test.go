package capsule

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/rsturla/capsule/pkg/initproc"
)

func TestSpecValidate(t *testing.T) {
	tests := []struct {
		spec    Spec
		wantErr bool
	}{
		{nil, true},
		{Spec{}, true},
		{Spec{""}, true},
		{Spec{"", "arg"}, true},
		{Spec{"/bin/true"}, false},
		{Spec{"sh", ""}, false},
	}
	for _, tc := range tests {
		err := tc.spec.Validate()
		if (err != nil) != tc.wantErr {
			t.Errorf("Validate(%q) = %v, wantErr %v", []string(tc.spec), err, tc.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("Validate(%q) = %v, want ErrInvalidArgument", []string(tc.spec), err)
		}
	}
}

func TestShellSpec(t *testing.T) {
	got := ShellSpec("exit 7")
	want := Spec{"/bin/sh", "-c", "exit 7"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ShellSpec = %q, want %q", got, want)
	}
}

func TestShimArgs(t *testing.T) {
	spec := Spec{"/bin/echo", "hello", "world"}
	got := ShimArgs(spec)

	want := []string{SelfExe, initproc.Marker, "/bin/echo", "hello", "world"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ShimArgs = %q, want %q", got, want)
	}

	got[2] = "changed"
	if spec[0] != "/bin/echo" {
		t.Errorf("ShimArgs result shares memory with the spec")
	}
}

func TestNewContainer(t *testing.T) {
	a, b := NewContainer(), NewContainer()
	if a.HostPID != -1 || a.ExitStatus != -1 {
		t.Errorf("unexpected initial state: pid %d status %d", a.HostPID, a.ExitStatus)
	}
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("expected unique ids, got %q and %q", a.ID, b.ID)
	}
}

func TestErrorKinds(t *testing.T) {
	err := fmt.Errorf("creating container: %w", &Error{Op: "clone", Kind: KindResource, Err: errors.New("no memory")})

	if !IsKind(err, KindResource) {
		t.Errorf("expected KindResource through wrapping")
	}
	if IsKind(err, KindSpawn) {
		t.Errorf("unexpected KindSpawn")
	}
	if IsKind(errors.New("plain"), KindResource) {
		t.Errorf("plain error must not match a kind")
	}
	if got := err.Error(); got != "creating container: clone: no memory" {
		t.Errorf("unexpected message %q", got)
	}
	if KindWait.String() != "wait" || KindSignal.String() != "signal" || Kind(42).String() != "Kind(42)" {
		t.Errorf("unexpected kind names")
	}
}

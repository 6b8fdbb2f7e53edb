package capsule

import "github.com/rsturla/capsule/pkg/initproc"

// SelfExe names the running executable image. It is resolved by the
// kernel at exec time, so it keeps working when the binary on disk has
// been moved or replaced.
const SelfExe = "/proc/self/exe"

// ShimArgs builds the argv the cloned process executes:
// [SelfExe, "init", spec...]. The result never shares memory with spec.
func ShimArgs(spec Spec) []string {
	argv := make([]string, 0, len(spec)+2)
	argv = append(argv, SelfExe, initproc.Marker)
	return append(argv, spec...)
}

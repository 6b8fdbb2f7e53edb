package initproc

import "os"

// DefaultPath is used when the caller's environment has no PATH.
const DefaultPath = "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"

// setupEnvironment prepares the environment the user command inherits:
// the init handoff is removed and PATH falls back to DefaultPath.
func setupEnvironment() {
	os.Unsetenv(ConfigEnv)

	if _, ok := os.LookupEnv("PATH"); !ok {
		os.Setenv("PATH", DefaultPath)
	}
}

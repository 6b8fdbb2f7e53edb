package initproc

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Marker is the reserved first argument that selects the init path.
const Marker = "init"

// ConfigEnv carries the encoded Config from the launcher into the init
// process. It is removed from the environment before the user command runs.
const ConfigEnv = "_CAPSULE_INIT_CONFIG"

const (
	// DefaultRootfs is where the prepared root filesystem is expected.
	DefaultRootfs = "/tmp/mycontainer_root"
	// DefaultHostname is the UTS namespace hostname of every container.
	DefaultHostname = "container-1"
)

// Config is everything the init sequencer needs besides the command.
type Config struct {
	Rootfs   string `json:"rootfs"`
	Hostname string `json:"hostname"`

	LogLevel  string `json:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty"`

	// StrictSysfs turns a failed /sys mount into a fatal error.
	StrictSysfs bool `json:"strict_sysfs,omitempty"`

	// DenySyscalls are rejected with EPERM once the filesystem is built.
	DenySyscalls []string `json:"deny_syscalls,omitempty"`
}

// DefaultConfig returns the configuration used when init is invoked
// without a handoff, e.g. by an operator running "capsule init CMD".
func DefaultConfig() Config {
	return Config{
		Rootfs:   DefaultRootfs,
		Hostname: DefaultHostname,
	}
}

func (c Config) withDefaults() Config {
	if c.Rootfs == "" {
		c.Rootfs = DefaultRootfs
	}
	if c.Hostname == "" {
		c.Hostname = DefaultHostname
	}
	return c
}

// EnvEntry encodes c as a KEY=VALUE environment entry.
func (c Config) EnvEntry() (string, error) {
	data, err := json.Marshal(c.withDefaults())
	if err != nil {
		return "", fmt.Errorf("encoding init config: %w", err)
	}
	return ConfigEnv + "=" + string(data), nil
}

// ConfigFromEnv finds and decodes the handoff entry in env. A missing
// entry yields DefaultConfig.
func ConfigFromEnv(env []string) (Config, error) {
	prefix := ConfigEnv + "="
	for i := len(env) - 1; i >= 0; i-- {
		if !strings.HasPrefix(env[i], prefix) {
			continue
		}
		var c Config
		if err := json.Unmarshal([]byte(env[i][len(prefix):]), &c); err != nil {
			return Config{}, fmt.Errorf("decoding %s: %w", ConfigEnv, err)
		}
		return c.withDefaults(), nil
	}
	return DefaultConfig(), nil
}

// StripConfig returns a copy of env without any handoff entry.
func StripConfig(env []string) []string {
	prefix := ConfigEnv + "="
	out := make([]string, 0, len(env)+1)
	for _, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			continue
		}
		out = append(out, kv)
	}
	return out
}

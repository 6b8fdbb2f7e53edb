package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rsturla/capsule/pkg/capsule"
	"github.com/rsturla/capsule/pkg/initproc"
	"github.com/rsturla/capsule/pkg/logging"
	"github.com/rsturla/capsule/pkg/rootfs"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// exitFailure is used for errors of capsule itself, as opposed to the
// container command's own exit status.
const exitFailure = 125

var (
	flagRootfs       string
	flagHostname     string
	flagCommand      string
	flagStrictSysfs  bool
	flagDenySyscalls []string
	flagKillOnExit   bool
	flagLogLevel     string
	flagLogFormat    string
)

var errUsage = errors.New("requires a command to run")

func init() {
	// The init process must stay on one thread while it switches roots.
	if isInitInvocation(os.Args[1:]) {
		runtime.GOMAXPROCS(1)
		runtime.LockOSThread()
	}
}

func main() {
	// Init mode: "capsule init COMMAND [ARG...]" is the re-exec target of
	// the launcher. It runs as PID 1 of the new namespaces and never
	// reaches the command line parser, so a user command named like a
	// flag cannot change its behavior.
	if isInitInvocation(os.Args[1:]) {
		os.Exit(initproc.Main(os.Args[2:]))
	}

	os.Exit(run(os.Args[1:]))
}

func isInitInvocation(args []string) bool {
	return len(args) >= 1 && args[0] == initproc.Marker
}

func run(args []string) int {
	exitStatus := exitFailure

	rootCmd := &cobra.Command{
		Use:   "capsule [options] COMMAND [ARG...]",
		Short: "Run a command in an isolated container",
		Long: `Run a command as PID 1 of new PID, UTS and mount namespaces.

The command runs inside a prepared root filesystem with a private /proc,
a read-only /sys and a minimal /dev. The exit status of capsule is the
exit status of the command, or 128+N when it was killed by signal N.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := containerRun(cmd, args)
			exitStatus = status
			return err
		},
		SilenceErrors:         true,
		DisableFlagsInUseLine: true,
		Example: `  capsule /bin/sh
  capsule /bin/sh -c 'echo $$; hostname'
  capsule -c 'exit 7'
  capsule --rootfs /srv/alpine --deny-syscall mount /bin/ls /`,
	}

	flags := rootCmd.Flags()
	flags.SetInterspersed(false)

	flags.StringVar(&flagRootfs, "rootfs", envOr("CAPSULE_ROOTFS", initproc.DefaultRootfs), "Prepared root filesystem")
	flags.StringVar(&flagHostname, "hostname", envOr("CAPSULE_HOSTNAME", initproc.DefaultHostname), "Hostname inside the container")
	flags.StringVarP(&flagCommand, "command", "c", "", "Run the given string with /bin/sh -c")
	flags.BoolVar(&flagStrictSysfs, "strict-sysfs", false, "Fail when /sys cannot be mounted")
	flags.StringSliceVar(&flagDenySyscalls, "deny-syscall", nil, "Syscall to reject with EPERM (repeatable)")
	flags.BoolVar(&flagKillOnExit, "kill-on-exit", true, "Kill the container when capsule dies")
	flags.StringVar(&flagLogLevel, "log-level", envOr("CAPSULE_LOG_LEVEL", logging.DefaultLevel), "Log level: debug, info, warn, error")
	flags.StringVar(&flagLogFormat, "log-format", logging.FormatAuto, `Log format: "auto", "text", "json"`)

	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFailure
	}
	return exitStatus
}

func containerRun(cmd *cobra.Command, args []string) (int, error) {
	spec, err := commandSpec(args, flagCommand)
	if err != nil {
		return exitFailure, err
	}
	// Past argument checks, errors are not usage errors.
	cmd.SilenceUsage = true

	if err := logging.Configure(logrus.StandardLogger(), flagLogLevel, flagLogFormat, os.Stderr); err != nil {
		return exitFailure, err
	}

	rootPath, err := filepath.Abs(flagRootfs)
	if err != nil {
		return exitFailure, fmt.Errorf("resolving root filesystem: %w", err)
	}
	info, err := rootfs.Check(rootPath)
	if err != nil {
		return exitFailure, err
	}
	log := logrus.WithFields(logrus.Fields{
		"rootfs":      info.Path,
		"mount_point": info.MountPoint,
	})
	if len(info.Submounts) > 0 {
		log.WithField("submounts", info.Submounts).Debug("Root filesystem has submounts")
	}

	opts := capsule.Options{
		Init: initproc.Config{
			Rootfs:       info.Path,
			Hostname:     flagHostname,
			LogLevel:     flagLogLevel,
			LogFormat:    flagLogFormat,
			StrictSysfs:  flagStrictSysfs,
			DenySyscalls: flagDenySyscalls,
		},
		KillOnParentExit: flagKillOnExit,
		Logger:           log,
	}

	if flagKillOnExit {
		// The parent-death signal fires when the cloning thread exits.
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	var ctr *capsule.Container
	if flagCommand != "" {
		ctr, err = capsule.LaunchShell(flagCommand, opts)
	} else {
		ctr, err = capsule.Launch(spec, opts)
	}
	if err != nil {
		return exitFailure, fmt.Errorf("creating container: %w", err)
	}

	log.WithField("host_pid", ctr.HostPID).Info("Waiting for container")
	status, err := ctr.Wait()
	if err != nil {
		return exitFailure, fmt.Errorf("waiting for container: %w", err)
	}
	if status < 0 {
		return exitFailure, fmt.Errorf("container %d ended with an unknown status", ctr.HostPID)
	}
	return status, nil
}

// commandSpec turns positional arguments, or the -c string, into the
// command to run.
func commandSpec(args []string, shellCommand string) (capsule.Spec, error) {
	if shellCommand != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("--command cannot be combined with a positional command")
		}
		return capsule.ShellSpec(shellCommand), nil
	}
	if len(args) == 0 {
		return nil, errUsage
	}
	return capsule.Spec(args), nil
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRoot creates the root command and wires all subcommands.
func buildRoot() *cobra.Command {
	runFlags := &RunFlags{}
	checkFlags := &CheckFlags{}
	patchFlags := &PatchFlags{}
	restoreFlags := &RestoreFlags{}
	registryFlags := &RegistryFlags{}

	cmd := command{}

	root := createRootCommand()
	root.AddCommand(
		createRunCommand(cmd, runFlags),
		createCheckCommand(cmd, checkFlags),
		createPatchCommand(cmd, patchFlags),
		createRestoreCommand(cmd, restoreFlags),
		createRegistryCommand(cmd, registryFlags),
	)
	return root
}

// createRootCommand creates the root command with no persistent flags;
// everything lives on the subcommands.
func createRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "halcheck",
		Short: "Conformance harness for component registry services",
		Long: `Halcheck verifies that a component-registry service exposes the
components it is expected to. It can drive a full cycle (declare the
service in host manifests, restart discovery, start the service, run
the checks, restore everything) or just run the checks against an
already-running registry.

Examples:
  halcheck run --config=harness.toml
  halcheck check --config=harness.toml --addr=http://127.0.0.1:9310
  halcheck registry --socket=/tmp/reg.sock --components=componentA,componentB`,
	}
}

// createRunCommand creates the run subcommand (full harness cycle).
func createRunCommand(c command, f *RunFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full harness cycle from a config file",
		Long: `Run snapshots the host manifests, declares the service entry,
restarts the discovery daemon, starts the service, runs the checks and
restores every touched file. Exits non-zero on setup failure or any
check violation.

Examples:
  halcheck run --config=harness.toml
  halcheck run --config=harness.toml --metrics-addr=:9100 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Run(*f)
		},
	}
	cmd.Flags().StringVar(&f.ConfigPath, "config", "", "path to TOML config file (required)")
	cmd.Flags().StringVar(&f.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this addr (e.g. :9100)")
	cmd.Flags().BoolVar(&f.JSONOut, "json", false, "print the report as JSON")
	if err := cmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}
	return cmd
}

// createCheckCommand creates the check subcommand (checks only).
func createCheckCommand(c command, f *CheckFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run only the conformance checks against a running registry",
		Long: `Check connects to an already-running registry and runs the
conformance checks without touching manifests or service lifecycle.

Examples:
  halcheck check --config=harness.toml
  halcheck check --config=harness.toml --addr=http://127.0.0.1:9310`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Check(*f)
		},
	}
	cmd.Flags().StringVar(&f.ConfigPath, "config", "", "path to TOML config file (required)")
	cmd.Flags().StringVar(&f.Addr, "addr", "", "registry base URL (e.g. http://127.0.0.1:9310), overrides socket discovery")
	cmd.Flags().StringVar(&f.SocketDir, "socket-dir", "", "directory holding registry unix sockets")
	cmd.Flags().DurationVar(&f.Timeout, "timeout", 10*time.Second, "per-request timeout")
	cmd.Flags().BoolVar(&f.JSONOut, "json", false, "print the report as JSON")
	if err := cmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}
	return cmd
}

// createPatchCommand creates the patch subcommand (manifests only).
func createPatchCommand(c command, f *PatchFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Declare the interface in the host discovery manifests",
		Long: `Patch inserts the configured interface entry into the manifest and
compatibility matrix, atomically and idempotently, without starting the
service. Pass --backup-dir to keep pre-patch copies for 'restore'.

Examples:
  halcheck patch --config=harness.toml
  halcheck patch --config=harness.toml --backup-dir=/tmp/vintf-backup`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Patch(*f)
		},
	}
	cmd.Flags().StringVar(&f.ConfigPath, "config", "", "path to TOML config file (required)")
	cmd.Flags().StringVar(&f.BackupDir, "backup-dir", "", "directory to copy pre-patch files into")
	if err := cmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}
	return cmd
}

// createRestoreCommand creates the restore subcommand.
func createRestoreCommand(c command, f *RestoreFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Put back manifests saved by 'patch --backup-dir'",
		Long: `Restore copies the files saved under --backup-dir back over the
configured manifest paths.

Examples:
  halcheck restore --config=harness.toml --backup-dir=/tmp/vintf-backup`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Restore(*f)
		},
	}
	cmd.Flags().StringVar(&f.ConfigPath, "config", "", "path to TOML config file (required)")
	cmd.Flags().StringVar(&f.BackupDir, "backup-dir", "", "directory holding saved files (required)")
	if err := cmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}
	if err := cmd.MarkFlagRequired("backup-dir"); err != nil {
		panic(err)
	}
	return cmd
}

// createRegistryCommand creates the registry subcommand (reference server).
func createRegistryCommand(c command, f *RegistryFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Serve the reference registry",
		Long: `Registry serves the in-process reference registry, useful for
developing fixtures and exercising the harness without a real service.

Examples:
  halcheck registry --socket=/tmp/reg.sock --components=componentA
  halcheck registry --addr=127.0.0.1:9310 --components=componentA,componentB`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Registry(*f)
		},
	}
	cmd.Flags().StringVar(&f.Socket, "socket", "", "unix socket path to listen on")
	cmd.Flags().StringVar(&f.Addr, "addr", "", "TCP address to listen on")
	cmd.Flags().StringSliceVar(&f.Components, "components", nil, "component names the registry supports")
	return cmd
}

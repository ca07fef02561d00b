package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

// reloadCmd sends SIGHUP to a running obad serve process via its PID file.
func reloadCmd() *cobra.Command {
	var pidFile string
	cmd := &cobra.Command{
		Use:   "reload",
		Short: "signal a running obad process to reload its config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReload(pidFile)
		},
	}
	cmd.Flags().StringVar(&pidFile, "pid-file", "/var/run/obad.pid", "path to the running server's PID file")
	return cmd
}

func runReload(pidFile string) error {
	if v := os.Getenv("OBAD_PID_FILE"); v != "" {
		pidFile = v
	}
	data, err := os.ReadFile(pidFile)
	if err != nil {
		return configErr(fmt.Errorf("reload: read pid file %s: %w", pidFile, err))
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return configErr(fmt.Errorf("reload: invalid pid in %s: %q", pidFile, data))
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return runtimeErr(fmt.Errorf("reload: find process %d: %w", pid, err))
	}
	if err := proc.Signal(syscall.SIGHUP); err != nil {
		return runtimeErr(fmt.Errorf("reload: signal process %d: %w", pid, err))
	}
	fmt.Printf("sent SIGHUP to obad process (pid %d)\n", pid)
	return nil
}

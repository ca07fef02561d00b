package main

import (
	"errors"

	"github.com/spf13/cobra"
)

// exitKind classifies a command failure onto a process exit code.
type exitKind int

const (
	exitConfigError  exitKind = 1
	exitRuntimeError exitKind = 2
	exitInterrupted  exitKind = 130
)

// cmdError pairs an error with the exit code it should produce, so
// cobra's single error-return path can still carry a specific exit code.
type cmdError struct {
	kind exitKind
	err  error
}

func (e *cmdError) Error() string {
	if e.err == nil {
		return "interrupted"
	}
	return e.err.Error()
}
func (e *cmdError) Unwrap() error { return e.err }

func configErr(err error) error  { return &cmdError{kind: exitConfigError, err: err} }
func runtimeErr(err error) error { return &cmdError{kind: exitRuntimeError, err: err} }
func interruptedErr(err error) error { return &cmdError{kind: exitInterrupted, err: err} }

func exitCodeFor(err error) int {
	var ce *cmdError
	if errors.As(err, &ce) {
		return int(ce.kind)
	}
	return int(exitRuntimeError)
}

var configPath string

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "obad",
		Short:         "obad is a standalone LDAPv3 directory core",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "/etc/obad/obad.yaml", "path to the server config file")
	root.AddCommand(serveCmd(), reloadCmd(), versionCmd())
	return root
}

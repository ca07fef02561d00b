// Command obad is the thin CLI front door around the directory core,
// built as a github.com/spf13/cobra command tree.
package main

import "os"

func main() {
	os.Exit(Execute())
}

// Execute runs the root command and returns the process exit code: 0
// clean shutdown, 1 config error, 2 fatal runtime error, 130 interrupted.
func Execute() int {
	if err := rootCmd().Execute(); err != nil {
		return exitCodeFor(err)
	}
	return 0
}

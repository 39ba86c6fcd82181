// Command reqctl drives a requirement session from the terminal: it lists
// scenarios, shows requirements and applies or removes them against the
// inventory service.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/intelliment/puppet-integration/internal/domain"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command line and returns the exit code. Session failures
// have already been shown by the session's notifier and are not repeated.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		if !notified(err) {
			fmt.Fprintln(stderr, "Error:", err)
		}
		return 1
	}
	return 0
}

func notified(err error) bool {
	return domain.IsUserInput(err) || domain.IsTransport(err)
}

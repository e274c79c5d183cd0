package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ubirch/go-certify/core/failure"
)

func main() {
	os.Exit(execute(newRootCommand(newTrustService)))
}

// execute runs cmd and reports a failure as "<name>: <message>" on its error
// output. It returns the process exit code.
func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", failure.NameOf(err), err)
		return 1
	}
	return 0
}

// Command criteria stores JSON documents in SQLite and queries them with
// criteria definitions.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/criteria/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}

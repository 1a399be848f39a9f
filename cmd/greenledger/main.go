// Command greenledger computes carbon footprints and tracks reduction
// progress, goals and rewards.
package main

import (
	"fmt"
	"os"

	"github.com/rshade/greenledger/internal/cli"
	"github.com/rshade/greenledger/pkg/version"
)

func run() error {
	root := cli.NewRootCmd(version.GetVersion())
	return root.Execute()
}

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}

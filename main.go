package main

import (
	"os"

	"github.com/mrlokans/sessiongate/internal/cli"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	cmd := cli.NewRootCmd(Version+" ("+Commit+")", nil)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/teamcutter/gpm/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

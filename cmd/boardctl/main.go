package main

import (
	"os"

	"github.com/Billy-Davies-2/draft-board-planner/internal/cli"
)

func main() {
	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

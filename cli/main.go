package main

import (
	"os"

	"github.com/parley-systems/parley-stack/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

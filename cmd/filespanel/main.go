package main

import (
	"os"

	"github.com/justyntemme/filespanel/cmd/filespanel/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

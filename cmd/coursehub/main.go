package main

import (
	"os"

	"github.com/coursehub-dev/coursehub/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

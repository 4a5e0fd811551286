package main

import (
	"os"

	"github.com/gracebooks/gracebooks/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// Package main is the entry point of the tldr command.
package main

import (
	"os"

	"github.com/nao1215/tldr/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

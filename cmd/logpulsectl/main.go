// Package main is the entry point for the logpulse CLI tool.
package main

import (
	"os"

	"github.com/good-yellow-bee/logpulse/cmd/logpulsectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

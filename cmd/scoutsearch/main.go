// Package main provides the entry point for the scoutsearch CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/scoutsearch/cmd/scoutsearch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

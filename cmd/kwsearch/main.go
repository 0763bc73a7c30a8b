// Package main provides the entry point for the kwsearch CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/kwsearch/cmd/kwsearch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

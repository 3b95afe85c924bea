// Package main provides the entry point for the globwalk CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/globwalk/cmd/globwalk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

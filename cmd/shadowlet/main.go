// Package main provides the shadowlet CLI.
package main

import (
	"os"

	"github.com/replforge/shadowlet/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

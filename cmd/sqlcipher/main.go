// Package main provides the sqlcipher command.
package main

import (
	"os"

	"github.com/jakoblorz/sqlcipher/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

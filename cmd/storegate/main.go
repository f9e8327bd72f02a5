// Command storegate runs the storefront edge gateway.
package main

import (
	"os"

	"github.com/meridian-labs/storegate/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

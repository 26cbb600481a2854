package main

import (
	"os"

	"github.com/singlestore-labs/okql/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

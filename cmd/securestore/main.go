package main

import (
	"os"

	"github.com/absfs/securestore/cmd/securestore/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

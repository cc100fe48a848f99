package main

import (
	"os"

	"github.com/printlijst/printlijst/cmd/printlijst/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

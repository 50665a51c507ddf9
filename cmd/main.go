package main

import (
	"os"

	"github.com/poliscope/poliscope/cmd/poliscope"
)

func main() {
	if err := poliscope.Execute(); err != nil {
		os.Exit(1)
	}
}

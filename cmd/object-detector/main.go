package main

import (
	"errors"
	"os"

	"github.com/rs/zerolog/log"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var usage *usageError
		if errors.As(err, &usage) {
			os.Exit(2)
		}
		log.Error().Err(err).Msg("object detection failed")
		os.Exit(1)
	}
}

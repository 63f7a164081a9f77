package bootstrap

import (
	"fmt"

	coreconfig "deckbot/core/config"
	"deckbot/core/logger"
	"deckbot/deck"
)

// Options control the generic bootstrap pipeline.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	OpenStore  func(dir, seedAdmin string) (*deck.Store, error)
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	Store *deck.Store
}

// Run initializes the logger and opens the durable deck store. A store that
// fails to open is fatal: the bot must not start against unreadable data.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	openStore := opts.OpenStore
	if openStore == nil {
		openStore = deck.Open
	}
	store, err := openStore(opts.Config.Storage.Dir, opts.Config.Storage.SeedAdmin)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: store initialization failed: %w", err)
	}

	return &Result{Store: store}, nil
}

package main

import (
	"log"

	"github.com/joho/godotenv"

	"deckbot/bot"
	"deckbot/core/bootstrap"
	"deckbot/core/buildinfo"
	corecmd "deckbot/core/cmd"
	coreconfig "deckbot/core/config"
)

func main() {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	log.Printf("deckbot %s (%s)", buildinfo.Version, buildinfo.Commit)

	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        coreconfig.Load,
		Bootstrap: func(cfg *coreconfig.Config) (corecmd.TelegramApp, error) {
			res, err := bootstrap.Run(bootstrap.Options{Config: cfg})
			if err != nil {
				return nil, err
			}
			app, err := bot.New(cfg, res.Store)
			if err != nil {
				return nil, err
			}
			return app, nil
		},
	})
	if err != nil {
		log.Fatalf("deckbot: %v", err)
	}
}

package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/Jacobbrewer1/supportbot/cmd/bot/config"
	"github.com/Jacobbrewer1/supportbot/pkg/logging"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Fatalln(err)
	}

	a, err := InitializeApp(cfg)
	if err != nil {
		log.Fatalln(err)
	}

	a.Info("Starting application")
	if err := a.Run(); err != nil {
		a.Error("Error running application", slog.String(logging.KeyError, err.Error()))
		os.Exit(1)
	}
}

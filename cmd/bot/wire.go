//go:build wireinject
// +build wireinject

package main

import (
	"github.com/Jacobbrewer1/supportbot/cmd/bot/config"
	"github.com/Jacobbrewer1/supportbot/pkg/logging"
	"github.com/Jacobbrewer1/supportbot/pkg/prompt"
	"github.com/google/wire"
	"github.com/gorilla/mux"
)

func InitializeApp(cfg *config.Config) (*App, error) {
	wire.Build(
		provideLoggingConfig,
		logging.CommonLogger,
		mux.NewRouter,
		provideBackend,
		provideGuildStore,
		prompt.NewWaiter,
		NewApp,
	)
	return new(App), nil
}

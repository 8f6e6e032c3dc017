package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/supportbot/cmd/bot/config"
	"github.com/Jacobbrewer1/supportbot/pkg/dataaccess"
	"github.com/Jacobbrewer1/supportbot/pkg/dataaccess/connection"
	"github.com/Jacobbrewer1/supportbot/pkg/logging"
)

func provideLoggingConfig(cfg *config.Config) (*logging.Config, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error parsing log level: %w", err)
	}

	c := logging.NewConfig(logging.Name(config.AppName))
	c.Level = level
	c.File = cfg.LogFile
	return c, nil
}

func provideBackend(cfg *config.Config) (dataaccess.Backend, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendFile:
		return dataaccess.NewFileBackend(cfg.DataFile), nil
	case config.StoreBackendMongo:
		db := &connection.MongoDB{
			ConnectionString: cfg.MongoUri,
			Host:             cfg.MongoHost,
			Username:         cfg.MongoUsername,
			Password:         cfg.MongoPassword,
		}

		client, err := db.Connect(context.Background())
		if err != nil {
			return nil, fmt.Errorf("error connecting to mongo: %w", err)
		}
		return dataaccess.NewMongoBackend(client, cfg.MongoDatabase, cfg.DeploymentId), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func provideGuildStore(l *slog.Logger, backend dataaccess.Backend) (dataaccess.GuildStore, error) {
	return dataaccess.NewGuildStore(context.Background(), l, backend)
}

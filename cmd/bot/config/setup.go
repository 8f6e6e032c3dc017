package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrIncompleteConfig is returned when a required value has not been provided.
var ErrIncompleteConfig = errors.New("incomplete configuration")

const (
	keyBotToken       = "bot_token"
	keyApplicationId  = "application_id"
	keyStoreBackend   = "store_backend"
	keyDataFile       = "data_file"
	keyMongoUri       = "mongo_uri"
	keyMongoHost      = "mongo_host"
	keyMongoUsername  = "mongo_username"
	keyMongoPassword  = "mongo_password"
	keyMongoDatabase  = "mongo_database"
	keyDeploymentId   = "deployment_id"
	keyMonitoringPort = "monitoring_port"
	keyCommandPrefix  = "command_prefix"
	keyLogLevel       = "log_level"
	keyLogFile        = "log_file"
	keyPromptTimeout  = "prompt_timeout"
	keyCloseDelay     = "close_delay"
	keyDeletePace     = "delete_pace"
)

// Parse builds the configuration from, in increasing priority: defaults, an optional config file, environment
// variables (including a .env file in the working directory) and command line flags.
func Parse(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	flags := pflag.NewFlagSet(AppName, pflag.ContinueOnError)
	configFile := flags.String("config", "", "Path to a YAML config file")
	flags.String(keyDataFile, defaultDataFile, "Path of the store document for the file backend")
	flags.String(keyStoreBackend, StoreBackendFile, "Store backend, file or mongo")
	flags.String(keyMonitoringPort, defaultMonitoringPort, "Port for the metrics and health server")
	flags.String(keyLogLevel, defaultLogLevel, "Log level, one of debug, info, warn, error")
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	v := viper.New()
	v.SetDefault(keyStoreBackend, StoreBackendFile)
	v.SetDefault(keyDataFile, defaultDataFile)
	v.SetDefault(keyMongoDatabase, defaultMongoDatabase)
	v.SetDefault(keyDeploymentId, defaultDeploymentId)
	v.SetDefault(keyMonitoringPort, defaultMonitoringPort)
	v.SetDefault(keyCommandPrefix, defaultCommandPrefix)
	v.SetDefault(keyLogLevel, defaultLogLevel)
	v.SetDefault(keyPromptTimeout, defaultPromptTimeout)
	v.SetDefault(keyCloseDelay, defaultCloseDelay)
	v.SetDefault(keyDeletePace, defaultDeletePace)

	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("error binding flags: %w", err)
	}

	if *configFile != "" {
		v.SetConfigFile(*configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", *configFile, err)
		}
	}

	c := &Config{
		BotToken:       v.GetString(keyBotToken),
		ApplicationId:  v.GetString(keyApplicationId),
		StoreBackend:   strings.ToLower(v.GetString(keyStoreBackend)),
		DataFile:       v.GetString(keyDataFile),
		MongoUri:       v.GetString(keyMongoUri),
		MongoHost:      v.GetString(keyMongoHost),
		MongoUsername:  v.GetString(keyMongoUsername),
		MongoPassword:  v.GetString(keyMongoPassword),
		MongoDatabase:  v.GetString(keyMongoDatabase),
		DeploymentId:   v.GetString(keyDeploymentId),
		MonitoringPort: v.GetString(keyMonitoringPort),
		CommandPrefix:  v.GetString(keyCommandPrefix),
		LogLevel:       v.GetString(keyLogLevel),
		LogFile:        v.GetString(keyLogFile),
		Timings: Timings{
			PromptTimeout: v.GetDuration(keyPromptTimeout),
			CloseDelay:    v.GetDuration(keyCloseDelay),
			DeletePace:    v.GetDuration(keyDeletePace),
		},
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that every required value has been provided.
func (c *Config) Validate() error {
	var missing []string
	if c.BotToken == "" {
		missing = append(missing, EnvBotToken)
	}
	if c.ApplicationId == "" {
		missing = append(missing, EnvApplicationId)
	}

	switch c.StoreBackend {
	case StoreBackendFile:
		if c.DataFile == "" {
			missing = append(missing, EnvDataFile)
		}
	case StoreBackendMongo:
		if c.MongoUri == "" && c.MongoHost == "" {
			missing = append(missing, EnvMongoUri+" or "+EnvMongoHost)
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncompleteConfig, strings.Join(missing, ", "))
	}

	if c.Timings.PromptTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvPromptTimeout)
	}
	if c.Timings.CloseDelay < 0 {
		return fmt.Errorf("%s must not be negative", EnvCloseDelay)
	}
	return nil
}

// LogValue implements slog.LogValuer. Secrets are left out.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("store_backend", c.StoreBackend),
		slog.String("data_file", c.DataFile),
		slog.String("mongo_database", c.MongoDatabase),
		slog.String("monitoring_port", c.MonitoringPort),
		slog.String("command_prefix", c.CommandPrefix),
		slog.String("log_level", c.LogLevel),
		slog.Duration("prompt_timeout", c.Timings.PromptTimeout),
		slog.Duration("close_delay", c.Timings.CloseDelay),
	)
}

package config

import "time"

const (
	// AppName is the name of the application.
	AppName = "supportbot"

	// EnvBotToken is the environment variable for the bot token.
	EnvBotToken = `BOT_TOKEN`

	// EnvApplicationId is the environment variable for the application ID.
	EnvApplicationId = `APPLICATION_ID`

	// EnvStoreBackend is the environment variable for the store backend, "file" or "mongo".
	EnvStoreBackend = `STORE_BACKEND`

	// EnvDataFile is the environment variable for the path of the store document.
	EnvDataFile = `DATA_FILE`

	// EnvMongoUri is the environment variable for the MongoDB URI.
	EnvMongoUri = `MONGO_URI`

	// EnvMongoHost is the environment variable for the MongoDB host, used when no URI is given.
	EnvMongoHost = `MONGO_HOST`

	// EnvMongoUsername is the environment variable for the MongoDB user.
	EnvMongoUsername = `MONGO_USERNAME`

	// EnvMongoPassword is the environment variable for the MongoDB password.
	EnvMongoPassword = `MONGO_PASSWORD`

	// EnvMongoDatabase is the environment variable for the MongoDB database.
	EnvMongoDatabase = `MONGO_DATABASE`

	// EnvDeploymentId is the environment variable for the ID of the stored document in MongoDB.
	EnvDeploymentId = `DEPLOYMENT_ID`

	// EnvMonitoringPort is the environment variable for the monitoring port.
	EnvMonitoringPort = `MONITORING_PORT`

	// EnvCommandPrefix is the environment variable for the text command prefix.
	EnvCommandPrefix = `COMMAND_PREFIX`

	// EnvLogLevel is the environment variable for the log level.
	EnvLogLevel = `LOG_LEVEL`

	// EnvLogFile is the environment variable for an optional log file.
	EnvLogFile = `LOG_FILE`

	// EnvPromptTimeout is the environment variable for how long to wait for a follow-up reply.
	EnvPromptTimeout = `PROMPT_TIMEOUT`

	// EnvCloseDelay is the environment variable for the delay before a closed ticket channel is deleted.
	EnvCloseDelay = `CLOSE_DELAY`
)

const (
	// StoreBackendFile stores the document in a JSON file.
	StoreBackendFile = "file"

	// StoreBackendMongo stores the document in MongoDB.
	StoreBackendMongo = "mongo"
)

const (
	defaultDataFile       = "server_data.json"
	defaultMongoDatabase  = AppName
	defaultDeploymentId   = "default"
	defaultMonitoringPort = "8080"
	defaultCommandPrefix  = ";"
	defaultLogLevel       = "info"
	defaultPromptTimeout  = 30 * time.Second
	defaultCloseDelay     = 5 * time.Second
	defaultDeletePace     = 250 * time.Millisecond
)

// Config is the configuration of the bot.
type Config struct {
	// BotToken is the token for the bot.
	BotToken string

	// ApplicationId is the ID of the application.
	ApplicationId string

	// StoreBackend is the backend of the guild store.
	StoreBackend string

	// DataFile is the path of the store document when using the file backend.
	DataFile string

	// MongoUri is the URI for the MongoDB database.
	MongoUri string

	// MongoHost, MongoUsername and MongoPassword build the connection string when MongoUri is empty.
	MongoHost     string
	MongoUsername string
	MongoPassword string

	// MongoDatabase is the name of the MongoDB database.
	MongoDatabase string

	// DeploymentId is the ID of the stored document when using the mongo backend.
	DeploymentId string

	// MonitoringPort is the port for the monitoring server.
	MonitoringPort string

	// CommandPrefix is the prefix of text commands.
	CommandPrefix string

	// LogLevel is the minimum log level.
	LogLevel string

	// LogFile is an optional file that logs are also written to.
	LogFile string

	// Timings are the waits of the support workflow.
	Timings Timings
}

// Timings are the waits of the support workflow.
type Timings struct {
	// PromptTimeout is how long to wait for a follow-up reply or confirmation.
	PromptTimeout time.Duration

	// CloseDelay is the delay between closing a ticket and deleting its channel.
	CloseDelay time.Duration

	// DeletePace is the minimum interval between channel deletions during a bulk delete. Zero disables pacing.
	DeletePace time.Duration
}

// DefaultTimings are the timings used when none are configured.
func DefaultTimings() Timings {
	return Timings{
		PromptTimeout: defaultPromptTimeout,
		CloseDelay:    defaultCloseDelay,
		DeletePace:    defaultDeletePace,
	}
}

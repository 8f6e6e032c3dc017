package connection

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	dbMonitoring "github.com/Jacobbrewer1/supportbot/pkg/dataaccess/monitoring"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// connectTimeout bounds the initial connection and ping.
const connectTimeout = 10 * time.Second

// MongoDB holds the settings for connecting to MongoDB. ConnectionString wins when set, otherwise it is built
// from the remaining fields.
type MongoDB struct {
	ConnectionString string
	Username         string
	Password         string
	Host             string
	Port             string
	Args             string
}

// GenerateConnectionString builds an SRV connection string from the host and credentials. Credentials are escaped.
func (m *MongoDB) GenerateConnectionString() {
	u := &url.URL{
		Scheme:   "mongodb+srv",
		Host:     m.Host,
		RawQuery: m.Args,
	}

	switch {
	case m.Username != "" && m.Password != "":
		u.User = url.UserPassword(m.Username, m.Password)
	case m.Username != "":
		u.User = url.User(m.Username)
	}

	if m.Port != "" {
		u.Host = net.JoinHostPort(m.Host, m.Port)
	}
	if m.Args != "" {
		u.Path = "/"
	}

	m.ConnectionString = u.String()
}

// Connect opens a client and verifies it with a ping before returning it.
func (m *MongoDB) Connect(ctx context.Context) (*mongo.Client, error) {
	if m.ConnectionString == "" {
		m.GenerateConnectionString()
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(m.ConnectionString).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("error connecting to mongo: %w", err)
	}

	done := dbMonitoring.Observe("mongo", "ping")
	err = client.Ping(ctx, nil)
	done(err)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("error pinging mongo: %w", err)
	}
	return client, nil
}

package dataaccess

import (
	"context"
	"errors"
	"fmt"

	"github.com/Jacobbrewer1/supportbot/pkg/dataaccess/monitoring"
	"github.com/Jacobbrewer1/supportbot/pkg/entities"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoBackendName = "mongo"

	// mongoCollection is the collection that holds one document per deployment.
	mongoCollection = "documents"
)

// mongoDocument is the stored form of the store document.
type mongoDocument struct {
	ID     string            `bson:"_id"`
	Guilds entities.Document `bson:"guilds"`
}

// MongoBackend stores the document as a single MongoDB document keyed by deployment ID.
type MongoBackend struct {
	// client is the database.
	client *mongo.Client

	// database is the name of the database.
	database string

	// deploymentID is the _id of the stored document.
	deploymentID string
}

// NewMongoBackend creates a backend over an already connected client.
func NewMongoBackend(client *mongo.Client, database, deploymentID string) *MongoBackend {
	return &MongoBackend{
		client:       client,
		database:     database,
		deploymentID: deploymentID,
	}
}

func (b *MongoBackend) Name() string {
	return mongoBackendName
}

func (b *MongoBackend) collection() *mongo.Collection {
	return b.client.Database(b.database).Collection(mongoCollection)
}

func (b *MongoBackend) Load(ctx context.Context) (doc entities.Document, err error) {
	done := monitoring.Observe(mongoBackendName, "load")
	defer func() { done(err) }()

	stored := new(mongoDocument)
	err = b.collection().FindOne(ctx, bson.M{"_id": b.deploymentID}).Decode(stored)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return make(entities.Document), nil
	} else if err != nil {
		return nil, fmt.Errorf("error getting document: %w", err)
	}

	if stored.Guilds == nil {
		stored.Guilds = make(entities.Document)
	}
	stored.Guilds.Normalize()
	return stored.Guilds, nil
}

func (b *MongoBackend) Save(ctx context.Context, doc entities.Document) (err error) {
	done := monitoring.Observe(mongoBackendName, "save")
	defer func() { done(err) }()

	opts := options.Replace().SetUpsert(true)
	_, err = b.collection().ReplaceOne(ctx, bson.M{"_id": b.deploymentID}, &mongoDocument{
		ID:     b.deploymentID,
		Guilds: doc,
	}, opts)
	if err != nil {
		return fmt.Errorf("error replacing document: %w", err)
	}
	return nil
}

func (b *MongoBackend) Ping(ctx context.Context) (err error) {
	done := monitoring.Observe(mongoBackendName, "ping")
	defer func() { done(err) }()

	if err := b.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return nil
}

func (b *MongoBackend) Close(ctx context.Context) error {
	if err := b.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("error disconnecting from MongoDB: %w", err)
	}
	return nil
}

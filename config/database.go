package config

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Database is the constructed Mongo handle passed into the storage layer.
// It is opened once at process start and closed at shutdown; nothing in the
// codebase reaches for it as an ambient singleton.
type Database struct {
	client *mongo.Client

	Products     *mongo.Collection
	Transactions *mongo.Collection
	Users        *mongo.Collection
}

// ConnectDatabase connects, pings and resolves the collections.
func ConnectDatabase(cfg *Config) (*Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(cfg.Database)
	log.Println("Connected to MongoDB")
	return &Database{
		client:       client,
		Products:     db.Collection("products"),
		Transactions: db.Collection("transactions"),
		Users:        db.Collection("users"),
	}, nil
}

func (d *Database) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

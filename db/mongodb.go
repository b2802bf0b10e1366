package db

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chatnet/config"
)

var (
	client   *mongo.Client
	database *mongo.Database
)

// InitMongoDB initializes the MongoDB connection
func InitMongoDB() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uri := config.GetMongoDBURI()
	if uri == "" {
		log.Fatal("MONGODB_URI environment variable not set")
	}

	clientOptions := options.Client().ApplyURI(uri)

	var err error
	client, err = mongo.Connect(ctx, clientOptions)
	if err != nil {
		return err
	}

	// Ping the database to verify connection
	err = client.Ping(ctx, nil)
	if err != nil {
		return err
	}

	database = client.Database(config.GetMongoDBName())

	log.Println("Connected to MongoDB successfully")
	return nil
}

// GetCollection returns a MongoDB collection
func GetCollection(collectionName string) *mongo.Collection {
	return database.Collection(collectionName)
}

// GetClient returns the MongoDB client
func GetClient() *mongo.Client {
	return client
}

// Close closes the MongoDB connection
func Close() error {
	if client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return client.Disconnect(ctx)
	}
	return nil
}

// CreateIndexes creates the indexes the page queries and atomic updates
// depend on.
func CreateIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	messageIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "conversation_id", Value: 1},
				{Key: "created_at", Value: 1},
				{Key: "_id", Value: 1},
			},
		},
	}
	if _, err := GetCollection("messages").Indexes().CreateMany(ctx, messageIndexes); err != nil {
		log.Printf("Failed to create message indexes: %v", err)
	}

	postIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "created_at", Value: -1},
				{Key: "_id", Value: -1},
			},
		},
	}
	if _, err := GetCollection("posts").Indexes().CreateMany(ctx, postIndexes); err != nil {
		log.Printf("Failed to create post indexes: %v", err)
	}

	relationshipIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "player_id", Value: 1},
				{Key: "npc_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := GetCollection("relationships").Indexes().CreateMany(ctx, relationshipIndexes); err != nil {
		log.Printf("Failed to create relationship indexes: %v", err)
	}

	contactIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "player_id", Value: 1},
				{Key: "account_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := GetCollection("contacts").Indexes().CreateMany(ctx, contactIndexes); err != nil {
		log.Printf("Failed to create contact indexes: %v", err)
	}
}

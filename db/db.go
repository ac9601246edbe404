package db

import (
	"context"
	"net/url"
	"os"
	"strings"
	"time"

	"pickmeup-backend/models"
	"pickmeup-backend/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	client   *mongo.Client
	database *mongo.Database
)

// InitDB établit la connexion MongoDB singleton et prépare les index des
// deux collections de signalements.
func InitDB() {
	if client != nil && database != nil {
		return
	}

	uri := getenv("MONGO_URI", "mongodb://localhost:27017")
	dbName := getenv("MONGO_DB", "pickmeup")

	utils.LogInfo("Connecting to MongoDB at " + redactURI(uri) + " (db " + dbName + ")")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	opts := options.Client().ApplyURI(uri).SetMonitor(utils.MongoMonitor())
	c, err := mongo.Connect(ctx, opts)
	if err != nil {
		utils.LogError(err, "Error connecting to the database")
		panic("Could not connect to the database")
	}
	if err := c.Ping(ctx, nil); err != nil {
		_ = c.Disconnect(context.Background())
		utils.LogError(err, "Error pinging the database")
		panic("Could not reach the database")
	}

	client = c
	database = c.Database(dbName)

	if err := createIndexes(); err != nil {
		utils.LogError(err, "Index creation warnings")
	}

	utils.LogSuccess("Database connection successful")
}

func Disconnect(ctx context.Context) error {
	if client == nil {
		return nil
	}
	defer func() { client, database = nil, nil }()
	return client.Disconnect(ctx)
}

func Database() *mongo.Database {
	if database == nil {
		panic("database not connected: call db.InitDB first")
	}
	return database
}

func createIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	}

	for _, col := range []models.Collection{models.CollectionLost, models.CollectionFound} {
		if _, err := database.Collection(string(col)).Indexes().CreateMany(ctx, indexes); err != nil {
			return err
		}
	}
	return nil
}

func redactURI(raw string) string {
	if raw == "" || !strings.Contains(raw, "://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = url.UserPassword("****", "****")
	return u.String()
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

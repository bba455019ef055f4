package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"findocbot/internal/config"
	"findocbot/internal/database"
	"findocbot/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/migrate <command>")
		fmt.Println("Commands:")
		fmt.Println("  indexes       - Create MongoDB collection indexes")
		fmt.Println("  vector-index  - Create the Atlas vector search index on chunks")
		fmt.Println("  qdrant        - Create the Qdrant collection")
		fmt.Println("  all           - Run every step that applies to the configured backends")
		os.Exit(1)
	}

	command := os.Args[1]

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.InitLogger(cfg)
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch command {
	case "indexes":
		err = mongoIndexes(ctx, cfg)
	case "vector-index":
		err = vectorIndex(ctx, cfg)
	case "qdrant":
		err = qdrantCollection(ctx, cfg)
	case "all":
		err = all(ctx, cfg)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("%s failed: %v", command, err)
	}
	fmt.Printf("%s completed successfully!\n", command)
}

func all(ctx context.Context, cfg *config.Config) error {
	if cfg.StoreBackend == config.BackendMongo {
		if err := mongoIndexes(ctx, cfg); err != nil {
			return err
		}
	}
	switch cfg.VectorBackend {
	case config.BackendMongo:
		return vectorIndex(ctx, cfg)
	case config.BackendQdrant:
		return qdrantCollection(ctx, cfg)
	}
	return nil
}

// mongoIndexes relies on ConnectMongoDB, which creates the regular indexes.
func mongoIndexes(ctx context.Context, cfg *config.Config) error {
	client, err := config.ConnectMongoDB(cfg)
	if err != nil {
		return err
	}
	return client.Disconnect(ctx)
}

func vectorIndex(ctx context.Context, cfg *config.Config) error {
	client, err := config.ConnectMongoDB(cfg)
	if err != nil {
		return err
	}
	store := database.NewMongoStore(client, cfg.DBName, cfg.VectorIndexName)
	defer store.Close(ctx)

	fmt.Printf("Ensuring vector index %q (%d dimensions)...\n", cfg.VectorIndexName, cfg.VectorDim)
	return store.EnsureVectorIndex(ctx, cfg.VectorDim)
}

func qdrantCollection(ctx context.Context, cfg *config.Config) error {
	store, err := database.NewQdrantStore(database.QdrantOptions{
		Host:       cfg.QdrantHost,
		Port:       cfg.QdrantPort,
		UseTLS:     cfg.QdrantUseTLS,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.QdrantCollection,
		VectorDim:  cfg.VectorDim,
	})
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	fmt.Printf("Ensuring Qdrant collection %q (%d dimensions)...\n", cfg.QdrantCollection, cfg.VectorDim)
	return store.EnsureCollection(ctx)
}

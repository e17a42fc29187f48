package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"GraphRAG/internal/config"
	"GraphRAG/internal/database/neo4j"
	"GraphRAG/internal/graphstore"
	"GraphRAG/internal/ingestion"
	"GraphRAG/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	dataPath := flag.String("data", "", "path to the embedded-chunk JSON file")
	clear := flag.Bool("clear", false, "remove all existing graph data before loading")
	flag.Parse()

	if *dataPath == "" {
		log.Fatal("missing required -data flag")
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New("ingest_service", "")
	appLogger.Info("Logger initialized")

	ctx := context.Background()

	// Connect to Neo4j
	client, err := neo4j.NewClient(ctx, &cfg.Neo4j)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer client.Close(ctx)
	appLogger.Info("Neo4j connection established")

	store := graphstore.NewNeo4jStore(client)

	if *clear {
		appLogger.Warn("Clearing all existing graph data")
		if err := store.ClearAll(ctx); err != nil {
			appLogger.Fatal(err.Error())
		}
	}

	if err := store.EnsureConstraints(ctx); err != nil {
		appLogger.Fatal(err.Error())
	}
	appLogger.Info("Graph constraints ensured")

	// Load embedded chunks
	loader := ingestion.NewLoader(store, appLogger)
	stats, err := loader.LoadFile(ctx, *dataPath)
	if err != nil {
		appLogger.Fatal(err.Error())
	}

	appLogger.Info(fmt.Sprintf("Ingestion complete: %d documents, %d chunks, %d skipped",
		stats.Documents, stats.Chunks, stats.Skipped))
}

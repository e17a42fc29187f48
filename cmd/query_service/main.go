package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"GraphRAG/internal/api"
	"GraphRAG/internal/config"
	"GraphRAG/internal/database/neo4j"
	redisdb "GraphRAG/internal/database/redis"
	"GraphRAG/internal/embedding"
	"GraphRAG/internal/graphstore"
	"GraphRAG/internal/llm"
	"GraphRAG/internal/query"
	"GraphRAG/internal/retrieval"
	"GraphRAG/pkg/logger"

	"github.com/gin-gonic/gin"
	goredis "github.com/go-redis/redis/v8"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize Logger
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New("query_service", "")
	appLogger.Info("Starting query service...")

	ctx := context.Background()

	// 3. Initialize Dependencies
	client, err := neo4j.NewClient(ctx, &cfg.Neo4j)
	if err != nil {
		log.Fatalf("Failed to connect to Neo4j: %v", err)
	}
	defer client.Close(ctx)
	appLogger.Info("Neo4j connection established")

	var cache *goredis.Client
	if cfg.Redis.Enabled {
		cache, err = redisdb.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer cache.Close()
		appLogger.Info("Redis embedding cache enabled")
	}

	embedder, err := embedding.NewEmdModel(cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to create embedding client: %v", err)
	}

	generator, err := llm.NewClient(cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}

	store := graphstore.NewNeo4jStore(client)
	retriever := retrieval.NewRetriever(store, retrieval.Config{
		EmbeddingTopK: cfg.Retrieval.EmbeddingTopK,
		TopicTopN:     cfg.Retrieval.TopicTopN,
		MaxPerTopic:   cfg.Retrieval.MaxPerTopic,
		TopicWeight:   cfg.Retrieval.TopicWeight,
		FinalTopK:     cfg.Retrieval.FinalTopK,
	}, appLogger)

	session := query.NewSession(embedder, retriever, generator, cache,
		time.Duration(cfg.Redis.TTL)*time.Second, appLogger)
	appLogger.Info("Dependencies injected")

	// 4. Setup Gin router
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := api.NewHandler(session, client, "query_service")
	router := api.SetupRouter(handler)

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	// 5. Start HTTP server in a goroutine
	go func() {
		appLogger.Info(fmt.Sprintf("HTTP server listening at %s", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	// 6. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(fmt.Sprintf("Server shutdown failed: %v", err))
	}
	appLogger.Info("Server gracefully stopped")
}

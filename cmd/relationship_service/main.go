package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"GraphRAG/internal/config"
	"GraphRAG/internal/database/neo4j"
	"GraphRAG/internal/graphstore"
	"GraphRAG/internal/relationship"
	"GraphRAG/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	strategiesFlag := flag.String("strategies", "threshold",
		"comma-separated strategies: threshold, cross_modal, top_k, topic_full, topic_partial")
	flag.Parse()

	strategies, err := parseStrategies(*strategiesFlag)
	if err != nil {
		log.Fatal(err)
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New("relationship_service", "")
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

	builder := relationship.NewBuilder(store, relationship.Config{
		Threshold:           cfg.Relationship.Threshold,
		CrossModalThreshold: cfg.Relationship.CrossModalThreshold,
		TargetDim:           cfg.Relationship.TargetDim,
		TopK:                cfg.Relationship.TopK,
		TopicTopK:           cfg.Relationship.TopicTopK,
		Workers:             cfg.Relationship.Workers,
	}, appLogger)

	reports, err := builder.Run(ctx, strategies...)
	if err != nil {
		appLogger.Fatal(err.Error())
	}

	for _, report := range reports {
		appLogger.Info(fmt.Sprintf("%s: %d candidates, %d edges, %d skipped",
			report.Strategy, report.Candidates, report.EdgesCreated, report.PairsSkipped))
	}
}

func parseStrategies(raw string) ([]relationship.Strategy, error) {
	known := map[string]relationship.Strategy{
		string(relationship.StrategyThreshold):    relationship.StrategyThreshold,
		string(relationship.StrategyCrossModal):   relationship.StrategyCrossModal,
		string(relationship.StrategyTopK):         relationship.StrategyTopK,
		string(relationship.StrategyTopicFull):    relationship.StrategyTopicFull,
		string(relationship.StrategyTopicPartial): relationship.StrategyTopicPartial,
	}

	var strategies []relationship.Strategy
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		strategy, ok := known[name]
		if !ok {
			return nil, fmt.Errorf("unknown strategy %q", name)
		}
		strategies = append(strategies, strategy)
	}
	if len(strategies) == 0 {
		return nil, fmt.Errorf("no strategies selected")
	}
	return strategies, nil
}

package app

import (
	"fmt"

	"github.com/looplearn/looplearn-backend/internal/clients/openai"
	"github.com/looplearn/looplearn-backend/internal/clients/qdrant"
	redisclient "github.com/looplearn/looplearn-backend/internal/clients/redis"
	"github.com/looplearn/looplearn-backend/internal/logger"
	"github.com/looplearn/looplearn-backend/internal/vector"
)

type Clients struct {
	OpenAI      openai.Client
	VectorStore vector.Store
	RecCache    *redisclient.RecommendationCache
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	openaiClient, err := openai.New(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	qdrantCfg, err := qdrant.ResolveConfigFromEnv()
	if err != nil {
		return Clients{}, fmt.Errorf("resolve qdrant config: %w", err)
	}
	store, err := qdrant.NewVectorStore(log, qdrantCfg)
	if err != nil {
		return Clients{}, fmt.Errorf("init qdrant vector store: %w", err)
	}

	recCache, err := redisclient.NewRecommendationCache(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init recommendation cache: %w", err)
	}
	if recCache == nil {
		log.Info("REDIS_ADDR unset; recommendation caching disabled")
	}

	return Clients{
		OpenAI:      openaiClient,
		VectorStore: store,
		RecCache:    recCache,
	}, nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	agent "github.com/agentrelay/go-agent"
	"github.com/agentrelay/go-agent/src/config"
	"github.com/agentrelay/go-agent/src/memory/embed"
	"github.com/agentrelay/go-agent/src/memory/session"
	"github.com/agentrelay/go-agent/src/memory/store"
	"github.com/agentrelay/go-agent/src/models"
	"github.com/agentrelay/go-agent/src/tools"
)

// runtime bundles everything a command needs to talk to one agent.
type runtime struct {
	agent  *agent.Agent
	memory *session.SessionMemory
	close  func()
}

func buildRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	vs, err := openStore(ctx, cfg.Memory)
	if err != nil {
		return nil, err
	}

	model, err := buildModel(ctx, cfg.Model)
	if err != nil {
		vs.Close()
		return nil, err
	}

	embedder := embed.AutoEmbedder()
	registry, err := agent.NewStaticRegistry(
		tools.NewEchoTool(),
		tools.NewCalculatorTool(),
		tools.NewClockTool(),
		tools.NewSearchTool(vs, embedder),
	)
	if err != nil {
		vs.Close()
		return nil, err
	}

	var opts []agent.Option
	if cfg.Agent.MaxToolCalls > 0 {
		opts = append(opts, agent.WithMaxToolCalls(cfg.Agent.MaxToolCalls))
	}
	a := agent.New(ctx, cfg.Definition(), model, registry, opts...)

	bank := session.NewMemoryBankWithStore(vs)
	mem := session.NewSessionMemory(bank, cfg.Memory.ShortTermWindow).WithEmbedder(embedder)

	return &runtime{
		agent:  a,
		memory: mem,
		close:  func() { vs.Close() },
	}, nil
}

// closableStore narrows the store surface the runtime manages.
type closableStore interface {
	store.VectorStore
	Close() error
}

// nopCloseStore wraps stores that have nothing to release.
type nopCloseStore struct{ store.VectorStore }

func (nopCloseStore) Close() error { return nil }

func openStore(ctx context.Context, cfg config.MemoryConfig) (closableStore, error) {
	switch cfg.Store {
	case "", "memory":
		return nopCloseStore{store.NewInMemoryStore()}, nil
	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = "agentrelay.db"
		}
		s, err := store.NewSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := store.NewPostgresStore(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "mongodb":
		s, err := store.NewMongoStore(ctx, cfg.DSN, "agentrelay", "memories")
		if err != nil {
			return nil, err
		}
		return s, nil
	case "neo4j":
		s, err := store.NewNeo4jStore(ctx, cfg.DSN,
			os.Getenv("NEO4J_USERNAME"), os.Getenv("NEO4J_PASSWORD"), "")
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown memory store %q", cfg.Store)
	}
}

func buildModel(ctx context.Context, cfg config.ModelConfig) (models.ChatModel, error) {
	model, err := models.NewChatModel(ctx, cfg.Provider, cfg.Model, "")
	if err != nil {
		return nil, err
	}
	if cfg.CacheSize > 0 {
		ttl := time.Hour
		if cfg.CacheTTL != "" {
			if parsed, err := time.ParseDuration(cfg.CacheTTL); err == nil {
				ttl = parsed
			}
		}
		return models.NewCachedLLM(model, cfg.CacheSize, ttl, cfg.CachePath), nil
	}
	return models.TryCachedModel(model), nil
}

// Command workflowd is the Stage Scheduler (C8) daemon: it consumes
// report_status messages and advances each report one stage at a time,
// wiring every collaborator (LLM, search, browser pool, vector index,
// prompt/state store, renderer) behind engine/core.Context. Grounded on
// cmd/scraper-reddit/main.go's flag/env/signal.NotifyContext shape.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/finalyze/core/engine/browserpool"
	"github.com/finalyze/core/engine/core"
	"github.com/finalyze/core/engine/llmtask"
	"github.com/finalyze/core/engine/renderclient"
	"github.com/finalyze/core/engine/scheduler"
	"github.com/finalyze/core/engine/searchclient"
	"github.com/finalyze/core/engine/stage"
	"github.com/finalyze/core/engine/statestore"
	"github.com/finalyze/core/engine/vectorindex"
	"github.com/finalyze/core/pkg/metrics"
	"github.com/finalyze/core/pkg/resilience"
)

var met = metrics.New()

func main() {
	brokerURL := flag.String("broker-url", envOr("BROKER_URL", "nats://localhost:4222"), "NATS server URL")
	stateDBURL := flag.String("state-db-url", envOr("STATE_DB_URL", "./data/finalyze.db"), "SQLite database file path")
	searchURL := flag.String("search-url", envOr("SEARCH_URL", "http://localhost:7000"), "search backend base URL")
	llmURL := flag.String("llm-url", envOr("LLM_URL", "http://localhost:7100"), "LLM backend base URL")
	llmModel := flag.String("llm-model", envOr("LLM_MODEL", "default"), "model name passed on every generate call")
	renderURL := flag.String("render-url", envOr("RENDER_URL", "http://localhost:7200"), "typesetting collaborator base URL")
	qdrantURL := flag.String("qdrant-url", envOr("QDRANT_URL", "localhost:6334"), "Qdrant gRPC address")
	promptSeedPath := flag.String("prompt-seed", "prompts.toml", "prompt template seed file, loaded on startup")
	workers := flag.Int("workers", 8, "bounded worker pool size for the scheduler")
	metricsPort := flag.Int("metrics-port", 9100, "Prometheus metrics port")
	flag.Parse()

	log.SetFlags(0)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	met.ServeAsync(*metricsPort)

	nc, err := nats.Connect(*brokerURL)
	if err != nil {
		log.Fatalf("workflowd: nats connect: %v", err)
	}
	defer nc.Close()

	store, err := statestore.Open(*stateDBURL)
	if err != nil {
		log.Fatalf("workflowd: open state store: %v", err)
	}

	prompts := statestore.NewPromptStore(store)
	if seed, err := llmtask.LoadSeed(*promptSeedPath); err != nil {
		log.Printf("workflowd: prompt seed %s not loaded: %v", *promptSeedPath, err)
	} else if err := prompts.Seed(ctx, seed); err != nil {
		log.Fatalf("workflowd: seed prompts: %v", err)
	}

	cfg := core.DefaultConfig()

	vectors, err := vectorindex.New(*qdrantURL, "report_chunks", cfg.EmbeddingDims)
	if err != nil {
		log.Fatalf("workflowd: vector index: %v", err)
	}
	if err := vectors.EnsureCollection(ctx); err != nil {
		log.Fatalf("workflowd: ensure vector collection: %v", err)
	}
	defer vectors.Close()

	searchBreaker := resilience.NewBreaker(resilience.BreakerOpts{FailThreshold: 5, Timeout: 30 * time.Second, HalfOpenMax: 1})
	searchLimiter := resilience.NewLimiter(resilience.LimiterOpts{Rate: 5, Burst: 10})
	search := searchclient.New(*searchURL, searchBreaker, searchLimiter)

	ectx := &core.Context{
		LLM:      llmtask.NewHTTPClient(*llmURL, *llmModel),
		Search:   search,
		Browsers: browserpool.NewHTTPDialer(),
		Vectors:  vectors,
		Prompts:  prompts,
		Store:    statestore.NewReportStateStore(store),
		Render:   renderclient.New(*renderURL),
		Config:   cfg,
	}

	deps := scheduler.Deps{
		NC:       nc,
		Ectx:     ectx,
		Registry: stage.Registry(ectx),
		Logger:   slog.Default(),
	}

	consumer := scheduler.NewConsumer(deps, *workers)
	if err := consumer.Start(); err != nil {
		log.Fatalf("workflowd: start consumer: %v", err)
	}
	slog.Info("workflowd: listening", "subject", scheduler.ReportStatusSubject, "broker", *brokerURL)

	<-ctx.Done()
	slog.Info("workflowd: shutting down")
	if err := consumer.Stop(); err != nil {
		log.Printf("workflowd: stop consumer: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

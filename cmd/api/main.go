// Package main implements the Chartly API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ChartlyAI/chartly-mvp/engine/coder"
	"github.com/ChartlyAI/chartly-mvp/engine/ingest"
	"github.com/ChartlyAI/chartly-mvp/engine/notes"
	"github.com/ChartlyAI/chartly-mvp/engine/semantic"
	"github.com/ChartlyAI/chartly-mvp/pkg/metrics"
	"github.com/ChartlyAI/chartly-mvp/pkg/mid"
	"github.com/ChartlyAI/chartly-mvp/pkg/ollama"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Config holds all environment-based configuration.
type Config struct {
	Port        string
	MetricsPort int
	Neo4jURL    string
	Neo4jUser   string
	Neo4jPass   string
	QdrantURL   string
	Collection  string
	OllamaURL   string
	EmbedModel  string
	NATSURL     string
	CORSOrigin  string
}

func loadConfig() Config {
	metricsPort, _ := strconv.Atoi(envOr("METRICS_PORT", "9090"))
	return Config{
		Port:        envOr("PORT", "8080"),
		MetricsPort: metricsPort,
		Neo4jURL:    envOr("NEO4J_URL", "neo4j://localhost:7687"),
		Neo4jUser:   envOr("NEO4J_USER", "neo4j"),
		Neo4jPass:   envOr("NEO4J_PASS", "password"),
		QdrantURL:   envOr("QDRANT_URL", "localhost:6334"),
		Collection:  envOr("QDRANT_COLLECTION", "icd_codes"),
		OllamaURL:   envOr("OLLAMA_URL", "http://localhost:11434"),
		EmbedModel:  envOr("EMBED_MODEL", "nomic-embed-text"),
		NATSURL:     os.Getenv("NATS_URL"), // empty disables events
		CORSOrigin:  envOr("CORS_ORIGIN", "*"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Connect to Neo4j ---
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
	if err != nil {
		return fmt.Errorf("neo4j driver: %w", err)
	}
	defer driver.Close(ctx)

	noteStore := notes.New(driver)
	if err := noteStore.Init(ctx); err != nil {
		return fmt.Errorf("neo4j init: %w", err)
	}

	// --- Connect to Qdrant ---
	vectorStore, err := semantic.New(cfg.QdrantURL, cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer vectorStore.Close()

	embedder := ollama.New(cfg.OllamaURL, cfg.EmbedModel)
	index := semantic.NewIndex(embedder, vectorStore, logger)

	// --- Optional NATS (chart ingested events) ---
	var nc *nats.Conn
	if cfg.NATSURL != "" {
		nc, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			logger.Warn("nats unavailable, events disabled", "err", err)
		} else {
			defer nc.Close()
		}
	}

	// --- Build services ---
	ingestSvc := ingest.New(noteStore, nc, logger)
	coderSvc := coder.New(noteStore, index, logger)

	// --- Metrics ---
	reg := metrics.New()
	reg.ServeAsync(cfg.MetricsPort)

	// --- Build HTTP server ---
	api := &apiServer{
		ingest:  ingestSvc,
		coder:   coderSvc,
		store:   noteStore,
		logger:  logger,
		metrics: reg,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", api.handleHealth)
	mux.HandleFunc("POST /api/segment", api.handleSegment)
	mux.HandleFunc("POST /api/charts", api.handleIngest)
	mux.HandleFunc("GET /api/notes", api.handleListNotes)
	mux.HandleFunc("POST /api/code", api.handleCode)
	mux.HandleFunc("GET /api/charts/schema", api.handleSchema)

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
		mid.OTel("chartly-api"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

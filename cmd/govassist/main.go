// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command govassist starts the government information assistant API server.
//
// The assistant answers citizen questions about government services by
// combining the official department directory with bounded external web
// research, driven by an LLM agent loop.
//
// Usage:
//
//	go run ./cmd/govassist
//	go run ./cmd/govassist -port 9090 -store badger -data-dir /var/lib/govassist
//
// With the Anthropic provider (default):
//
//	ANTHROPIC_API_KEY=sk-ant-... go run ./cmd/govassist
//
// With a local Ollama provider:
//
//	OLLAMA_BASE_URL=http://localhost:11434 OLLAMA_MODEL=llama3.1 go run ./cmd/govassist -provider ollama
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8080/v1/assist/health
//
//	# Ask a question
//	curl -X POST http://localhost:8080/v1/assist/query \
//	  -H "Content-Type: application/json" \
//	  -d '{"message": "How do I renew my passport?"}'
//
//	# Clear a session
//	curl -X DELETE http://localhost:8080/v1/assist/session/<id>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/AleutianAI/AleutianGov/services/assistant"
	"github.com/AleutianAI/AleutianGov/services/assistant/memory"
	"github.com/AleutianAI/AleutianGov/services/assistant/tools"
	"github.com/AleutianAI/AleutianGov/services/directory"
	"github.com/AleutianAI/AleutianGov/services/llm"
	"github.com/AleutianAI/AleutianGov/services/webintel"
)

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	debug := flag.Bool("debug", false, "Enable debug mode")
	provider := flag.String("provider", "anthropic", "LLM provider: anthropic or ollama")
	store := flag.String("store", "memory", "Session store: memory or badger")
	dataDir := flag.String("data-dir", "", "Badger data directory (required for -store badger)")
	maxSteps := flag.Int("max-steps", assistant.DefaultMaxSteps, "Agent loop step budget")
	taxonomyPath := flag.String("taxonomy", "", "Override taxonomy YAML path (hot-reloaded on change)")
	traceStdout := flag.Bool("trace-stdout", false, "Export OTel spans to stdout")
	flag.Parse()

	if *debug {
		gin.SetMode(gin.DebugMode)
		slog.SetLogLoggerLevel(slog.LevelDebug)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	shutdownTracing := setupTracing(*traceStdout)
	defer shutdownTracing()

	// LLM provider: missing credentials are fatal at boot, never at
	// request time.
	client, err := newLLMClient(*provider)
	if err != nil {
		slog.Error("LLM provider unavailable",
			slog.String("provider", *provider),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	slog.Info("LLM provider connected", slog.String("provider", client.Name()))

	// Directory registry client. No credential; reachability is probed per
	// request and failures degrade to the unavailable outcome.
	directoryURL := os.Getenv("DIRECTORY_BASE_URL")
	if directoryURL == "" {
		directoryURL = "http://localhost:9000"
	}
	dirClient := directory.NewClient(directoryURL, slog.Default())

	// The web intelligence key is the second required credential and is
	// checked here, at boot, like the LLM key.
	webClient, err := newWebIntelClient(*provider)
	if err != nil {
		slog.Error("web intelligence provider unavailable",
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	taxonomy, err := loadTaxonomy(*taxonomyPath)
	if err != nil {
		slog.Error("taxonomy load failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	sessions, closeStore, err := newSessionStore(*store, *dataDir)
	if err != nil {
		slog.Error("session store unavailable",
			slog.String("store", *store),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	defer closeStore()

	registry := tools.NewRegistry(buildTools(dirClient, webClient)...)
	orchestrator := assistant.NewOrchestrator(client, registry, *maxSteps, slog.Default())

	var searcher assistant.Searcher
	if webClient != nil {
		searcher = webClient
	}
	discovery := assistant.NewDiscovery(taxonomy, searcher, slog.Default())
	fallback := assistant.NewFallbackResponder(client, slog.Default())

	svc, err := assistant.NewService(orchestrator, discovery, fallback, sessions, slog.Default())
	if err != nil {
		slog.Error("service wiring failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("govassist"))
	if *debug {
		router.Use(gin.Logger())
	}

	v1 := router.Group("/v1")
	assistant.RegisterRoutes(v1, assistant.NewHandlers(svc))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", *port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		slog.Info("shutting down govassist server")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Warn("graceful shutdown incomplete", slog.String("error", err.Error()))
		}
	}()

	slog.Info("starting govassist server",
		slog.String("address", srv.Addr),
		slog.String("directory_url", directoryURL),
		slog.Bool("web_research", webClient != nil),
		slog.String("session_store", *store),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// newLLMClient constructs the configured chat provider.
func newLLMClient(provider string) (llm.ChatClient, error) {
	switch provider {
	case "anthropic":
		client, err := llm.NewAnthropicClient()
		if err != nil {
			return nil, err
		}
		return client, nil
	case "ollama":
		client, err := llm.NewOllamaClient()
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want anthropic or ollama)", provider)
	}
}

// newWebIntelClient constructs the external research client.
//
// Description:
//
//	TAVILY_API_KEY is a required credential: a missing key is a startup
//	failure like a missing LLM key, never a per-query one. The single
//	exemption is the local ollama provider, where the assistant runs in
//	directory-plus-fallback mode (nil client, nil error) so offline
//	development needs no paid key.
func newWebIntelClient(provider string) (*webintel.Client, error) {
	client, err := webintel.NewClient(slog.Default())
	if err == nil {
		return client, nil
	}
	if provider == "ollama" {
		slog.Warn("external research disabled", slog.String("error", err.Error()))
		return nil, nil
	}
	return nil, err
}

// loadTaxonomy loads the embedded taxonomy, applies an override file when
// given, and starts the hot-reload watcher on it.
func loadTaxonomy(overridePath string) (*assistant.Taxonomy, error) {
	taxonomy, err := assistant.LoadTaxonomy()
	if err != nil {
		return nil, err
	}
	if overridePath == "" {
		return taxonomy, nil
	}

	if err := taxonomy.Reload(overridePath); err != nil {
		return nil, fmt.Errorf("taxonomy override %s: %w", overridePath, err)
	}
	stop, err := taxonomy.WatchOverride(overridePath, slog.Default())
	if err != nil {
		slog.Warn("taxonomy hot reload disabled", slog.String("error", err.Error()))
		return taxonomy, nil
	}
	// Watcher lives for the process lifetime.
	_ = stop
	slog.Info("taxonomy override active", slog.String("path", overridePath))
	return taxonomy, nil
}

// newSessionStore builds the requested session store and its closer.
func newSessionStore(kind, dataDir string) (memory.Store, func(), error) {
	switch kind {
	case "memory":
		return memory.NewMemoryStore(), func() {}, nil

	case "badger":
		if dataDir == "" {
			return nil, nil, fmt.Errorf("-data-dir is required for -store badger")
		}
		opts := badger.DefaultOptions(dataDir).WithLogger(nil)
		db, err := badger.Open(opts)
		if err != nil {
			return nil, nil, fmt.Errorf("opening badger at %s: %w", dataDir, err)
		}
		bs, err := memory.NewBadgerStore(db, slog.Default())
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		closer := func() {
			if err := db.Close(); err != nil {
				slog.Warn("failed to close badger", slog.String("error", err.Error()))
			}
		}
		return bs, closer, nil

	default:
		return nil, nil, fmt.Errorf("unknown store %q (want memory or badger)", kind)
	}
}

// buildTools assembles the registry in priority order: the directory first,
// then the escalating web research tools when a provider is configured.
func buildTools(dir *directory.Client, web *webintel.Client) []tools.Tool {
	list := []tools.Tool{
		tools.NewDirectoryLookupTool(dir, slog.Default()),
	}
	if web != nil {
		list = append(list,
			tools.NewWebSearchTool(web, slog.Default()),
			tools.NewWebCrawlTool(web, slog.Default()),
			tools.NewWebExtractTool(web, slog.Default()),
		)
	}
	return list
}

// setupTracing installs a span exporter when requested and returns the
// flush function. Without -trace-stdout the default no-op provider stays.
func setupTracing(stdout bool) func() {
	if !stdout {
		return func() {}
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		slog.Warn("stdout trace exporter unavailable", slog.String("error", err.Error()))
		return func() {}
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			slog.Warn("trace provider shutdown failed", slog.String("error", err.Error()))
		}
	}
}

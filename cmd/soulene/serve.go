// Copyright (C) 2025 Soulene AI (hello@soulene.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/soulene-ai/soulene/services/llm"
	"github.com/soulene-ai/soulene/services/soulene/emergency"
	"github.com/soulene-ai/soulene/services/soulene/observability"
	"github.com/soulene-ai/soulene/services/soulene/persona"
	"github.com/soulene-ai/soulene/services/soulene/routes"
	"github.com/soulene-ai/soulene/services/soulene/safety"
	"github.com/soulene-ai/soulene/services/soulene/services"
	"github.com/soulene-ai/soulene/services/soulene/session"
)

const serviceName = "soulene-service"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Soulene HTTP server",
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

// initTracer sets up the OTLP gRPC exporter. Tracing is optional: when
// no collector endpoint is configured the default no-op provider stays
// in place.
func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		slog.Info("OTEL_EXPORTER_OTLP_ENDPOINT not set, tracing disabled")
		return func(context.Context) {}, nil
	}

	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// newLLMClient configures the capability backend from LLM_BACKEND_TYPE.
func newLLMClient() (llm.LLMClient, error) {
	switch backend := os.Getenv("LLM_BACKEND_TYPE"); backend {
	case "openai":
		slog.Info("Using OpenAI LLM backend")
		return llm.NewOpenAIClient()
	case "ollama":
		slog.Info("Using Ollama LLM backend")
		return llm.NewOllamaClient()
	default:
		slog.Warn("LLM_BACKEND_TYPE not set or invalid, defaulting to openai", "value", backend)
		return llm.NewOpenAIClient()
	}
}

// newSessionStore selects the session backend from SESSION_STORE.
func newSessionStore(ctx context.Context) session.Store {
	if os.Getenv("SESSION_STORE") != "redis" {
		store := session.NewMemoryStore()
		startCleaner(ctx, store)
		return store
	}

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
		slog.Warn("REDIS_ADDR not set, defaulting to localhost:6379")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	slog.Info("Using Redis session store", "addr", addr)
	return session.NewRedisStore(client, sessionTTL())
}

// startCleaner runs the idle-session sweeper when a TTL is configured.
// Without SOULENE_SESSION_TTL sessions live until explicitly cleared.
func startCleaner(ctx context.Context, store *session.MemoryStore) {
	ttl := sessionTTL()
	if ttl <= 0 {
		return
	}
	cleaner := session.NewCleaner(store, ttl)
	go cleaner.Run(ctx)
	slog.Info("Idle session sweeper enabled", "maxIdle", ttl.String())
}

// sessionTTL parses SOULENE_SESSION_TTL, returning 0 when unset so the
// redis driver falls back to its own default.
func sessionTTL() time.Duration {
	raw := os.Getenv("SOULENE_SESSION_TTL")
	if raw == "" {
		return 0
	}
	ttl, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("Invalid SOULENE_SESSION_TTL, ignoring", "value", raw)
		return 0
	}
	return ttl
}

func runServe() {
	port := os.Getenv("SOULENE_PORT")
	if port == "" {
		port = "5000"
	}

	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	client, err := newLLMClient()
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newSessionStore(ctx)
	defer store.Close()

	metrics := observability.NewPipelineMetrics(prometheus.DefaultRegisterer)

	pipeline := services.NewPipeline(
		store,
		safety.NewPreScreen(client),
		safety.NewEmergencyClassifier(client),
		emergency.NewResolver(client),
		persona.NewDrafter(client),
		safety.NewRefiner(safety.WrapLLMClient(client)),
		safety.NewLoopGuard(),
		metrics,
	)

	router := gin.Default()
	router.Use(otelgin.Middleware(serviceName))
	routes.SetupRoutes(router, pipeline, store)

	slog.Info("Soulene pipeline ready",
		"order", "prescreen -> emergency -> draft -> refine -> loopguard")
	slog.Info("Starting the Soulene server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

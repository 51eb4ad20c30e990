package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/quirelab/quire/internal/config"
	"github.com/quirelab/quire/internal/demo"
	"github.com/quirelab/quire/internal/gateway"
	"github.com/quirelab/quire/internal/gateway/queryapi"
	"github.com/quirelab/quire/internal/gateway/rest"
	"github.com/quirelab/quire/internal/gateway/rpc"
	"github.com/quirelab/quire/internal/gateway/stream"
	"github.com/quirelab/quire/internal/logging"
	"github.com/quirelab/quire/internal/server"
)

func main() {
	configDir := flag.String("config", "config", "Path to the configuration directory")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.Load(*configDir)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Shutdown()

	// 2. Build the registry and seed data
	registry := gateway.NewRegistry(cfg.Engine.Options())
	for _, col := range cfg.Engine.Collections {
		if _, err := registry.Add(col.Name, col.Schema(), col.Search); err != nil {
			fatal("Failed to register collection", "collection", col.Name, "error", err)
		}
	}
	if err := demo.Seed(registry, cfg.Demo); err != nil {
		fatal("Failed to seed demo collections", "error", err)
	}

	// 3. Wire the gateways onto one mux
	svc := server.New(cfg.Server, slog.Default())
	mux := svc.HTTPMux()

	rest.NewHandler(registry).RegisterRoutes(mux)
	queryapi.NewHandler(registry).RegisterRoutes(mux)

	streamServer := stream.NewServer(registry)
	streamServer.RegisterRoutes(mux)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go streamServer.Run(ctx)

	var responder *rpc.Responder
	if cfg.Nats.Enabled {
		responder = rpc.NewResponder(registry, cfg.Nats.SubjectPrefix)
		if err := responder.Connect(cfg.Nats.URL); err != nil {
			fatal("Failed to connect to NATS", "url", cfg.Nats.URL, "error", err)
		}
		if err := responder.Serve(); err != nil {
			fatal("Failed to start NATS responder", "error", err)
		}
	}

	slog.Info("Starting quire", "collections", registry.Names(), "nats", cfg.Nats.Enabled)

	// 4. Serve until a signal arrives
	if err := svc.Start(ctx); err != nil {
		fatal("Server error", "error", err)
	}

	// 5. Graceful shutdown
	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if responder != nil {
		responder.Close()
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		slog.Error("Shutdown error", "error", err)
	}
	slog.Info("Server stopped")
}

func fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	logging.Shutdown()
	os.Exit(1)
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command guardian starts the Aleutian Guardian API server.
//
// Aleutian Guardian provides layered security analysis for code
// snippets:
//   - Signature matching with context and intent classification
//   - Structural analysis via tree-sitter (Python, Go)
//   - Untrusted data flow tracking
//   - Bounded result caching with audit persistence
//
// Usage:
//
//	go run ./cmd/guardian
//	go run ./cmd/guardian -config guardian.yaml
//	go run ./cmd/guardian -port 9090 -debug
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8098/v1/guardian/health
//
//	# Analyze a snippet
//	curl -X POST http://localhost:8098/v1/guardian/analyze \
//	  -H "Content-Type: application/json" \
//	  -d '{"code": "eval(user_input)", "security_level": "strict"}'
//
//	# List the signature table
//	curl http://localhost:8098/v1/guardian/patterns | jq
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"github.com/AleutianAI/AleutianGuardian/pkg/logging"
	"github.com/AleutianAI/AleutianGuardian/services/analyzer"
	"github.com/AleutianAI/AleutianGuardian/services/analyzer/audit"
	"github.com/AleutianAI/AleutianGuardian/services/analyzer/telemetry"
	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat"
	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat/scan"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	port := flag.Int("port", 0, "Port to listen on (overrides config)")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	cfg, err := analyzer.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "guardian: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.ListenAddr = fmt.Sprintf(":%d", *port)
	}
	if *debug {
		cfg.LogLevel = "debug"
	}

	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.LogLevel),
		Service: "guardian",
		JSON:    !*debug,
	})
	defer logger.Close()
	slogger := logger.Slog()

	if *debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// Telemetry
	var metrics *analyzer.Metrics
	if cfg.MetricsEnabled {
		telCfg := telemetry.DefaultConfig()
		telCfg.ServiceVersion = analyzer.ServiceVersion
		shutdown, err := telemetry.Init(ctx, telCfg)
		if err != nil {
			slogger.Error("Failed to init telemetry", "error", err.Error())
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slogger.Warn("Telemetry shutdown failed", "error", err.Error())
			}
		}()

		metrics, err = analyzer.NewMetrics(otel.Meter("guardian"))
		if err != nil {
			slogger.Error("Failed to create metrics", "error", err.Error())
			os.Exit(1)
		}
	}

	// Audit store
	var store *audit.Store
	if cfg.AuditInMemory || cfg.AuditPath != "" {
		auditCfg := audit.DefaultConfig(cfg.AuditPath)
		if cfg.AuditInMemory {
			auditCfg = audit.InMemoryConfig()
		}
		auditCfg.Logger = slogger
		store, err = audit.Open(auditCfg)
		if err != nil {
			slogger.Error("Failed to open audit store", "error", err.Error())
			os.Exit(1)
		}
		defer func() {
			if err := store.Close(); err != nil {
				slogger.Warn("Audit store close failed", "error", err.Error())
			}
		}()
	}

	// Service wiring
	pipeline := scan.NewPipeline(
		scan.WithCacheCapacity(cfg.CacheCapacity),
		scan.WithLogger(slogger),
	)
	svcOpts := []analyzer.ServiceOption{
		analyzer.WithPipeline(pipeline),
		analyzer.WithServiceLogger(slogger),
		analyzer.WithDefaultLevel(threat.SecurityLevel(cfg.DefaultSecurityLevel)),
	}
	if store != nil {
		svcOpts = append(svcOpts, analyzer.WithAuditStore(store))
	}
	if metrics != nil {
		svcOpts = append(svcOpts, analyzer.WithMetrics(metrics))
		if _, err := metrics.RegisterCacheEntries(otel.Meter("guardian"), func() int64 {
			return int64(pipeline.Cache().Len())
		}); err != nil {
			slogger.Warn("Failed to register cache gauge", "error", err.Error())
		}
	}
	svc := analyzer.NewService(svcOpts...)
	handlers := analyzer.NewHandlers(svc)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	if *debug {
		router.Use(gin.Logger())
	}
	router.Use(analyzer.BodyLimitMiddleware())
	router.Use(analyzer.RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))

	v1 := router.Group("/v1")
	analyzer.RegisterRoutes(v1, handlers)

	if cfg.MetricsEnabled {
		if h := telemetry.MetricsHandler(); h != nil {
			router.GET("/metrics", gin.WrapH(h))
		}
	}

	printBanner(cfg.ListenAddr, store != nil)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slogger.Info("Starting Aleutian Guardian server", "address", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("Server failed", "error", err.Error())
			os.Exit(1)
		}
	}()

	<-quit
	slogger.Info("Shutting down Aleutian Guardian server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slogger.Error("Forced shutdown", "error", err.Error())
	}
}

func printBanner(addr string, auditEnabled bool) {
	auditStatus := "DISABLED (set audit_path or audit_in_memory)"
	if auditEnabled {
		auditStatus = "ENABLED"
	}

	banner := `
╔═══════════════════════════════════════════════════════════════════╗
║                    ALEUTIAN GUARDIAN SERVER                       ║
╠═══════════════════════════════════════════════════════════════════╣
║                                                                   ║
║  Layered security analysis for code snippets.                     ║
║  Audit Trail: %-49s   ║
║                                                                   ║
║  Quick Start:                                                     ║
║  ┌─────────────────────────────────────────────────────────────┐  ║
║  │ # Health check                                              │  ║
║  │ curl http://localhost%s/v1/guardian/health                  │  ║
║  │                                                             │  ║
║  │ # Analyze a snippet                                         │  ║
║  │ curl -X POST http://localhost%s/v1/guardian/analyze \       │  ║
║  │   -H "Content-Type: application/json" \                     │  ║
║  │   -d '{"code": "eval(user_input)"}'                         │  ║
║  └─────────────────────────────────────────────────────────────┘  ║
║                                                                   ║
║  Endpoints:                                                       ║
║  ├── POST /v1/guardian/analyze  - Analyze a code snippet          ║
║  ├── POST /v1/guardian/classify - Classify sensitive data         ║
║  ├── GET  /v1/guardian/patterns - List the signature table        ║
║  ├── GET  /v1/guardian/stats    - Cache and audit statistics      ║
║  ├── GET  /v1/guardian/health   - Health check                    ║
║  └── GET  /v1/guardian/ready    - Readiness check                 ║
║                                                                   ║
║  Press Ctrl+C to stop                                             ║
╚═══════════════════════════════════════════════════════════════════╝
`
	fmt.Printf(banner, auditStatus, addr, addr)
}

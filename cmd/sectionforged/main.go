// Command sectionforged runs the section-editing HTTP API: document
// upload, section commit, LLM-backed generation, and batch jobs over a
// websocket progress stream.
//
// Usage:
//
//	sectionforged -config config.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sectionforge/sectionforge/pkg/auth"
	"github.com/sectionforge/sectionforge/pkg/config"
	"github.com/sectionforge/sectionforge/pkg/logger"
	"github.com/sectionforge/sectionforge/pkg/restapi"
	"github.com/sectionforge/sectionforge/pkg/scheduler"
	"github.com/sectionforge/sectionforge/pkg/sectionstore"
	"github.com/sectionforge/sectionforge/pkg/streamhub"
	"github.com/sectionforge/sectionforge/pkg/telemetry"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}

	issuer := auth.NewTokenIssuer([]byte(cfg.JWTSecret))
	principals := auth.NewStore(issuer)
	sections := sectionstore.New()
	hub := streamhub.New()
	sched := scheduler.New(sections, hub)

	logSink := telemetry.NewLogSink(log)
	var sink telemetry.Sink = logSink
	if cfg.MetricsEnabled {
		metricsSink := telemetry.NewMetricsSink()
		sink = telemetry.MultiSink{logSink, metricsSink}
	}
	sched.Telemetry = sink

	router := restapi.NewRouter(restapi.Deps{
		Principals:              principals,
		Sections:                sections,
		Scheduler:               sched,
		Hub:                     hub,
		Telemetry:               sink,
		Logger:                  log,
		UploadDir:               cfg.UploadDir,
		MaxUploadBytes:          cfg.MaxUploadByte,
		AuthRegistrationEnabled: cfg.AuthRegistrationEnabled,
		CORSOrigins:             cfg.CORSOrigins,
		LLMTimeoutSeconds:       cfg.LLMTimeoutS,
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("sectionforged listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return httpServer.Shutdown(shutdownCtx)
}

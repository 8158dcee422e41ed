// Phase 12 - File #286: cmd/apiserver/main.go
// API server entry point for ip-assist-lite.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/russellmiller49/ip-assist-lite/internal/bootstrap"
	"github.com/russellmiller49/ip-assist-lite/internal/config"
	"github.com/russellmiller49/ip-assist-lite/internal/infrastructure/monitoring/logging"
	grpcserver "github.com/russellmiller49/ip-assist-lite/internal/interfaces/grpc"
	httpserver "github.com/russellmiller49/ip-assist-lite/internal/interfaces/http"
)

const (
	defaultConfigPath = "configs/config.yaml"
	shutdownTimeout   = 30 * time.Second
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v; falling back to environment/defaults\n", err)
		cfg, err = config.LoadFromEnv()
		if err != nil {
			fmt.Fprintf(os.Stderr, "fatal: could not build configuration: %v\n", err)
			os.Exit(1)
		}
	}

	actualHTTPPort := cfg.Server.Port
	if *httpPort > 0 {
		actualHTTPPort = *httpPort
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: could not build logger: %v\n", err)
		os.Exit(1)
	}
	logger.Info("starting ip-assist-lite API server",
		logging.Int("http_port", actualHTTPPort),
		logging.Int("grpc_port", cfg.GRPC.Port),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to build application dependencies", logging.Err(err))
	}

	router := httpserver.NewRouter(deps.Router)
	httpSrv := httpserver.NewServer(actualHTTPPort, router)

	go func() {
		logger.Info("HTTP server listening", logging.Int("port", actualHTTPPort))
		if err := httpSrv.Start(); err != nil {
			logger.Error("HTTP server stopped", logging.Err(err))
		}
	}()

	// The gRPC listener exposes health/reflection only: query/code are not
	// registered as RPCs (no .proto in this build), so it serves as an
	// internal liveness endpoint for orchestration platforms that prefer
	// grpc.health.v1 over an HTTP probe.
	grpcSrv, err := grpcserver.NewServer(&cfg.GRPC, grpcserver.WithLogger(logger))
	if err != nil {
		logger.Error("failed to start grpc server", logging.Err(err))
	} else {
		go func() {
			logger.Info("gRPC server listening", logging.String("address", grpcSrv.Addr()))
			if err := grpcSrv.Start(); err != nil {
				logger.Error("grpc server stopped", logging.Err(err))
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Stop(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", logging.Err(err))
	}
	if grpcSrv != nil {
		if err := grpcSrv.Stop(shutdownCtx); err != nil {
			logger.Error("grpc server shutdown error", logging.Err(err))
		}
	}
	if err := deps.Close(shutdownCtx); err != nil {
		logger.Error("dependency shutdown error", logging.Err(err))
	}

	logger.Info("server stopped")
}

// loadConfig reads configuration from the YAML file at path, returning an
// error if the file does not exist so callers can fall back to
// environment-derived configuration.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	return config.Load(path)
}

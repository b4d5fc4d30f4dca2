package server

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	mcp "github.com/metoro-io/mcp-golang"
	"github.com/metoro-io/mcp-golang/transport/stdio"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cnosuke/mcp-wayback/archive"
	"github.com/cnosuke/mcp-wayback/config"
	"github.com/cnosuke/mcp-wayback/server/tools"
	"github.com/cnosuke/mcp-wayback/wayback"
)

const shutdownTimeout = 10 * time.Second

// NewWayback - Build the wayback adapter from configuration
func NewWayback(cfg *config.Config) (*wayback.Adapter, error) {
	zap.S().Debugw("creating wayback client")
	client, err := wayback.NewClient(&wayback.Config{
		CDXEndpoint:    cfg.Wayback.CDXEndpoint,
		ReplayEndpoint: cfg.Wayback.ReplayEndpoint,
		Timeout:        cfg.Wayback.Timeout,
		UserAgent:      cfg.Wayback.UserAgent,
		DefaultLimit:   cfg.Wayback.DefaultLimit,
		MaxBodyBytes:   cfg.Wayback.MaxBodyBytes,
	})
	if err != nil {
		zap.S().Errorw("failed to create wayback client", "error", err)
		return nil, errors.Wrap(err, "failed to create wayback client")
	}
	return wayback.NewAdapter(client), nil
}

// Run - Execute the MCP server
func Run(ctx context.Context, cfg *config.Config, name string, version string, revision string) error {
	zap.S().Infow("starting MCP Wayback Server")

	// Format version string with revision if available
	versionString := version
	if revision != "" && revision != "xxx" {
		versionString = versionString + " (" + revision + ")"
	}

	wb, err := NewWayback(cfg)
	if err != nil {
		return err
	}

	zap.S().Debugw("creating MCP server",
		"name", name,
		"version", versionString,
	)
	mcpServer := mcp.NewServer(stdio.NewStdioServerTransport())

	zap.S().Debugw("registering tools")
	opts := tools.Options{
		// A test run issues two upstream requests.
		Timeout:          2 * time.Duration(cfg.Wayback.Timeout) * time.Second,
		DefaultLimit:     cfg.Wayback.DefaultLimit,
		DefaultMaxLength: cfg.MCP.DefaultMaxLength,
	}
	if err := tools.RegisterAllTools(mcpServer, wb, opts); err != nil {
		zap.S().Errorw("failed to register tools", "error", err)
		return err
	}

	zap.S().Infow("starting MCP server")
	if err := mcpServer.Serve(); err != nil {
		zap.S().Errorw("failed to start server", "error", err)
		return errors.Wrap(err, "failed to start server")
	}

	// Serve returns once the transport is running; block until shutdown.
	<-ctx.Done()
	zap.S().Infow("server shutting down")
	return nil
}

// RunHTTP - Execute the HTTP API server until ctx is cancelled
func RunHTTP(ctx context.Context, cfg *config.Config, logLevel zapcore.LevelEnabler) error {
	zap.S().Infow("starting HTTP Wayback Server", "addr", cfg.HTTP.Addr)

	wb, err := NewWayback(cfg)
	if err != nil {
		return err
	}
	registry, err := archive.NewRegistry(wb)
	if err != nil {
		return errors.Wrap(err, "failed to build adapter registry")
	}

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      NewAPI(registry, wb, logLevel).Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			zap.S().Errorw("HTTP server failed", "error", err)
			return errors.Wrap(err, "failed to serve HTTP")
		}
		return nil
	case <-ctx.Done():
	}

	zap.S().Infow("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "failed to shut down HTTP server")
	}
	return nil
}

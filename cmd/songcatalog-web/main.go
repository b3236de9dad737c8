package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"songcatalog/internal/config"
	"songcatalog/internal/logger"
	"songcatalog/internal/pipeline"
	"songcatalog/internal/shutdown"
	"songcatalog/internal/web"
)

func main() {
	var (
		port       int
		configPath string
		verbose    bool
	)

	pflag.IntVarP(&port, "port", "p", 8080, "HTTP server port")
	pflag.StringVarP(&configPath, "config", "c", "", "Config file path")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	pflag.Parse()

	cfg, err := config.LoadConfigFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if verbose {
		cfg.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Setup logger with file logging
	l := logger.New(cfg.Verbose)
	logDir := config.GetDefaultLogPath()
	if err := os.MkdirAll(logDir, 0755); err == nil {
		logPath := filepath.Join(logDir, fmt.Sprintf("songcatalog-web-%d.log", time.Now().Unix()))
		if err := l.SetFileLog(logPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to setup file logging: %v\n", err)
		}
	}
	defer l.Close()

	deps, err := pipeline.Setup(cfg, l)
	if err != nil {
		l.Error("Setup failed: %v", err)
		os.Exit(1)
	}

	sh := shutdown.New()
	sh.AddCleanup(deps.Close)

	runs := web.NewRunManager()
	runs.StartCleanup(sh.Context())
	server := web.NewServer(sh.Context(), runs, deps, l)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stopped := make(chan struct{})
	sh.AddCleanup(func() error {
		defer close(stopped)
		l.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(ctx)
	})
	sh.Listen(nil)

	l.Info("Starting web server on port %d", port)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("Server error: %v", err)
		sh.Shutdown()
		os.Exit(1)
	}

	<-stopped
	l.Info("Server stopped")
}

package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/brandlens/brandlens/internal/api"
	"github.com/brandlens/brandlens/internal/config"
	"github.com/brandlens/brandlens/internal/mentions"
	"github.com/brandlens/brandlens/internal/resultlog"
	"github.com/brandlens/brandlens/internal/session"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the brandlens UI server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show brandlens system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "brandlens version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Open the result log. It is in-memory: results live exactly as long
	// as the server process.
	log, err := resultlog.Open()
	if err != nil {
		return fmt.Errorf("opening result log: %w", err)
	}
	defer func() {
		if err := log.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing result log: %v\n", err)
		}
	}()

	checker := mentions.New(cfg.Backend.BaseURL)
	sessions := session.NewManager(checker, log)

	// Per-process CSRF key; sessions do not outlive the process either.
	csrfKey := make([]byte, 32)
	if _, err := rand.Read(csrfKey); err != nil {
		return fmt.Errorf("generating CSRF key: %w", err)
	}

	handler, err := api.NewWebHandler(api.WebDeps{
		Sessions: sessions,
		CSRFKey:  csrfKey,
	})
	if err != nil {
		return fmt.Errorf("building web handler: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// MCP server on stdio, using its own session so agent results never
	// mix with a browser session's log.
	mcpSrv := api.NewMCPServer(api.MCPDeps{Session: sessions.Get("mcp")})
	stdioSrv := server.NewStdioServer(mcpSrv)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("brandlens listening", "addr", addr, "backend", cfg.Backend.BaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := stdioSrv.Listen(gctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(os.Stderr, "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	client := &http.Client{Timeout: 2 * time.Second}

	// Check UI server health.
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port))
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	// Check the mention backend. Any HTTP response means it is reachable;
	// only a transport error counts as down.
	backendResp, err := client.Get(cfg.Backend.BaseURL)
	if err != nil {
		printStatus("Backend", "unreachable at %s", cfg.Backend.BaseURL)
	} else {
		backendResp.Body.Close()
		printStatus("Backend", "reachable at %s", cfg.Backend.BaseURL)
	}

	return nil
}

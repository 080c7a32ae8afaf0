package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"recipe-catalog/internal/app"
	"recipe-catalog/internal/session"
	"recipe-catalog/internal/telegram"
	"recipe-catalog/internal/web"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web front end (and the Telegram webhook when configured)",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("port", "", "listen port (overrides PORT)")
	serveCmd.Flags().Bool("secure-cookie", false, "mark the session cookie Secure")
	serveCmd.Flags().Duration("cleanup-interval", 5*time.Minute, "how often expired sessions are dropped")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	port, _ := cmd.Flags().GetString("port")
	if port == "" {
		port = cfg.Port
	}
	secure, _ := cmd.Flags().GetBool("secure-cookie")
	interval, _ := cmd.Flags().GetDuration("cleanup-interval")
	if interval <= 0 {
		return fmt.Errorf("--cleanup-interval must be positive, got %s", interval)
	}

	application, err := app.NewFromConfig(ctx, cfg)
	if err != nil {
		return err
	}

	signer, err := session.NewSigner(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		return err
	}
	server, err := web.NewServer(application, signer, web.WithSecureCookie(secure))
	if err != nil {
		return fmt.Errorf("failed to initialize web server: %w", err)
	}

	if cfg.TelegramEnabled() {
		bot, err := telegram.NewBot(cfg, application)
		if err != nil {
			return fmt.Errorf("failed to initialize Telegram Bot: %w", err)
		}
		server.Handle("POST "+telegram.WebhookPath, bot.WebhookHandler())
	}

	go application.RunCleanup(ctx, interval)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return listenAndShutdown(ctx, srv)
}

// listenAndShutdown serves until ctx is cancelled, then drains for up to 10s.
func listenAndShutdown(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	slog.Info("Server exiting")
	return nil
}

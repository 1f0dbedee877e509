package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nakanoasaservice/notion-to-discord-bot/internal/compose"
	"github.com/nakanoasaservice/notion-to-discord-bot/internal/config"
	"github.com/nakanoasaservice/notion-to-discord-bot/internal/delivery"
	"github.com/nakanoasaservice/notion-to-discord-bot/internal/discord"
	"github.com/nakanoasaservice/notion-to-discord-bot/internal/notion"
	"github.com/nakanoasaservice/notion-to-discord-bot/internal/roster"
	"github.com/nakanoasaservice/notion-to-discord-bot/internal/telegram"
	"github.com/nakanoasaservice/notion-to-discord-bot/internal/webhook"
)

const shutdownTimeout = 10 * time.Second

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func pidPath() string {
	return filepath.Join(filepath.Dir(cfgPath), "notion-discord-bot.pid")
}

func writePIDFile() (string, error) {
	path := pidPath()
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return path, nil
}

// buildServer wires the delivery destinations and the participant sync
// that cfg enables into a webhook server.
func buildServer(cfg *config.Config) (*webhook.Server, error) {
	layout, err := compose.ParseLayout(cfg.Layout)
	if err != nil {
		return nil, err
	}

	deliveryReg := delivery.NewRegistry()
	if cfg.Discord.Token != "" {
		client := discord.NewClient(cfg.Discord.Token, cfg.Discord.BaseURL)
		deliveryReg.Register("discord:", delivery.Discord(client, layout))
	} else {
		slog.Warn("discord delivery disabled (no token)")
	}

	if cfg.Telegram.Token != "" {
		sender, err := telegram.New(cfg.Telegram.Token)
		if err != nil {
			return nil, fmt.Errorf("create telegram sender: %w", err)
		}
		deliveryReg.Register("telegram:", delivery.Telegram(sender))
	} else {
		slog.Warn("telegram delivery disabled (no token)")
	}

	opts := webhook.Options{Delivery: deliveryReg}
	if cfg.Notion.APIKey != "" {
		client := notion.NewClient(notion.ClientConfig{
			BaseURL: cfg.Notion.BaseURL,
			Token:   cfg.Notion.APIKey,
			Version: cfg.Notion.Version,
		})
		opts.Roster = roster.NewService(client, nil, roster.Config{
			StudentDatabaseID:    cfg.Notion.StudentDatabaseID,
			EventDatabaseID:      cfg.Notion.EventDatabaseID,
			StudentIDProperty:    cfg.Notion.StudentIDProperty,
			ParticipantsProperty: cfg.Notion.ParticipantsProperty,
			MaxConcurrent:        cfg.Roster.MaxConcurrent,
		})
	} else {
		slog.Warn("participant sync disabled (no notion api key)")
	}

	return webhook.NewServer(opts), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	srv, err := buildServer(cfg)
	if err != nil {
		return err
	}

	// Write PID file
	pidFile, err := writePIDFile()
	if err != nil {
		return err
	}
	defer os.Remove(pidFile)

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("webhook server started", "listen", cfg.Listen, "layout", cfg.Layout, "pid_file", pidFile)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	var sig os.Signal
	select {
	case err := <-errCh:
		return fmt.Errorf("webhook server: %w", err)
	case sig = <-sigChan:
	}

	slog.Info("shutting down", "signal", sig)
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}

	if sig == syscall.SIGHUP {
		return reexec(pidFile)
	}
	return nil
}

// reexec replaces the process with a fresh copy of itself, picking up a
// changed config or binary.
func reexec(pidFile string) error {
	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("get executable path: %w", err)
	}
	slog.Info("received SIGHUP, restarting")
	os.Remove(pidFile)
	if err := syscall.Exec(execPath, os.Args, os.Environ()); err != nil {
		return fmt.Errorf("re-exec: %w", err)
	}
	return nil
}

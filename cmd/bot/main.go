// Package main is the entry point for the Telegram bot.
//
// The bot runs as its own process against the SAME database file as the
// web server — SQLite in WAL mode handles the two writers. Keeping it a
// separate binary means either front-end can be restarted or disabled
// without touching the other.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/avolkov/birthdaybook/internal/bot"
	sqliteRepo "github.com/avolkov/birthdaybook/internal/repository/sqlite"
	"github.com/avolkov/birthdaybook/internal/service"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	token := os.Getenv("BOT_TOKEN")
	if token == "" {
		logger.Error("BOT_TOKEN is required")
		os.Exit(1)
	}

	dbPath := "data/birthdaybook.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	store, err := sqliteRepo.New(dbPath)
	if err != nil {
		logger.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	profileService := service.NewProfileService(store, logger)
	linkingService := service.NewLinkingService(store, logger)
	friendService := service.NewFriendService(store, logger)

	b, err := bot.New(token, profileService, linkingService, friendService, logger)
	if err != nil {
		logger.Error("failed to create bot", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Cancel the polling loop on Ctrl+C / SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := b.Run(ctx); err != nil {
		logger.Error("bot error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

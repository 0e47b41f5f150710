// Package main contains the entrypoint for the personabot application.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/rgachev/personabot/internal/ai"
	"github.com/rgachev/personabot/internal/archive"
	"github.com/rgachev/personabot/internal/bot"
	"github.com/rgachev/personabot/internal/bot/handlers"
	"github.com/rgachev/personabot/internal/bot/tasks"
	"github.com/rgachev/personabot/internal/config"
	"github.com/rgachev/personabot/internal/dispatch"
	"github.com/rgachev/personabot/internal/health"
	"github.com/rgachev/personabot/internal/history"
	"github.com/rgachev/personabot/internal/logger"
	"github.com/rgachev/personabot/internal/persona"
	"github.com/rgachev/personabot/internal/responder"
	"github.com/rgachev/personabot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components, handles graceful
// shutdown, and returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := archive.NewDB(cfg.Archive.Path)
	if err != nil {
		log.Error("Failed to open archive database", "path", cfg.Archive.Path, "error", err)
		return 1
	}
	defer archive.CloseDB(db)
	archiveStore := archive.NewStore(db, log)
	if err := archiveStore.Ping(ctx); err != nil {
		log.Error("Archive database ping failed", "error", err)
		return 1
	}

	historyStore := history.NewFileStore(cfg.History.Path, log)
	historyManager := history.NewManager(historyStore, cfg.History.MaxEntries, log)

	aiClient, err := ai.NewClient(ctx, cfg.AI.APIKey, log)
	if err != nil {
		log.Error("Failed to initialize completion client", "error", err)
		return 1
	}

	personaCfg := persona.New(cfg.Persona)
	resp := responder.New(log, historyManager, personaCfg, aiClient, cfg.AI)

	// The policy is filled in after GetMe below; the handlers hold it by
	// pointer so they see the bot identity once it is known.
	policy := &dispatch.Policy{}
	hDeps := handlers.HandlerDeps{
		Logger:    log,
		Config:    cfg,
		History:   historyManager,
		Responder: resp,
		Archive:   archiveStore,
		Policy:    policy,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewMentionHandler(hDeps)),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	keyword := cfg.Telegram.Keyword
	if keyword == "" {
		keyword = cfg.Telegram.BotInfo.FirstName
	}
	*policy = dispatch.Policy{
		Keyword:     keyword,
		BotUsername: cfg.Telegram.BotInfo.Username,
		BotID:       cfg.Telegram.BotInfo.ID,
	}

	cmdHandlers := handlers.RegisterAllCommands(hDeps)
	if err := telegram.RegisterHandlers(tg, log, cmdHandlers); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	tDeps := tasks.TaskDeps{
		Logger:  log,
		Config:  cfg,
		History: historyManager,
		Archive: archiveStore,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	var healthServer *health.Server
	if cfg.Health.Enabled {
		healthServer = health.NewServer(cfg.Health.Addr, log)
	}

	app := bot.NewBot(log, cfg, historyManager, tg, sched, healthServer)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}

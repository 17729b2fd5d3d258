package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Kerhoff/shoplistbot/internal/api"
	"github.com/Kerhoff/shoplistbot/internal/config"
	"github.com/Kerhoff/shoplistbot/internal/handlers"
	"github.com/Kerhoff/shoplistbot/internal/metrics"
	"github.com/Kerhoff/shoplistbot/internal/ops"
	"github.com/Kerhoff/shoplistbot/internal/repository/postgres"
	"github.com/Kerhoff/shoplistbot/internal/service"
	"github.com/Kerhoff/shoplistbot/internal/session"
	"github.com/Kerhoff/shoplistbot/internal/state"
	"github.com/Kerhoff/shoplistbot/internal/telegram"
	"github.com/Kerhoff/shoplistbot/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel)
	l.Info("Starting shoplistbot...")

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database (session storage only; everything else lives remotely)
	db, err := config.NewDatabase(ctx, cfg.DatabaseURL, l)
	if err != nil {
		l.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate("migrations"); err != nil {
		l.Fatalf("Failed to run migrations: %v", err)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// Remote shopping-list API client
	client := api.NewClient(cfg.APIBaseURL, nil, l, m)

	// Session store
	sessionRepo := postgres.NewSessionRepository(db.DB)
	sessions := session.NewStore(client, sessionRepo, l)
	if err := sessions.Init(ctx); err != nil {
		l.Fatalf("Failed to load sessions: %v", err)
	}

	// Service layer: API client + sessions + per-chat view models
	svc := service.New(l, client, sessions, state.NewRegistry())

	// Telegram bot
	bot, err := telegram.NewBot(cfg.TelegramToken, l, m)
	if err != nil {
		l.Fatalf("Failed to create Telegram bot: %v", err)
	}

	// Register command handlers
	bot.RegisterCommand("start", handlers.NewStartHandler(svc, l))
	bot.RegisterCommand("help", handlers.NewHelpHandler(l))

	// Account handlers
	bot.RegisterCommand("register", handlers.NewRegisterHandler(svc, sessions, l))
	bot.RegisterCommand("login", handlers.NewLoginHandler(svc, sessions, l))
	bot.RegisterCommand("logout", handlers.NewLogoutHandler(svc, l))
	bot.RegisterCommand("profile", handlers.NewProfileHandler(svc, sessions, l))
	bot.RegisterCommand("deleteaccount", handlers.NewDeleteAccountHandler(svc, l))

	// Group directory handlers
	bot.RegisterCommand("groups", handlers.NewGroupsHandler(svc, l))
	bot.RegisterCommand("search", handlers.NewSearchGroupsHandler(svc, l))
	bot.RegisterCommand("newgroup", handlers.NewNewGroupHandler(svc, l))
	bot.RegisterCommand("join", handlers.NewJoinHandler(svc, l))

	// Open-group handlers
	bot.RegisterCommand("open", handlers.NewOpenHandler(svc, l))
	bot.RegisterCommand("leave", handlers.NewLeaveHandler(svc, l))
	bot.RegisterCommand("delgroup", handlers.NewDeleteGroupHandler(svc, l))

	// Item handlers
	bot.RegisterCommand("add", handlers.NewAddItemHandler(svc, l))
	bot.RegisterCommand("del", handlers.NewDeleteItemHandler(svc, l))
	bot.RegisterCommand("bought", handlers.NewBoughtHandler(svc, l))

	// Member handlers
	bot.RegisterCommand("members", handlers.NewMembersHandler(svc, l))
	bot.RegisterCommand("finduser", handlers.NewFindUserHandler(svc, l))
	bot.RegisterCommand("invite", handlers.NewInviteHandler(svc, l))
	bot.RegisterCommand("kick", handlers.NewKickHandler(svc, l))

	// Inline-keyboard callbacks
	bot.RegisterCallback("item", handlers.NewItemCallbackHandler(svc, l))
	bot.RegisterCallback("member", handlers.NewMemberCallbackHandler(svc, l))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		l.Info("Received shutdown signal...")
		cancel()
	}()

	// Ops HTTP server: health, readiness, metrics
	opsServer := ops.NewServer(db.DB, registry, l)
	httpServer := &http.Server{
		Addr:    ":" + cfg.OpsPort,
		Handler: opsServer.Handler(),
	}

	go func() {
		l.Infof("Ops server listening on :%s", cfg.OpsPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorf("Ops server error: %v", err)
		}
	}()

	// Start Telegram bot polling
	go func() {
		if err := bot.Start(ctx); err != nil {
			l.Errorf("Bot error: %v", err)
		}
	}()

	l.Info("shoplistbot started successfully")

	<-ctx.Done()

	l.Info("Shutting down ops server...")
	httpServer.Close()

	l.Info("shoplistbot stopped")
}

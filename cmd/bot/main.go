package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aldosari/medbooking_bot/internal/bot"
	"github.com/aldosari/medbooking_bot/internal/config"
	"github.com/aldosari/medbooking_bot/internal/repository"
	"github.com/aldosari/medbooking_bot/internal/server"
	"github.com/aldosari/medbooking_bot/internal/service"
)

const reminderScanInterval = time.Minute

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	store, err := repository.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to supabase")
	}

	catalog := service.NewCatalogService(store, cfg.CacheTTL, cfg.RequestTimeout, cfg.Location, log)
	booking := service.NewBookingService(store, catalog, cfg.ReminderLead, cfg.RequestTimeout, cfg.Location, log)
	admin := service.NewAdminService(store, catalog, log)

	tgBot, err := bot.NewBot(cfg.TelegramToken, catalog, booking, cfg.SessionTTL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to telegram")
	}

	dispatcher := service.NewReminderDispatcher(store, tgBot, log)
	srv := server.New(tgBot, dispatcher, admin, booking, cfg.AdminChatID, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Run(cfg.Port); err != nil {
			log.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	go dispatcher.Run(ctx, reminderScanInterval)

	log.Info().Str("port", cfg.Port).Msg("medical booking bot started")
	if err := tgBot.Start(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("bot stopped")
	}
	log.Info().Msg("shutting down")
}

package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"github.com/aldosari/medbooking_bot/internal/bot"
	"github.com/aldosari/medbooking_bot/internal/config"
	"github.com/aldosari/medbooking_bot/internal/repository"
	"github.com/aldosari/medbooking_bot/internal/service"
)

// Request is the incoming API Gateway event.
type Request struct {
	Body string `json:"body"`
}

// Response is the API Gateway reply envelope.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Body       string            `json:"body"`
	Headers    map[string]string `json:"headers,omitempty"`
}

// Handler processes a single Telegram webhook update per invocation.
func Handler(ctx context.Context, request Request) (*Response, error) {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.LoadConfig()
	if err != nil {
		return errorResponse(err)
	}

	store, err := repository.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, log)
	if err != nil {
		return errorResponse(err)
	}

	catalog := service.NewCatalogService(store, cfg.CacheTTL, cfg.RequestTimeout, cfg.Location, log)
	booking := service.NewBookingService(store, catalog, cfg.ReminderLead, cfg.RequestTimeout, cfg.Location, log)

	tgBot, err := bot.NewBot(cfg.TelegramToken, catalog, booking, cfg.SessionTTL, log)
	if err != nil {
		return errorResponse(err)
	}

	if err := tgBot.HandleWebhook(ctx, []byte(request.Body)); err != nil {
		return errorResponse(err)
	}

	return &Response{
		StatusCode: 200,
		Body:       "",
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}, nil
}

func errorResponse(err error) (*Response, error) {
	return &Response{
		StatusCode: 500,
		Body:       err.Error(),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}, nil
}

func main() {
	// Production runs via Handler; nothing to do locally.
}

package bot

import (
	"context"
	"encoding/json"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/aldosari/medbooking_bot/internal/model"
	"github.com/aldosari/medbooking_bot/internal/service"
)

// Sender is the outbound half of the messaging transport.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Catalog is the read side the dialogue needs at each step.
type Catalog interface {
	ListCenters(ctx context.Context) ([]string, error)
	ListClinics(ctx context.Context, centerName string) ([]string, error)
	ListSlotsForTomorrow(ctx context.Context, centerName, clinicName string) ([]service.SlotOption, error)
}

// Booker commits a confirmed booking.
type Booker interface {
	Book(ctx context.Context, slotID string, chatID int64, patientName string, patientAge int) (*model.Appointment, error)
}

// Bot wires the conversation state machine to the Telegram transport.
type Bot struct {
	api      *tgbotapi.BotAPI // nil when constructed for tests
	sender   Sender
	catalog  Catalog
	booker   Booker
	sessions *SessionStore
	log      zerolog.Logger
}

// NewBot connects to Telegram and builds the dialogue engine.
func NewBot(token string, catalog Catalog, booker Booker, sessionTTL time.Duration, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	b := New(api, catalog, booker, sessionTTL, log)
	b.api = api
	return b, nil
}

// New builds a Bot on an arbitrary Sender. Polling is unavailable; updates
// must be fed through HandleWebhook or HandleUpdate.
func New(sender Sender, catalog Catalog, booker Booker, sessionTTL time.Duration, log zerolog.Logger) *Bot {
	return &Bot{
		sender:   sender,
		catalog:  catalog,
		booker:   booker,
		sessions: NewSessionStore(sessionTTL),
		log:      log.With().Str("component", "bot").Logger(),
	}
}

// Start runs the long-polling loop until the updates channel closes.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleWebhook decodes one webhook body and processes it.
func (b *Bot) HandleWebhook(ctx context.Context, body []byte) error {
	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		return err
	}

	b.HandleUpdate(ctx, update)
	return nil
}

// HandleUpdate routes a single update into the state machine, serialized per
// chat id.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		// The dialogue is text-driven; just release the client's
		// loading indicator.
		if b.api != nil {
			if _, err := b.api.Request(tgbotapi.NewCallback(update.CallbackQuery.ID, "")); err != nil {
				b.log.Warn().Err(err).Msg("failed to answer callback query")
			}
		}
		return
	}

	if update.Message == nil || update.Message.Chat == nil {
		return
	}

	chatID := update.Message.Chat.ID

	unlock := b.sessions.Lock(chatID)
	defer unlock()

	b.handleText(ctx, chatID, update.Message.Text)
}

// SendText delivers a Markdown-formatted message to a chat. Used by the
// reminder dispatcher as its Notifier.
func (b *Bot) SendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := b.sender.Send(msg)
	return err
}

// send delivers plain text, logging and swallowing transport failures so a
// flaky send never crashes the handler.
func (b *Bot) send(chatID int64, text string) {
	if _, err := b.sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
	}
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.sender.Send(msg); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
	}
}

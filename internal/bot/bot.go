// Package bot wires the telegram transport to the verification client, the
// report formatter and the allowlist.
package bot

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/art97081-arch/receip-bot/internal/interfaces"
)

// Bot handles inbound telegram updates. Each update is processed in its own
// goroutine; the verification path shares no mutable state between updates.
type Bot struct {
	tg       *tgbotapi.BotAPI
	verifier interfaces.ReceiptVerifier
	allowed  interfaces.AllowlistStore
	ownerID  int64
	files    *http.Client
	log      zerolog.Logger
}

// New connects to the Bot API and returns a ready dispatcher.
func New(token string, ownerID int64, verifier interfaces.ReceiptVerifier, allowed interfaces.AllowlistStore, log zerolog.Logger) (*Bot, error) {
	tg, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}

	log.Info().Str("username", tg.Self.UserName).Msg("telegram bot authorized")

	return &Bot{
		tg:       tg,
		verifier: verifier,
		allowed:  allowed,
		ownerID:  ownerID,
		files: &http.Client{
			Timeout: 60 * time.Second,
		},
		log: log.With().Str("component", "bot").Logger(),
	}, nil
}

// Token returns the bot token, used by the webhook server to guard its path.
func (b *Bot) Token() string {
	return b.tg.Token
}

// Run consumes updates over long polling until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.tg.GetUpdatesChan(u)

	b.log.Info().Msg("long polling started")
	for {
		select {
		case <-ctx.Done():
			b.tg.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.HandleUpdate(ctx, update)
		}
	}
}

// RegisterWebhook points telegram at publicURL for update delivery.
func (b *Bot) RegisterWebhook(publicURL string) error {
	wh, err := tgbotapi.NewWebhook(publicURL)
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}
	if _, err := b.tg.Request(wh); err != nil {
		return fmt.Errorf("register webhook: %w", err)
	}
	b.log.Info().Str("url", publicURL).Msg("webhook registered")
	return nil
}

// HandleUpdate routes one update. Every failure class ends in a reply; no
// update goes unanswered.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Interface("panic", r).Int64("user_id", msg.From.ID).Msg("update handler panicked")
			b.reply(msg, "❌ Внутренняя ошибка, попробуйте позже")
		}
	}()

	switch {
	case msg.IsCommand():
		if text := b.dispatchCommand(msg); text != "" {
			b.reply(msg, text)
		}
	case msg.Document != nil:
		b.handleDocument(ctx, msg)
	}
}

func (b *Bot) authorized(userID int64) bool {
	return userID == b.ownerID || b.allowed.Contains(userID)
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	if _, err := b.tg.Send(out); err != nil {
		b.log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("send reply")
	}
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	out := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if _, err := b.tg.Send(out); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("edit reply")
	}
}

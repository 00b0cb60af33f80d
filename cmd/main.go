package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/art97081-arch/receip-bot/internal/allowlist"
	"github.com/art97081-arch/receip-bot/internal/bot"
	"github.com/art97081-arch/receip-bot/internal/config"
	"github.com/art97081-arch/receip-bot/internal/logging"
	"github.com/art97081-arch/receip-bot/internal/server"
	"github.com/art97081-arch/receip-bot/internal/services"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// logging config may be part of what failed, fall back to defaults
		fallback := logging.New("info", "console")
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	log.Info().
		Str("provider", cfg.Provider.Name).
		Str("mode", cfg.Bot.Mode).
		Str("token", config.Mask(cfg.BotToken)).
		Msg("starting receipt verification bot")

	store, err := allowlist.Open(cfg.Allowlist.Path, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open allowlist")
	}

	verifier, err := services.CreateVerifier(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize verification provider")
	}

	b, err := bot.New(cfg.BotToken, cfg.OwnerID, verifier, store, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start telegram bot")
	}

	srv := server.New(cfg, b, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Bot.Mode == "webhook" {
		if cfg.Bot.WebhookHost == "" {
			log.Fatal().Msg("bot.webhook_host must be set in webhook mode")
		}
		if err := b.RegisterWebhook(cfg.Bot.WebhookHost + server.WebhookPath(b.Token())); err != nil {
			log.Fatal().Err(err).Msg("failed to register webhook")
		}
		if err := srv.Run(); err != nil {
			log.Fatal().Err(err).Msg("http server failed")
		}
		return
	}

	// polling mode: health endpoint runs alongside the update loop
	go func() {
		if err := srv.Run(); err != nil {
			log.Error().Err(err).Msg("http server failed")
		}
	}()

	if err := b.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("update loop failed")
	}
	log.Info().Msg("shutting down")
}

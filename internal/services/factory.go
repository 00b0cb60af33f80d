package services

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/art97081-arch/receip-bot/internal/config"
	"github.com/art97081-arch/receip-bot/internal/interfaces"
	"github.com/art97081-arch/receip-bot/internal/services/mock"
	"github.com/art97081-arch/receip-bot/internal/services/real"
)

// CreateVerifier selects the verification provider at configuration time.
// Missing credentials are caught here, before any call is attempted.
func CreateVerifier(cfg *config.Config, log zerolog.Logger) (interfaces.ReceiptVerifier, error) {
	switch cfg.Provider.Name {
	case "mock":
		return mock.NewVerifier(cfg.Provider.Mock.Scenario, log), nil

	case "datagrab":
		if cfg.DatagrabKey == "" {
			return nil, fmt.Errorf("DATAGRAB_API_KEY not set in environment")
		}
		log.Info().Str("url", cfg.Provider.Datagrab.URL).Str("key", config.Mask(cfg.DatagrabKey)).Msg("using datagrab provider")
		return real.NewDatagrab(cfg.Provider.Datagrab.URL, cfg.DatagrabKey, log), nil

	case "checkline":
		if cfg.ChecklineKey == "" {
			return nil, fmt.Errorf("CHECKLINE_API_KEY not set in environment")
		}
		if cfg.Provider.Checkline.URL == "" {
			return nil, fmt.Errorf("checkline provider URL is not configured")
		}
		log.Info().Str("url", cfg.Provider.Checkline.URL).Str("key", config.Mask(cfg.ChecklineKey)).Msg("using checkline provider")
		return real.NewCheckline(
			cfg.Provider.Checkline.URL,
			cfg.ChecklineKey,
			cfg.Provider.Checkline.PollAttempts,
			time.Duration(cfg.Provider.Checkline.PollDelaySeconds)*time.Second,
			log,
		), nil

	default:
		return nil, fmt.Errorf("unknown verification provider %q", cfg.Provider.Name)
	}
}

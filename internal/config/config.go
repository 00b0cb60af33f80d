package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config aggregates application configuration. Non-secret values come from
// config.yaml with environment overrides; credentials are environment-only
// and never written to the file or logged in full.
type Config struct {
	Server struct {
		Port    int  `yaml:"port"`
		Verbose bool `yaml:"verbose"`
	} `yaml:"server"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // console | json
	} `yaml:"logging"`

	Bot struct {
		Mode        string `yaml:"mode"` // polling | webhook
		WebhookHost string `yaml:"webhook_host"`
	} `yaml:"bot"`

	Provider struct {
		Name string `yaml:"name"` // datagrab | checkline | mock

		Datagrab struct {
			URL string `yaml:"url"`
		} `yaml:"datagrab"`

		Checkline struct {
			URL              string `yaml:"url"`
			PollAttempts     int    `yaml:"poll_attempts"`
			PollDelaySeconds int    `yaml:"poll_delay_seconds"`
		} `yaml:"checkline"`

		Mock struct {
			Scenario string `yaml:"scenario"`
		} `yaml:"mock"`
	} `yaml:"provider"`

	Allowlist struct {
		Path string `yaml:"path"`
	} `yaml:"allowlist"`

	// Environment-only secrets and identity
	BotToken     string `yaml:"-"`
	OwnerID      int64  `yaml:"-"`
	DatagrabKey  string `yaml:"-"`
	ChecklineKey string `yaml:"-"`
}

// Load reads the yaml file at path (missing file is allowed, defaults apply),
// layers environment overrides on top and validates that every credential the
// selected provider needs is present.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "console"
	cfg.Bot.Mode = "polling"
	cfg.Provider.Name = "datagrab"
	cfg.Provider.Datagrab.URL = "https://api.datagrab.ru"
	cfg.Provider.Checkline.PollAttempts = 10
	cfg.Provider.Checkline.PollDelaySeconds = 3
	cfg.Allowlist.Path = "allowed.json"

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if v := os.Getenv("PROVIDER"); v != "" {
		cfg.Provider.Name = v
	}
	if v := os.Getenv("ALLOWED_FILE"); v != "" {
		cfg.Allowlist.Path = v
	}
	if v := os.Getenv("DATAGRAB_ENDPOINT"); v != "" {
		cfg.Provider.Datagrab.URL = v
	}
	if v := os.Getenv("CHECKLINE_ENDPOINT"); v != "" {
		cfg.Provider.Checkline.URL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	cfg.BotToken = os.Getenv("BOT_TOKEN")
	cfg.DatagrabKey = os.Getenv("DATAGRAB_API_KEY")
	cfg.ChecklineKey = os.Getenv("CHECKLINE_API_KEY")

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN not set in environment")
	}

	owner := os.Getenv("OWNER_ID")
	if owner == "" {
		return nil, fmt.Errorf("OWNER_ID not set in environment")
	}
	id, err := strconv.ParseInt(owner, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("OWNER_ID must be a numeric telegram user id: %w", err)
	}
	cfg.OwnerID = id

	return cfg, nil
}

// Mask shortens a credential to its last four characters for log output.
func Mask(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

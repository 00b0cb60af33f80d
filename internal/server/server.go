package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/art97081-arch/receip-bot/internal/bot"
	"github.com/art97081-arch/receip-bot/internal/config"
)

// Server exposes the health endpoint and, in webhook mode, the telegram
// update receiver. The webhook path embeds the bot token so only telegram
// can reach it.
type Server struct {
	engine *gin.Engine
	addr   string
	log    zerolog.Logger
}

// New builds the gin router.
func New(cfg *config.Config, b *bot.Bot, log zerolog.Logger) *Server {
	var router *gin.Engine
	if cfg.Server.Verbose {
		gin.SetMode(gin.DebugMode)
		router = gin.Default()
	} else {
		gin.SetMode(gin.ReleaseMode)
		router = gin.New()
		router.Use(gin.Recovery())
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.Bot.Mode == "webhook" {
		router.POST("/webhook/:token", func(c *gin.Context) {
			if c.Param("token") != b.Token() {
				c.Status(http.StatusNotFound)
				return
			}

			var update tgbotapi.Update
			if err := c.ShouldBindJSON(&update); err != nil {
				log.Warn().Err(err).Msg("malformed webhook update")
				c.Status(http.StatusBadRequest)
				return
			}

			go b.HandleUpdate(context.Background(), update)
			c.Status(http.StatusOK)
		})
	}

	return &Server{
		engine: router,
		addr:   fmt.Sprintf(":%d", cfg.Server.Port),
		log:    log.With().Str("component", "server").Logger(),
	}
}

// Run serves until the listener fails.
func (s *Server) Run() error {
	s.log.Info().Str("addr", s.addr).Msg("http server listening")
	return s.engine.Run(s.addr)
}

// WebhookPath returns the update receiver path for the given token.
func WebhookPath(token string) string {
	return "/webhook/" + token
}

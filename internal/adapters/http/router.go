// Package http exposes the operations surface and the web gateway endpoint.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/recruit/internal/app"
	"github.com/dkeye/recruit/internal/config"
	"github.com/dkeye/recruit/internal/domain"
)

const clientTokenKey = "ct"

// SignalHandler upgrades a request to the web gateway. Nil when the process
// runs another gateway.
type SignalHandler interface {
	HandleSignal(ctx context.Context, c *gin.Context)
}

type Deps struct {
	Store   *app.Store
	Metrics *app.Metrics
	Signal  SignalHandler
}

// ClientTokenMiddleware gives every browser a stable id kept in the session
// cookie. The web gateway uses it as the actor id.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		token, _ := sess.Get(clientTokenKey).(string)
		if token == "" {
			token = uuid.NewString()
			sess.Set(clientTokenKey, token)
			if err := sess.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save client token")
			}
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok\n")
	})
	r.GET("/metrics", func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		c.Status(http.StatusOK)
		deps.Metrics.WritePrometheus(c.Writer, deps.Store.Len())
	})

	api := r.Group("/api")
	api.GET("/sessions", func(c *gin.Context) {
		c.JSON(http.StatusOK, deps.Store.List())
	})
	api.GET("/sessions.yaml", func(c *gin.Context) {
		body, err := deps.Store.ExportYAML(time.Now())
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("yaml export")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}
		c.Data(http.StatusOK, "application/yaml; charset=utf-8", body)
	})
	api.GET("/sessions/:id", func(c *gin.Context) {
		snap, err := deps.Store.Get(domain.SessionID(c.Param("id")))
		if errors.Is(err, domain.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, snap)
	})
	api.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, deps.Metrics.Snapshot(deps.Store.Len()))
	})

	if deps.Signal != nil {
		store := cookie.NewStore([]byte(cfg.Secret))
		store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
		ws := api.Group("/ws", sessions.Sessions("RecruitSessions", store), ClientTokenMiddleware())
		ws.GET("/signal", func(c *gin.Context) {
			log.Info().Str("module", "adapters.http").Str("actor", c.GetString("client_token")).Msg("ws signal endpoint hit")
			deps.Signal.HandleSignal(ctx, c)
		})
		ws.GET("/whoami", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"actor": c.GetString("client_token")})
		})
	}

	log.Info().Str("module", "adapters.http").Bool("web_gateway", deps.Signal != nil).Msg("router setup")
	return r
}

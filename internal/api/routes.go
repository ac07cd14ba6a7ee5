package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/model-workshop/internal/auth"
	"github.com/example/model-workshop/internal/config"
	"github.com/example/model-workshop/internal/metrics"
	"github.com/example/model-workshop/internal/random"
	"github.com/example/model-workshop/internal/web"
	"github.com/example/model-workshop/internal/workshop"
)

// Deps são as dependências dos handlers.
type Deps struct {
	Config  *config.Config
	Clients *workshop.Clients
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	NewID   random.IDFunc
}

// RegisterRoutes registra as páginas, a API /api/v1 e os endpoints operacionais.
func RegisterRoutes(r *gin.Engine, d Deps) {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	web.Mount(r)

	// Healthcheck simples
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	withClient := []gin.HandlerFunc{
		auth.ClientMiddleware(d.Config, d.NewID, d.Logger),
		loadClient(d.Clients),
	}

	// Páginas
	pages := r.Group("", withClient...)
	{
		pages.GET("/", shellPage())
		pages.POST("/login", loginForm(d))
		pages.POST("/logout", logoutForm(d))
	}

	api := r.Group("/api/v1", withClient...)

	// Auth
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", loginHandler(d))
		authGroup.POST("/logout", logoutHandler(d))
		authGroup.GET("/me", meHandler())
	}

	api.GET("/notifications", notificationsHandler())

	private := api.Group("", RequireAuth())
	{
		private.GET("/catalog", catalogHandler())

		private.POST("/files/check", checkFileHandler(d))
		private.POST("/files", uploadHandler(d))
		private.GET("/files/progress", progressHandler())
		private.DELETE("/files/current", removeFileHandler())

		private.GET("/selection", selectionHandler())
		private.PUT("/selection/model", selectModelHandler(d))
		private.PUT("/selection/mode", selectModeHandler(d))

		private.POST("/runs", launchHandler(d))
		private.GET("/runs", listRunsHandler())
		private.GET("/runs/:id", getRunHandler(d))
	}
}

package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/model-workshop/internal/auth"
	"github.com/example/model-workshop/internal/workshop"
)

const (
	clientKey    = "client"
	workspaceKey = "workspace"
)

// RequestLogger registra cada requisição no logger zap.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if id := auth.ClientID(c); id != "" {
			fields = append(fields, zap.String("client", id))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("request", fields...)
			return
		}
		logger.Debug("request", fields...)
	}
}

// loadClient resolve o cliente do cookie e restaura sua sessão.
func loadClient(clients *workshop.Clients) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(clientKey, clients.Get(c.Request.Context(), auth.ClientID(c)))
		c.Next()
	}
}

func currentClient(c *gin.Context) *workshop.Client {
	return c.MustGet(clientKey).(*workshop.Client)
}

func currentWorkspace(c *gin.Context) *workshop.Workspace {
	return c.MustGet(workspaceKey).(*workshop.Workspace)
}

// RequireAuth exige um usuário autenticado e expõe seu workspace.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := currentClient(c).Workspace()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		c.Set(workspaceKey, ws)
		c.Next()
	}
}

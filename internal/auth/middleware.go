package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/model-workshop/internal/config"
	"github.com/example/model-workshop/internal/random"
)

const (
	// ClientCookie guarda o token do cliente no navegador.
	ClientCookie = "workshop_client"
	clientKey    = "clientID"
)

// ClientMiddleware identifica o cliente pelo header Authorization: Bearer <token>
// ou pelo cookie. Sem token válido, um novo cliente é emitido.
func ClientMiddleware(cfg *config.Config, newID random.IDFunc, logger *zap.Logger) gin.HandlerFunc {
	if newID == nil {
		newID = random.UUID
	}
	return func(c *gin.Context) {
		if tokenStr := bearerToken(c); tokenStr != "" {
			claims, err := ParseClientToken(tokenStr, cfg)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token inválido"})
				return
			}
			c.Set(clientKey, claims.ClientID)
			c.Next()
			return
		}

		if raw, err := c.Cookie(ClientCookie); err == nil {
			if claims, err := ParseClientToken(raw, cfg); err == nil {
				c.Set(clientKey, claims.ClientID)
				c.Next()
				return
			}
		}

		id := newID()
		token, exp, err := GenerateClientToken(id, cfg)
		if err != nil {
			logger.Error("erro ao gerar token de cliente", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "erro ao gerar token"})
			return
		}
		maxAge := int(time.Until(exp).Seconds())
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(ClientCookie, token, maxAge, "/", "", cfg.Production(), true)
		c.Header("X-Client-Token", token)
		c.Set(clientKey, id)
		c.Next()
	}
}

// ClientID devolve o cliente resolvido pelo middleware.
func ClientID(c *gin.Context) string {
	return c.GetString(clientKey)
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

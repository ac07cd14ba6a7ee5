package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/model-workshop/internal/models"
	"github.com/example/model-workshop/internal/session"
	"github.com/example/model-workshop/internal/shell"
	"github.com/example/model-workshop/internal/web"
	"github.com/example/model-workshop/internal/workshop"
)

// shellPage renderiza a tela do estado atual do cliente.
func shellPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		client := currentClient(c)
		state := client.State()

		var user *models.User
		if u, ok := client.User(); ok && state == shell.Authenticated {
			user = &u
		}
		page := web.NewPage(state, user, client.Notifications().Drain())
		c.HTML(http.StatusOK, shell.View(state), page)
	}
}

// loginForm é o fallback sem JavaScript: autentica e volta para /.
// O resultado chega como notificação na próxima página.
func loginForm(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := strings.TrimSpace(c.PostForm("email"))
		password := c.PostForm("password")

		_, err := currentClient(c).Login(c.Request.Context(), email, password)
		switch {
		case err == nil,
			errors.Is(err, session.ErrInvalidCredentials),
			errors.Is(err, session.ErrBusy),
			errors.Is(err, workshop.ErrAlreadyAuthenticated):
		default:
			d.Logger.Error("erro no login via formulário", zap.Error(err))
		}
		c.Redirect(http.StatusSeeOther, "/")
	}
}

func logoutForm(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := currentClient(c).Logout(c.Request.Context()); err != nil {
			d.Logger.Error("erro no logout via formulário", zap.Error(err))
		}
		c.Redirect(http.StatusSeeOther, "/")
	}
}

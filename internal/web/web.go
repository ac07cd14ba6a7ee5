// Package web embute as páginas HTML e o script que conversa com a API.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/model-workshop/internal/models"
	"github.com/example/model-workshop/internal/notify"
	"github.com/example/model-workshop/internal/policy"
	"github.com/example/model-workshop/internal/shell"
)

//go:embed templates static
var content embed.FS

// Page é o modelo entregue aos templates.
type Page struct {
	Title         string
	State         shell.State
	User          *models.User
	Catalog       policy.CatalogView
	Notifications []notify.Notification
	Year          int
}

// NewPage monta a página para o estado atual do cliente.
func NewPage(state shell.State, user *models.User, notes []notify.Notification) Page {
	p := Page{
		Title:         "AI Model Workshop",
		State:         state,
		User:          user,
		Notifications: notes,
		Year:          time.Now().Year(),
	}
	if user != nil {
		p.Catalog = policy.Catalog(user.Role)
	}
	return p
}

// Templates faz o parse do conjunto embutido. Cada página é nomeada pelo arquivo.
func Templates() (*template.Template, error) {
	return template.ParseFS(content, "templates/*.html")
}

// Static devolve os arquivos de /static.
func Static() http.FileSystem {
	sub, err := fs.Sub(content, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// Mount instala os templates e os arquivos estáticos no router.
func Mount(r *gin.Engine) {
	r.SetHTMLTemplate(template.Must(Templates()))
	r.StaticFS("/static", Static())
}

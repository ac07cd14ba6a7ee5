// Package policy mapeia papéis para os modelos, modos e ações permitidos.
package policy

import "github.com/example/model-workshop/internal/models"

// Item é qualquer coisa que pode ser restrita por papel.
type Item interface {
	Restricted() bool
}

// Action é uma ação sujeita a RBAC.
type Action string

const (
	// ActionUpload é a etapa de envio de arquivo.
	ActionUpload Action = "upload"
)

// Restricted indica se a ação é negada a papéis limitados.
func (a Action) Restricted() bool {
	return a == ActionUpload
}

// IsRestrictedFor indica se o item é negado ao papel.
// Papéis desconhecidos recebem as mesmas restrições de student.
func IsRestrictedFor(role models.Role, item Item) bool {
	switch role {
	case models.RoleAdmin, models.RoleAlpha:
		return false
	}
	return item.Restricted()
}

// CanUpload indica se o papel pode executar o upload.
func CanUpload(role models.Role) bool {
	return !IsRestrictedFor(role, ActionUpload)
}

// AllowedModels devolve os modelos liberados para o papel.
func AllowedModels(role models.Role) []models.ModelType {
	out := make([]models.ModelType, 0, len(models.Models))
	for _, m := range models.Models {
		if !IsRestrictedFor(role, m.Value) {
			out = append(out, m.Value)
		}
	}
	return out
}

// AllowedModes devolve os modos liberados para o papel.
func AllowedModes(role models.Role) []models.ModeType {
	out := make([]models.ModeType, 0, len(models.Modes))
	for _, m := range models.Modes {
		if !IsRestrictedFor(role, m.Value) {
			out = append(out, m.Value)
		}
	}
	return out
}

// ModelOption é uma entrada do catálogo com o estado de bloqueio para um papel.
type ModelOption struct {
	models.ModelInfo
	Disabled bool `json:"disabled"`
}

// ModeOption é um modo com o estado de bloqueio para um papel.
type ModeOption struct {
	models.ModeInfo
	Disabled bool `json:"disabled"`
}

// CatalogView é o catálogo visto por um papel.
type CatalogView struct {
	Models    []ModelOption `json:"models"`
	Modes     []ModeOption  `json:"modes"`
	CanUpload bool          `json:"canUpload"`
	Limited   bool          `json:"limited"`
}

// Catalog monta o catálogo com as opções bloqueadas do papel.
func Catalog(role models.Role) CatalogView {
	view := CatalogView{CanUpload: CanUpload(role)}
	for _, m := range models.Models {
		disabled := IsRestrictedFor(role, m.Value)
		view.Limited = view.Limited || disabled
		view.Models = append(view.Models, ModelOption{ModelInfo: m, Disabled: disabled})
	}
	for _, m := range models.Modes {
		disabled := IsRestrictedFor(role, m.Value)
		view.Limited = view.Limited || disabled
		view.Modes = append(view.Modes, ModeOption{ModeInfo: m, Disabled: disabled})
	}
	return view
}

// Package selection guarda a configuração em andamento: arquivo, modelo e modo.
package selection

import (
	"errors"
	"sync"

	"github.com/example/model-workshop/internal/models"
	"github.com/example/model-workshop/internal/policy"
)

var (
	ErrUnknownItem = errors.New("item desconhecido")
	ErrRestricted  = errors.New("item restrito para o papel")
)

// Snapshot é uma cópia da seleção atual.
type Snapshot struct {
	File  *models.FileDescriptor `json:"file"`
	Model *models.ModelType      `json:"model"`
	Mode  *models.ModeType       `json:"mode"`
}

// State guarda no máximo um valor de cada tipo; uma nova escolha substitui a anterior.
type State struct {
	role models.Role

	mu    sync.Mutex
	file  *models.FileDescriptor
	model *models.ModelType
	mode  *models.ModeType
}

// New cria o estado de seleção para um papel.
func New(role models.Role) *State {
	return &State{role: role}
}

// SetFile substitui o arquivo selecionado.
func (s *State) SetFile(fd models.FileDescriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file = &fd
}

// ClearFile remove o arquivo selecionado.
func (s *State) ClearFile() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file = nil
}

// SetModel seleciona um modelo permitido ao papel.
func (s *State) SetModel(m models.ModelType) error {
	if !m.Valid() {
		return ErrUnknownItem
	}
	if policy.IsRestrictedFor(s.role, m) {
		return ErrRestricted
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = &m
	return nil
}

// SetMode seleciona um modo permitido ao papel.
func (s *State) SetMode(m models.ModeType) error {
	if !m.Valid() {
		return ErrUnknownItem
	}
	if policy.IsRestrictedFor(s.role, m) {
		return ErrRestricted
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = &m
	return nil
}

// Snapshot devolve uma cópia do estado.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out Snapshot
	if s.file != nil {
		f := *s.file
		out.File = &f
	}
	if s.model != nil {
		m := *s.model
		out.Model = &m
	}
	if s.mode != nil {
		m := *s.mode
		out.Mode = &m
	}
	return out
}

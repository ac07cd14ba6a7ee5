// Package session mantém o usuário ativo de um cliente e o persiste sob uma chave fixa.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/example/model-workshop/internal/models"
	"github.com/example/model-workshop/internal/storage"
)

// UserKey é a chave onde o usuário serializado é persistido.
const UserKey = "user"

var (
	ErrInvalidCredentials = errors.New("credenciais inválidas")
	ErrBusy               = errors.New("login em andamento")
)

// Storage é o armazenamento durável visto por um cliente.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Authenticator confere credenciais contra a tabela estática.
type Authenticator interface {
	Authenticate(email, password string) (models.User, bool)
}

// Options configura a store.
type Options struct {
	Latency time.Duration
	Clock   clock.Clock
	Logger  *zap.Logger
}

// Store guarda o usuário ativo de um cliente.
type Store struct {
	storage Storage
	creds   Authenticator
	latency time.Duration
	clock   clock.Clock
	log     *zap.Logger

	mu   sync.RWMutex
	user *models.User
	busy bool
}

// New cria uma store sem usuário ativo. Chame Restore para recuperar a sessão persistida.
func New(st Storage, creds Authenticator, opts Options) *Store {
	s := &Store{
		storage: st,
		creds:   creds,
		latency: opts.Latency,
		clock:   opts.Clock,
		log:     opts.Logger,
	}
	if s.clock == nil {
		s.clock = clock.RealClock{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Login simula a latência de rede, confere as credenciais e persiste o usuário.
// Em qualquer falha o estado anterior é mantido.
func (s *Store) Login(ctx context.Context, email, password string) (models.User, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return models.User{}, ErrBusy
	}
	s.busy = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	if s.latency > 0 {
		select {
		case <-ctx.Done():
			return models.User{}, ctx.Err()
		case <-s.clock.After(s.latency):
		}
	}

	user, ok := s.creds.Authenticate(email, password)
	if !ok {
		return models.User{}, ErrInvalidCredentials
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return models.User{}, err
	}
	if err := s.storage.Set(ctx, UserKey, string(raw)); err != nil {
		return models.User{}, fmt.Errorf("erro ao persistir sessão: %w", err)
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	return user, nil
}

// Logout limpa o usuário ativo e remove a chave persistida. Idempotente.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	if err := s.storage.Delete(ctx, UserKey); err != nil {
		return fmt.Errorf("erro ao remover sessão: %w", err)
	}
	return nil
}

// Restore lê a chave persistida. Valores ilegíveis são apagados; nunca falha.
func (s *Store) Restore(ctx context.Context) {
	raw, err := s.storage.Get(ctx, UserKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.setUser(nil)
		return
	case errors.Is(err, storage.ErrCorrupt):
		s.discard(ctx, err)
		return
	case err != nil:
		s.log.Error("erro ao ler sessão persistida", zap.Error(err))
		s.setUser(nil)
		return
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		s.discard(ctx, err)
		return
	}
	if user.ID == "" || !user.Role.Valid() {
		s.discard(ctx, fmt.Errorf("usuário persistido inválido: %q", user.Role))
		return
	}
	s.setUser(&user)
}

func (s *Store) discard(ctx context.Context, cause error) {
	s.log.Warn("sessão persistida corrompida, descartando", zap.Error(cause))
	s.setUser(nil)
	if err := s.storage.Delete(ctx, UserKey); err != nil {
		s.log.Error("erro ao remover sessão corrompida", zap.Error(err))
	}
}

func (s *Store) setUser(u *models.User) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
}

// User devolve uma cópia do usuário ativo.
func (s *Store) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// IsAuthenticated indica se há usuário ativo.
func (s *Store) IsAuthenticated() bool {
	_, ok := s.User()
	return ok
}

// Busy indica se há um login em andamento.
func (s *Store) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy
}

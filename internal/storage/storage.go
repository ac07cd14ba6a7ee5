// Package storage implementa o armazenamento chave/valor onde a sessão é persistida.
package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"github.com/example/model-workshop/internal/crypto"
)

var (
	ErrNotFound = errors.New("chave não encontrada")
	// ErrCorrupt indica um valor presente mas ilegível.
	ErrCorrupt = errors.New("valor corrompido")
)

// KV é o contrato mínimo de armazenamento durável, particionado por escopo.
type KV interface {
	Get(ctx context.Context, scope, key string) (string, error)
	Set(ctx context.Context, scope, key, value string) error
	Delete(ctx context.Context, scope, key string) error
}

// Memory é um KV em memória. Seguro para uso concorrente.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

// NewMemory cria um KV vazio.
func NewMemory() *Memory {
	return &Memory{data: map[string]map[string]string{}}
}

func (m *Memory) Get(_ context.Context, scope, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[scope][key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(_ context.Context, scope, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[scope] == nil {
		m.data[scope] = map[string]string{}
	}
	m.data[scope][key] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[scope], key)
	if len(m.data[scope]) == 0 {
		delete(m.data, scope)
	}
	return nil
}

// Scoped é a visão de um único cliente sobre o KV.
type Scoped struct {
	kv    KV
	scope string
}

// NewScoped fixa o escopo do cliente.
func NewScoped(kv KV, scope string) *Scoped {
	return &Scoped{kv: kv, scope: scope}
}

func (s *Scoped) Get(ctx context.Context, key string) (string, error) {
	return s.kv.Get(ctx, s.scope, key)
}

func (s *Scoped) Set(ctx context.Context, key, value string) error {
	return s.kv.Set(ctx, s.scope, key, value)
}

func (s *Scoped) Delete(ctx context.Context, key string) error {
	return s.kv.Delete(ctx, s.scope, key)
}

// Sealed cifra os valores com AES-256-GCM antes de gravá-los.
type Sealed struct {
	kv  KV
	key []byte
}

// NewSealed valida a chave e embrulha o KV.
func NewSealed(kv KV, key []byte) (*Sealed, error) {
	if len(key) != 32 {
		return nil, crypto.ErrKeySize
	}
	return &Sealed{kv: kv, key: key}, nil
}

func (s *Sealed) Get(ctx context.Context, scope, key string) (string, error) {
	raw, err := s.kv.Get(ctx, scope, key)
	if err != nil {
		return "", err
	}
	ct, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	pt, err := crypto.DecryptAES(s.key, ct)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return string(pt), nil
}

func (s *Sealed) Set(ctx context.Context, scope, key, value string) error {
	ct, err := crypto.EncryptAES(s.key, []byte(value))
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, scope, key, base64.StdEncoding.EncodeToString(ct))
}

func (s *Sealed) Delete(ctx context.Context, scope, key string) error {
	return s.kv.Delete(ctx, scope, key)
}

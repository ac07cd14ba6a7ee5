// Package random isola a fonte de aleatoriedade dos simuladores.
package random

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Source entrega valores uniformes em [0, 1).
type Source interface {
	Float64() float64
}

type lockedSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New devolve uma Source segura para uso concorrente.
// seed zero usa o relógio.
func New(seed int64) Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedSource{rnd: rand.New(rand.NewSource(seed))}
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}

// Fixed devolve sempre o mesmo valor. Usado em testes.
type Fixed float64

func (f Fixed) Float64() float64 {
	return float64(f)
}

// IDFunc gera identificadores.
type IDFunc func() string

// UUID gera ids via google/uuid.
func UUID() string {
	return uuid.NewString()
}

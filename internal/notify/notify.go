// Package notify guarda as mensagens transitórias (toasts) de cada cliente.
package notify

import (
	"sync"
	"time"
)

// Level é a severidade de uma notificação.
type Level string

const (
	Success Level = "success"
	Error   Level = "error"
	Info    Level = "info"
)

// DefaultCapacity limita a fila de cada cliente.
const DefaultCapacity = 20

// Notification é uma mensagem para o usuário.
type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Queue é uma fila limitada; ao encher, a mensagem mais antiga é descartada.
type Queue struct {
	mu    sync.Mutex
	cap   int
	items []Notification
	now   func() time.Time
}

// NewQueue cria uma fila. capacity <= 0 usa DefaultCapacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{cap: capacity, now: time.Now}
}

// Push enfileira sem bloquear.
func (q *Queue) Push(level Level, message string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == q.cap {
		q.items = q.items[1:]
	}
	q.items = append(q.items, Notification{Level: level, Message: message, At: q.now()})
}

func (q *Queue) Success(message string) { q.Push(Success, message) }
func (q *Queue) Error(message string)   { q.Push(Error, message) }
func (q *Queue) Info(message string)    { q.Push(Info, message) }

// Drain devolve e remove todas as mensagens pendentes.
func (q *Queue) Drain() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

// Len conta as mensagens pendentes.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Package shell é a máquina de estados da interface: carregando, login ou dashboard.
package shell

import (
	"errors"
	"fmt"
	"sync"
)

// State é o estado da interface de um cliente.
type State string

const (
	Loading         State = "loading"
	Unauthenticated State = "unauthenticated"
	Authenticated   State = "authenticated"
)

// ErrIllegalTransition indica uma transição fora da tabela.
var ErrIllegalTransition = errors.New("transição inválida")

var transitions = map[State][]State{
	Loading:         {Unauthenticated, Authenticated},
	Unauthenticated: {Authenticated},
	Authenticated:   {Unauthenticated},
}

// View é o template renderizado para cada estado.
func View(s State) string {
	switch s {
	case Authenticated:
		return "dashboard.html"
	case Unauthenticated:
		return "login.html"
	}
	return "loading.html"
}

// Machine guarda o estado atual. Começa em Loading.
type Machine struct {
	mu    sync.Mutex
	state State
}

// NewMachine cria uma máquina em Loading.
func NewMachine() *Machine {
	return &Machine{state: Loading}
}

// State devolve o estado atual.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Transition move para o estado alvo, se permitido.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, allowed := range transitions[m.state] {
		if allowed == to {
			m.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.state, to)
}

// Settle sai de Loading conforme o resultado do restore.
func (m *Machine) Settle(authenticated bool) error {
	if authenticated {
		return m.Transition(Authenticated)
	}
	return m.Transition(Unauthenticated)
}

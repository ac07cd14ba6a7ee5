// Package workshop junta sessão, interface e painel de cada cliente (navegador).
package workshop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/example/model-workshop/internal/config"
	"github.com/example/model-workshop/internal/metrics"
	"github.com/example/model-workshop/internal/models"
	"github.com/example/model-workshop/internal/notify"
	"github.com/example/model-workshop/internal/random"
	"github.com/example/model-workshop/internal/session"
	"github.com/example/model-workshop/internal/shell"
	"github.com/example/model-workshop/internal/storage"
)

var (
	ErrAlreadyAuthenticated = errors.New("cliente já autenticado")
	ErrNotAuthenticated     = errors.New("cliente não autenticado")
)

// Timing reúne os atrasos simulados.
type Timing struct {
	LoginLatency     time.Duration
	UploadTick       time.Duration
	UploadDuration   time.Duration
	UploadResetDelay time.Duration
	LaunchDelay      time.Duration
	RunMinDelay      time.Duration
	RunJitter        time.Duration
}

// TimingFrom extrai os atrasos da configuração.
func TimingFrom(cfg *config.Config) Timing {
	return Timing{
		LoginLatency:     cfg.LoginLatency,
		UploadTick:       cfg.UploadTick,
		UploadDuration:   cfg.UploadDuration,
		UploadResetDelay: cfg.UploadResetDelay,
		LaunchDelay:      cfg.LaunchDelay,
		RunMinDelay:      cfg.RunMinDelay,
		RunJitter:        cfg.RunJitter,
	}
}

// Deps são as dependências compartilhadas por todos os clientes.
type Deps struct {
	KV          storage.KV
	Credentials session.Authenticator
	Clock       clock.WithTickerAndDelayedExecution
	Rand        random.Source
	NewID       random.IDFunc
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
	Timing      Timing
}

// Clients é o registro de clientes conhecidos, indexado pelo id do cookie.
type Clients struct {
	deps Deps

	mu      sync.Mutex
	clients map[string]*Client
}

// NewClients cria o registro. Campos nulos recebem padrões.
func NewClients(deps Deps) *Clients {
	if deps.KV == nil {
		deps.KV = storage.NewMemory()
	}
	if deps.Clock == nil {
		deps.Clock = clock.RealClock{}
	}
	if deps.Rand == nil {
		deps.Rand = random.New(0)
	}
	if deps.NewID == nil {
		deps.NewID = random.UUID
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Clients{deps: deps, clients: map[string]*Client{}}
}

// Get devolve o cliente com a sessão já restaurada, criando-o se preciso.
func (cs *Clients) Get(ctx context.Context, id string) *Client {
	cs.mu.Lock()
	c, ok := cs.clients[id]
	if !ok {
		c = cs.newClient(id)
		cs.clients[id] = c
	}
	c.touch(cs.deps.Clock.Now())
	cs.mu.Unlock()

	c.restore(ctx)
	return c
}

// Len devolve o número de clientes em memória.
func (cs *Clients) Len() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.clients)
}

// Sweep descarta clientes anônimos sem atividade há mais de idle e clientes
// autenticados parados há mais de sessionIdle. O workspace destes é encerrado,
// mas a sessão persistida fica: a próxima requisição a restaura.
func (cs *Clients) Sweep(idle, sessionIdle time.Duration) int {
	now := cs.deps.Clock.Now()
	cs.mu.Lock()
	var evicted []*Client
	for id, c := range cs.clients {
		limit := idle
		if c.shell.State() == shell.Authenticated {
			limit = sessionIdle
		}
		if c.idleSince(now) < limit || c.Busy() {
			continue
		}
		delete(cs.clients, id)
		evicted = append(evicted, c)
	}
	cs.mu.Unlock()

	for _, c := range evicted {
		c.release()
	}
	return len(evicted)
}

func (cs *Clients) newClient(id string) *Client {
	log := cs.deps.Logger.With(zap.String("client", id))
	return &Client{
		ID:   id,
		deps: &cs.deps,
		session: session.New(storage.NewScoped(cs.deps.KV, id), cs.deps.Credentials, session.Options{
			Latency: cs.deps.Timing.LoginLatency,
			Clock:   cs.deps.Clock,
			Logger:  log,
		}),
		shell: shell.NewMachine(),
		notes: notify.NewQueue(notify.DefaultCapacity),
		log:   log,
	}
}

// Client é o estado de um navegador: sessão, estado da interface, notificações e,
// quando autenticado, o workspace.
type Client struct {
	ID string

	deps     *Deps
	session  *session.Store
	shell    *shell.Machine
	notes    *notify.Queue
	log      *zap.Logger
	restored sync.Once

	mu       sync.Mutex
	ws       *Workspace
	lastSeen time.Time
}

func (c *Client) restore(ctx context.Context) {
	c.restored.Do(func() {
		c.session.Restore(ctx)
		user, ok := c.session.User()
		if ok {
			c.mu.Lock()
			c.ws = newWorkspace(user, c.deps, c.notes)
			c.mu.Unlock()
			c.log.Info("sessão restaurada", zap.String("user", user.Username))
		}
		if err := c.shell.Settle(ok); err != nil {
			c.log.Error("erro ao sair do estado de carregamento", zap.Error(err))
		}
	})
}

// release encerra o workspace em memória sem apagar a sessão.
func (c *Client) release() {
	c.mu.Lock()
	ws := c.ws
	c.ws = nil
	c.mu.Unlock()
	if ws != nil {
		ws.Close()
	}
}

func (c *Client) touch(now time.Time) {
	c.mu.Lock()
	c.lastSeen = now
	c.mu.Unlock()
}

func (c *Client) idleSince(now time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return now.Sub(c.lastSeen)
}

// State devolve o estado da interface.
func (c *Client) State() shell.State {
	return c.shell.State()
}

// User devolve o usuário ativo.
func (c *Client) User() (models.User, bool) {
	return c.session.User()
}

// Busy indica se há um login em andamento.
func (c *Client) Busy() bool {
	return c.session.Busy()
}

// Notifications devolve a fila de toasts do cliente.
func (c *Client) Notifications() *notify.Queue {
	return c.notes
}

// Workspace devolve o painel do usuário autenticado.
func (c *Client) Workspace() (*Workspace, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ws == nil {
		return nil, ErrNotAuthenticated
	}
	return c.ws, nil
}

// Login autentica e abre um workspace novo.
func (c *Client) Login(ctx context.Context, email, password string) (models.User, error) {
	if c.shell.State() == shell.Authenticated {
		return models.User{}, ErrAlreadyAuthenticated
	}

	user, err := c.session.Login(ctx, email, password)
	switch {
	case errors.Is(err, session.ErrInvalidCredentials):
		c.notes.Error("Invalid email or password")
		c.deps.Metrics.Logins.WithLabelValues("invalid").Inc()
		c.log.Info("login recusado", zap.String("email", email))
		return models.User{}, err
	case errors.Is(err, session.ErrBusy):
		return models.User{}, err
	case err != nil:
		c.deps.Metrics.Logins.WithLabelValues("error").Inc()
		c.log.Error("erro no login", zap.Error(err))
		return models.User{}, err
	}

	if err := c.shell.Transition(shell.Authenticated); err != nil {
		return models.User{}, fmt.Errorf("erro ao abrir dashboard: %w", err)
	}
	c.mu.Lock()
	if c.ws != nil {
		c.ws.Close()
	}
	c.ws = newWorkspace(user, c.deps, c.notes)
	c.mu.Unlock()

	c.notes.Success(fmt.Sprintf("Welcome back, %s!", user.Username))
	c.deps.Metrics.Logins.WithLabelValues("success").Inc()
	c.log.Info("login", zap.String("user", user.Username), zap.String("role", string(user.Role)))
	return user, nil
}

// Logout encerra o workspace e apaga a sessão persistida. Idempotente.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	ws := c.ws
	c.ws = nil
	c.mu.Unlock()
	if ws != nil {
		ws.Close()
	}

	err := c.session.Logout(ctx)
	if c.shell.State() == shell.Authenticated {
		if terr := c.shell.Transition(shell.Unauthenticated); terr != nil {
			return terr
		}
		c.notes.Info("You have been logged out")
		c.log.Info("logout")
	}
	return err
}

// Package runs simula a execução de modelos e mantém o histórico da sessão.
package runs

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/example/model-workshop/internal/models"
	"github.com/example/model-workshop/internal/random"
)

var (
	ErrNoFile   = errors.New("nenhum arquivo selecionado")
	ErrNoModel  = errors.New("nenhum modelo selecionado")
	ErrNoMode   = errors.New("nenhum modo selecionado")
	ErrNotFound = errors.New("execução não encontrada")
	ErrClosed   = errors.New("simulador encerrado")
)

// Message devolve o texto mostrado ao usuário para um erro de seleção.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrNoFile):
		return "Please upload a file first"
	case errors.Is(err, ErrNoModel):
		return "Please select a model"
	case errors.Is(err, ErrNoMode):
		return "Please select an execution mode"
	}
	return err.Error()
}

const stampLayout = "15:04:05"

// Options configura o simulador.
type Options struct {
	MinDelay   time.Duration
	Jitter     time.Duration
	Clock      clock.WithDelayedExecution
	Rand       random.Source
	NewID      random.IDFunc
	OnComplete func(models.RunRecord)
}

// Simulator cria registros de execução e os conclui depois de um atraso aleatório.
type Simulator struct {
	minDelay   time.Duration
	jitter     time.Duration
	clock      clock.WithDelayedExecution
	rand       random.Source
	newID      random.IDFunc
	onComplete func(models.RunRecord)

	mu      sync.Mutex
	history []*models.RunRecord // mais recente primeiro
	byID    map[string]*models.RunRecord
	timers  map[string]clock.Timer
	closed  bool
}

// NewSimulator aplica os padrões: atraso em [5s, 15s), relógio real.
func NewSimulator(opts Options) *Simulator {
	s := &Simulator{
		minDelay:   opts.MinDelay,
		jitter:     opts.Jitter,
		clock:      opts.Clock,
		rand:       opts.Rand,
		newID:      opts.NewID,
		onComplete: opts.OnComplete,
		byID:       map[string]*models.RunRecord{},
		timers:     map[string]clock.Timer{},
	}
	if s.minDelay <= 0 && s.jitter <= 0 {
		s.minDelay = 5 * time.Second
		s.jitter = 10 * time.Second
	}
	if s.clock == nil {
		s.clock = clock.RealClock{}
	}
	if s.rand == nil {
		s.rand = random.New(0)
	}
	if s.newID == nil {
		s.newID = random.UUID
	}
	return s
}

// Check confere a seleção na ordem arquivo, modelo, modo.
func Check(file *models.FileDescriptor, model *models.ModelType, mode *models.ModeType) error {
	switch {
	case file == nil:
		return ErrNoFile
	case model == nil:
		return ErrNoModel
	case mode == nil:
		return ErrNoMode
	}
	return nil
}

// Start cria um registro em execução no topo do histórico e agenda sua conclusão.
func (s *Simulator) Start(user models.User, file *models.FileDescriptor, model *models.ModelType, mode *models.ModeType) (models.RunRecord, error) {
	if err := Check(file, model, mode); err != nil {
		return models.RunRecord{}, err
	}

	now := s.clock.Now()
	rec := &models.RunRecord{
		ID:        s.newID(),
		UserID:    user.ID,
		Username:  user.Username,
		ModelType: *model,
		ModeType:  *mode,
		FileName:  file.Name,
		Status:    models.RunRunning,
		StartTime: now,
		Logs:      []string{logLine(now, "Initializing %s model...", *model)},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return models.RunRecord{}, ErrClosed
	}
	s.history = append([]*models.RunRecord{rec}, s.history...)
	s.byID[rec.ID] = rec

	id := rec.ID
	delay := s.minDelay + time.Duration(s.rand.Float64()*float64(s.jitter))
	end := now.Add(delay)
	// O callback não pode voltar ao relógio nem a s.mu: relógios de teste o
	// executam com o próprio lock tomado.
	s.timers[id] = s.clock.AfterFunc(delay, func() { go s.complete(id, end) })

	return rec.Clone(), nil
}

func (s *Simulator) complete(id string, now time.Time) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	rec, ok := s.byID[id]
	if _, pending := s.timers[id]; !ok || !pending || rec.Status != models.RunRunning {
		s.mu.Unlock()
		return
	}
	delete(s.timers, id)

	accuracy := s.rand.Float64()*20 + 80
	rec.Status = models.RunCompleted
	rec.EndTime = &now
	rec.Logs = append(rec.Logs,
		logLine(now, "Loading dataset: %s", rec.FileName),
		logLine(now, "Preprocessing data..."),
		logLine(now, "Training %s model...", rec.ModelType),
		logLine(now, "Validation complete. Accuracy: %.2f%%", accuracy),
		logLine(now, "Model execution completed successfully."),
	)
	out := rec.Clone()
	s.mu.Unlock()

	if s.onComplete != nil {
		s.onComplete(out)
	}
}

func logLine(t time.Time, format string, args ...any) string {
	return "[" + t.Format(stampLayout) + "] " + fmt.Sprintf(format, args...)
}

// List devolve cópias do histórico, mais recente primeiro.
func (s *Simulator) List() []models.RunRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.RunRecord, 0, len(s.history))
	for _, rec := range s.history {
		out = append(out, rec.Clone())
	}
	return out
}

// Get devolve uma cópia do registro.
func (s *Simulator) Get(id string) (models.RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return models.RunRecord{}, ErrNotFound
	}
	return rec.Clone(), nil
}

// Running conta as execuções ainda pendentes de conclusão.
func (s *Simulator) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Cancel interrompe a conclusão agendada. O registro continua no histórico.
func (s *Simulator) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	timer, ok := s.timers[id]
	if !ok {
		return false
	}
	timer.Stop()
	delete(s.timers, id)
	return true
}

// Close cancela todas as conclusões pendentes e devolve quantas eram.
// Disparos tardios são ignorados.
func (s *Simulator) Close() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	s.closed = true
	n := len(s.timers)
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
	return n
}

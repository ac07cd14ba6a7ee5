// Package upload valida datasets e simula o envio com uma barra de progresso fabricada.
package upload

import (
	"context"
	"errors"
	"time"

	"k8s.io/utils/clock"

	"github.com/example/model-workshop/internal/models"
	"github.com/example/model-workshop/internal/policy"
	"github.com/example/model-workshop/internal/random"
)

// MaxSize é o tamanho máximo aceito (10 MiB).
const MaxSize int64 = 10 * 1024 * 1024

var (
	ErrInvalidType     = errors.New("invalid type")
	ErrTooLarge        = errors.New("too large")
	ErrUploadForbidden = errors.New("upload not permitted for role")
)

// AllowedTypes são os mime types aceitos.
var AllowedTypes = []string{
	"text/csv",
	"application/json",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"text/plain",
}

// Candidate é o arquivo escolhido localmente, antes do envio.
type Candidate struct {
	Name     string `json:"name" binding:"required"`
	Size     int64  `json:"size"`
	MimeType string `json:"type"`
}

// Validate rejeita tipos fora da lista e arquivos acima de MaxSize.
func Validate(c Candidate) error {
	if !allowedType(c.MimeType) {
		return ErrInvalidType
	}
	if c.Size > MaxSize {
		return ErrTooLarge
	}
	return nil
}

// Message devolve o texto mostrado ao usuário para um erro de validação.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrInvalidType):
		return "Please upload a valid data file (CSV, JSON, Excel, etc.)"
	case errors.Is(err, ErrTooLarge):
		return "File size exceeds 10MB limit"
	case errors.Is(err, ErrUploadForbidden):
		return "Student accounts cannot upload files. Please ask an admin for assistance."
	}
	return err.Error()
}

func allowedType(t string) bool {
	for _, a := range AllowedTypes {
		if a == t {
			return true
		}
	}
	return false
}

// ProgressFunc recebe o progresso atual em [0, 100].
type ProgressFunc func(percent float64)

// Options configura o simulador.
type Options struct {
	Tick     time.Duration
	Duration time.Duration
	Clock    clock.WithTicker
	Rand     random.Source
	NewID    random.IDFunc
}

// Simulator fabrica uploads sem transferir nada.
type Simulator struct {
	tick     time.Duration
	duration time.Duration
	clock    clock.WithTicker
	rand     random.Source
	newID    random.IDFunc
}

// NewSimulator aplica os padrões: tick de 200ms, duração de 2s, relógio real.
func NewSimulator(opts Options) *Simulator {
	s := &Simulator{
		tick:     opts.Tick,
		duration: opts.Duration,
		clock:    opts.Clock,
		rand:     opts.Rand,
		newID:    opts.NewID,
	}
	if s.tick <= 0 {
		s.tick = 200 * time.Millisecond
	}
	if s.duration <= 0 {
		s.duration = 2 * time.Second
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

// Upload valida o candidato, confere a permissão do papel e simula o envio.
// Nenhum descriptor é produzido em caso de erro ou cancelamento.
func (s *Simulator) Upload(ctx context.Context, role models.Role, c Candidate, onProgress ProgressFunc) (models.FileDescriptor, error) {
	if err := Validate(c); err != nil {
		return models.FileDescriptor{}, err
	}
	if !policy.CanUpload(role) {
		return models.FileDescriptor{}, ErrUploadForbidden
	}
	if onProgress == nil {
		onProgress = func(float64) {}
	}

	ticker := s.clock.NewTicker(s.tick)
	defer ticker.Stop()
	done := s.clock.After(s.duration)

	progress := 0.0
	onProgress(progress)
	for finished := false; !finished; {
		select {
		case <-ctx.Done():
			return models.FileDescriptor{}, ctx.Err()
		case <-done:
			finished = true
		case <-ticker.C():
			progress += s.rand.Float64() * 20
			if progress > 100 {
				progress = 100
			}
			onProgress(progress)
		}
	}
	onProgress(100)

	return models.FileDescriptor{
		ID:         s.newID(),
		Name:       c.Name,
		Size:       c.Size,
		MimeType:   c.MimeType,
		UploadedAt: s.clock.Now(),
	}, nil
}

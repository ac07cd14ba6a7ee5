package workshop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/example/model-workshop/internal/metrics"
	"github.com/example/model-workshop/internal/models"
	"github.com/example/model-workshop/internal/notify"
	"github.com/example/model-workshop/internal/runs"
	"github.com/example/model-workshop/internal/selection"
	"github.com/example/model-workshop/internal/upload"
)

var (
	ErrLaunchInProgress = errors.New("execução já está sendo iniciada")
	ErrUploadInProgress = errors.New("upload em andamento")
	ErrWorkspaceClosed  = errors.New("sessão encerrada")
)

// UploadProgress é o estado do upload em andamento, exibido pela interface.
type UploadProgress struct {
	Name    string  `json:"name"`
	Size    int64   `json:"size"`
	Percent float64 `json:"percent"`
	Done    bool    `json:"done"`
}

// Workspace é o painel de um usuário autenticado: seleção, upload e histórico.
// Vive enquanto a sessão de login durar.
type Workspace struct {
	user        models.User
	selection   *selection.State
	runs        *runs.Simulator
	uploader    *upload.Simulator
	clock       clock.WithTickerAndDelayedExecution
	launchDelay time.Duration
	resetDelay  time.Duration
	notes       *notify.Queue
	metrics     *metrics.Metrics
	log         *zap.Logger

	launching atomic.Bool

	mu         sync.Mutex
	progress   *UploadProgress
	resetTimer clock.Timer
	closed     bool
}

func newWorkspace(user models.User, d *Deps, notes *notify.Queue) *Workspace {
	ws := &Workspace{
		user:        user,
		selection:   selection.New(user.Role),
		clock:       d.Clock,
		launchDelay: d.Timing.LaunchDelay,
		resetDelay:  d.Timing.UploadResetDelay,
		notes:       notes,
		metrics:     d.Metrics,
		log:         d.Logger.With(zap.String("user", user.Username)),
	}
	ws.uploader = upload.NewSimulator(upload.Options{
		Tick:     d.Timing.UploadTick,
		Duration: d.Timing.UploadDuration,
		Clock:    d.Clock,
		Rand:     d.Rand,
		NewID:    d.NewID,
	})
	ws.runs = runs.NewSimulator(runs.Options{
		MinDelay:   d.Timing.RunMinDelay,
		Jitter:     d.Timing.RunJitter,
		Clock:      d.Clock,
		Rand:       d.Rand,
		NewID:      d.NewID,
		OnComplete: ws.runCompleted,
	})
	return ws
}

// User devolve o dono do workspace.
func (ws *Workspace) User() models.User {
	return ws.user
}

// Selection devolve a seleção em andamento.
func (ws *Workspace) Selection() *selection.State {
	return ws.selection
}

// Runs devolve o simulador e seu histórico.
func (ws *Workspace) Runs() *runs.Simulator {
	return ws.runs
}

// Check valida um arquivo escolhido localmente. Alunos podem escolher, mas não enviar.
func (ws *Workspace) Check(c upload.Candidate) error {
	if err := upload.Validate(c); err != nil {
		ws.notes.Error(upload.Message(err))
		ws.metrics.Uploads.WithLabelValues("rejected").Inc()
		return err
	}
	return nil
}

// Upload simula o envio e, ao final, seleciona o arquivo.
func (ws *Workspace) Upload(ctx context.Context, c upload.Candidate, onProgress upload.ProgressFunc) (models.FileDescriptor, error) {
	ws.mu.Lock()
	if ws.closed {
		ws.mu.Unlock()
		return models.FileDescriptor{}, ErrWorkspaceClosed
	}
	if ws.progress != nil && !ws.progress.Done {
		ws.mu.Unlock()
		return models.FileDescriptor{}, ErrUploadInProgress
	}
	if ws.resetTimer != nil {
		ws.resetTimer.Stop()
		ws.resetTimer = nil
	}
	ws.progress = &UploadProgress{Name: c.Name, Size: c.Size}
	ws.mu.Unlock()

	fd, err := ws.uploader.Upload(ctx, ws.user.Role, c, func(p float64) {
		ws.mu.Lock()
		if ws.progress != nil {
			ws.progress.Percent = p
		}
		ws.mu.Unlock()
		if onProgress != nil {
			onProgress(p)
		}
	})
	if err != nil {
		ws.mu.Lock()
		ws.progress = nil
		ws.mu.Unlock()
		switch {
		case errors.Is(err, upload.ErrInvalidType), errors.Is(err, upload.ErrTooLarge), errors.Is(err, upload.ErrUploadForbidden):
			ws.notes.Error(upload.Message(err))
			ws.metrics.Uploads.WithLabelValues("rejected").Inc()
		default:
			ws.metrics.Uploads.WithLabelValues("aborted").Inc()
		}
		return models.FileDescriptor{}, err
	}

	ws.mu.Lock()
	if ws.closed {
		ws.mu.Unlock()
		return models.FileDescriptor{}, ErrWorkspaceClosed
	}
	ws.progress.Percent = 100
	ws.progress.Done = true
	done := ws.progress
	ws.resetTimer = ws.clock.AfterFunc(ws.resetDelay, func() { go ws.resetProgress(done) })
	ws.mu.Unlock()

	ws.selection.SetFile(fd)
	ws.notes.Success(fmt.Sprintf("File %s uploaded successfully", fd.Name))
	ws.metrics.Uploads.WithLabelValues("completed").Inc()
	ws.log.Info("upload simulado", zap.String("file", fd.Name), zap.Int64("size", fd.Size))
	return fd, nil
}

// resetProgress some com o upload concluído p, a menos que outro já o tenha substituído.
func (ws *Workspace) resetProgress(p *UploadProgress) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.progress != p {
		return
	}
	ws.progress = nil
	ws.resetTimer = nil
}

// Progress devolve o upload em exibição, se houver.
func (ws *Workspace) Progress() (UploadProgress, bool) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.progress == nil {
		return UploadProgress{}, false
	}
	return *ws.progress, true
}

// RemoveFile descarta o arquivo selecionado.
func (ws *Workspace) RemoveFile() {
	ws.selection.ClearFile()
}

// Launch confere a seleção, segura o botão durante o atraso de partida e cria a execução.
// Uma segunda chamada durante o atraso não cria registro.
func (ws *Workspace) Launch(ctx context.Context) (models.RunRecord, error) {
	snap := ws.selection.Snapshot()
	if err := runs.Check(snap.File, snap.Model, snap.Mode); err != nil {
		ws.notes.Error(runs.Message(err))
		return models.RunRecord{}, err
	}
	if !ws.launching.CompareAndSwap(false, true) {
		return models.RunRecord{}, ErrLaunchInProgress
	}
	defer ws.launching.Store(false)

	if ws.launchDelay > 0 {
		select {
		case <-ctx.Done():
			return models.RunRecord{}, ctx.Err()
		case <-ws.clock.After(ws.launchDelay):
		}
	}

	// a seleção pode ter mudado durante a espera
	snap = ws.selection.Snapshot()
	rec, err := ws.runs.Start(ws.user, snap.File, snap.Model, snap.Mode)
	if err != nil {
		if errors.Is(err, runs.ErrClosed) {
			return models.RunRecord{}, ErrWorkspaceClosed
		}
		ws.notes.Error(runs.Message(err))
		return models.RunRecord{}, err
	}

	ws.notes.Success("Model execution started successfully")
	ws.metrics.RunsStarted.WithLabelValues(string(rec.ModelType), string(rec.ModeType)).Inc()
	ws.metrics.RunsActive.Inc()
	ws.log.Info("execução iniciada",
		zap.String("run", rec.ID),
		zap.String("model", string(rec.ModelType)),
		zap.String("mode", string(rec.ModeType)))
	return rec, nil
}

// Launching indica se a partida está em andamento.
func (ws *Workspace) Launching() bool {
	return ws.launching.Load()
}

func (ws *Workspace) runCompleted(rec models.RunRecord) {
	ws.metrics.RunsCompleted.Inc()
	ws.metrics.RunsActive.Dec()
	ws.log.Info("execução concluída", zap.String("run", rec.ID))
}

// Close cancela timers pendentes. Conclusões que dispararem depois são ignoradas.
func (ws *Workspace) Close() {
	ws.mu.Lock()
	if ws.closed {
		ws.mu.Unlock()
		return
	}
	ws.closed = true
	if ws.resetTimer != nil {
		ws.resetTimer.Stop()
		ws.resetTimer = nil
	}
	ws.progress = nil
	ws.mu.Unlock()

	pending := ws.runs.Close()
	ws.metrics.RunsActive.Sub(float64(pending))
}

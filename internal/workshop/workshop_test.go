package workshop

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/example/model-workshop/internal/auth"
	"github.com/example/model-workshop/internal/metrics"
	"github.com/example/model-workshop/internal/models"
	"github.com/example/model-workshop/internal/notify"
	"github.com/example/model-workshop/internal/random"
	"github.com/example/model-workshop/internal/runs"
	"github.com/example/model-workshop/internal/session"
	"github.com/example/model-workshop/internal/shell"
	"github.com/example/model-workshop/internal/storage"
	"github.com/example/model-workshop/internal/upload"
)

var start = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newDeps(t *testing.T, fc *clocktesting.FakeClock, kv storage.KV) Deps {
	t.Helper()
	hash, err := auth.HashPassword(auth.DefaultPassword, bcrypt.MinCost)
	require.NoError(t, err)
	n := 0
	return Deps{
		KV:          kv,
		Credentials: auth.DefaultCredentials(hash),
		Clock:       fc,
		Rand:        random.Fixed(0.5),
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
		Metrics: metrics.New(),
		Timing: Timing{
			UploadTick:       200 * time.Millisecond,
			UploadDuration:   time.Second,
			UploadResetDelay: time.Second,
			RunMinDelay:      5 * time.Second,
			RunJitter:        10 * time.Second,
		},
	}
}

func messages(q *notify.Queue) []string {
	var out []string
	for _, n := range q.Drain() {
		out = append(out, n.Message)
	}
	return out
}

func loggedIn(t *testing.T, cs *Clients, id, email string) (*Client, *Workspace) {
	t.Helper()
	c := cs.Get(context.Background(), id)
	_, err := c.Login(context.Background(), email, auth.DefaultPassword)
	require.NoError(t, err)
	ws, err := c.Workspace()
	require.NoError(t, err)
	c.Notifications().Drain()
	return c, ws
}

func TestLoginLogout(t *testing.T) {
	fc := clocktesting.NewFakeClock(start)
	deps := newDeps(t, fc, storage.NewMemory())
	cs := NewClients(deps)

	c := cs.Get(context.Background(), "browser-1")
	assert.Equal(t, shell.Unauthenticated, c.State())
	_, err := c.Workspace()
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = c.Login(context.Background(), "admin@example.com", "wrong")
	assert.ErrorIs(t, err, session.ErrInvalidCredentials)
	assert.Equal(t, shell.Unauthenticated, c.State())
	assert.Equal(t, []string{"Invalid email or password"}, messages(c.Notifications()))

	user, err := c.Login(context.Background(), "admin@example.com", auth.DefaultPassword)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.Equal(t, shell.Authenticated, c.State())
	assert.Equal(t, []string{"Welcome back, admin!"}, messages(c.Notifications()))

	_, err = c.Login(context.Background(), "alpha@example.com", auth.DefaultPassword)
	assert.ErrorIs(t, err, ErrAlreadyAuthenticated)

	assert.Equal(t, 1.0, testutil.ToFloat64(deps.Metrics.Logins.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(deps.Metrics.Logins.WithLabelValues("invalid")))

	require.NoError(t, c.Logout(context.Background()))
	assert.Equal(t, shell.Unauthenticated, c.State())
	assert.Equal(t, []string{"You have been logged out"}, messages(c.Notifications()))
	_, err = c.Workspace()
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	require.NoError(t, c.Logout(context.Background()))
	assert.Empty(t, c.Notifications().Drain())
}

func TestRestoreAcrossRegistries(t *testing.T) {
	fc := clocktesting.NewFakeClock(start)
	kv := storage.NewMemory()
	loggedIn(t, NewClients(newDeps(t, fc, kv)), "browser-1", "alpha@example.com")

	// mesmo armazenamento, processo novo
	cs := NewClients(newDeps(t, fc, kv))
	c := cs.Get(context.Background(), "browser-1")
	assert.Equal(t, shell.Authenticated, c.State())
	user, ok := c.User()
	require.True(t, ok)
	assert.Equal(t, "alpha", user.Username)
	ws, err := c.Workspace()
	require.NoError(t, err)
	assert.Empty(t, ws.Runs().List())

	other := cs.Get(context.Background(), "browser-2")
	assert.Equal(t, shell.Unauthenticated, other.State())
}

func TestLaunchRequiresSelection(t *testing.T) {
	fc := clocktesting.NewFakeClock(start)
	cs := NewClients(newDeps(t, fc, storage.NewMemory()))
	c, ws := loggedIn(t, cs, "b", "admin@example.com")

	_, err := ws.Launch(context.Background())
	assert.ErrorIs(t, err, runs.ErrNoFile)
	assert.Equal(t, []string{"Please upload a file first"}, messages(c.Notifications()))

	ws.Selection().SetFile(models.FileDescriptor{ID: "f", Name: "d.csv"})
	_, err = ws.Launch(context.Background())
	assert.ErrorIs(t, err, runs.ErrNoModel)

	require.NoError(t, ws.Selection().SetModel(models.ModelCNN))
	_, err = ws.Launch(context.Background())
	assert.ErrorIs(t, err, runs.ErrNoMode)
	assert.Empty(t, ws.Runs().List())
}

type launchResult struct {
	rec models.RunRecord
	err error
}

func TestLaunchGuard(t *testing.T) {
	fc := clocktesting.NewFakeClock(start)
	deps := newDeps(t, fc, storage.NewMemory())
	deps.Timing.LaunchDelay = 2 * time.Second
	cs := NewClients(deps)
	c, ws := loggedIn(t, cs, "b", "alpha@example.com")

	ws.Selection().SetFile(models.FileDescriptor{ID: "f", Name: "d.csv"})
	require.NoError(t, ws.Selection().SetModel(models.ModelTransformers))
	require.NoError(t, ws.Selection().SetMode(models.ModePySpark))

	ch := make(chan launchResult, 1)
	go func() {
		rec, err := ws.Launch(context.Background())
		ch <- launchResult{rec, err}
	}()
	require.Eventually(t, fc.HasWaiters, time.Second, time.Millisecond)
	assert.True(t, ws.Launching())

	_, err := ws.Launch(context.Background())
	assert.ErrorIs(t, err, ErrLaunchInProgress)

	fc.Step(2 * time.Second)
	r := <-ch
	require.NoError(t, r.err)
	assert.Equal(t, models.RunRunning, r.rec.Status)
	assert.False(t, ws.Launching())
	assert.Len(t, ws.Runs().List(), 1)
	assert.Equal(t, []string{"Model execution started successfully"}, messages(c.Notifications()))
	assert.Equal(t, 1.0, testutil.ToFloat64(deps.Metrics.RunsActive))

	// atraso = 5s + 0.5*10s
	fc.Step(10 * time.Second)
	require.Eventually(t, func() bool {
		got, err := ws.Runs().Get(r.rec.ID)
		return err == nil && got.Status == models.RunCompleted
	}, time.Second, time.Millisecond)
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(deps.Metrics.RunsActive) == 0
	}, time.Second, time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(deps.Metrics.RunsCompleted))
}

func TestLogoutCancelsRuns(t *testing.T) {
	fc := clocktesting.NewFakeClock(start)
	deps := newDeps(t, fc, storage.NewMemory())
	cs := NewClients(deps)
	c, ws := loggedIn(t, cs, "b", "admin@example.com")

	ws.Selection().SetFile(models.FileDescriptor{ID: "f", Name: "d.csv"})
	require.NoError(t, ws.Selection().SetModel(models.ModelANN))
	require.NoError(t, ws.Selection().SetMode(models.ModeCPU))
	rec, err := ws.Launch(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.Logout(context.Background()))
	assert.Equal(t, 0.0, testutil.ToFloat64(deps.Metrics.RunsActive))

	fc.Step(time.Minute)
	got, err := ws.Runs().Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunRunning, got.Status)

	_, err = ws.Launch(context.Background())
	assert.ErrorIs(t, err, ErrWorkspaceClosed)
}

type uploadResult struct {
	fd  models.FileDescriptor
	err error
}

func TestUploadSelectsFileAndResetsProgress(t *testing.T) {
	fc := clocktesting.NewFakeClock(start)
	cs := NewClients(newDeps(t, fc, storage.NewMemory()))
	c, ws := loggedIn(t, cs, "b", "admin@example.com")

	ch := make(chan uploadResult, 1)
	go func() {
		fd, err := ws.Upload(context.Background(), upload.Candidate{Name: "train.csv", Size: 512, MimeType: "text/csv"}, nil)
		ch <- uploadResult{fd, err}
	}()
	require.Eventually(t, fc.HasWaiters, time.Second, time.Millisecond)

	p, ok := ws.Progress()
	require.True(t, ok)
	assert.False(t, p.Done)
	_, err := ws.Upload(context.Background(), upload.Candidate{Name: "x.csv", Size: 1, MimeType: "text/csv"}, nil)
	assert.ErrorIs(t, err, ErrUploadInProgress)

	var r uploadResult
wait:
	for i := 0; i < 100; i++ {
		select {
		case r = <-ch:
			break wait
		default:
			fc.Step(200 * time.Millisecond)
			time.Sleep(time.Millisecond)
		}
	}
	require.NoError(t, r.err)
	assert.Equal(t, "train.csv", r.fd.Name)

	snap := ws.Selection().Snapshot()
	require.NotNil(t, snap.File)
	assert.Equal(t, r.fd.ID, snap.File.ID)
	assert.Equal(t, []string{"File train.csv uploaded successfully"}, messages(c.Notifications()))

	p, ok = ws.Progress()
	require.True(t, ok)
	assert.True(t, p.Done)
	assert.Equal(t, 100.0, p.Percent)

	fc.Step(time.Second)
	require.Eventually(t, func() bool {
		_, ok := ws.Progress()
		return !ok
	}, time.Second, time.Millisecond)

	ws.RemoveFile()
	assert.Nil(t, ws.Selection().Snapshot().File)
}

func TestStudentUploadForbidden(t *testing.T) {
	fc := clocktesting.NewFakeClock(start)
	deps := newDeps(t, fc, storage.NewMemory())
	cs := NewClients(deps)
	c, ws := loggedIn(t, cs, "b", "student@example.com")

	cand := upload.Candidate{Name: "a.csv", Size: 10, MimeType: "text/csv"}
	require.NoError(t, ws.Check(cand))

	_, err := ws.Upload(context.Background(), cand, nil)
	assert.ErrorIs(t, err, upload.ErrUploadForbidden)
	assert.Equal(t, []string{"Student accounts cannot upload files. Please ask an admin for assistance."}, messages(c.Notifications()))
	_, ok := ws.Progress()
	assert.False(t, ok)
	assert.Nil(t, ws.Selection().Snapshot().File)

	assert.ErrorIs(t, ws.Check(upload.Candidate{Name: "a.exe", Size: 1, MimeType: "application/x-msdownload"}), upload.ErrInvalidType)
	assert.Equal(t, 2.0, testutil.ToFloat64(deps.Metrics.Uploads.WithLabelValues("rejected")))
}

func TestSweep(t *testing.T) {
	fc := clocktesting.NewFakeClock(start)
	kv := storage.NewMemory()
	deps := newDeps(t, fc, kv)
	deps.Timing.RunMinDelay = 48 * time.Hour
	cs := NewClients(deps)
	cs.Get(context.Background(), "anon")
	_, ws := loggedIn(t, cs, "user", "admin@example.com")
	require.Equal(t, 2, cs.Len())

	ws.Selection().SetFile(models.FileDescriptor{ID: "f", Name: "d.csv"})
	require.NoError(t, ws.Selection().SetModel(models.ModelANN))
	require.NoError(t, ws.Selection().SetMode(models.ModeCPU))
	_, err := ws.Launch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1.0, testutil.ToFloat64(deps.Metrics.RunsActive))

	assert.Equal(t, 0, cs.Sweep(time.Hour, 24*time.Hour))
	fc.Step(2 * time.Hour)
	assert.Equal(t, 1, cs.Sweep(time.Hour, 24*time.Hour))
	assert.Equal(t, 1, cs.Len())

	fc.Step(24 * time.Hour)
	assert.Equal(t, 1, cs.Sweep(time.Hour, 24*time.Hour))
	assert.Equal(t, 0, cs.Len())
	assert.Equal(t, 0.0, testutil.ToFloat64(deps.Metrics.RunsActive))
	_, err = ws.Launch(context.Background())
	assert.ErrorIs(t, err, ErrWorkspaceClosed)

	// a sessão persistida volta na próxima requisição
	c := cs.Get(context.Background(), "user")
	assert.Equal(t, shell.Authenticated, c.State())
	_, err = c.Workspace()
	assert.NoError(t, err)
}

func TestCloseRacingCompletionKeepsActiveGauge(t *testing.T) {
	fc := clocktesting.NewFakeClock(start)
	deps := newDeps(t, fc, storage.NewMemory())
	deps.Timing.RunMinDelay = time.Second
	deps.Timing.RunJitter = 0
	cs := NewClients(deps)

	for i := 0; i < 50; i++ {
		c, ws := loggedIn(t, cs, fmt.Sprintf("c%d", i), "admin@example.com")
		ws.Selection().SetFile(models.FileDescriptor{ID: "f", Name: "d.csv"})
		require.NoError(t, ws.Selection().SetModel(models.ModelANN))
		require.NoError(t, ws.Selection().SetMode(models.ModeCPU))
		_, err := ws.Launch(context.Background())
		require.NoError(t, err)

		fc.Step(time.Second)
		require.NoError(t, c.Logout(context.Background()))
	}

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(deps.Metrics.RunsActive) == 0
	}, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 0.0, testutil.ToFloat64(deps.Metrics.RunsActive))
}

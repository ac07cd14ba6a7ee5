package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"k8s.io/utils/clock"

	"github.com/example/model-workshop/internal/api"
	"github.com/example/model-workshop/internal/auth"
	"github.com/example/model-workshop/internal/config"
	"github.com/example/model-workshop/internal/db"
	"github.com/example/model-workshop/internal/metrics"
	"github.com/example/model-workshop/internal/random"
	"github.com/example/model-workshop/internal/storage"
	"github.com/example/model-workshop/internal/workshop"
)

const (
	sweepInterval = 10 * time.Minute
	clientIdle    = time.Hour
	sessionIdle   = 24 * time.Hour
)

func main() {
	// Carrega variáveis de ambiente (.env em dev, env vars em prod)
	if err := config.LoadEnv(); err != nil {
		log.Printf("warn: erro ao carregar .env: %v", err)
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("erro na configuração: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("erro ao criar logger: %v", err)
	}
	defer logger.Sync()

	kv, closeStorage, err := openStorage(cfg, logger)
	if err != nil {
		logger.Fatal("erro ao abrir armazenamento", zap.Error(err))
	}
	defer closeStorage()

	creds, err := credentials(cfg)
	if err != nil {
		logger.Fatal("erro ao montar tabela de credenciais", zap.Error(err))
	}

	clk := clock.RealClock{}
	m := metrics.New()
	clients := workshop.NewClients(workshop.Deps{
		KV:          kv,
		Credentials: creds,
		Clock:       clk,
		Rand:        random.New(cfg.RandomSeed),
		NewID:       random.UUID,
		Metrics:     m,
		Logger:      logger,
		Timing:      workshop.TimingFrom(cfg),
	})

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), api.RequestLogger(logger))

	// Registra páginas e rotas da API
	api.RegisterRoutes(r, api.Deps{
		Config:  cfg,
		Clients: clients,
		Metrics: m,
		Logger:  logger,
		NewID:   random.UUID,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sweep(ctx, clk, clients, logger)

	go func() {
		logger.Info("servidor iniciado",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.AppEnv),
			zap.String("storage", cfg.StorageBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("erro ao subir servidor", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("encerrando servidor")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("erro no shutdown", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Production() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// openStorage escolhe o backend da sessão persistida; com APP_AES_KEY os valores são cifrados.
func openStorage(cfg *config.Config, logger *zap.Logger) (storage.KV, func(), error) {
	var (
		kv      storage.KV
		closeFn = func() {}
	)
	switch cfg.StorageBackend {
	case "", "memory":
		kv = storage.NewMemory()
	case "postgres":
		conn, err := db.OpenPostgres(cfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("erro ao conectar no banco: %w", err)
		}
		if err := db.AutoMigrate(conn); err != nil {
			db.Close(conn)
			return nil, nil, fmt.Errorf("erro ao migrar modelos: %w", err)
		}
		kv = storage.NewGorm(conn)
		closeFn = func() { db.Close(conn) }
	default:
		return nil, nil, fmt.Errorf("APP_STORAGE desconhecido: %q", cfg.StorageBackend)
	}

	if len(cfg.AESKey) == 0 {
		return kv, closeFn, nil
	}
	sealed, err := storage.NewSealed(kv, cfg.AESKey)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return sealed, closeFn, nil
}

func credentials(cfg *config.Config) (*auth.CredentialTable, error) {
	if cfg.DemoPasswordHash != "" {
		hash := []byte(cfg.DemoPasswordHash)
		if _, err := bcrypt.Cost(hash); err != nil {
			return nil, fmt.Errorf("APP_DEMO_PASSWORD_HASH inválido: %w", err)
		}
		return auth.DefaultCredentials(hash), nil
	}
	hash, err := auth.HashPassword(auth.DefaultPassword, bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return auth.DefaultCredentials(hash), nil
}

// sweep libera periodicamente clientes inativos.
func sweep(ctx context.Context, clk clock.WithTicker, clients *workshop.Clients, logger *zap.Logger) {
	ticker := clk.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if n := clients.Sweep(clientIdle, sessionIdle); n > 0 {
				logger.Debug("clientes inativos removidos", zap.Int("count", n))
			}
		}
	}
}

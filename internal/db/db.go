package db

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/example/model-workshop/internal/config"
	"github.com/example/model-workshop/internal/models"
)

// OpenPostgres abre a conexão com PostgreSQL.
func OpenPostgres(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	logger.Info("conectado ao PostgreSQL", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))
	return conn, nil
}

// AutoMigrate cria a tabela do armazenamento chave/valor.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(&models.KVEntry{})
}

// Close fecha a conexão com o banco (usado em testes / shutdown).
func Close(conn *gorm.DB) {
	if conn == nil {
		return
	}
	sqlDB, err := conn.DB()
	if err == nil {
		_ = sqlDB.Close()
	}
}

package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/model-workshop/internal/models"
)

// Gorm persiste as entradas na tabela kv_entries.
type Gorm struct {
	db *gorm.DB
}

// NewGorm usa uma conexão já aberta e migrada.
func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (g *Gorm) Get(ctx context.Context, scope, key string) (string, error) {
	var entry models.KVEntry
	err := g.db.WithContext(ctx).
		Where("scope = ? AND key = ?", scope, key).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return entry.Value, nil
}

func (g *Gorm) Set(ctx context.Context, scope, key, value string) error {
	entry := models.KVEntry{Scope: scope, Key: key, Value: value}
	return g.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "scope"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
}

func (g *Gorm) Delete(ctx context.Context, scope, key string) error {
	return g.db.WithContext(ctx).
		Where("scope = ? AND key = ?", scope, key).
		Delete(&models.KVEntry{}).Error
}

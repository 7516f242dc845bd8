package database

import (
	"github.com/robalyx/antiraid/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	sting      *models.StingModel
	punishment *models.PunishmentModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		sting:      models.NewSting(db, logger),
		punishment: models.NewPunishment(db, logger),
	}
}

// Sting returns the sting model repository.
func (r *Repository) Sting() *models.StingModel {
	return r.sting
}

// Punishment returns the punishment model repository.
func (r *Repository) Punishment() *models.PunishmentModel {
	return r.punishment
}

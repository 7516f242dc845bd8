package database

import (
	"github.com/robalyx/antiraid/internal/database/service"
	"go.uber.org/zap"
)

// Service provides access to all business logic services.
type Service struct {
	ledger *service.LedgerService
}

// NewService creates a new service instance with all services.
func NewService(repository *Repository, logger *zap.Logger, opts ...service.LedgerOption) *Service {
	return &Service{
		ledger: service.NewLedger(repository.Sting(), repository.Punishment(), logger, opts...),
	}
}

// Ledger returns the ledger service.
func (s *Service) Ledger() *service.LedgerService {
	return s.ledger
}

package service

import (
	"context"

	"go.uber.org/zap"

	"planning-poker/internal/domain"
	"planning-poker/internal/repository"
)

// DefaultConflictSpread es la dispersion a partir de la cual el panel marca conflicto.
const DefaultConflictSpread = 4

type AdminService struct {
	logger         *zap.Logger
	stats          repository.StatsRepository
	conflictSpread int
}

func NewAdminService(logger *zap.Logger, stats repository.StatsRepository, conflictSpread int) *AdminService {
	if conflictSpread < 0 {
		conflictSpread = DefaultConflictSpread
	}
	return &AdminService{
		logger:         logger,
		stats:          stats,
		conflictSpread: conflictSpread,
	}
}

func (s *AdminService) Stats(ctx context.Context) (domain.Stats, error) {
	return s.stats.Counts(ctx)
}

// Conflicts lista issues con dispersion mayor al umbral configurado, sin contar comodines.
func (s *AdminService) Conflicts(ctx context.Context) ([]domain.Conflict, error) {
	conflicts, err := s.stats.ListConflicts(ctx, s.conflictSpread)
	if err != nil {
		return nil, err
	}
	if conflicts == nil {
		conflicts = []domain.Conflict{}
	}
	return conflicts, nil
}

func (s *AdminService) UserStats(ctx context.Context) ([]domain.UserStats, error) {
	stats, err := s.stats.UserStats(ctx)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = []domain.UserStats{}
	}
	return stats, nil
}

package service

import (
	"context"
	"fmt"

	"campuspolls/models"
	log "github.com/sirupsen/logrus"
)

// ScoreboardCache caches rendered scoreboards. A miss returns (nil, nil).
type ScoreboardCache interface {
	Get(ctx context.Context, limit int) ([]*models.ScoreboardEntry, error)
	Set(ctx context.Context, limit int, entries []*models.ScoreboardEntry) error
}

// statsService implements StatsService
type statsService struct {
	uowFactory UnitOfWorkFactory
	cache      ScoreboardCache
}

// NewStatsService creates a new stats service. cache may be nil, in which
// case every call hits the database.
func NewStatsService(uowFactory UnitOfWorkFactory, cache ScoreboardCache) StatsService {
	return &statsService{
		uowFactory: uowFactory,
		cache:      cache,
	}
}

// GetScoreboard returns the top users ranked by balance. Polls won is the
// count of settlement payouts a user has received. Cache failures fall
// through to the database.
func (s *statsService) GetScoreboard(ctx context.Context, limit int) ([]*models.ScoreboardEntry, error) {
	if s.cache != nil {
		entries, err := s.cache.Get(ctx, limit)
		if err != nil {
			log.WithField("error", err).Warn("Scoreboard cache read failed")
		} else if entries != nil {
			return entries, nil
		}
	}

	uow := s.uowFactory.Create()

	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	users, err := uow.UserRepository().GetTopByBalance(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}

	entries := make([]*models.ScoreboardEntry, 0, len(users))
	for i, user := range users {
		wins, err := uow.BalanceHistoryRepository().CountByUserAndType(ctx, user.ID, models.TransactionTypePollPayout)
		if err != nil {
			return nil, fmt.Errorf("failed to count poll wins: %w", err)
		}
		entries = append(entries, &models.ScoreboardEntry{
			Rank:        i + 1,
			UserID:      user.ID,
			Username:    user.Username,
			DisplayName: user.DisplayName,
			Balance:     user.Balance,
			PollsWon:    wins,
		})
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, limit, entries); err != nil {
			log.WithField("error", err).Warn("Scoreboard cache write failed")
		}
	}

	return entries, nil
}

func (s *statsService) GetUserRank(ctx context.Context, userID int64) (int, error) {
	uow := s.uowFactory.Create()

	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return 0, ErrUserNotFound
	}

	rank, err := uow.UserRepository().GetRankByBalance(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get user rank: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return rank, nil
}

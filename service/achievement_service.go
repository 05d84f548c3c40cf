package service

import (
	"context"
	"fmt"

	"campuspolls/events"
	"campuspolls/models"
	log "github.com/sirupsen/logrus"
)

// AchievementService awards badges in response to activity events. It runs
// after the originating transaction has committed, in its own transactions;
// a failed award is logged and retried naturally on the next qualifying event.
type AchievementService struct {
	uowFactory UnitOfWorkFactory
}

// NewAchievementService creates a new achievement service
func NewAchievementService(uowFactory UnitOfWorkFactory) *AchievementService {
	return &AchievementService{uowFactory: uowFactory}
}

// RegisterHandlers subscribes the service to the events that can unlock badges
func (s *AchievementService) RegisterHandlers(bus *events.Bus) {
	bus.Subscribe(events.EventTypeBetPlaced, s.handleBetPlaced)
	bus.Subscribe(events.EventTypePollResolved, s.handlePollResolved)
	bus.Subscribe(events.EventTypeBalanceChange, s.handleBalanceChange)
}

func (s *AchievementService) handleBetPlaced(ctx context.Context, event events.Event) {
	e, ok := event.(events.BetPlacedEvent)
	if !ok {
		return
	}

	if err := s.checkUser(ctx, e.UserID, models.AchievementTypeFirstBet); err != nil {
		log.WithFields(log.Fields{
			"userID": e.UserID,
			"error":  err,
		}).Error("Failed to check first-bet achievements")
	}
}

func (s *AchievementService) handlePollResolved(ctx context.Context, event events.Event) {
	e, ok := event.(events.PollResolvedEvent)
	if !ok {
		return
	}

	for userID := range e.Payouts {
		if err := s.checkUser(ctx, userID, models.AchievementTypePollWins); err != nil {
			log.WithFields(log.Fields{
				"userID": userID,
				"pollID": e.PollID,
				"error":  err,
			}).Error("Failed to check poll-win achievements")
		}
	}
}

func (s *AchievementService) handleBalanceChange(ctx context.Context, event events.Event) {
	e, ok := event.(events.BalanceChangeEvent)
	if !ok {
		return
	}
	// Points badges only ever unlock on the way up
	if e.NewBalance <= e.OldBalance {
		return
	}

	if err := s.checkUser(ctx, e.UserID, models.AchievementTypePoints); err != nil {
		log.WithFields(log.Fields{
			"userID": e.UserID,
			"error":  err,
		}).Error("Failed to check points achievements")
	}
}

// checkUser awards every active achievement of the given type whose threshold
// the user has reached and does not yet hold
func (s *AchievementService) checkUser(ctx context.Context, userID int64, achievementType models.AchievementType) error {
	uow := s.uowFactory.Create()

	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	achievements, err := uow.AchievementRepository().GetActiveByType(ctx, achievementType)
	if err != nil {
		return fmt.Errorf("failed to get achievements: %w", err)
	}
	if len(achievements) == 0 {
		return uow.Commit()
	}

	awarded, err := uow.AchievementRepository().GetAwardedIDs(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get awarded achievements: %w", err)
	}

	progress, err := s.progress(ctx, uow, userID, achievementType)
	if err != nil {
		return err
	}

	for _, achievement := range achievements {
		if awarded[achievement.ID] {
			continue
		}
		if !qualifies(achievement, progress) {
			continue
		}
		if err := uow.AchievementRepository().Award(ctx, userID, achievement.ID); err != nil {
			return fmt.Errorf("failed to award achievement %d: %w", achievement.ID, err)
		}

		log.WithFields(log.Fields{
			"userID":        userID,
			"achievementID": achievement.ID,
			"name":          achievement.Name,
			"tier":          achievement.Tier,
		}).Info("Awarded achievement")
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// progress returns the counter an achievement type is measured against
func (s *AchievementService) progress(ctx context.Context, uow UnitOfWork, userID int64, achievementType models.AchievementType) (int64, error) {
	switch achievementType {
	case models.AchievementTypeFirstBet:
		count, err := uow.PollRepository().CountBetsByUser(ctx, userID)
		if err != nil {
			return 0, fmt.Errorf("failed to count bets: %w", err)
		}
		return count, nil

	case models.AchievementTypePollWins:
		wins, err := uow.BalanceHistoryRepository().CountByUserAndType(ctx, userID, models.TransactionTypePollPayout)
		if err != nil {
			return 0, fmt.Errorf("failed to count poll wins: %w", err)
		}
		return wins, nil

	case models.AchievementTypePoints:
		user, err := uow.UserRepository().GetByID(ctx, userID)
		if err != nil {
			return 0, fmt.Errorf("failed to get user: %w", err)
		}
		if user == nil {
			return 0, ErrUserNotFound
		}
		return user.Balance, nil

	default:
		return 0, fmt.Errorf("unknown achievement type: %s", achievementType)
	}
}

func qualifies(achievement *models.Achievement, progress int64) bool {
	if achievement.Type == models.AchievementTypeFirstBet {
		return progress >= 1
	}
	return progress >= achievement.Threshold
}

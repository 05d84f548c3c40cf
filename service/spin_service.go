package service

import (
	"context"
	"fmt"
	"math/rand"

	"campuspolls/models"
	log "github.com/sirupsen/logrus"
)

const (
	// Daily spin reward bounds, inclusive
	SpinRewardMin = 5
	SpinRewardMax = 20
)

// spinService implements SpinService
type spinService struct {
	uowFactory UnitOfWorkFactory
	clock      Clock
	intn       func(n int) int
}

// NewSpinService creates a new spin service
func NewSpinService(uowFactory UnitOfWorkFactory, clock Clock) SpinService {
	return &spinService{
		uowFactory: uowFactory,
		clock:      clock,
		intn:       rand.Intn,
	}
}

// DailySpin credits a random reward between SpinRewardMin and SpinRewardMax
// tokens, once per UTC calendar day. The spin claim is a conditional update
// on the user row, so two concurrent spins on the same day cannot both win.
func (s *spinService) DailySpin(ctx context.Context, userID int64) (int64, error) {
	uow := s.uowFactory.Create()

	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Locked read so the history snapshot matches the credited balance
	user, err := uow.UserRepository().GetByIDForUpdate(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to lock user: %w", err)
	}
	if user == nil {
		return 0, ErrUserNotFound
	}

	today := s.clock.Now().UTC()
	if err := uow.UserRepository().ClaimSpin(ctx, userID, today); err != nil {
		return 0, fmt.Errorf("failed to claim spin: %w", err)
	}

	reward := int64(SpinRewardMin + s.intn(SpinRewardMax-SpinRewardMin+1))

	if err := uow.UserRepository().AddBalance(ctx, userID, reward); err != nil {
		return 0, fmt.Errorf("failed to credit spin reward: %w", err)
	}

	history := &models.BalanceHistory{
		UserID:          userID,
		BalanceBefore:   user.Balance,
		BalanceAfter:    user.Balance + reward,
		ChangeAmount:    reward,
		TransactionType: models.TransactionTypeSpinReward,
		RelatedID:       &userID,
		RelatedType:     relatedTypePtr(models.RelatedTypeUser),
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return 0, err
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID": userID,
		"reward": reward,
	}).Info("Daily spin claimed")

	return reward, nil
}

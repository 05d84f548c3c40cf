package service

import (
	"context"
	"fmt"

	"campuspolls/events"
	"campuspolls/models"
	log "github.com/sirupsen/logrus"
)

// userService implements UserService
type userService struct {
	uowFactory      UnitOfWorkFactory
	startingBalance int64
}

// NewUserService creates a new user service. New users start with
// startingBalance tokens.
func NewUserService(uowFactory UnitOfWorkFactory, startingBalance int64) UserService {
	return &userService{
		uowFactory:      uowFactory,
		startingBalance: startingBalance,
	}
}

func (s *userService) GetOrCreateUser(ctx context.Context, username, displayName string) (*models.User, error) {
	uow := s.uowFactory.Create()

	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user == nil {
		user, err = uow.UserRepository().Create(ctx, username, displayName, s.startingBalance, models.UserRoleUser)
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		history := &models.BalanceHistory{
			UserID:          user.ID,
			BalanceBefore:   0,
			BalanceAfter:    s.startingBalance,
			ChangeAmount:    s.startingBalance,
			TransactionType: models.TransactionTypeInitial,
			RelatedID:       &user.ID,
			RelatedType:     relatedTypePtr(models.RelatedTypeUser),
		}
		if err := RecordBalanceChange(ctx, uow, history); err != nil {
			return nil, err
		}

		uow.EventBus().Publish(events.UserCreatedEvent{
			UserID:         user.ID,
			Username:       user.Username,
			InitialBalance: s.startingBalance,
		})

		log.WithFields(log.Fields{
			"userID":   user.ID,
			"username": user.Username,
		}).Info("Created new user")
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

func (s *userService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	uow := s.uowFactory.Create()

	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

func (s *userService) Transfer(ctx context.Context, fromUserID, toUserID int64, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if fromUserID == toUserID {
		return fmt.Errorf("cannot transfer to self")
	}

	uow := s.uowFactory.Create()

	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Lock both rows in ascending ID order so two opposing transfers
	// cannot deadlock; the balance updates then reuse the held locks
	firstID, secondID := fromUserID, toUserID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}
	first, err := uow.UserRepository().GetByIDForUpdate(ctx, firstID)
	if err != nil {
		return fmt.Errorf("failed to lock user: %w", err)
	}
	second, err := uow.UserRepository().GetByIDForUpdate(ctx, secondID)
	if err != nil {
		return fmt.Errorf("failed to lock user: %w", err)
	}
	if first == nil || second == nil {
		return ErrUserNotFound
	}

	from, to := first, second
	if from.ID != fromUserID {
		from, to = second, first
	}

	if err := uow.UserRepository().DeductBalance(ctx, from.ID, amount); err != nil {
		return fmt.Errorf("failed to deduct transfer amount: %w", err)
	}
	if err := uow.UserRepository().AddBalance(ctx, to.ID, amount); err != nil {
		return fmt.Errorf("failed to credit transfer amount: %w", err)
	}

	outHistory := &models.BalanceHistory{
		UserID:          from.ID,
		BalanceBefore:   from.Balance,
		BalanceAfter:    from.Balance - amount,
		ChangeAmount:    -amount,
		TransactionType: models.TransactionTypeTransferOut,
		RelatedID:       &to.ID,
		RelatedType:     relatedTypePtr(models.RelatedTypeUser),
	}
	if err := RecordBalanceChange(ctx, uow, outHistory); err != nil {
		return err
	}

	inHistory := &models.BalanceHistory{
		UserID:          to.ID,
		BalanceBefore:   to.Balance,
		BalanceAfter:    to.Balance + amount,
		ChangeAmount:    amount,
		TransactionType: models.TransactionTypeTransferIn,
		RelatedID:       &from.ID,
		RelatedType:     relatedTypePtr(models.RelatedTypeUser),
	}
	if err := RecordBalanceChange(ctx, uow, inHistory); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"fromUserID": fromUserID,
		"toUserID":   toUserID,
		"amount":     amount,
	}).Info("Transferred tokens between users")

	return nil
}

package service

import (
	"context"
	"fmt"

	"campuspolls/events"
	"campuspolls/models"
)

// RecordBalanceChange records a balance history entry and emits the matching
// event. This is the single entry point for all balance changes in the
// system; the event only reaches subscribers after the transaction commits.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, history *models.BalanceHistory) error {
	if err := uow.BalanceHistoryRepository().Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:          history.UserID,
		OldBalance:      history.BalanceBefore,
		NewBalance:      history.BalanceAfter,
		TransactionType: history.TransactionType,
		ChangeAmount:    history.ChangeAmount,
	})

	return nil
}

func relatedTypePtr(rt models.RelatedType) *models.RelatedType {
	return &rt
}

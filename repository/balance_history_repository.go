package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"campuspolls/database"
	"campuspolls/models"
)

// BalanceHistoryRepository implements the service.BalanceHistoryRepository interface
type BalanceHistoryRepository struct {
	q queryable
}

// NewBalanceHistoryRepository creates a new balance history repository
func NewBalanceHistoryRepository(db *database.DB) *BalanceHistoryRepository {
	return &BalanceHistoryRepository{q: db.Pool}
}

// newBalanceHistoryRepositoryWithTx creates a new balance history repository with a transaction
func newBalanceHistoryRepositoryWithTx(tx queryable) *BalanceHistoryRepository {
	return &BalanceHistoryRepository{q: tx}
}

// Record creates a new balance history entry
func (r *BalanceHistoryRepository) Record(ctx context.Context, history *models.BalanceHistory) error {
	metadataJSON, err := json.Marshal(history.TransactionMetadata)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction metadata: %w", err)
	}

	query := `
		INSERT INTO balance_history
		(user_id, balance_before, balance_after, change_amount, transaction_type, transaction_metadata, related_id, related_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		history.UserID,
		history.BalanceBefore,
		history.BalanceAfter,
		history.ChangeAmount,
		history.TransactionType,
		metadataJSON,
		history.RelatedID,
		history.RelatedType,
	).Scan(&history.ID, &history.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record balance history for user %d: %w", history.UserID, err)
	}

	return nil
}

// GetByUser returns balance history for a specific user, newest first
func (r *BalanceHistoryRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error) {
	query := `
		SELECT id, user_id, balance_before, balance_after, change_amount,
		       transaction_type, transaction_metadata, related_id, related_type, created_at
		FROM balance_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance history for user %d: %w", userID, err)
	}
	defer rows.Close()

	var histories []*models.BalanceHistory
	for rows.Next() {
		var history models.BalanceHistory
		var metadataJSON []byte

		err := rows.Scan(
			&history.ID,
			&history.UserID,
			&history.BalanceBefore,
			&history.BalanceAfter,
			&history.ChangeAmount,
			&history.TransactionType,
			&metadataJSON,
			&history.RelatedID,
			&history.RelatedType,
			&history.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan balance history: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &history.TransactionMetadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal transaction metadata: %w", err)
			}
		}

		histories = append(histories, &history)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balance history: %w", err)
	}

	return histories, nil
}

// CountByUserAndType counts history entries of one transaction type
func (r *BalanceHistoryRepository) CountByUserAndType(ctx context.Context, userID int64, txType models.TransactionType) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM balance_history
		WHERE user_id = $1 AND transaction_type = $2
	`

	var count int64
	if err := r.q.QueryRow(ctx, query, userID, txType).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count balance history for user %d: %w", userID, err)
	}

	return count, nil
}

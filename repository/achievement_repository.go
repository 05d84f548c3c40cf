package repository

import (
	"context"
	"fmt"

	"campuspolls/database"
	"campuspolls/models"
)

// AchievementRepository implements the service.AchievementRepository interface
type AchievementRepository struct {
	q queryable
}

// NewAchievementRepository creates a new achievement repository
func NewAchievementRepository(db *database.DB) *AchievementRepository {
	return &AchievementRepository{q: db.Pool}
}

// newAchievementRepositoryWithTx creates a new achievement repository with a transaction
func newAchievementRepositoryWithTx(tx queryable) *AchievementRepository {
	return &AchievementRepository{q: tx}
}

// Create creates a new achievement definition
func (r *AchievementRepository) Create(ctx context.Context, achievement *models.Achievement) error {
	query := `
		INSERT INTO achievements (name, description, type, tier, threshold, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		achievement.Name,
		achievement.Description,
		achievement.Type,
		achievement.Tier,
		achievement.Threshold,
		achievement.Active,
	).Scan(&achievement.ID, &achievement.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create achievement %q: %w", achievement.Name, err)
	}

	return nil
}

// GetActiveByType returns active achievements of one type
func (r *AchievementRepository) GetActiveByType(ctx context.Context, achievementType models.AchievementType) ([]*models.Achievement, error) {
	query := `
		SELECT id, name, description, type, tier, threshold, active, created_at
		FROM achievements
		WHERE type = $1 AND active
		ORDER BY threshold ASC
	`

	rows, err := r.q.Query(ctx, query, achievementType)
	if err != nil {
		return nil, fmt.Errorf("failed to get achievements of type %s: %w", achievementType, err)
	}
	defer rows.Close()

	var achievements []*models.Achievement
	for rows.Next() {
		var achievement models.Achievement
		err := rows.Scan(
			&achievement.ID,
			&achievement.Name,
			&achievement.Description,
			&achievement.Type,
			&achievement.Tier,
			&achievement.Threshold,
			&achievement.Active,
			&achievement.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		achievements = append(achievements, &achievement)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate achievements: %w", err)
	}

	return achievements, nil
}

// GetAwardedIDs returns the IDs of achievements already held by a user
func (r *AchievementRepository) GetAwardedIDs(ctx context.Context, userID int64) (map[int64]bool, error) {
	query := `SELECT achievement_id FROM user_achievements WHERE user_id = $1`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get awarded achievements for user %d: %w", userID, err)
	}
	defer rows.Close()

	awarded := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan awarded achievement: %w", err)
		}
		awarded[id] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate awarded achievements: %w", err)
	}

	return awarded, nil
}

// Award grants an achievement to a user; a duplicate award is a no-op
func (r *AchievementRepository) Award(ctx context.Context, userID, achievementID int64) error {
	query := `
		INSERT INTO user_achievements (user_id, achievement_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, achievement_id) DO NOTHING
	`

	if _, err := r.q.Exec(ctx, query, userID, achievementID); err != nil {
		return fmt.Errorf("failed to award achievement %d to user %d: %w", achievementID, userID, err)
	}

	return nil
}

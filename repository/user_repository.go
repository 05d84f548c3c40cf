package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campuspolls/database"
	"campuspolls/models"
	"campuspolls/service"
	"github.com/jackc/pgx/v5"
)

// UserRepository implements the service.UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

const userColumns = `id, username, display_name, balance, role, last_spin_date, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.DisplayName,
		&user.Balance,
		&user.Role,
		&user.LastSpinDate,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

// GetByIDForUpdate retrieves a user and locks their row until the surrounding
// transaction ends. Balance writers lock here first so the history snapshot
// and the update see the same balance.
func (r *UserRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`

	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %d: %w", id, err)
	}
	return user, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, username))
	if err != nil {
		return nil, fmt.Errorf("failed to get user %q: %w", username, err)
	}
	return user, nil
}

// Create creates a new user with the initial balance
func (r *UserRepository) Create(ctx context.Context, username, displayName string, initialBalance int64, role models.UserRole) (*models.User, error) {
	query := `
		INSERT INTO users (username, display_name, balance, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	user, err := scanUser(r.q.QueryRow(ctx, query, username, displayName, initialBalance, role))
	if err != nil {
		return nil, fmt.Errorf("failed to create user %q: %w", username, err)
	}
	return user, nil
}

// AddBalance adds to a user's balance atomically
func (r *UserRepository) AddBalance(ctx context.Context, userID int64, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("amount must not be negative")
	}

	query := `
		UPDATE users
		SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to add balance for user %d: %w", userID, err)
	}

	if result.RowsAffected() == 0 {
		return service.ErrUserNotFound
	}

	return nil
}

// DeductBalance deducts from a user's balance atomically. The conditional
// update is the single enforcement point for the non-negative balance rule.
func (r *UserRepository) DeductBalance(ctx context.Context, userID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE users
		SET balance = balance - $1, updated_at = NOW()
		WHERE id = $2 AND balance >= $1
	`

	result, err := r.q.Exec(ctx, query, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to deduct balance for user %d: %w", userID, err)
	}

	if result.RowsAffected() == 0 {
		user, err := r.GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if user == nil {
			return service.ErrUserNotFound
		}
		return fmt.Errorf("have %d, need %d: %w", user.Balance, amount, service.ErrInsufficientFunds)
	}

	return nil
}

// ClaimSpin sets the user's last spin date to the given day. The conditional
// update makes the once-per-day rule atomic under concurrent claims.
func (r *UserRepository) ClaimSpin(ctx context.Context, userID int64, day time.Time) error {
	spinDate := day.UTC().Truncate(24 * time.Hour)

	query := `
		UPDATE users
		SET last_spin_date = $1, updated_at = NOW()
		WHERE id = $2 AND (last_spin_date IS NULL OR last_spin_date < $1)
	`

	result, err := r.q.Exec(ctx, query, spinDate, userID)
	if err != nil {
		return fmt.Errorf("failed to claim spin for user %d: %w", userID, err)
	}

	if result.RowsAffected() == 0 {
		user, err := r.GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if user == nil {
			return service.ErrUserNotFound
		}
		return service.ErrAlreadySpun
	}

	return nil
}

// GetTopByBalance returns the highest-balance users, richest first
func (r *UserRepository) GetTopByBalance(ctx context.Context, limit int) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY balance DESC, id ASC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

// GetRankByBalance returns the user's 1-based leaderboard rank
func (r *UserRepository) GetRankByBalance(ctx context.Context, userID int64) (int, error) {
	query := `
		SELECT rank FROM (
			SELECT id, RANK() OVER (ORDER BY balance DESC) AS rank
			FROM users
		) ranked
		WHERE id = $1
	`

	var rank int
	err := r.q.QueryRow(ctx, query, userID).Scan(&rank)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, service.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get rank for user %d: %w", userID, err)
	}

	return rank, nil
}

// GetAll returns all users
func (r *UserRepository) GetAll(ctx context.Context) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY created_at DESC
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

func collectUsers(rows pgx.Rows) ([]*models.User, error) {
	var users []*models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.DisplayName,
			&user.Balance,
			&user.Role,
			&user.LastSpinDate,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

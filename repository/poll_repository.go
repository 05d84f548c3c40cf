package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campuspolls/database"
	"campuspolls/models"
	"github.com/jackc/pgx/v5"
)

// PollRepository implements the service.PollRepository interface
type PollRepository struct {
	q queryable
}

// NewPollRepository creates a new poll repository
func NewPollRepository(db *database.DB) *PollRepository {
	return &PollRepository{q: db.Pool}
}

// newPollRepositoryWithTx creates a new poll repository with a transaction
func newPollRepositoryWithTx(tx queryable) *PollRepository {
	return &PollRepository{q: tx}
}

const pollColumns = `id, title, description, creator_id, ends_at, resolved, winning_option_id, resolver_id, total_pool, created_at, resolved_at`

func scanPoll(row pgx.Row) (*models.Poll, error) {
	var poll models.Poll
	err := row.Scan(
		&poll.ID,
		&poll.Title,
		&poll.Description,
		&poll.CreatorID,
		&poll.EndsAt,
		&poll.Resolved,
		&poll.WinningOptionID,
		&poll.ResolverID,
		&poll.TotalPool,
		&poll.CreatedAt,
		&poll.ResolvedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &poll, nil
}

// CreateWithOptions creates a poll and its options atomically. The caller is
// expected to run this inside a unit of work.
func (r *PollRepository) CreateWithOptions(ctx context.Context, poll *models.Poll, options []*models.PollOption) error {
	pollQuery := `
		INSERT INTO polls (title, description, creator_id, ends_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, pollQuery,
		poll.Title,
		poll.Description,
		poll.CreatorID,
		poll.EndsAt,
	).Scan(&poll.ID, &poll.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create poll: %w", err)
	}

	optionQuery := `
		INSERT INTO poll_options (poll_id, option_text, option_order)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	for _, option := range options {
		option.PollID = poll.ID
		err := r.q.QueryRow(ctx, optionQuery,
			poll.ID,
			option.OptionText,
			option.OptionOrder,
		).Scan(&option.ID, &option.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create poll option %q: %w", option.OptionText, err)
		}
	}

	return nil
}

// GetByID retrieves a poll by its ID
func (r *PollRepository) GetByID(ctx context.Context, id int64) (*models.Poll, error) {
	query := `SELECT ` + pollColumns + ` FROM polls WHERE id = $1`

	poll, err := scanPoll(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get poll %d: %w", id, err)
	}
	return poll, nil
}

// GetByIDForUpdate retrieves a poll and locks its row until the surrounding
// transaction ends. Concurrent bets and resolves on the same poll queue here.
func (r *PollRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Poll, error) {
	query := `SELECT ` + pollColumns + ` FROM polls WHERE id = $1 FOR UPDATE`

	poll, err := scanPoll(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to lock poll %d: %w", id, err)
	}
	return poll, nil
}

// Update updates a poll's mutable fields
func (r *PollRepository) Update(ctx context.Context, poll *models.Poll) error {
	query := `
		UPDATE polls
		SET resolved = $1, winning_option_id = $2, resolver_id = $3,
		    total_pool = $4, resolved_at = $5
		WHERE id = $6
	`

	result, err := r.q.Exec(ctx, query,
		poll.Resolved,
		poll.WinningOptionID,
		poll.ResolverID,
		poll.TotalPool,
		poll.ResolvedAt,
		poll.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update poll %d: %w", poll.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("poll %d not found", poll.ID)
	}

	return nil
}

// GetDetailByID retrieves a poll with all its options and bets
func (r *PollRepository) GetDetailByID(ctx context.Context, id int64) (*models.PollDetail, error) {
	poll, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if poll == nil {
		return nil, nil
	}

	options, err := r.getOptions(ctx, id)
	if err != nil {
		return nil, err
	}

	bets, err := r.getBets(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.PollDetail{
		Poll:    poll,
		Options: options,
		Bets:    bets,
	}, nil
}

func (r *PollRepository) getOptions(ctx context.Context, pollID int64) ([]*models.PollOption, error) {
	query := `
		SELECT id, poll_id, option_text, option_order, vote_count, staked_total, created_at
		FROM poll_options
		WHERE poll_id = $1
		ORDER BY option_order
	`

	rows, err := r.q.Query(ctx, query, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to get options for poll %d: %w", pollID, err)
	}
	defer rows.Close()

	var options []*models.PollOption
	for rows.Next() {
		var option models.PollOption
		err := rows.Scan(
			&option.ID,
			&option.PollID,
			&option.OptionText,
			&option.OptionOrder,
			&option.VoteCount,
			&option.StakedTotal,
			&option.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan poll option: %w", err)
		}
		options = append(options, &option)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate poll options: %w", err)
	}

	return options, nil
}

func (r *PollRepository) getBets(ctx context.Context, pollID int64) ([]*models.Bet, error) {
	query := `
		SELECT id, poll_id, option_id, user_id, amount, payout_amount, created_at
		FROM bets
		WHERE poll_id = $1
		ORDER BY created_at
	`

	rows, err := r.q.Query(ctx, query, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for poll %d: %w", pollID, err)
	}
	defer rows.Close()

	var bets []*models.Bet
	for rows.Next() {
		var bet models.Bet
		err := rows.Scan(
			&bet.ID,
			&bet.PollID,
			&bet.OptionID,
			&bet.UserID,
			&bet.Amount,
			&bet.PayoutAmount,
			&bet.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, &bet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bets: %w", err)
	}

	return bets, nil
}

// GetActive returns unresolved polls whose end time is after now
func (r *PollRepository) GetActive(ctx context.Context, now time.Time) ([]*models.Poll, error) {
	query := `
		SELECT ` + pollColumns + `
		FROM polls
		WHERE NOT resolved AND ends_at > $1
		ORDER BY ends_at ASC
	`

	rows, err := r.q.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get active polls: %w", err)
	}
	defer rows.Close()

	return collectPolls(rows)
}

// GetExpiredUnresolved returns polls past their end time awaiting resolution
func (r *PollRepository) GetExpiredUnresolved(ctx context.Context, now time.Time) ([]*models.Poll, error) {
	query := `
		SELECT ` + pollColumns + `
		FROM polls
		WHERE NOT resolved AND ends_at <= $1
		ORDER BY ends_at ASC
	`

	rows, err := r.q.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired polls: %w", err)
	}
	defer rows.Close()

	return collectPolls(rows)
}

// GetAll returns all polls, newest first
func (r *PollRepository) GetAll(ctx context.Context) ([]*models.Poll, error) {
	query := `
		SELECT ` + pollColumns + `
		FROM polls
		ORDER BY created_at DESC
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all polls: %w", err)
	}
	defer rows.Close()

	return collectPolls(rows)
}

func collectPolls(rows pgx.Rows) ([]*models.Poll, error) {
	var polls []*models.Poll
	for rows.Next() {
		var poll models.Poll
		err := rows.Scan(
			&poll.ID,
			&poll.Title,
			&poll.Description,
			&poll.CreatorID,
			&poll.EndsAt,
			&poll.Resolved,
			&poll.WinningOptionID,
			&poll.ResolverID,
			&poll.TotalPool,
			&poll.CreatedAt,
			&poll.ResolvedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		polls = append(polls, &poll)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate polls: %w", err)
	}

	return polls, nil
}

// CreateBet records a bet. The unique constraint on (poll_id, user_id) backs
// up the one-bet-per-user rule checked in the service layer.
func (r *PollRepository) CreateBet(ctx context.Context, bet *models.Bet) error {
	query := `
		INSERT INTO bets (poll_id, option_id, user_id, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.PollID,
		bet.OptionID,
		bet.UserID,
		bet.Amount,
	).Scan(&bet.ID, &bet.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bet for user %d on poll %d: %w", bet.UserID, bet.PollID, err)
	}

	return nil
}

// GetBet returns the bet by one user on one poll, or nil
func (r *PollRepository) GetBet(ctx context.Context, pollID, userID int64) (*models.Bet, error) {
	query := `
		SELECT id, poll_id, option_id, user_id, amount, payout_amount, created_at
		FROM bets
		WHERE poll_id = $1 AND user_id = $2
	`

	var bet models.Bet
	err := r.q.QueryRow(ctx, query, pollID, userID).Scan(
		&bet.ID,
		&bet.PollID,
		&bet.OptionID,
		&bet.UserID,
		&bet.Amount,
		&bet.PayoutAmount,
		&bet.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet for user %d on poll %d: %w", userID, pollID, err)
	}

	return &bet, nil
}

// CountBetsByUser counts all bets a user has placed
func (r *PollRepository) CountBetsByUser(ctx context.Context, userID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM bets WHERE user_id = $1`

	var count int64
	if err := r.q.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bets for user %d: %w", userID, err)
	}

	return count, nil
}

// UpdateOptionAggregates sets an option's vote count and staked total
func (r *PollRepository) UpdateOptionAggregates(ctx context.Context, optionID int64, voteCount, stakedTotal int64) error {
	query := `
		UPDATE poll_options
		SET vote_count = $1, staked_total = $2
		WHERE id = $3
	`

	result, err := r.q.Exec(ctx, query, voteCount, stakedTotal, optionID)
	if err != nil {
		return fmt.Errorf("failed to update aggregates for option %d: %w", optionID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("poll option %d not found", optionID)
	}

	return nil
}

// UpdateBetPayouts persists payout amounts after settlement
func (r *PollRepository) UpdateBetPayouts(ctx context.Context, bets []*models.Bet) error {
	query := `
		UPDATE bets
		SET payout_amount = $1
		WHERE id = $2
	`

	for _, bet := range bets {
		if bet.PayoutAmount == nil {
			continue
		}
		if _, err := r.q.Exec(ctx, query, *bet.PayoutAmount, bet.ID); err != nil {
			return fmt.Errorf("failed to update payout for bet %d: %w", bet.ID, err)
		}
	}

	return nil
}

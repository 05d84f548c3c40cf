package service

import (
	"context"
	"time"

	"campuspolls/events"
	"campuspolls/models"
)

// UserRepository defines the interface for user data access. Balance
// mutations are the token ledger: DeductBalance and AddBalance are the only
// write paths, both atomic, and a balance can never go negative.
type UserRepository interface {
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByIDForUpdate retrieves a user and locks their row for the duration
	// of the surrounding transaction. Callers that lock more than one user
	// must lock in ascending ID order
	GetByIDForUpdate(ctx context.Context, id int64) (*models.User, error)

	// GetByUsername retrieves a user by username
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// Create creates a new user with the initial balance
	Create(ctx context.Context, username, displayName string, initialBalance int64, role models.UserRole) (*models.User, error)

	// AddBalance credits a user's balance atomically; amount must be >= 0
	AddBalance(ctx context.Context, userID int64, amount int64) error

	// DeductBalance debits a user's balance atomically, failing with
	// ErrInsufficientFunds if the balance would go negative
	DeductBalance(ctx context.Context, userID int64, amount int64) error

	// ClaimSpin sets the user's last spin date to the given day, failing
	// with ErrAlreadySpun if a spin was already claimed that day
	ClaimSpin(ctx context.Context, userID int64, day time.Time) error

	// GetTopByBalance returns the highest-balance users, richest first
	GetTopByBalance(ctx context.Context, limit int) ([]*models.User, error)

	// GetRankByBalance returns the user's 1-based leaderboard rank
	GetRankByBalance(ctx context.Context, userID int64) (int, error)

	// GetAll returns all users
	GetAll(ctx context.Context) ([]*models.User, error)
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByUser returns balance history for a specific user, newest first
	GetByUser(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error)

	// CountByUserAndType counts history entries of one transaction type
	CountByUserAndType(ctx context.Context, userID int64, txType models.TransactionType) (int64, error)
}

// PollRepository defines the interface for poll, option and bet data access
type PollRepository interface {
	// CreateWithOptions creates a poll and its options atomically
	CreateWithOptions(ctx context.Context, poll *models.Poll, options []*models.PollOption) error

	// GetByID retrieves a poll by its ID
	GetByID(ctx context.Context, id int64) (*models.Poll, error)

	// GetByIDForUpdate retrieves a poll and locks its row for the duration
	// of the surrounding transaction, serializing concurrent mutations
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Poll, error)

	// Update updates a poll's mutable fields (pool, resolution state)
	Update(ctx context.Context, poll *models.Poll) error

	// GetDetailByID retrieves a poll with all its options and bets
	GetDetailByID(ctx context.Context, id int64) (*models.PollDetail, error)

	// GetActive returns polls whose end time is after now
	GetActive(ctx context.Context, now time.Time) ([]*models.Poll, error)

	// GetExpiredUnresolved returns polls past their end time that still
	// await admin resolution
	GetExpiredUnresolved(ctx context.Context, now time.Time) ([]*models.Poll, error)

	// GetAll returns all polls, newest first
	GetAll(ctx context.Context) ([]*models.Poll, error)

	// CreateBet records a bet
	CreateBet(ctx context.Context, bet *models.Bet) error

	// GetBet returns the bet by one user on one poll, or nil
	GetBet(ctx context.Context, pollID, userID int64) (*models.Bet, error)

	// CountBetsByUser counts all bets a user has placed
	CountBetsByUser(ctx context.Context, userID int64) (int64, error)

	// UpdateOptionAggregates sets an option's vote count and staked total
	UpdateOptionAggregates(ctx context.Context, optionID int64, voteCount, stakedTotal int64) error

	// UpdateBetPayouts persists payout amounts after settlement
	UpdateBetPayouts(ctx context.Context, bets []*models.Bet) error
}

// AchievementRepository defines the interface for badge data access
type AchievementRepository interface {
	// Create creates a new achievement definition
	Create(ctx context.Context, achievement *models.Achievement) error

	// GetActiveByType returns active achievements of one type
	GetActiveByType(ctx context.Context, achievementType models.AchievementType) ([]*models.Achievement, error)

	// GetAwardedIDs returns the IDs of achievements already held by a user
	GetAwardedIDs(ctx context.Context, userID int64) (map[int64]bool, error)

	// Award grants an achievement to a user; awarding the same achievement
	// twice is a no-op
	Award(ctx context.Context, userID, achievementID int64) error
}

// FeedStore is the external community feed service, consumed over REST.
// The core publishes settlement announcements to it and never owns its data.
type FeedStore interface {
	// ListPosts returns the community feed, newest first
	ListPosts(ctx context.Context) ([]models.Post, error)

	// CreatePost publishes a post on behalf of a user
	CreatePost(ctx context.Context, authorID int64, title, body string) (*models.Post, error)

	// ToggleLike toggles a user's like on a post
	ToggleLike(ctx context.Context, postID, userID int64) error

	// AddComment adds a comment to a post
	AddComment(ctx context.Context, postID, userID int64, content string) (*models.Comment, error)
}

// UserService defines the interface for user operations
type UserService interface {
	// GetOrCreateUser retrieves an existing user or creates a new one with
	// the configured starting balance
	GetOrCreateUser(ctx context.Context, username, displayName string) (*models.User, error)

	// GetUser retrieves a user by ID
	GetUser(ctx context.Context, userID int64) (*models.User, error)

	// Transfer moves tokens from one user to another
	Transfer(ctx context.Context, fromUserID, toUserID int64, amount int64) error
}

// PollService defines the interface for poll operations: creation, the
// vote/bet recorder, and the settlement engine.
type PollService interface {
	// CreatePoll creates a new poll with options
	CreatePoll(ctx context.Context, creatorID int64, title, description string, options []string, endsAt time.Time) (*models.PollDetail, error)

	// PlaceBet validates and records a user's wager on one poll option,
	// debiting the stake from their balance
	PlaceBet(ctx context.Context, pollID, userID, optionID int64, amount int64) (*models.Bet, error)

	// Resolve settles an expired poll: distributes the pool among bets on
	// the winning option proportionally to stake and marks the poll resolved
	Resolve(ctx context.Context, pollID, winningOptionID, resolverID int64) (*models.PollResult, error)

	// GetPollDetail retrieves a poll with options and bets
	GetPollDetail(ctx context.Context, pollID int64) (*models.PollDetail, error)

	// GetActivePolls returns polls still open for betting
	GetActivePolls(ctx context.Context) ([]*models.Poll, error)

	// GetExpiredUnresolved returns the admin resolution queue
	GetExpiredUnresolved(ctx context.Context) ([]*models.Poll, error)

	// GetAllPolls returns every poll
	GetAllPolls(ctx context.Context) ([]*models.Poll, error)
}

// SpinService defines the interface for the daily token spin
type SpinService interface {
	// DailySpin credits a random reward once per UTC calendar day
	DailySpin(ctx context.Context, userID int64) (int64, error)
}

// StatsService defines the interface for leaderboard operations
type StatsService interface {
	// GetScoreboard returns the top users by balance
	GetScoreboard(ctx context.Context, limit int) ([]*models.ScoreboardEntry, error)

	// GetUserRank returns a user's 1-based rank by balance
	GetUserRank(ctx context.Context, userID int64) (int, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	PollRepository() PollRepository
	AchievementRepository() AchievementRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

package service

import (
	"context"
	"sync"
	"time"

	"campuspolls/events"
	"campuspolls/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, username, displayName string, initialBalance int64, role models.UserRole) (*models.User, error) {
	args := m.Called(ctx, username, displayName, initialBalance, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) AddBalance(ctx context.Context, userID int64, amount int64) error {
	args := m.Called(ctx, userID, amount)
	return args.Error(0)
}

func (m *MockUserRepository) DeductBalance(ctx context.Context, userID int64, amount int64) error {
	args := m.Called(ctx, userID, amount)
	return args.Error(0)
}

func (m *MockUserRepository) ClaimSpin(ctx context.Context, userID int64, day time.Time) error {
	args := m.Called(ctx, userID, day)
	return args.Error(0)
}

func (m *MockUserRepository) GetTopByBalance(ctx context.Context, limit int) ([]*models.User, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) GetRankByBalance(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepository) GetAll(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *models.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}

func (m *MockBalanceHistoryRepository) CountByUserAndType(ctx context.Context, userID int64, txType models.TransactionType) (int64, error) {
	args := m.Called(ctx, userID, txType)
	return args.Get(0).(int64), args.Error(1)
}

// MockPollRepository is a mock implementation of PollRepository
type MockPollRepository struct {
	mock.Mock
}

func (m *MockPollRepository) CreateWithOptions(ctx context.Context, poll *models.Poll, options []*models.PollOption) error {
	args := m.Called(ctx, poll, options)
	return args.Error(0)
}

func (m *MockPollRepository) GetByID(ctx context.Context, id int64) (*models.Poll, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Poll), args.Error(1)
}

func (m *MockPollRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Poll, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Poll), args.Error(1)
}

func (m *MockPollRepository) Update(ctx context.Context, poll *models.Poll) error {
	args := m.Called(ctx, poll)
	return args.Error(0)
}

func (m *MockPollRepository) GetDetailByID(ctx context.Context, id int64) (*models.PollDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PollDetail), args.Error(1)
}

func (m *MockPollRepository) GetActive(ctx context.Context, now time.Time) ([]*models.Poll, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Poll), args.Error(1)
}

func (m *MockPollRepository) GetExpiredUnresolved(ctx context.Context, now time.Time) ([]*models.Poll, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Poll), args.Error(1)
}

func (m *MockPollRepository) GetAll(ctx context.Context) ([]*models.Poll, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Poll), args.Error(1)
}

func (m *MockPollRepository) CreateBet(ctx context.Context, bet *models.Bet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockPollRepository) GetBet(ctx context.Context, pollID, userID int64) (*models.Bet, error) {
	args := m.Called(ctx, pollID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bet), args.Error(1)
}

func (m *MockPollRepository) CountBetsByUser(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPollRepository) UpdateOptionAggregates(ctx context.Context, optionID int64, voteCount, stakedTotal int64) error {
	args := m.Called(ctx, optionID, voteCount, stakedTotal)
	return args.Error(0)
}

func (m *MockPollRepository) UpdateBetPayouts(ctx context.Context, bets []*models.Bet) error {
	args := m.Called(ctx, bets)
	return args.Error(0)
}

// MockAchievementRepository is a mock implementation of AchievementRepository
type MockAchievementRepository struct {
	mock.Mock
}

func (m *MockAchievementRepository) Create(ctx context.Context, achievement *models.Achievement) error {
	args := m.Called(ctx, achievement)
	return args.Error(0)
}

func (m *MockAchievementRepository) GetActiveByType(ctx context.Context, achievementType models.AchievementType) ([]*models.Achievement, error) {
	args := m.Called(ctx, achievementType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Achievement), args.Error(1)
}

func (m *MockAchievementRepository) GetAwardedIDs(ctx context.Context, userID int64) (map[int64]bool, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]bool), args.Error(1)
}

func (m *MockAchievementRepository) Award(ctx context.Context, userID, achievementID int64) error {
	args := m.Called(ctx, userID, achievementID)
	return args.Error(0)
}

// MockFeedStore is a mock implementation of FeedStore
type MockFeedStore struct {
	mock.Mock
}

func (m *MockFeedStore) ListPosts(ctx context.Context) ([]models.Post, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Post), args.Error(1)
}

func (m *MockFeedStore) CreatePost(ctx context.Context, authorID int64, title, body string) (*models.Post, error) {
	args := m.Called(ctx, authorID, title, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockFeedStore) ToggleLike(ctx context.Context, postID, userID int64) error {
	args := m.Called(ctx, postID, userID)
	return args.Error(0)
}

func (m *MockFeedStore) AddComment(ctx context.Context, postID, userID int64, content string) (*models.Comment, error) {
	args := m.Called(ctx, postID, userID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// RecordingEventBus collects published events so tests can assert on them
// without mock setup noise
type RecordingEventBus struct {
	mu     sync.Mutex
	Events []events.Event
}

func (b *RecordingEventBus) Publish(event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Events = append(b.Events, event)
}

// EventsOfType returns the recorded events matching the given type
func (b *RecordingEventBus) EventsOfType(eventType events.EventType) []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var matched []events.Event
	for _, e := range b.Events {
		if e.Type() == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}

// MockClock is a fixed-time Clock for tests
type MockClock struct {
	Current time.Time
}

func (c *MockClock) Now() time.Time {
	return c.Current
}

// Advance moves the clock forward
func (c *MockClock) Advance(d time.Duration) {
	c.Current = c.Current.Add(d)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories are
// injected via SetRepositories; the event bus is always a RecordingEventBus.
type MockUnitOfWork struct {
	mock.Mock

	userRepo        UserRepository
	historyRepo     BalanceHistoryRepository
	pollRepo        PollRepository
	achievementRepo AchievementRepository
	eventBus        *RecordingEventBus
}

// SetRepositories wires the repositories the test cares about; unused ones
// may be nil
func (m *MockUnitOfWork) SetRepositories(user UserRepository, history BalanceHistoryRepository, poll PollRepository, achievement AchievementRepository) {
	m.userRepo = user
	m.historyRepo = history
	m.pollRepo = poll
	m.achievementRepo = achievement
	m.eventBus = &RecordingEventBus{}
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) BalanceHistoryRepository() BalanceHistoryRepository {
	return m.historyRepo
}

func (m *MockUnitOfWork) PollRepository() PollRepository {
	return m.pollRepo
}

func (m *MockUnitOfWork) AchievementRepository() AchievementRepository {
	return m.achievementRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// PublishedEvents returns the events published during the unit of work
func (m *MockUnitOfWork) PublishedEvents() []events.Event {
	return m.eventBus.Events
}

// EventsOfType returns the published events matching the given type
func (m *MockUnitOfWork) EventsOfType(eventType events.EventType) []events.Event {
	return m.eventBus.EventsOfType(eventType)
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}

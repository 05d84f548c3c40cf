package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"campuspolls/events"
	"campuspolls/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type pollServiceFixture struct {
	uow       *MockUnitOfWork
	factory   *MockUnitOfWorkFactory
	userRepo  *MockUserRepository
	histRepo  *MockBalanceHistoryRepository
	pollRepo  *MockPollRepository
	clock     *MockClock
	service   PollService
}

func newPollServiceFixture() *pollServiceFixture {
	f := &pollServiceFixture{
		uow:      new(MockUnitOfWork),
		factory:  new(MockUnitOfWorkFactory),
		userRepo: new(MockUserRepository),
		histRepo: new(MockBalanceHistoryRepository),
		pollRepo: new(MockPollRepository),
		clock:    &MockClock{Current: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	f.uow.SetRepositories(f.userRepo, f.histRepo, f.pollRepo, nil)
	f.factory.On("Create").Return(f.uow)
	f.service = NewPollService(f.factory, nil, f.clock)
	return f
}

func (f *pollServiceFixture) openPoll(pollID int64) *models.Poll {
	return &models.Poll{
		ID:     pollID,
		Title:  "Who wins the hackathon?",
		EndsAt: f.clock.Current.Add(time.Hour),
	}
}

func TestPollService_PlaceBet_Success(t *testing.T) {
	ctx := context.Background()
	f := newPollServiceFixture()

	poll := f.openPoll(1)
	detail := &models.PollDetail{
		Poll: poll,
		Options: []*models.PollOption{
			{ID: 10, PollID: 1, OptionOrder: 0, VoteCount: 2, StakedTotal: 50},
			{ID: 11, PollID: 1, OptionOrder: 1},
		},
	}
	bettor := &models.User{ID: 100, Username: "alice", Balance: 200}

	f.uow.On("Begin", ctx).Return(nil)
	f.uow.On("Commit").Return(nil)
	f.uow.On("Rollback").Return(nil)

	f.pollRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(poll, nil)
	f.pollRepo.On("GetDetailByID", ctx, int64(1)).Return(detail, nil)
	f.userRepo.On("GetByIDForUpdate", ctx, int64(100)).Return(bettor, nil)
	f.userRepo.On("DeductBalance", ctx, int64(100), int64(75)).Return(nil)
	f.pollRepo.On("CreateBet", ctx, mock.MatchedBy(func(b *models.Bet) bool {
		return b.PollID == 1 && b.OptionID == 10 && b.UserID == 100 && b.Amount == 75
	})).Return(nil)
	f.pollRepo.On("UpdateOptionAggregates", ctx, int64(10), int64(3), int64(125)).Return(nil)
	f.pollRepo.On("Update", ctx, mock.MatchedBy(func(p *models.Poll) bool {
		return p.TotalPool == 75
	})).Return(nil)
	f.histRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.UserID == 100 &&
			h.BalanceBefore == 200 &&
			h.BalanceAfter == 125 &&
			h.ChangeAmount == -75 &&
			h.TransactionType == models.TransactionTypeBetStake
	})).Return(nil)

	bet, err := f.service.PlaceBet(ctx, 1, 100, 10, 75)

	require.NoError(t, err)
	require.NotNil(t, bet)
	assert.Equal(t, int64(75), bet.Amount)

	published := f.uow.PublishedEvents()
	require.Len(t, published, 2)
	assert.Equal(t, events.EventTypeBalanceChange, published[0].Type())
	assert.Equal(t, events.EventTypeBetPlaced, published[1].Type())

	f.pollRepo.AssertExpectations(t)
	f.userRepo.AssertExpectations(t)
	f.histRepo.AssertExpectations(t)
	f.uow.AssertExpectations(t)
}

func TestPollService_PlaceBet_Expired(t *testing.T) {
	ctx := context.Background()
	f := newPollServiceFixture()

	poll := f.openPoll(1)
	poll.EndsAt = f.clock.Current.Add(-time.Minute)

	f.uow.On("Begin", ctx).Return(nil)
	f.uow.On("Rollback").Return(nil)
	f.pollRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(poll, nil)

	_, err := f.service.PlaceBet(ctx, 1, 100, 10, 50)

	assert.ErrorIs(t, err, ErrPollExpired)
	f.uow.AssertNotCalled(t, "Commit")
	f.userRepo.AssertNotCalled(t, "DeductBalance")
}

func TestPollService_PlaceBet_ExpiredAtExactCutoff(t *testing.T) {
	ctx := context.Background()
	f := newPollServiceFixture()

	poll := f.openPoll(1)
	poll.EndsAt = f.clock.Current // ends_at == now counts as closed

	f.uow.On("Begin", ctx).Return(nil)
	f.uow.On("Rollback").Return(nil)
	f.pollRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(poll, nil)

	_, err := f.service.PlaceBet(ctx, 1, 100, 10, 50)

	assert.ErrorIs(t, err, ErrPollExpired)
}

func TestPollService_PlaceBet_InvalidOption(t *testing.T) {
	ctx := context.Background()
	f := newPollServiceFixture()

	poll := f.openPoll(1)
	detail := &models.PollDetail{
		Poll:    poll,
		Options: []*models.PollOption{{ID: 10, PollID: 1}},
	}

	f.uow.On("Begin", ctx).Return(nil)
	f.uow.On("Rollback").Return(nil)
	f.pollRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(poll, nil)
	f.pollRepo.On("GetDetailByID", ctx, int64(1)).Return(detail, nil)

	_, err := f.service.PlaceBet(ctx, 1, 100, 99, 50)

	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestPollService_PlaceBet_InvalidAmount(t *testing.T) {
	ctx := context.Background()
	f := newPollServiceFixture()

	poll := f.openPoll(1)
	detail := &models.PollDetail{
		Poll:    poll,
		Options: []*models.PollOption{{ID: 10, PollID: 1}},
	}

	f.uow.On("Begin", ctx).Return(nil)
	f.uow.On("Rollback").Return(nil)
	f.pollRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(poll, nil)
	f.pollRepo.On("GetDetailByID", ctx, int64(1)).Return(detail, nil)

	_, err := f.service.PlaceBet(ctx, 1, 100, 10, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = f.service.PlaceBet(ctx, 1, 100, 10, -5)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestPollService_PlaceBet_AlreadyVoted(t *testing.T) {
	ctx := context.Background()
	f := newPollServiceFixture()

	poll := f.openPoll(1)
	detail := &models.PollDetail{
		Poll:    poll,
		Options: []*models.PollOption{{ID: 10, PollID: 1}},
		Bets:    []*models.Bet{{ID: 5, PollID: 1, OptionID: 10, UserID: 100, Amount: 20}},
	}

	f.uow.On("Begin", ctx).Return(nil)
	f.uow.On("Rollback").Return(nil)
	f.pollRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(poll, nil)
	f.pollRepo.On("GetDetailByID", ctx, int64(1)).Return(detail, nil)

	_, err := f.service.PlaceBet(ctx, 1, 100, 10, 50)

	assert.ErrorIs(t, err, ErrAlreadyVoted)
	f.userRepo.AssertNotCalled(t, "DeductBalance")
}

func TestPollService_PlaceBet_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	f := newPollServiceFixture()

	poll := f.openPoll(1)
	detail := &models.PollDetail{
		Poll:    poll,
		Options: []*models.PollOption{{ID: 10, PollID: 1}},
	}
	bettor := &models.User{ID: 100, Username: "alice", Balance: 10}

	f.uow.On("Begin", ctx).Return(nil)
	f.uow.On("Rollback").Return(nil)
	f.pollRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(poll, nil)
	f.pollRepo.On("GetDetailByID", ctx, int64(1)).Return(detail, nil)
	f.userRepo.On("GetByIDForUpdate", ctx, int64(100)).Return(bettor, nil)
	f.userRepo.On("DeductBalance", ctx, int64(100), int64(50)).
		Return(fmt.Errorf("have 10, need 50: %w", ErrInsufficientFunds))

	_, err := f.service.PlaceBet(ctx, 1, 100, 10, 50)

	assert.ErrorIs(t, err, ErrInsufficientFunds)
	// Nothing is committed: the rolled-back transaction discards the bet
	f.uow.AssertNotCalled(t, "Commit")
	f.pollRepo.AssertNotCalled(t, "CreateBet")
	assert.Empty(t, f.uow.PublishedEvents())
}

func TestPollService_PlaceBet_PollNotFound(t *testing.T) {
	ctx := context.Background()
	f := newPollServiceFixture()

	f.uow.On("Begin", ctx).Return(nil)
	f.uow.On("Rollback").Return(nil)
	f.pollRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(nil, nil)

	_, err := f.service.PlaceBet(ctx, 42, 100, 10, 50)

	assert.ErrorIs(t, err, ErrPollNotFound)
}

func TestPollService_Resolve_ProportionalPayout(t *testing.T) {
	ctx := context.Background()
	f := newPollServiceFixture()

	admin := &models.User{ID: 1, Username: "admin", Role: models.UserRoleAdmin}
	poll := &models.Poll{
		ID:        1,
		Title:     "Exam date moved?",
		EndsAt:    f.clock.Current.Add(-time.Hour),
		TotalPool: 500,
	}
	// Alice staked 100 on the winner, Bob 400 on the loser
	detail := &models.PollDetail{
		Poll: poll,
		Options: []*models.PollOption{
			{ID: 10, PollID: 1, OptionText: "Yes", StakedTotal: 100, VoteCount: 1},
			{ID: 11, PollID: 1, OptionText: "No", StakedTotal: 400, VoteCount: 1},
		},
		Bets: []*models.Bet{
			{ID: 20, PollID: 1, OptionID: 10, UserID: 100, Amount: 100},
			{ID: 21, PollID: 1, OptionID: 11, UserID: 101, Amount: 400},
		},
	}
	alice := &models.User{ID: 100, Username: "alice", Balance: 50}

	f.uow.On("Begin", ctx).Return(nil)
	f.uow.On("Commit").Return(nil)
	f.uow.On("Rollback").Return(nil)

	f.userRepo.On("GetByID", ctx, int64(1)).Return(admin, nil)
	f.pollRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(poll, nil)
	f.pollRepo.On("GetDetailByID", ctx, int64(1)).Return(detail, nil)
	f.userRepo.On("GetByIDForUpdate", ctx, int64(100)).Return(alice, nil)
	f.userRepo.On("AddBalance", ctx, int64(100), int64(500)).Return(nil)
	f.histRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.UserID == 100 &&
			h.ChangeAmount == 500 &&
			h.TransactionType == models.TransactionTypePollPayout
	})).Return(nil)
	f.pollRepo.On("UpdateBetPayouts", ctx, detail.Bets).Return(nil)
	f.pollRepo.On("Update", ctx, mock.MatchedBy(func(p *models.Poll) bool {
		return p.Resolved &&
			p.WinningOptionID != nil && *p.WinningOptionID == 10 &&
			p.ResolverID != nil && *p.ResolverID == 1 &&
			p.ResolvedAt != nil
	})).Return(nil)

	result, err := f.service.Resolve(ctx, 1, 10, 1)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(500), result.Payouts[100], "sole winner takes the whole pool")
	assert.Equal(t, int64(0), result.HouseRemainder)
	assert.Equal(t, "Yes", result.WinningOption.OptionText)
	require.Len(t, result.Winners, 1)

	// The losing bet's payout is persisted as zero
	require.NotNil(t, detail.Bets[1].PayoutAmount)
	assert.Equal(t, int64(0), *detail.Bets[1].PayoutAmount)

	resolved := f.uow.EventsOfType(events.EventTypePollResolved)
	require.Len(t, resolved, 1)
	assert.Equal(t, "Yes", resolved[0].(events.PollResolvedEvent).WinningOption)

	f.userRepo.AssertExpectations(t)
	f.pollRepo.AssertExpectations(t)
	f.histRepo.AssertExpectations(t)
}

func TestPollService_Resolve_FloorRoundingLeavesRemainder(t *testing.T) {
	ctx := context.Background()
	f := newPollServiceFixture()

	admin := &models.User{ID: 1, Role: models.UserRoleAdmin}
	poll := &models.Poll{
		ID:        1,
		EndsAt:    f.clock.Current.Add(-time.Hour),
		TotalPool: 1000,
	}
	// Three winners with 100 each against 700 staked on the loser:
	// each gets floor(100*1000/300) = 333, house keeps 1
	detail := &models.PollDetail{
		Poll: poll,
		Options: []*models.PollOption{
			{ID: 10, PollID: 1, StakedTotal: 300},
			{ID: 11, PollID: 1, StakedTotal: 700},
		},
		Bets: []*models.Bet{
			{ID: 20, PollID: 1, OptionID: 10, UserID: 100, Amount: 100},
			{ID: 21, PollID: 1, OptionID: 10, UserID: 101, Amount: 100},
			{ID: 22, PollID: 1, OptionID: 10, UserID: 102, Amount: 100},
			{ID: 23, PollID: 1, OptionID: 11, UserID: 103, Amount: 700},
		},
	}

	f.uow.On("Begin", ctx).Return(nil)
	f.uow.On("Commit").Return(nil)
	f.uow.On("Rollback").Return(nil)

	f.userRepo.On("GetByID", ctx, int64(1)).Return(admin, nil)
	f.pollRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(poll, nil)
	f.pollRepo.On("GetDetailByID", ctx, int64(1)).Return(detail, nil)
	for _, winnerID := range []int64{100, 101, 102} {
		f.userRepo.On("GetByIDForUpdate", ctx, winnerID).Return(&models.User{ID: winnerID, Balance: 0}, nil)
		f.userRepo.On("AddBalance", ctx, winnerID, int64(333)).Return(nil)
	}
	f.histRepo.On("Record", ctx, mock.Anything).Return(nil)
	f.pollRepo.On("UpdateBetPayouts", ctx, detail.Bets).Return(nil)
	f.pollRepo.On("Update", ctx, mock.Anything).Return(nil)

	result, err := f.service.Resolve(ctx, 1, 10, 1)

	require.NoError(t, err)
	assert.Equal(t, int64(333), result.Payouts[100])
	assert.Equal(t, int64(333), result.Payouts[101])
	assert.Equal(t, int64(333), result.Payouts[102])
	assert.Equal(t, int64(1), result.HouseRemainder)
}

func TestPollService_Resolve_NoWinningBets(t *testing.T) {
	ctx := context.Background()
	f := newPollServiceFixture()

	admin := &models.User{ID: 1, Role: models.UserRoleAdmin}
	poll := &models.Poll{
		ID:        1,
		EndsAt:    f.clock.Current.Add(-time.Hour),
		TotalPool: 300,
	}
	detail := &models.PollDetail{
		Poll: poll,
		Options: []*models.PollOption{
			{ID: 10, PollID: 1, StakedTotal: 0},
			{ID: 11, PollID: 1, StakedTotal: 300},
		},
		Bets: []*models.Bet{
			{ID: 20, PollID: 1, OptionID: 11, UserID: 100, Amount: 300},
		},
	}

	f.uow.On("Begin", ctx).Return(nil)
	f.uow.On("Commit").Return(nil)
	f.uow.On("Rollback").Return(nil)

	f.userRepo.On("GetByID", ctx, int64(1)).Return(admin, nil)
	f.pollRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(poll, nil)
	f.pollRepo.On("GetDetailByID", ctx, int64(1)).Return(detail, nil)
	f.pollRepo.On("UpdateBetPayouts", ctx, detail.Bets).Return(nil)
	f.pollRepo.On("Update", ctx, mock.Anything).Return(nil)

	result, err := f.service.Resolve(ctx, 1, 10, 1)

	require.NoError(t, err)
	assert.Empty(t, result.Payouts, "nobody backed the winner")
	assert.Equal(t, int64(300), result.HouseRemainder, "the whole pool is forfeit")
	assert.True(t, result.Poll.Resolved)
	f.userRepo.AssertNotCalled(t, "AddBalance")
}

func TestPollService_Resolve_NotAuthorized(t *testing.T) {
	ctx := context.Background()
	f := newPollServiceFixture()

	regular := &models.User{ID: 5, Role: models.UserRoleUser}

	f.uow.On("Begin", ctx).Return(nil)
	f.uow.On("Rollback").Return(nil)
	f.userRepo.On("GetByID", ctx, int64(5)).Return(regular, nil)

	_, err := f.service.Resolve(ctx, 1, 10, 5)

	assert.ErrorIs(t, err, ErrNotAuthorized)
	f.pollRepo.AssertNotCalled(t, "GetByIDForUpdate")
}

func TestPollService_Resolve_NotExpired(t *testing.T) {
	ctx := context.Background()
	f := newPollServiceFixture()

	admin := &models.User{ID: 1, Role: models.UserRoleAdmin}
	poll := f.openPoll(1)

	f.uow.On("Begin", ctx).Return(nil)
	f.uow.On("Rollback").Return(nil)
	f.userRepo.On("GetByID", ctx, int64(1)).Return(admin, nil)
	f.pollRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(poll, nil)

	_, err := f.service.Resolve(ctx, 1, 10, 1)

	assert.ErrorIs(t, err, ErrPollNotExpired)
}

func TestPollService_Resolve_AlreadyResolved(t *testing.T) {
	ctx := context.Background()
	f := newPollServiceFixture()

	admin := &models.User{ID: 1, Role: models.UserRoleAdmin}
	winning := int64(10)
	poll := &models.Poll{
		ID:              1,
		EndsAt:          f.clock.Current.Add(-time.Hour),
		Resolved:        true,
		WinningOptionID: &winning,
	}

	f.uow.On("Begin", ctx).Return(nil)
	f.uow.On("Rollback").Return(nil)
	f.userRepo.On("GetByID", ctx, int64(1)).Return(admin, nil)
	f.pollRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(poll, nil)

	_, err := f.service.Resolve(ctx, 1, 10, 1)

	assert.ErrorIs(t, err, ErrPollAlreadyResolved)
	f.userRepo.AssertNotCalled(t, "AddBalance")
}

func TestPollService_Resolve_InvalidWinningOption(t *testing.T) {
	ctx := context.Background()
	f := newPollServiceFixture()

	admin := &models.User{ID: 1, Role: models.UserRoleAdmin}
	poll := &models.Poll{ID: 1, EndsAt: f.clock.Current.Add(-time.Hour)}
	detail := &models.PollDetail{
		Poll:    poll,
		Options: []*models.PollOption{{ID: 10, PollID: 1}},
	}

	f.uow.On("Begin", ctx).Return(nil)
	f.uow.On("Rollback").Return(nil)
	f.userRepo.On("GetByID", ctx, int64(1)).Return(admin, nil)
	f.pollRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(poll, nil)
	f.pollRepo.On("GetDetailByID", ctx, int64(1)).Return(detail, nil)

	_, err := f.service.Resolve(ctx, 1, 99, 1)

	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestPollService_Resolve_AnnouncesToFeed(t *testing.T) {
	ctx := context.Background()
	f := newPollServiceFixture()
	feed := new(MockFeedStore)
	f.service = NewPollService(f.factory, feed, f.clock)

	admin := &models.User{ID: 1, Role: models.UserRoleAdmin}
	poll := &models.Poll{
		ID:        1,
		Title:     "Pizza or tacos?",
		CreatorID: 7,
		EndsAt:    f.clock.Current.Add(-time.Hour),
		TotalPool: 100,
	}
	detail := &models.PollDetail{
		Poll: poll,
		Options: []*models.PollOption{
			{ID: 10, PollID: 1, OptionText: "Pizza", StakedTotal: 100},
			{ID: 11, PollID: 1, OptionText: "Tacos"},
		},
		Bets: []*models.Bet{
			{ID: 20, PollID: 1, OptionID: 10, UserID: 100, Amount: 100},
		},
	}

	f.uow.On("Begin", ctx).Return(nil)
	f.uow.On("Commit").Return(nil)
	f.uow.On("Rollback").Return(nil)
	f.userRepo.On("GetByID", ctx, int64(1)).Return(admin, nil)
	f.pollRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(poll, nil)
	f.pollRepo.On("GetDetailByID", ctx, int64(1)).Return(detail, nil)
	f.userRepo.On("GetByIDForUpdate", ctx, int64(100)).Return(&models.User{ID: 100}, nil)
	f.userRepo.On("AddBalance", ctx, int64(100), int64(100)).Return(nil)
	f.histRepo.On("Record", ctx, mock.Anything).Return(nil)
	f.pollRepo.On("UpdateBetPayouts", ctx, detail.Bets).Return(nil)
	f.pollRepo.On("Update", ctx, mock.Anything).Return(nil)

	feed.On("CreatePost", ctx, int64(7), mock.Anything, mock.Anything).
		Return(&models.Post{ID: 1}, nil)

	_, err := f.service.Resolve(ctx, 1, 10, 1)

	require.NoError(t, err)
	feed.AssertExpectations(t)
}

func TestPollService_Resolve_FeedFailureDoesNotFailSettlement(t *testing.T) {
	ctx := context.Background()
	f := newPollServiceFixture()
	feed := new(MockFeedStore)
	f.service = NewPollService(f.factory, feed, f.clock)

	admin := &models.User{ID: 1, Role: models.UserRoleAdmin}
	poll := &models.Poll{
		ID:        1,
		CreatorID: 7,
		EndsAt:    f.clock.Current.Add(-time.Hour),
	}
	detail := &models.PollDetail{
		Poll:    poll,
		Options: []*models.PollOption{{ID: 10, PollID: 1, OptionText: "Yes"}},
	}

	f.uow.On("Begin", ctx).Return(nil)
	f.uow.On("Commit").Return(nil)
	f.uow.On("Rollback").Return(nil)
	f.userRepo.On("GetByID", ctx, int64(1)).Return(admin, nil)
	f.pollRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(poll, nil)
	f.pollRepo.On("GetDetailByID", ctx, int64(1)).Return(detail, nil)
	f.pollRepo.On("UpdateBetPayouts", ctx, mock.Anything).Return(nil)
	f.pollRepo.On("Update", ctx, mock.Anything).Return(nil)

	feed.On("CreatePost", ctx, int64(7), mock.Anything, mock.Anything).
		Return(nil, errors.New("feed unavailable"))

	result, err := f.service.Resolve(ctx, 1, 10, 1)

	require.NoError(t, err, "settlement is already committed when the announcement fails")
	assert.True(t, result.Poll.Resolved)
}

func TestPollService_CreatePoll_Validation(t *testing.T) {
	ctx := context.Background()
	f := newPollServiceFixture()

	endsAt := f.clock.Current.Add(time.Hour)

	t.Run("empty title", func(t *testing.T) {
		_, err := f.service.CreatePoll(ctx, 1, "  ", "", []string{"A", "B"}, endsAt)
		assert.Error(t, err)
	})

	t.Run("too few options", func(t *testing.T) {
		_, err := f.service.CreatePoll(ctx, 1, "Lunch?", "", []string{"A"}, endsAt)
		assert.Error(t, err)
	})

	t.Run("end time in the past", func(t *testing.T) {
		_, err := f.service.CreatePoll(ctx, 1, "Lunch?", "", []string{"A", "B"}, f.clock.Current.Add(-time.Hour))
		assert.Error(t, err)
	})
}

func TestPollService_CreatePoll_Success(t *testing.T) {
	ctx := context.Background()
	f := newPollServiceFixture()

	creator := &models.User{ID: 7, Username: "carol"}
	endsAt := f.clock.Current.Add(2 * time.Hour)

	f.uow.On("Begin", ctx).Return(nil)
	f.uow.On("Commit").Return(nil)
	f.uow.On("Rollback").Return(nil)
	f.userRepo.On("GetByID", ctx, int64(7)).Return(creator, nil)
	f.pollRepo.On("CreateWithOptions", ctx, mock.MatchedBy(func(p *models.Poll) bool {
		return p.Title == "Lunch?" && p.CreatorID == 7 && p.EndsAt.Equal(endsAt)
	}), mock.MatchedBy(func(opts []*models.PollOption) bool {
		return len(opts) == 3 &&
			opts[0].OptionOrder == 0 && opts[0].OptionText == "Pizza" &&
			opts[2].OptionOrder == 2
	})).Return(nil)

	detail, err := f.service.CreatePoll(ctx, 7, "Lunch?", "daily vote", []string{"Pizza", "Tacos", "Salad"}, endsAt)

	require.NoError(t, err)
	require.Len(t, detail.Options, 3)

	created := f.uow.EventsOfType(events.EventTypePollCreated)
	require.Len(t, created, 1)
	assert.Equal(t, "Lunch?", created[0].(events.PollCreatedEvent).Title)
}

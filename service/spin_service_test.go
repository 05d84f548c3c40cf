package service

import (
	"context"
	"testing"
	"time"

	"campuspolls/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSpinService_DailySpin(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockHistoryRepo := new(MockBalanceHistoryRepository)

	mockUoW.SetRepositories(mockUserRepo, mockHistoryRepo, nil, nil)

	clock := &MockClock{Current: time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)}
	svc := NewSpinService(mockFactory, clock).(*spinService)
	svc.intn = func(n int) int { return 7 } // deterministic reward of 12

	user := &models.User{ID: 1, Username: "alice", Balance: 100}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(user, nil)
	mockUserRepo.On("ClaimSpin", ctx, int64(1), mock.MatchedBy(func(day time.Time) bool {
		return day.UTC().Day() == 2
	})).Return(nil)
	mockUserRepo.On("AddBalance", ctx, int64(1), int64(12)).Return(nil)
	mockHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.UserID == 1 &&
			h.ChangeAmount == 12 &&
			h.BalanceAfter == 112 &&
			h.TransactionType == models.TransactionTypeSpinReward
	})).Return(nil)

	reward, err := svc.DailySpin(ctx, 1)

	require.NoError(t, err)
	assert.Equal(t, int64(12), reward)
	mockUserRepo.AssertExpectations(t)
	mockHistoryRepo.AssertExpectations(t)
}

func TestSpinService_DailySpin_RewardBounds(t *testing.T) {
	ctx := context.Background()

	for _, roll := range []int{0, SpinRewardMax - SpinRewardMin} {
		mockUoW := new(MockUnitOfWork)
		mockFactory := new(MockUnitOfWorkFactory)
		mockUserRepo := new(MockUserRepository)
		mockHistoryRepo := new(MockBalanceHistoryRepository)

		mockUoW.SetRepositories(mockUserRepo, mockHistoryRepo, nil, nil)

		clock := &MockClock{Current: time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)}
		svc := NewSpinService(mockFactory, clock).(*spinService)
		svc.intn = func(n int) int { return roll }

		expected := int64(SpinRewardMin + roll)

		mockFactory.On("Create").Return(mockUoW)
		mockUoW.On("Begin", ctx).Return(nil)
		mockUoW.On("Commit").Return(nil)
		mockUoW.On("Rollback").Return(nil)
		mockUserRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(&models.User{ID: 1}, nil)
		mockUserRepo.On("ClaimSpin", ctx, int64(1), mock.Anything).Return(nil)
		mockUserRepo.On("AddBalance", ctx, int64(1), expected).Return(nil)
		mockHistoryRepo.On("Record", ctx, mock.Anything).Return(nil)

		reward, err := svc.DailySpin(ctx, 1)

		require.NoError(t, err)
		assert.GreaterOrEqual(t, reward, int64(SpinRewardMin))
		assert.LessOrEqual(t, reward, int64(SpinRewardMax))
		assert.Equal(t, expected, reward)
	}
}

func TestSpinService_DailySpin_AlreadySpun(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)

	mockUoW.SetRepositories(mockUserRepo, nil, nil, nil)

	clock := &MockClock{Current: time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)}
	svc := NewSpinService(mockFactory, clock)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockUserRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(&models.User{ID: 1}, nil)
	mockUserRepo.On("ClaimSpin", ctx, int64(1), mock.Anything).Return(ErrAlreadySpun)

	_, err := svc.DailySpin(ctx, 1)

	assert.ErrorIs(t, err, ErrAlreadySpun)
	mockUoW.AssertNotCalled(t, "Commit")
	mockUserRepo.AssertNotCalled(t, "AddBalance")
}

func TestSpinService_DailySpin_UserNotFound(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)

	mockUoW.SetRepositories(mockUserRepo, nil, nil, nil)

	svc := NewSpinService(mockFactory, &MockClock{Current: time.Now()})

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockUserRepo.On("GetByIDForUpdate", ctx, int64(99)).Return(nil, nil)

	_, err := svc.DailySpin(ctx, 99)

	assert.ErrorIs(t, err, ErrUserNotFound)
}

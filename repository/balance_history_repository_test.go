package repository

import (
	"context"
	"testing"

	"campuspolls/models"
	"campuspolls/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalanceHistoryRepository_RecordAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	userRepo := NewUserRepository(testDB.DB)
	historyRepo := NewBalanceHistoryRepository(testDB.DB)
	ctx := context.Background()

	user, err := userRepo.Create(ctx, "alice", "Alice", 100, models.UserRoleUser)
	require.NoError(t, err)

	history := testutil.CreateTestBalanceHistory(user.ID, models.TransactionTypeBetStake)
	history.RelatedID = &user.ID
	related := models.RelatedTypeUser
	history.RelatedType = &related

	require.NoError(t, historyRepo.Record(ctx, history))
	assert.NotZero(t, history.ID)
	assert.False(t, history.CreatedAt.IsZero())

	entries, err := historyRepo.GetByUser(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.TransactionTypeBetStake, entries[0].TransactionType)
	assert.Equal(t, int64(-10), entries[0].ChangeAmount)
	assert.Equal(t, true, entries[0].TransactionMetadata["test"])
	require.NotNil(t, entries[0].RelatedID)
	assert.Equal(t, user.ID, *entries[0].RelatedID)
}

func TestBalanceHistoryRepository_CountByUserAndType(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	userRepo := NewUserRepository(testDB.DB)
	historyRepo := NewBalanceHistoryRepository(testDB.DB)
	ctx := context.Background()

	user, err := userRepo.Create(ctx, "bob", "Bob", 100, models.UserRoleUser)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, historyRepo.Record(ctx, testutil.CreateTestBalanceHistory(user.ID, models.TransactionTypePollPayout)))
	}
	require.NoError(t, historyRepo.Record(ctx, testutil.CreateTestBalanceHistory(user.ID, models.TransactionTypeBetStake)))

	wins, err := historyRepo.CountByUserAndType(ctx, user.ID, models.TransactionTypePollPayout)
	require.NoError(t, err)
	assert.Equal(t, int64(3), wins)

	spins, err := historyRepo.CountByUserAndType(ctx, user.ID, models.TransactionTypeSpinReward)
	require.NoError(t, err)
	assert.Zero(t, spins)
}

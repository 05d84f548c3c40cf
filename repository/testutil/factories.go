package testutil

import (
	"time"

	"campuspolls/models"
)

// CreateTestUser creates a test user with default values
func CreateTestUser(username string) *models.User {
	now := time.Now()
	return &models.User{
		Username:    username,
		DisplayName: username,
		Balance:     100,
		Role:        models.UserRoleUser,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// CreateTestAdmin creates a test user with the admin role
func CreateTestAdmin(username string) *models.User {
	user := CreateTestUser(username)
	user.Role = models.UserRoleAdmin
	return user
}

// CreateTestPoll creates a poll that closes in one hour
func CreateTestPoll(creatorID int64, title string) *models.Poll {
	return &models.Poll{
		Title:     title,
		CreatorID: creatorID,
		EndsAt:    time.Now().Add(time.Hour),
	}
}

// CreateTestOptions creates poll options from the given texts
func CreateTestOptions(texts ...string) []*models.PollOption {
	options := make([]*models.PollOption, 0, len(texts))
	for i, text := range texts {
		options = append(options, &models.PollOption{
			OptionText:  text,
			OptionOrder: int16(i),
		})
	}
	return options
}

// CreateTestBalanceHistory creates a test balance history entry
func CreateTestBalanceHistory(userID int64, transactionType models.TransactionType) *models.BalanceHistory {
	return &models.BalanceHistory{
		UserID:          userID,
		BalanceBefore:   100,
		BalanceAfter:    90,
		ChangeAmount:    -10,
		TransactionType: transactionType,
		TransactionMetadata: map[string]any{
			"test": true,
		},
		CreatedAt: time.Now(),
	}
}

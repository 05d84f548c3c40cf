package models

import (
	"time"
)

// AchievementType determines which activity counter an achievement tracks
type AchievementType string

const (
	AchievementTypeFirstBet AchievementType = "first_bet"
	AchievementTypePollWins AchievementType = "poll_wins"
	AchievementTypePoints   AchievementType = "points"
)

// BadgeTier ranks achievements for display
type BadgeTier string

const (
	BadgeTierBronze BadgeTier = "bronze"
	BadgeTierSilver BadgeTier = "silver"
	BadgeTierGold   BadgeTier = "gold"
)

// Achievement is a badge definition. Threshold is interpreted per type:
// number of winning polls for poll_wins, balance reached for points,
// ignored for first_bet.
type Achievement struct {
	ID          int64           `db:"id"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Type        AchievementType `db:"type"`
	Tier        BadgeTier       `db:"tier"`
	Threshold   int64           `db:"threshold"`
	Active      bool            `db:"active"`
	CreatedAt   time.Time       `db:"created_at"`
}

// UserAchievement records a badge awarded to a user
type UserAchievement struct {
	UserID        int64     `db:"user_id"`
	AchievementID int64     `db:"achievement_id"`
	AwardedAt     time.Time `db:"awarded_at"`
}

package models

import (
	"time"
)

// Bet records a single user's wager on one poll option. At most one bet
// exists per (user, poll) pair; bets are immutable once placed.
type Bet struct {
	ID           int64     `db:"id"`
	PollID       int64     `db:"poll_id"`
	OptionID     int64     `db:"option_id"`
	UserID       int64     `db:"user_id"`
	Amount       int64     `db:"amount"`
	PayoutAmount *int64    `db:"payout_amount"`
	CreatedAt    time.Time `db:"created_at"`
}

// Payout calculates the parimutuel payout for this bet given the winning
// option's staked total and the whole pool. Integer division rounds down;
// the remainder across all winners stays with the house.
func (b *Bet) Payout(winningPool int64, totalPool int64) int64 {
	if winningPool == 0 {
		return 0
	}
	return b.Amount * totalPool / winningPool
}

package models

import (
	"time"
)

// Poll represents a betting poll with multiple outcome options. Expiry is
// derived from EndsAt; there is no stored "expired" state.
type Poll struct {
	ID              int64      `db:"id"`
	Title           string     `db:"title"`
	Description     string     `db:"description"`
	CreatorID       int64      `db:"creator_id"`
	EndsAt          time.Time  `db:"ends_at"`
	Resolved        bool       `db:"resolved"`
	WinningOptionID *int64     `db:"winning_option_id"`
	ResolverID      *int64     `db:"resolver_id"`
	TotalPool       int64      `db:"total_pool"`
	CreatedAt       time.Time  `db:"created_at"`
	ResolvedAt      *time.Time `db:"resolved_at"`
}

// PollOption represents a possible outcome for a poll
type PollOption struct {
	ID          int64     `db:"id"`
	PollID      int64     `db:"poll_id"`
	OptionText  string    `db:"option_text"`
	OptionOrder int16     `db:"option_order"`
	VoteCount   int64     `db:"vote_count"`
	StakedTotal int64     `db:"staked_total"`
	CreatedAt   time.Time `db:"created_at"`
}

// PollDetail combines a poll with its options and bets
type PollDetail struct {
	Poll    *Poll
	Options []*PollOption
	Bets    []*Bet
}

// PollResult represents the outcome of a poll settlement
type PollResult struct {
	Poll           *Poll
	WinningOption  *PollOption
	Winners        []*Bet
	TotalPool      int64
	Payouts        map[int64]int64 // user ID -> payout amount
	HouseRemainder int64
}

// IsExpired checks whether the poll's voting window has closed at the given time
func (p *Poll) IsExpired(now time.Time) bool {
	return !now.Before(p.EndsAt)
}

// CanAcceptBets checks whether a bet may still be placed at the given time
func (p *Poll) CanAcceptBets(now time.Time) bool {
	return !p.Resolved && !p.IsExpired(now)
}

// TimeRemaining returns how long the poll remains open, floored at zero
func (p *Poll) TimeRemaining(now time.Time) time.Duration {
	if p.IsExpired(now) {
		return 0
	}
	return p.EndsAt.Sub(now)
}

// Multiplier calculates the potential payout multiplier for an option
func (o *PollOption) Multiplier(totalPool int64) float64 {
	if o.StakedTotal == 0 {
		return 0
	}
	return float64(totalPool) / float64(o.StakedTotal)
}

// Option returns the option with the given ID, or nil if it does not belong
// to this poll
func (pd *PollDetail) Option(optionID int64) *PollOption {
	for _, opt := range pd.Options {
		if opt.ID == optionID {
			return opt
		}
	}
	return nil
}

// BetBy returns the bet placed by the given user, or nil
func (pd *PollDetail) BetBy(userID int64) *Bet {
	for _, bet := range pd.Bets {
		if bet.UserID == userID {
			return bet
		}
	}
	return nil
}

// BetsOnOption returns all bets placed on the given option
func (pd *PollDetail) BetsOnOption(optionID int64) []*Bet {
	var bets []*Bet
	for _, bet := range pd.Bets {
		if bet.OptionID == optionID {
			bets = append(bets, bet)
		}
	}
	return bets
}

// TotalVotes returns the number of bets across all options
func (pd *PollDetail) TotalVotes() int64 {
	var total int64
	for _, opt := range pd.Options {
		total += opt.VoteCount
	}
	return total
}

// LeadingOption returns the option with the highest staked total, the
// "winner so far" shown while the poll is in progress. Staked totals drive
// the ranking since payouts are parimutuel; ties break on option order.
// Returns nil when nothing has been staked yet.
func (pd *PollDetail) LeadingOption() *PollOption {
	var leading *PollOption
	for _, opt := range pd.Options {
		if opt.StakedTotal == 0 {
			continue
		}
		if leading == nil || opt.StakedTotal > leading.StakedTotal ||
			(opt.StakedTotal == leading.StakedTotal && opt.OptionOrder < leading.OptionOrder) {
			leading = opt
		}
	}
	return leading
}

// Results returns the share of votes per option text, as percentages
func (pd *PollDetail) Results() map[string]float64 {
	results := make(map[string]float64)

	totalVotes := pd.TotalVotes()
	if totalVotes == 0 {
		return results
	}

	for _, opt := range pd.Options {
		results[opt.OptionText] = float64(opt.VoteCount) * 100.0 / float64(totalVotes)
	}
	return results
}

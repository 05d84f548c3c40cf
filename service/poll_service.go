package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"campuspolls/events"
	"campuspolls/models"
	log "github.com/sirupsen/logrus"
)

// pollService implements PollService. All mutations run inside a single
// transaction that locks the poll row, so concurrent bets and a concurrent
// resolve serialize against each other.
type pollService struct {
	uowFactory UnitOfWorkFactory
	feed       FeedStore
	clock      Clock
}

// NewPollService creates a new poll service. feed may be nil, in which case
// settlement announcements are skipped.
func NewPollService(uowFactory UnitOfWorkFactory, feed FeedStore, clock Clock) PollService {
	return &pollService{
		uowFactory: uowFactory,
		feed:       feed,
		clock:      clock,
	}
}

func (s *pollService) CreatePoll(ctx context.Context, creatorID int64, title, description string, options []string, endsAt time.Time) (*models.PollDetail, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("poll title must not be empty")
	}
	if len(options) < 2 {
		return nil, fmt.Errorf("poll requires at least 2 options, got %d", len(options))
	}
	if !endsAt.After(s.clock.Now()) {
		return nil, fmt.Errorf("poll end time must be in the future")
	}

	uow := s.uowFactory.Create()

	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	creator, err := uow.UserRepository().GetByID(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get creator: %w", err)
	}
	if creator == nil {
		return nil, ErrUserNotFound
	}

	poll := &models.Poll{
		Title:       title,
		Description: description,
		CreatorID:   creatorID,
		EndsAt:      endsAt,
	}

	pollOptions := make([]*models.PollOption, 0, len(options))
	for i, text := range options {
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, fmt.Errorf("poll option %d must not be empty", i+1)
		}
		pollOptions = append(pollOptions, &models.PollOption{
			OptionText:  text,
			OptionOrder: int16(i),
		})
	}

	if err := uow.PollRepository().CreateWithOptions(ctx, poll, pollOptions); err != nil {
		return nil, fmt.Errorf("failed to create poll: %w", err)
	}

	uow.EventBus().Publish(events.PollCreatedEvent{
		PollID:    poll.ID,
		Title:     poll.Title,
		CreatorID: creatorID,
		EndsAt:    endsAt,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"pollID":      poll.ID,
		"creatorID":   creatorID,
		"optionCount": len(pollOptions),
		"endsAt":      endsAt,
	}).Info("Created poll")

	return &models.PollDetail{Poll: poll, Options: pollOptions}, nil
}

// PlaceBet validates and records a wager. Validation order matters: staleness
// of the poll is reported before anything about the caller's own input.
func (s *pollService) PlaceBet(ctx context.Context, pollID, userID, optionID int64, amount int64) (*models.Bet, error) {
	uow := s.uowFactory.Create()

	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	poll, err := uow.PollRepository().GetByIDForUpdate(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}
	if poll == nil {
		return nil, ErrPollNotFound
	}

	if poll.IsExpired(s.clock.Now()) {
		return nil, ErrPollExpired
	}
	if poll.Resolved {
		return nil, ErrPollAlreadyResolved
	}

	detail, err := uow.PollRepository().GetDetailByID(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to get poll detail: %w", err)
	}

	option := detail.Option(optionID)
	if option == nil {
		return nil, ErrInvalidOption
	}
	if amount < 1 {
		return nil, ErrInvalidAmount
	}
	if detail.BetBy(userID) != nil {
		return nil, ErrAlreadyVoted
	}

	// Lock the bettor's row so the history snapshot below cannot go stale
	// between this read and the debit
	user, err := uow.UserRepository().GetByIDForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if err := uow.UserRepository().DeductBalance(ctx, userID, amount); err != nil {
		return nil, fmt.Errorf("failed to deduct stake: %w", err)
	}

	bet := &models.Bet{
		PollID:   pollID,
		OptionID: optionID,
		UserID:   userID,
		Amount:   amount,
	}
	if err := uow.PollRepository().CreateBet(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to create bet: %w", err)
	}

	if err := uow.PollRepository().UpdateOptionAggregates(ctx, optionID, option.VoteCount+1, option.StakedTotal+amount); err != nil {
		return nil, fmt.Errorf("failed to update option aggregates: %w", err)
	}

	poll.TotalPool += amount
	if err := uow.PollRepository().Update(ctx, poll); err != nil {
		return nil, fmt.Errorf("failed to update poll pool: %w", err)
	}

	history := &models.BalanceHistory{
		UserID:          userID,
		BalanceBefore:   user.Balance,
		BalanceAfter:    user.Balance - amount,
		ChangeAmount:    -amount,
		TransactionType: models.TransactionTypeBetStake,
		TransactionMetadata: map[string]any{
			"poll_id":   pollID,
			"option_id": optionID,
		},
		RelatedID:   &poll.ID,
		RelatedType: relatedTypePtr(models.RelatedTypePoll),
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.BetPlacedEvent{
		UserID:   userID,
		PollID:   pollID,
		OptionID: optionID,
		Amount:   amount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"pollID":   pollID,
		"userID":   userID,
		"optionID": optionID,
		"amount":   amount,
	}).Info("Placed bet")

	return bet, nil
}

// Resolve settles an expired poll: every bet on the winning option is paid
// amount * totalPool / winningPool, rounded down. The integer remainder stays
// with the house. A winning pool of zero resolves the poll with no payouts.
func (s *pollService) Resolve(ctx context.Context, pollID, winningOptionID, resolverID int64) (*models.PollResult, error) {
	uow := s.uowFactory.Create()

	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	resolver, err := uow.UserRepository().GetByID(ctx, resolverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get resolver: %w", err)
	}
	if resolver == nil {
		return nil, ErrUserNotFound
	}
	if !resolver.IsAdmin() {
		return nil, ErrNotAuthorized
	}

	poll, err := uow.PollRepository().GetByIDForUpdate(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}
	if poll == nil {
		return nil, ErrPollNotFound
	}

	now := s.clock.Now()
	if !poll.IsExpired(now) {
		return nil, ErrPollNotExpired
	}
	if poll.Resolved {
		return nil, ErrPollAlreadyResolved
	}

	detail, err := uow.PollRepository().GetDetailByID(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to get poll detail: %w", err)
	}

	winningOption := detail.Option(winningOptionID)
	if winningOption == nil {
		return nil, ErrInvalidOption
	}

	winningPool := winningOption.StakedTotal
	totalPool := poll.TotalPool
	winners := detail.BetsOnOption(winningOptionID)

	payouts := make(map[int64]int64)
	var paidOut int64

	for _, bet := range detail.Bets {
		payout := int64(0)
		if bet.OptionID == winningOptionID {
			payout = bet.Payout(winningPool, totalPool)
		}
		amount := payout
		bet.PayoutAmount = &amount

		if payout == 0 {
			continue
		}

		winner, err := uow.UserRepository().GetByIDForUpdate(ctx, bet.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to lock winner: %w", err)
		}
		if err := uow.UserRepository().AddBalance(ctx, bet.UserID, payout); err != nil {
			return nil, fmt.Errorf("failed to credit payout: %w", err)
		}

		history := &models.BalanceHistory{
			UserID:          bet.UserID,
			BalanceBefore:   winner.Balance,
			BalanceAfter:    winner.Balance + payout,
			ChangeAmount:    payout,
			TransactionType: models.TransactionTypePollPayout,
			TransactionMetadata: map[string]any{
				"poll_id":           pollID,
				"winning_option_id": winningOptionID,
				"stake":             bet.Amount,
			},
			RelatedID:   &poll.ID,
			RelatedType: relatedTypePtr(models.RelatedTypePoll),
		}
		if err := RecordBalanceChange(ctx, uow, history); err != nil {
			return nil, err
		}

		payouts[bet.UserID] = payout
		paidOut += payout
	}

	if err := uow.PollRepository().UpdateBetPayouts(ctx, detail.Bets); err != nil {
		return nil, fmt.Errorf("failed to persist bet payouts: %w", err)
	}

	poll.Resolved = true
	poll.WinningOptionID = &winningOptionID
	poll.ResolverID = &resolverID
	poll.ResolvedAt = &now
	if err := uow.PollRepository().Update(ctx, poll); err != nil {
		return nil, fmt.Errorf("failed to mark poll resolved: %w", err)
	}

	uow.EventBus().Publish(events.PollResolvedEvent{
		PollID:          pollID,
		Title:           poll.Title,
		WinningOptionID: winningOptionID,
		WinningOption:   winningOption.OptionText,
		ResolverID:      resolverID,
		TotalPool:       totalPool,
		Payouts:         payouts,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"pollID":          pollID,
		"winningOptionID": winningOptionID,
		"resolverID":      resolverID,
		"totalPool":       totalPool,
		"paidOut":         paidOut,
		"winnerCount":     len(payouts),
	}).Info("Resolved poll")

	s.announceResult(ctx, poll, winningOption, len(payouts))

	return &models.PollResult{
		Poll:           poll,
		WinningOption:  winningOption,
		Winners:        winners,
		TotalPool:      totalPool,
		Payouts:        payouts,
		HouseRemainder: totalPool - paidOut,
	}, nil
}

// announceResult posts the settlement to the community feed. The settlement
// is already committed; a failed announcement is logged and dropped.
func (s *pollService) announceResult(ctx context.Context, poll *models.Poll, winningOption *models.PollOption, winnerCount int) {
	if s.feed == nil {
		return
	}

	title := fmt.Sprintf("Poll resolved: %s", poll.Title)
	body := fmt.Sprintf("%q won with %d tokens staked. %d winner(s) split a pool of %d tokens.",
		winningOption.OptionText, winningOption.StakedTotal, winnerCount, poll.TotalPool)

	if _, err := s.feed.CreatePost(ctx, poll.CreatorID, title, body); err != nil {
		log.WithFields(log.Fields{
			"pollID": poll.ID,
			"error":  err,
		}).Warn("Failed to announce poll result to feed")
	}
}

func (s *pollService) GetPollDetail(ctx context.Context, pollID int64) (*models.PollDetail, error) {
	uow := s.uowFactory.Create()

	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	detail, err := uow.PollRepository().GetDetailByID(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to get poll detail: %w", err)
	}
	if detail == nil {
		return nil, ErrPollNotFound
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return detail, nil
}

func (s *pollService) GetActivePolls(ctx context.Context) ([]*models.Poll, error) {
	uow := s.uowFactory.Create()

	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	polls, err := uow.PollRepository().GetActive(ctx, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to get active polls: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return polls, nil
}

func (s *pollService) GetExpiredUnresolved(ctx context.Context) ([]*models.Poll, error) {
	uow := s.uowFactory.Create()

	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	polls, err := uow.PollRepository().GetExpiredUnresolved(ctx, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to get expired polls: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return polls, nil
}

func (s *pollService) GetAllPolls(ctx context.Context) ([]*models.Poll, error) {
	uow := s.uowFactory.Create()

	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	polls, err := uow.PollRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get polls: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return polls, nil
}

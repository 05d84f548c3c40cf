package notifier

import (
	"fmt"
	"testing"
	"time"

	"campuspolls/events"

	"github.com/stretchr/testify/assert"
)

func TestPollCreatedMessage(t *testing.T) {
	endsAt := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)

	message := pollCreatedMessage(events.PollCreatedEvent{
		PollID: 1,
		Title:  "Best study spot?",
		EndsAt: endsAt,
	})

	assert.Contains(t, message, "Best study spot?")
	assert.Contains(t, message, fmt.Sprintf("<t:%d:R>", endsAt.Unix()))
}

func TestPollResolvedMessage(t *testing.T) {
	t.Run("with winners", func(t *testing.T) {
		message := pollResolvedMessage(events.PollResolvedEvent{
			Title:         "Exam date moved?",
			WinningOption: "Yes",
			TotalPool:     500,
			Payouts:       map[int64]int64{100: 333, 101: 120, 102: 47},
		})

		assert.Contains(t, message, "Exam date moved?")
		assert.Contains(t, message, "Winner: **Yes**")
		assert.Contains(t, message, "pool: 500 tokens")
		assert.Contains(t, message, "3 winner(s) paid out, top payout 333 tokens.")
	})

	t.Run("no winning bets", func(t *testing.T) {
		message := pollResolvedMessage(events.PollResolvedEvent{
			Title:         "Exam date moved?",
			WinningOption: "No",
			TotalPool:     200,
		})

		assert.Contains(t, message, "No winning bets this time.")
	})
}

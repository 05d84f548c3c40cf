// Package notifier relays poll lifecycle events to a Discord channel.
package notifier

import (
	"context"
	"fmt"
	"strings"

	"campuspolls/events"
	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// DiscordNotifier posts poll announcements to one channel. Delivery is best
// effort; a failed message is logged and dropped.
type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
}

// NewDiscordNotifier creates a notifier and opens the Discord session
func NewDiscordNotifier(token, channelID string) (*DiscordNotifier, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("failed to open Discord session: %w", err)
	}

	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
	}, nil
}

// RegisterHandlers subscribes the notifier to poll lifecycle events
func (n *DiscordNotifier) RegisterHandlers(bus *events.Bus) {
	bus.Subscribe(events.EventTypePollCreated, n.handlePollCreated)
	bus.Subscribe(events.EventTypePollResolved, n.handlePollResolved)
}

func (n *DiscordNotifier) handlePollCreated(ctx context.Context, event events.Event) {
	e, ok := event.(events.PollCreatedEvent)
	if !ok {
		return
	}
	n.send(pollCreatedMessage(e))
}

func (n *DiscordNotifier) handlePollResolved(ctx context.Context, event events.Event) {
	e, ok := event.(events.PollResolvedEvent)
	if !ok {
		return
	}
	n.send(pollResolvedMessage(e))
}

func pollCreatedMessage(e events.PollCreatedEvent) string {
	return fmt.Sprintf("📊 New poll: **%s** — betting closes <t:%d:R>", e.Title, e.EndsAt.Unix())
}

func pollResolvedMessage(e events.PollResolvedEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏁 Poll resolved: **%s**\nWinner: **%s** (pool: %d tokens)\n", e.Title, e.WinningOption, e.TotalPool)

	if len(e.Payouts) == 0 {
		b.WriteString("No winning bets this time.")
		return b.String()
	}

	var top int64
	for _, payout := range e.Payouts {
		if payout > top {
			top = payout
		}
	}
	fmt.Fprintf(&b, "%d winner(s) paid out, top payout %d tokens.", len(e.Payouts), top)

	return b.String()
}

func (n *DiscordNotifier) send(message string) {
	if _, err := n.session.ChannelMessageSend(n.channelID, message); err != nil {
		log.WithFields(log.Fields{
			"channelID": n.channelID,
			"error":     err,
		}).Warn("Failed to send Discord announcement")
	}
}

// Close shuts down the Discord session
func (n *DiscordNotifier) Close() error {
	return n.session.Close()
}

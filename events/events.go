package events

import (
	"context"
	"sync"
	"time"

	"campuspolls/models"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange EventType = "balance_change"
	EventTypeUserCreated   EventType = "user_created"
	EventTypeBetPlaced     EventType = "bet_placed"
	EventTypePollCreated   EventType = "poll_created"
	EventTypePollResolved  EventType = "poll_resolved"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	UserID          int64
	OldBalance      int64
	NewBalance      int64
	TransactionType models.TransactionType
	ChangeAmount    int64
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// UserCreatedEvent represents a new user creation
type UserCreatedEvent struct {
	UserID         int64
	Username       string
	InitialBalance int64
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// BetPlacedEvent represents a wager recorded against a poll option
type BetPlacedEvent struct {
	UserID   int64
	PollID   int64
	OptionID int64
	Amount   int64
}

func (e BetPlacedEvent) Type() EventType {
	return EventTypeBetPlaced
}

// PollCreatedEvent represents a newly opened poll
type PollCreatedEvent struct {
	PollID    int64
	Title     string
	CreatorID int64
	EndsAt    time.Time
}

func (e PollCreatedEvent) Type() EventType {
	return EventTypePollCreated
}

// PollResolvedEvent represents a settled poll
type PollResolvedEvent struct {
	PollID          int64
	Title           string
	WinningOptionID int64
	WinningOption   string
	ResolverID      int64
	TotalPool       int64
	Payouts         map[int64]int64 // user ID -> payout amount
}

func (e PollResolvedEvent) Type() EventType {
	return EventTypePollResolved
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	// Call handlers asynchronously to avoid blocking the caller
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus stashes events published during a unit of work and only
// forwards them to the underlying bus after the transaction commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events; called after a successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) {
	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events from transactional bus")

	// Events are processed independently of the transaction lifecycle, so
	// emission must not inherit an expired transaction context
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard drops pending events; called after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}

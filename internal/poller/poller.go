package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const EventPaymentSucceeded = "payment_intent.succeeded"

var ErrMalformedEvent = errors.New("malformed event")

type CartClearer interface {
	ClearCart(ctx context.Context, userID string) error
}

// paymentEvent accepts both a forwarded Stripe event and a flat payload.
type paymentEvent struct {
	Type   string `json:"type"`
	UserID string `json:"usuarioId"`
	Data   struct {
		Object struct {
			Metadata map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

func (e paymentEvent) userID() string {
	if id := e.Data.Object.Metadata["usuarioId"]; id != "" {
		return id
	}
	return e.UserID
}

type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

const (
	defaultRetryDelay    = 500 * time.Millisecond
	defaultMaxRetryDelay = 30 * time.Second
)

// messageReader is the part of *kafka.Reader the poller uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Poller struct {
	carts  CartClearer
	reader messageReader
	log    *slog.Logger

	retryDelay    time.Duration
	maxRetryDelay time.Duration
}

func NewPoller(carts CartClearer, cfg Config, log *slog.Logger) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MaxBytes: 10e6, // 10MB
	})
	return newPoller(carts, reader, log)
}

func newPoller(carts CartClearer, reader messageReader, log *slog.Logger) *Poller {
	return &Poller{
		carts:         carts,
		reader:        reader,
		log:           log,
		retryDelay:    defaultRetryDelay,
		maxRetryDelay: defaultMaxRetryDelay,
	}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.processMessage(ctx)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.Error("error closing kafka reader", "error", err)
	}
}

// processMessage handles one message and commits its offset only once the
// cart is cleared or the event is found to be malformed. A failed clear is
// retried in place; the reader does not hand out an uncommitted message twice
// within the same session.
func (p *Poller) processMessage(ctx context.Context) {
	m, err := p.reader.FetchMessage(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.log.ErrorContext(ctx, "error fetching message", "error", err)
		}
		return
	}

	if !p.handleWithRetry(ctx, m) {
		return
	}

	if err := p.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
		p.log.ErrorContext(ctx, "failed to commit message",
			"partition", m.Partition, "offset", m.Offset, "error", err)
	}
}

// handleWithRetry reports whether m is done with and may be committed. It
// returns false only when ctx ends first.
func (p *Poller) handleWithRetry(ctx context.Context, m kafka.Message) bool {
	delay := p.retryDelay
	for attempt := 1; ; attempt++ {
		err := p.handleMessage(ctx, m.Value)
		if err == nil {
			return true
		}
		if errors.Is(err, ErrMalformedEvent) {
			p.log.WarnContext(ctx, "skipping malformed payment event",
				"partition", m.Partition, "offset", m.Offset, "error", err)
			return true
		}

		p.log.ErrorContext(ctx, "failed to handle payment event",
			"partition", m.Partition, "offset", m.Offset, "attempt", attempt, "error", err)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return false
		case <-t.C:
		}
		delay = min(delay*2, p.maxRetryDelay)
	}
}

// handleMessage clears the paying user's cart. Events of other types are
// ignored.
func (p *Poller) handleMessage(ctx context.Context, value []byte) error {
	var ev paymentEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	if ev.Type != EventPaymentSucceeded {
		p.log.DebugContext(ctx, "ignoring event", "type", ev.Type)
		return nil
	}

	userID := ev.userID()
	if userID == "" {
		return fmt.Errorf("%w: missing usuarioId", ErrMalformedEvent)
	}

	if err := p.carts.ClearCart(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear cart for %s: %w", userID, err)
	}
	p.log.InfoContext(ctx, "cart cleared after payment", "user_id", userID)
	return nil
}

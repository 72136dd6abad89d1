package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	id "freightledger/pkg/domain"
	"freightledger/pkg/txcontext"
)

// Store persists the append-only event journal.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByShipment(ctx context.Context, shipmentID id.ShipmentID) ([]Event, error)
}

// Sink receives a copy of every event after it is journaled. Sinks are
// best-effort; a failing sink never fails the emitting transaction.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Publisher captures structured audit events. It stamps missing identity and
// clock fields from the transaction context, appends to the journal, and fans
// out to optional sinks.
type Publisher struct {
	store  Store
	sinks  []Sink
	logger *slog.Logger
}

type Option func(*Publisher)

func WithSink(sink Sink) Option {
	return func(p *Publisher) {
		if sink != nil {
			p.sinks = append(p.sinks, sink)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit journals the event. The journal append is the transactional part;
// sink fan-out is best-effort and logged on failure.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = txcontext.BlockTime(ctx)
	}
	if event.BlockHeight == 0 {
		event.BlockHeight = txcontext.BlockHeight(ctx)
	}
	if event.Actor.IsZero() {
		event.Actor = txcontext.Caller(ctx)
	}

	if err := p.store.Append(ctx, event); err != nil {
		return err
	}

	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, event); err != nil && p.logger != nil {
			p.logger.WarnContext(ctx, "audit sink publish failed",
				"event_id", event.ID,
				"kind", event.Kind,
				"error", err,
			)
		}
	}
	return nil
}

// ListByShipment returns the journaled trail for one shipment, oldest first.
func (p *Publisher) ListByShipment(ctx context.Context, shipmentID id.ShipmentID) ([]Event, error) {
	return p.store.ListByShipment(ctx, shipmentID)
}

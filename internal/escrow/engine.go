package escrow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"freightledger/internal/audit"
	"freightledger/internal/catalog"
	"freightledger/internal/platform/metrics"
	id "freightledger/pkg/domain"
	dErrors "freightledger/pkg/domain-errors"
	"freightledger/pkg/platform/sentinel"
	"freightledger/pkg/txcontext"
)

var (
	ErrEscrowNotFound = dErrors.New(dErrors.CodeNotFound, "no escrow for shipment")
	// ErrEscrowClosed is returned for release or refund attempts on a
	// terminal escrow.
	ErrEscrowClosed = dErrors.New(dErrors.CodePayment, "escrow already released or refunded")
	// ErrConditionsNotMet is returned when a release is attempted before
	// every lifecycle condition holds. The escrow is unchanged and retryable.
	ErrConditionsNotMet = dErrors.New(dErrors.CodePayment, "release conditions not satisfied")
	// ErrSignatureThreshold is returned when collected release signatures are
	// below the order's threshold. Collected signatures are kept; a further
	// signer may retry.
	ErrSignatureThreshold = dErrors.New(dErrors.CodePayment, "release signature threshold not met")
	ErrQualityBelowBar    = dErrors.New(dErrors.CodePayment, "condition report below quality threshold")
)

// TokenTransfer moves released funds to the payee. Fund custody lives outside
// this core; the engine only signals the movement.
type TokenTransfer interface {
	Transfer(ctx context.Context, shipmentID id.ShipmentID, payee id.AccountID, amountCents int64) error
}

// Engine owns escrow state transitions. Every mutation is validated first;
// a failed release leaves the escrow in a retryable state.
type Engine struct {
	store    Store
	transfer TokenTransfer
	events   *audit.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithAuditPublisher(events *audit.Publisher) Option {
	return func(e *Engine) {
		e.events = events
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func New(store Store, transfer TokenTransfer, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("escrow store is required")
	}
	if transfer == nil {
		return nil, fmt.Errorf("token transfer is required")
	}

	eng := &Engine{store: store, transfer: transfer}
	for _, opt := range opts {
		opt(eng)
	}
	return eng, nil
}

// Open creates the escrow paired with a new shipment. Amount and payee come
// from the order; conditions and thresholds derive from its requirements.
func (e *Engine) Open(ctx context.Context, shipmentID id.ShipmentID, order catalog.FulfillmentOrder) (Escrow, error) {
	conditions := []Condition{ConditionDeliveryConfirmed, ConditionProofVerified}
	if order.Requirements.QualityThreshold > 0 {
		conditions = append(conditions, ConditionQualityReport)
	}
	threshold := order.Requirements.ReleaseSignatures
	if threshold < 1 {
		threshold = 1
	}

	esc := Escrow{
		ShipmentID:         shipmentID,
		OrderID:            order.ID,
		Payee:              order.Payee,
		AmountCents:        order.ValueCents,
		Conditions:         conditions,
		SignatureThreshold: threshold,
		QualityThreshold:   order.Requirements.QualityThreshold,
		Status:             StatusPending,
		CreatedAt:          txcontext.BlockTime(ctx),
	}
	if err := e.store.Create(ctx, esc); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return Escrow{}, dErrors.New(dErrors.CodeConflict, "escrow already exists for shipment")
		}
		return Escrow{}, dErrors.Wrap(err, dErrors.CodeInternal, "create escrow")
	}
	return esc, nil
}

func (e *Engine) Get(ctx context.Context, shipmentID id.ShipmentID) (Escrow, error) {
	esc, err := e.store.Get(ctx, shipmentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Escrow{}, ErrEscrowNotFound
		}
		return Escrow{}, dErrors.Wrap(err, dErrors.CodeInternal, "get escrow")
	}
	return esc, nil
}

// CheckConditions re-evaluates lifecycle-driven conditions after a tracking
// event. A delivered shipment moves the escrow Pending -> ConditionsMet. It
// never releases funds; that requires the independent verification step.
func (e *Engine) CheckConditions(ctx context.Context, upd LifecycleUpdate) (Escrow, error) {
	esc, err := e.Get(ctx, upd.ShipmentID)
	if err != nil {
		return Escrow{}, err
	}
	if esc.Status != StatusPending || !upd.Delivered {
		return esc, nil
	}

	esc.Status = StatusConditionsMet
	if err := e.store.Update(ctx, esc); err != nil {
		return Escrow{}, dErrors.Wrap(err, dErrors.CodeInternal, "update escrow")
	}
	if e.logger != nil {
		e.logger.InfoContext(ctx, "escrow conditions met",
			"event", "escrow_conditions_met",
			"shipment_id", esc.ShipmentID,
			"order_id", esc.OrderID,
		)
	}
	return esc, nil
}

// ProcessRelease attempts the final fund release against a delivery
// verification. A Pending escrow is accepted when the verification input
// simultaneously satisfies the outstanding lifecycle condition. Shortfalls
// (threshold, quality, transfer failure) keep collected signatures and leave
// the escrow retryable.
func (e *Engine) ProcessRelease(ctx context.Context, in ReleaseInput) (Escrow, error) {
	esc, err := e.Get(ctx, in.ShipmentID)
	if err != nil {
		return Escrow{}, err
	}
	if esc.Status.Terminal() {
		return esc, ErrEscrowClosed
	}
	if esc.Status == StatusPending && !in.Delivered {
		return esc, ErrConditionsNotMet
	}
	if esc.requires(ConditionQualityReport) && in.QualityScore < esc.QualityThreshold {
		return esc, ErrQualityBelowBar
	}
	if len(in.Signature) == 0 {
		return esc, dErrors.New(dErrors.CodePayment, "release signature is required")
	}

	esc.Status = StatusConditionsMet
	esc.ReleaseSignatures = collectSignature(esc.ReleaseSignatures, in.Signature)

	if len(esc.ReleaseSignatures) < esc.SignatureThreshold {
		if err := e.store.Update(ctx, esc); err != nil {
			return Escrow{}, dErrors.Wrap(err, dErrors.CodeInternal, "update escrow")
		}
		return esc, ErrSignatureThreshold
	}

	if err := e.transfer.Transfer(ctx, esc.ShipmentID, esc.Payee, esc.AmountCents); err != nil {
		if uerr := e.store.Update(ctx, esc); uerr != nil && e.logger != nil {
			e.logger.ErrorContext(ctx, "escrow update after failed transfer",
				"event", "escrow_update_failed",
				"shipment_id", esc.ShipmentID,
				"error", uerr,
			)
		}
		return esc, dErrors.Wrap(err, dErrors.CodePayment, "token transfer")
	}

	esc.Status = StatusReleased
	esc.ReleasedAt = txcontext.BlockTime(ctx)
	if err := e.store.Update(ctx, esc); err != nil {
		return Escrow{}, dErrors.Wrap(err, dErrors.CodeInternal, "update escrow")
	}

	e.metrics.ObserveEscrowRelease(esc.AmountCents)
	if e.events != nil {
		if err := e.events.Emit(ctx, audit.Event{
			Kind:       audit.KindEscrowReleased,
			ShipmentID: esc.ShipmentID,
			OrderID:    esc.OrderID,
			Status:     string(esc.Status),
		}); err != nil && e.logger != nil {
			e.logger.WarnContext(ctx, "audit emit failed",
				"event", "audit_emit_failed",
				"shipment_id", esc.ShipmentID,
				"error", err,
			)
		}
	}
	if e.logger != nil {
		e.logger.InfoContext(ctx, "escrow released",
			"event", "escrow_released",
			"log_type", "audit",
			"shipment_id", esc.ShipmentID,
			"order_id", esc.OrderID,
			"payee", esc.Payee,
			"amount_cents", esc.AmountCents,
		)
	}
	return esc, nil
}

// Refund closes an unreleased escrow and returns the held amount upstream.
// Administrative; no lifecycle path reaches it.
func (e *Engine) Refund(ctx context.Context, shipmentID id.ShipmentID) (Escrow, error) {
	esc, err := e.Get(ctx, shipmentID)
	if err != nil {
		return Escrow{}, err
	}
	if esc.Status.Terminal() {
		return esc, ErrEscrowClosed
	}

	esc.Status = StatusRefunded
	if err := e.store.Update(ctx, esc); err != nil {
		return Escrow{}, dErrors.Wrap(err, dErrors.CodeInternal, "update escrow")
	}
	if e.events != nil {
		if err := e.events.Emit(ctx, audit.Event{
			Kind:       audit.KindEscrowRefunded,
			ShipmentID: esc.ShipmentID,
			OrderID:    esc.OrderID,
			Status:     string(esc.Status),
		}); err != nil && e.logger != nil {
			e.logger.WarnContext(ctx, "audit emit failed",
				"event", "audit_emit_failed",
				"shipment_id", esc.ShipmentID,
				"error", err,
			)
		}
	}
	return esc, nil
}

// collectSignature appends sig unless an identical signature was already
// collected, so a retried release does not inflate the count.
func collectSignature(have [][]byte, sig []byte) [][]byte {
	for _, s := range have {
		if bytes.Equal(s, sig) {
			return have
		}
	}
	return append(have, sig)
}

package shipment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"freightledger/internal/audit"
	"freightledger/internal/catalog"
	"freightledger/internal/escrow"
	"freightledger/internal/platform/metrics"
	"freightledger/internal/provenance"
	id "freightledger/pkg/domain"
	dErrors "freightledger/pkg/domain-errors"
	"freightledger/pkg/platform/sentinel"
	"freightledger/pkg/txcontext"
)

var (
	ErrShipmentNotFound = dErrors.New(dErrors.CodeNotFound, "shipment not found")
	ErrOrderNotFound    = dErrors.New(dErrors.CodeNotFound, "order not found")
	ErrInvalidEvent     = dErrors.New(dErrors.CodeInvalidInput, "unknown tracking event type")
)

// CarrierAuthorizer checks that the caller operates the shipment's carrier.
// Satisfied by the registry service.
type CarrierAuthorizer interface {
	VerifyCarrierAuth(ctx context.Context, account id.AccountID, carrier id.CarrierID) error
}

// Sealer produces the provenance seal attached at shipment creation.
type Sealer interface {
	Seal(orderID id.OrderID) (provenance.Seal, error)
}

// EscrowEngine is the slice of the escrow engine the lifecycle drives: it
// opens the paired escrow and re-evaluates conditions after each mutation.
type EscrowEngine interface {
	Open(ctx context.Context, shipmentID id.ShipmentID, order catalog.FulfillmentOrder) (escrow.Escrow, error)
	CheckConditions(ctx context.Context, upd escrow.LifecycleUpdate) (escrow.Escrow, error)
}

// Service owns the shipment lifecycle. Every operation validates before it
// mutates; authorization failures leave the record untouched.
type Service struct {
	store    Store
	orders   catalog.OrderStore
	selector *catalog.Selector
	auth     CarrierAuthorizer
	sealer   Sealer
	escrows  EscrowEngine
	ids      *IDGenerator
	events   *audit.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(events *audit.Publisher) Option {
	return func(s *Service) {
		s.events = events
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithIDGenerator(ids *IDGenerator) Option {
	return func(s *Service) {
		s.ids = ids
	}
}

func New(store Store, orders catalog.OrderStore, selector *catalog.Selector, auth CarrierAuthorizer, sealer Sealer, escrows EscrowEngine, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("shipment store is required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order catalog is required")
	}
	if selector == nil {
		return nil, fmt.Errorf("selector is required")
	}
	if auth == nil {
		return nil, fmt.Errorf("carrier authorizer is required")
	}
	if sealer == nil {
		return nil, fmt.Errorf("sealer is required")
	}
	if escrows == nil {
		return nil, fmt.Errorf("escrow engine is required")
	}

	svc := &Service{
		store:    store,
		orders:   orders,
		selector: selector,
		auth:     auth,
		sealer:   sealer,
		escrows:  escrows,
		ids:      NewIDGenerator(),
		tracer:   otel.Tracer("freightledger/shipment"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CreateShipment stages a new shipment for an order: selects a warehouse and
// carrier from the requirements, derives a collision-free id, attaches the
// provenance seal, and opens the paired escrow.
func (s *Service) CreateShipment(ctx context.Context, orderID id.OrderID, destination catalog.Address, req catalog.Requirements) (Shipment, error) {
	ctx, span := s.tracer.Start(ctx, "shipment.Create",
		trace.WithAttributes(attribute.String("order_id", orderID.String())))
	defer span.End()

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Shipment{}, s.fail(span, ErrOrderNotFound)
		}
		return Shipment{}, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "get order"))
	}

	warehouse, err := s.selector.SelectWarehouse(ctx, order, req)
	if err != nil {
		return Shipment{}, s.fail(span, err)
	}
	carrier, err := s.selector.SelectCarrier(ctx, warehouse, destination, req)
	if err != nil {
		return Shipment{}, s.fail(span, err)
	}

	shipmentID, err := s.ids.Next(orderID)
	if err != nil {
		return Shipment{}, s.fail(span, err)
	}
	seal, err := s.sealer.Seal(orderID)
	if err != nil {
		return Shipment{}, s.fail(span, err)
	}

	shp := Shipment{
		ID:          shipmentID,
		OrderID:     orderID,
		Status:      StatusCreated,
		Warehouse:   warehouse.ID,
		Carrier:     carrier.ID,
		Destination: destination,
		Seal:        seal,
		CreatedAt:   txcontext.BlockTime(ctx),
	}
	if err := s.store.Create(ctx, shp); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return Shipment{}, s.fail(span, dErrors.New(dErrors.CodeConflict, "shipment id already exists"))
		}
		return Shipment{}, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "create shipment"))
	}
	if _, err := s.escrows.Open(ctx, shipmentID, order); err != nil {
		return Shipment{}, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "open escrow"))
	}

	s.metrics.IncShipmentsCreated()
	s.emit(ctx, audit.Event{
		Kind:       audit.KindShipmentCreated,
		ShipmentID: shp.ID,
		OrderID:    shp.OrderID,
		Warehouse:  shp.Warehouse,
		Carrier:    shp.Carrier,
		Status:     string(shp.Status),
	})
	if s.logger != nil {
		s.logger.InfoContext(ctx, "shipment created",
			"event", "shipment_created",
			"log_type", "audit",
			"shipment_id", shp.ID,
			"order_id", shp.OrderID,
			"warehouse", shp.Warehouse,
			"carrier", shp.Carrier,
		)
	}
	span.SetAttributes(attribute.String("shipment_id", shp.ID.String()))
	return shp, nil
}

// UpdateShipmentStatus appends a carrier tracking event. The caller must be
// the registered operator of the shipment's carrier; the check runs before
// any mutation. Status only moves forward; event types outside the
// transition table append without changing status.
func (s *Service) UpdateShipmentStatus(ctx context.Context, shipmentID id.ShipmentID, ev TrackingEvent) (Shipment, error) {
	ctx, span := s.tracer.Start(ctx, "shipment.UpdateStatus",
		trace.WithAttributes(
			attribute.String("shipment_id", shipmentID.String()),
			attribute.String("event_type", string(ev.Type)),
		))
	defer span.End()

	if !ev.Type.Valid() {
		return Shipment{}, s.fail(span, ErrInvalidEvent)
	}

	shp, err := s.store.Get(ctx, shipmentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Shipment{}, s.fail(span, ErrShipmentNotFound)
		}
		return Shipment{}, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "get shipment"))
	}

	caller := txcontext.Caller(ctx)
	if err := s.auth.VerifyCarrierAuth(ctx, caller, shp.Carrier); err != nil {
		return Shipment{}, s.fail(span, err)
	}

	if ev.Timestamp.IsZero() {
		ev.Timestamp = txcontext.BlockTime(ctx)
	}
	ev.RecordedBy = caller
	shp.Events = append(shp.Events, ev)
	if next, ok := statusAfter(ev.Type); ok {
		shp.Status = advance(shp.Status, next)
	}

	if err := s.store.Update(ctx, shp); err != nil {
		return Shipment{}, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "update shipment"))
	}

	if _, err := s.escrows.CheckConditions(ctx, escrow.LifecycleUpdate{
		ShipmentID: shp.ID,
		Delivered:  shp.Status.AtLeast(StatusDelivered),
	}); err != nil && !errors.Is(err, escrow.ErrEscrowNotFound) {
		return Shipment{}, s.fail(span, err)
	}

	s.metrics.IncTrackingEvent(string(ev.Type))
	s.emit(ctx, audit.Event{
		Kind:       audit.KindShipmentUpdated,
		ShipmentID: shp.ID,
		OrderID:    shp.OrderID,
		Carrier:    shp.Carrier,
		Status:     string(shp.Status),
		EventType:  string(ev.Type),
	})
	if s.logger != nil {
		s.logger.InfoContext(ctx, "shipment updated",
			"event", "shipment_updated",
			"log_type", "audit",
			"shipment_id", shp.ID,
			"event_type", ev.Type,
			"status", shp.Status,
		)
	}
	return shp, nil
}

func (s *Service) GetShipment(ctx context.Context, shipmentID id.ShipmentID) (Shipment, error) {
	shp, err := s.store.Get(ctx, shipmentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Shipment{}, ErrShipmentNotFound
		}
		return Shipment{}, dErrors.Wrap(err, dErrors.CodeInternal, "get shipment")
	}
	return shp, nil
}

func (s *Service) ListByOrder(ctx context.Context, orderID id.OrderID) ([]Shipment, error) {
	shipments, err := s.store.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list shipments")
	}
	return shipments, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "audit emit failed",
			"event", "audit_emit_failed",
			"shipment_id", event.ShipmentID,
			"error", err,
		)
	}
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

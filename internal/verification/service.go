package verification

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"log/slog"

	"github.com/cloudflare/circl/sign/dilithium"
	"golang.org/x/crypto/blake2b"

	"freightledger/internal/audit"
	"freightledger/internal/escrow"
	"freightledger/internal/platform/metrics"
	"freightledger/internal/registry"
	"freightledger/internal/shipment"
	id "freightledger/pkg/domain"
	dErrors "freightledger/pkg/domain-errors"
	"freightledger/pkg/platform/sentinel"
	"freightledger/pkg/txcontext"
)

var (
	// ErrNotDelivered rejects verification before physical delivery is
	// recorded on the shipment.
	ErrNotDelivered    = dErrors.New(dErrors.CodeFailedPrecondition, "shipment is not delivered")
	ErrAlreadyVerified = dErrors.New(dErrors.CodeConflict, "shipment already verified")
	ErrNoVerification  = dErrors.New(dErrors.CodeNotFound, "no verification for shipment")
	ErrBadSignature    = dErrors.New(dErrors.CodeVerificationFailed, "signature does not verify")
)

// KeyDirectory resolves a verifier's registered public key. Satisfied by the
// registry service.
type KeyDirectory interface {
	VerifierPublicKey(ctx context.Context, account id.AccountID) (dilithium.PublicKey, error)
}

// EscrowReleaser is the release slice of the escrow engine.
type EscrowReleaser interface {
	ProcessRelease(ctx context.Context, in escrow.ReleaseInput) (escrow.Escrow, error)
}

type Service struct {
	store     Store
	shipments shipment.Store
	keyring   registry.Keyring
	keys      KeyDirectory
	escrows   EscrowReleaser
	events    *audit.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
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

func New(store Store, shipments shipment.Store, keyring registry.Keyring, keys KeyDirectory, escrows EscrowReleaser, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("verification store is required")
	}
	if shipments == nil {
		return nil, fmt.Errorf("shipment store is required")
	}
	if keyring == nil {
		return nil, fmt.Errorf("keyring is required")
	}
	if keys == nil {
		return nil, fmt.Errorf("key directory is required")
	}
	if escrows == nil {
		return nil, fmt.Errorf("escrow releaser is required")
	}

	svc := &Service{
		store:     store,
		shipments: shipments,
		keyring:   keyring,
		keys:      keys,
		escrows:   escrows,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// VerifyDelivery signs the delivery proof with the caller's registered key,
// stores the one-time verification record, advances the shipment to
// Verified, and triggers the escrow's final release evaluation. A release
// shortfall is logged and left retryable; it does not undo the verification.
func (s *Service) VerifyDelivery(ctx context.Context, shipmentID id.ShipmentID, proof []byte, report Report) (DeliveryVerification, error) {
	shp, err := s.shipments.Get(ctx, shipmentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return DeliveryVerification{}, shipment.ErrShipmentNotFound
		}
		return DeliveryVerification{}, dErrors.Wrap(err, dErrors.CodeInternal, "get shipment")
	}
	if shp.Status.AtLeast(shipment.StatusVerified) {
		return DeliveryVerification{}, ErrAlreadyVerified
	}
	if !shp.Status.AtLeast(shipment.StatusDelivered) {
		return DeliveryVerification{}, ErrNotDelivered
	}

	caller := txcontext.Caller(ctx)
	key, err := s.keyring.SigningKey(ctx, caller)
	if err != nil {
		return DeliveryVerification{}, err
	}

	ver := DeliveryVerification{
		ShipmentID: shipmentID,
		Verifier:   caller,
		Proof:      append([]byte{}, proof...),
		Report:     report,
		Signature:  registry.SignatureMode.Sign(key, proofDigest(shipmentID, proof, report)),
		VerifiedAt: txcontext.BlockTime(ctx),
	}
	if err := s.store.Create(ctx, ver); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return DeliveryVerification{}, ErrAlreadyVerified
		}
		return DeliveryVerification{}, dErrors.Wrap(err, dErrors.CodeInternal, "create verification")
	}

	shp.Status = shipment.StatusVerified
	if err := s.shipments.Update(ctx, shp); err != nil {
		return DeliveryVerification{}, dErrors.Wrap(err, dErrors.CodeInternal, "update shipment")
	}

	if _, err := s.escrows.ProcessRelease(ctx, escrow.ReleaseInput{
		ShipmentID:   shipmentID,
		Delivered:    true,
		Signature:    ver.Signature,
		QualityScore: report.QualityScore,
	}); err != nil {
		if !errors.Is(err, escrow.ErrEscrowNotFound) && !dErrors.HasCode(err, dErrors.CodePayment) {
			return DeliveryVerification{}, err
		}
		// the verification stands; the escrow remains retryable
		if s.logger != nil {
			s.logger.WarnContext(ctx, "escrow release not completed",
				"event", "escrow_release_deferred",
				"shipment_id", shipmentID,
				"error", err,
			)
		}
	}

	s.metrics.IncDeliveriesVerified()
	if s.events != nil {
		if err := s.events.Emit(ctx, audit.Event{
			Kind:       audit.KindDeliveryVerified,
			ShipmentID: shipmentID,
			OrderID:    shp.OrderID,
			Status:     string(shp.Status),
		}); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "audit emit failed",
				"event", "audit_emit_failed",
				"shipment_id", shipmentID,
				"error", err,
			)
		}
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "delivery verified",
			"event", "delivery_verified",
			"log_type", "audit",
			"shipment_id", shipmentID,
			"verifier", caller,
			"quality_score", report.QualityScore,
		)
	}
	return ver, nil
}

// Verify checks a stored verification's signature against the verifier's
// registered public key.
func (s *Service) Verify(ctx context.Context, ver DeliveryVerification) error {
	public, err := s.keys.VerifierPublicKey(ctx, ver.Verifier)
	if err != nil {
		return err
	}
	if !registry.SignatureMode.Verify(public, proofDigest(ver.ShipmentID, ver.Proof, ver.Report), ver.Signature) {
		return ErrBadSignature
	}
	return nil
}

func (s *Service) Get(ctx context.Context, shipmentID id.ShipmentID) (DeliveryVerification, error) {
	ver, err := s.store.Get(ctx, shipmentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return DeliveryVerification{}, ErrNoVerification
		}
		return DeliveryVerification{}, dErrors.Wrap(err, dErrors.CodeInternal, "get verification")
	}
	return ver, nil
}

// proofDigest is the signed material: blake2b-256 over the shipment id, the
// raw proof, and the condition report. Length prefixes keep field boundaries
// unambiguous.
func proofDigest(shipmentID id.ShipmentID, proof []byte, report Report) []byte {
	h, _ := blake2b.New256(nil)
	writeField(h, []byte(shipmentID))
	writeField(h, proof)
	var score [8]byte
	binary.BigEndian.PutUint64(score[:], uint64(report.QualityScore))
	h.Write(score[:])
	writeField(h, []byte(report.Summary))
	return h.Sum(nil)
}

func writeField(h hash.Hash, field []byte) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(field)))
	h.Write(n[:])
	h.Write(field)
}

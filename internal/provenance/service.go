package provenance

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/blake2b"

	"freightledger/internal/audit"
	"freightledger/internal/platform/metrics"
	id "freightledger/pkg/domain"
	dErrors "freightledger/pkg/domain-errors"
	"freightledger/pkg/platform/sentinel"
	"freightledger/pkg/txcontext"
)

var (
	ErrProductNotFound = dErrors.New(dErrors.CodeNotFound, "no authentication data for product")
	ErrProductExists   = dErrors.New(dErrors.CodeConflict, "product already registered")
)

// LocationResolver reports the site an account operates from, recorded on
// authentication events. Empty for unknown accounts.
type LocationResolver interface {
	AccountLocation(ctx context.Context, account id.AccountID) string
}

type Service struct {
	store     Store
	locations LocationResolver
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

func New(store Store, locations LocationResolver, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("provenance store is required")
	}
	if locations == nil {
		return nil, fmt.Errorf("location resolver is required")
	}

	svc := &Service{store: store, locations: locations}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// RegisterProduct records the manufacturer's authenticity baseline for a new
// product. One record per product, never replaced.
func (s *Service) RegisterProduct(ctx context.Context, productID id.ProductID, manufacturerProof, content []byte) (AuthenticationData, error) {
	if _, err := s.store.Get(ctx, productID); err == nil {
		return AuthenticationData{}, ErrProductExists
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return AuthenticationData{}, dErrors.Wrap(err, dErrors.CodeInternal, "get authentication data")
	}

	data := AuthenticationData{
		ProductID:         productID,
		ProductHash:       ContentHash(manufacturerProof, content),
		ManufacturerProof: append([]byte{}, manufacturerProof...),
	}
	if err := s.store.Put(ctx, data); err != nil {
		return AuthenticationData{}, dErrors.Wrap(err, dErrors.CodeInternal, "put authentication data")
	}
	return data, nil
}

// AuthenticateProduct checks submitted product content against the
// manufacturer's recorded hash. Every attempt, pass or fail, is appended to
// the product's history with its outcome; history never shrinks.
func (s *Service) AuthenticateProduct(ctx context.Context, productID id.ProductID, content []byte) (bool, error) {
	data, err := s.store.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, ErrProductNotFound
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "get authentication data")
	}

	computed := ContentHash(data.ManufacturerProof, content)
	authentic := subtle.ConstantTimeCompare(computed[:], data.ProductHash[:]) == 1

	caller := txcontext.Caller(ctx)
	data.History = append(data.History, AuthenticationEvent{
		Timestamp: txcontext.BlockTime(ctx),
		Location:  s.locations.AccountLocation(ctx, caller),
		Verifier:  caller,
		Authentic: authentic,
	})
	if err := s.store.Put(ctx, data); err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "put authentication data")
	}

	s.metrics.IncProductAuthCheck(authentic)
	if s.events != nil {
		outcome := "authentic"
		if !authentic {
			outcome = "rejected"
		}
		if err := s.events.Emit(ctx, audit.Event{
			Kind:      audit.KindProductAuthenticated,
			ProductID: productID,
			Outcome:   outcome,
		}); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "audit emit failed",
				"event", "audit_emit_failed",
				"product_id", productID,
				"error", err,
			)
		}
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "product authentication checked",
			"event", "product_authenticated",
			"log_type", "audit",
			"product_id", productID,
			"verifier", caller,
			"authentic", authentic,
		)
	}
	return authentic, nil
}

// History returns the product's authentication trail in append order.
func (s *Service) History(ctx context.Context, productID id.ProductID) ([]AuthenticationEvent, error) {
	data, err := s.store.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get authentication data")
	}
	return data.History, nil
}

// ContentHash is the keyed blake2b-256 of product content under the
// manufacturer proof. The proof is first reduced to a fixed-size key so
// arbitrary-length proofs are accepted.
func ContentHash(manufacturerProof, content []byte) [32]byte {
	key := blake2b.Sum256(manufacturerProof)
	h, _ := blake2b.New256(key[:])
	h.Write(content)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

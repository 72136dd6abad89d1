package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloudflare/circl/sign/dilithium"

	"freightledger/internal/catalog"
	id "freightledger/pkg/domain"
	dErrors "freightledger/pkg/domain-errors"
	"freightledger/pkg/platform/sentinel"
)

// Authorization errors. Callers must run these checks before any state
// mutation (fail-fast, no partial writes).
var (
	ErrInvalidCarrier = dErrors.New(dErrors.CodeFailedPrecondition, "carrier unknown or inactive")
	ErrUnauthorized   = dErrors.New(dErrors.CodeUnauthorized, "account is not the registered carrier operator")
	ErrNotVerifier    = dErrors.New(dErrors.CodeForbidden, "account does not hold the verifier role")
)

type Service struct {
	store    Store
	carriers catalog.CarrierStore
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, carriers catalog.CarrierStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("registry store is required")
	}
	if carriers == nil {
		return nil, fmt.Errorf("carrier catalog is required")
	}

	svc := &Service{store: store, carriers: carriers}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// VerifyCarrierAuth checks that the account is the registered operator of an
// active carrier. It mutates nothing.
func (s *Service) VerifyCarrierAuth(ctx context.Context, account id.AccountID, carrier id.CarrierID) error {
	if account.IsZero() {
		return ErrUnauthorized
	}

	info, err := s.carriers.Get(ctx, carrier)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return ErrInvalidCarrier
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "lookup carrier")
	}
	if !info.Active {
		return ErrInvalidCarrier
	}

	operator, err := s.store.CarrierOperator(ctx, carrier)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return ErrUnauthorized
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "lookup carrier operator")
	}
	if operator != account {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "carrier authorization rejected",
				"event", "carrier_auth_rejected",
				"log_type", "audit",
				"account", account,
				"carrier", carrier,
			)
		}
		return ErrUnauthorized
	}
	return nil
}

// VerifierPublicKey resolves the registered verification key for an account.
// The account must hold the verifier role and be active.
func (s *Service) VerifierPublicKey(ctx context.Context, account id.AccountID) (dilithium.PublicKey, error) {
	acct, err := s.store.GetAccount(ctx, account)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, ErrNotVerifier
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "lookup account")
	}
	if !acct.Active || !acct.HasRole(RoleVerifier) {
		return nil, ErrNotVerifier
	}

	raw, err := s.store.VerifierKey(ctx, account)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeFailedPrecondition, "verifier has no registered key")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "lookup verifier key")
	}
	if len(raw) != SignatureMode.PublicKeySize() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "registered verifier key has wrong size")
	}
	return SignatureMode.PublicKeyFromBytes(raw), nil
}

// AccountLocation returns the reported site of an account, empty when the
// account is unknown. Authentication events record it for the audit trail.
func (s *Service) AccountLocation(ctx context.Context, account id.AccountID) string {
	acct, err := s.store.GetAccount(ctx, account)
	if err != nil {
		return ""
	}
	return acct.Location
}

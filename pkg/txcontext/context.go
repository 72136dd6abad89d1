// Package txcontext provides transport-independent context accessors for
// transaction-scoped values.
//
// Every ledger operation runs inside a sequenced transaction; the surrounding
// runtime supplies the caller identity and the logical clock. This package
// makes that ambient state explicit: transports and tests populate it, and
// services read it without depending on any transport.
//
// Usage in services (read values):
//
//	caller := txcontext.Caller(ctx)
//	now := txcontext.BlockTime(ctx)
//
// Usage in middleware and tests (set values):
//
//	ctx = txcontext.WithCaller(ctx, account)
//	ctx = txcontext.WithBlockTime(ctx, fixedTime)
package txcontext

import (
	"context"
	"time"

	id "freightledger/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	callerKey      struct{}
	blockTimeKey   struct{}
	blockHeightKey struct{}
	requestIDKey   struct{}
)

// Caller retrieves the transaction caller account from the context.
// Returns the zero value when not set.
func Caller(ctx context.Context) id.AccountID {
	if caller, ok := ctx.Value(callerKey{}).(id.AccountID); ok {
		return caller
	}
	return ""
}

// WithCaller injects the transaction caller account into the context.
func WithCaller(ctx context.Context, caller id.AccountID) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// BlockTime retrieves the logical timestamp of the enclosing transaction.
// Falls back to wall-clock time when the runtime did not supply one, so
// records are never stamped with the zero time.
func BlockTime(ctx context.Context) time.Time {
	if ts, ok := ctx.Value(blockTimeKey{}).(time.Time); ok && !ts.IsZero() {
		return ts
	}
	return time.Now()
}

// WithBlockTime injects the logical timestamp into the context.
func WithBlockTime(ctx context.Context, ts time.Time) context.Context {
	return context.WithValue(ctx, blockTimeKey{}, ts)
}

// BlockHeight retrieves the block height of the enclosing transaction.
// Returns zero when not set.
func BlockHeight(ctx context.Context) uint64 {
	if h, ok := ctx.Value(blockHeightKey{}).(uint64); ok {
		return h
	}
	return 0
}

// WithBlockHeight injects the block height into the context.
func WithBlockHeight(ctx context.Context, height uint64) context.Context {
	return context.WithValue(ctx, blockHeightKey{}, height)
}

// RequestID retrieves the transport request id for log correlation.
func RequestID(ctx context.Context) string {
	if rid, ok := ctx.Value(requestIDKey{}).(string); ok {
		return rid
	}
	return ""
}

// WithRequestID injects a transport request id into the context.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, rid)
}

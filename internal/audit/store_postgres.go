package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	id "freightledger/pkg/domain"
	txcontext "freightledger/pkg/platform/tx"
)

// PostgresStore implements Store on a durable journal table. Identifier
// columns are indexed for external query; the full event rides along as JSON
// so new fields never need a migration.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// EnsureSchema creates the journal table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS audit_events (
    id           UUID PRIMARY KEY,
    kind         TEXT NOT NULL,
    occurred_at  TIMESTAMPTZ NOT NULL,
    block_height BIGINT NOT NULL DEFAULT 0,
    shipment_id  TEXT NOT NULL DEFAULT '',
    order_id     TEXT NOT NULL DEFAULT '',
    product_id   TEXT NOT NULL DEFAULT '',
    payload      JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_events_shipment_idx ON audit_events (shipment_id, occurred_at);
CREATE INDEX IF NOT EXISTS audit_events_product_idx ON audit_events (product_id, occurred_at);`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	const q = `
INSERT INTO audit_events (id, kind, occurred_at, block_height, shipment_id, order_id, product_id, payload)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = s.execer(ctx).ExecContext(ctx, q,
		event.ID,
		string(event.Kind),
		event.Timestamp.UTC(),
		int64(event.BlockHeight),
		event.ShipmentID.String(),
		event.OrderID.String(),
		event.ProductID.String(),
		payload,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByShipment(ctx context.Context, shipmentID id.ShipmentID) ([]Event, error) {
	const q = `
SELECT payload FROM audit_events
WHERE shipment_id = $1
ORDER BY occurred_at, id`
	rows, err := s.execer(ctx).QueryContext(ctx, q, shipmentID.String())
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		var event Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("decode audit event: %w", err)
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

// PruneBefore deletes journal rows older than the cutoff. Retention policy is
// an operational concern; the ledger itself never calls this.
func (s *PostgresStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM audit_events WHERE occurred_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune audit events: %w", err)
	}
	return res.RowsAffected()
}

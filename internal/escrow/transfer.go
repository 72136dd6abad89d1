package escrow

import (
	"context"
	"log/slog"

	id "freightledger/pkg/domain"
)

// LoggedTransfer is the dev stand-in for the external settlement system: it
// records the movement instruction and reports success. Production nodes
// replace it with a real settlement client.
type LoggedTransfer struct {
	logger *slog.Logger
}

func NewLoggedTransfer(logger *slog.Logger) *LoggedTransfer {
	return &LoggedTransfer{logger: logger}
}

func (t *LoggedTransfer) Transfer(ctx context.Context, shipmentID id.ShipmentID, payee id.AccountID, amountCents int64) error {
	if t.logger != nil {
		t.logger.InfoContext(ctx, "token transfer instructed",
			"event", "token_transfer",
			"shipment_id", shipmentID,
			"payee", payee,
			"amount_cents", amountCents,
		)
	}
	return nil
}

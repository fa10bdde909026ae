package telemetry

import (
	"context"

	"github.com/dwarvesf/walletpay-backend/internal/model"
)

type ITelemetry interface {
	// ReconcilePendingTransactions polls the chain for every pending record and applies
	// pending -> confirmed|failed transitions
	ReconcilePendingTransactions(ctx context.Context) (*ReconcileResult, error)

	// ReconcileTransaction refreshes a single record on demand
	ReconcileTransaction(ctx context.Context, chain model.Chain, txHash string) (*model.TransactionRecord, error)
}

type ReconcileResult struct {
	Skipped   bool                `json:"skipped"`
	Checked   int                 `json:"checked"`
	Confirmed int                 `json:"confirmed"`
	Failed    int                 `json:"failed"`
	Expired   int                 `json:"expired"`
	Errors    int                 `json:"errors"`
	Pending   map[model.Chain]int `json:"pending"`
}

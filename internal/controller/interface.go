package controller

import (
	"context"

	"github.com/dwarvesf/walletpay-backend/internal/model"
)

type IController interface {
	// PrepareTransfer validates a transfer and builds the unsigned payload for the wallet
	PrepareTransfer(ctx context.Context, req TransferRequest) (*model.UnsignedTransfer, error)

	// SubmitTransfer broadcasts a wallet-signed payload and records it as pending
	SubmitTransfer(ctx context.Context, req SubmitTransferRequest) (*model.TransactionRecord, error)

	// RecordTransfer stores a transaction the wallet broadcast itself
	RecordTransfer(ctx context.Context, req RecordTransferRequest) (*model.TransactionRecord, error)

	GetTransaction(ctx context.Context, chain model.Chain, txHash string) (*model.TransactionRecord, error)
	ListTransactions(ctx context.Context, filter model.TransactionFilter) ([]model.TransactionRecord, int64, error)

	// EstimateFee returns the network fee and, when balance is given, the max sendable amount
	EstimateFee(ctx context.Context, chain model.Chain, chainRef, balance string) (*model.FeeEstimate, error)

	// CheckAllowance reports whether the spender needs an approval before moving amount
	CheckAllowance(ctx context.Context, req AllowanceRequest) (*AllowanceResult, error)

	GetOverride(ctx context.Context, chain model.Chain) (*model.WalletOverride, error)
	SetOverride(ctx context.Context, req OverrideRequest) (*model.WalletOverride, error)
	ListOverrides(ctx context.Context) ([]model.WalletOverride, error)
}

// DatabaseRecorder receives store call timings. *monitoring.BusinessMetricsRecorder satisfies it.
type DatabaseRecorder interface {
	RecordDatabaseOperation(operationType, status string, duration float64)
}

// TokenResolver is satisfied by the token registry.
type TokenResolver interface {
	NativeToken(chain model.Chain, chainRef string) (model.Token, error)
	TokenByAddress(chain model.Chain, chainRef, address string) (model.Token, error)
}

package wallet

import (
	"context"

	"github.com/dwarvesf/walletpay-backend/internal/model"
)

// ChainAdapter is the per-blockchain surface used by sessions, transfers and reconciliation.
type ChainAdapter interface {
	Chain() model.Chain
	ValidateAddress(address string) error
	ValidateTxHash(txHash string) error
	NativeBalance(ctx context.Context, chainRef, address string) (*model.Web3BigInt, error)
	TokenBalance(ctx context.Context, chainRef string, token model.Token, address string) (*model.Web3BigInt, error)
	EstimateTransferFee(ctx context.Context, chainRef string) (*model.Web3BigInt, error)
	PrepareTransfer(ctx context.Context, intent model.TransferIntent) (*model.UnsignedTransfer, error)
	SubmitSignedTransaction(ctx context.Context, chainRef, payload string) (string, error)
	TransactionStatus(ctx context.Context, chainRef, txHash string) (model.TransactionStatus, error)
}

// AllowanceReader is implemented by chains with token approvals (EVM).
type AllowanceReader interface {
	Allowance(ctx context.Context, chainRef string, token model.Token, owner, spender string) (*model.Web3BigInt, error)
}

// TokenLister resolves tokens for a chain/chain_ref pair.
type TokenLister interface {
	NativeToken(chain model.Chain, chainRef string) (model.Token, error)
	Tokens(chain model.Chain, chainRef string) ([]model.Token, error)
}

type IManager interface {
	Connect(ctx context.Context, req ConnectRequest) (*model.WalletState, error)
	Get(sessionID string) (*model.WalletState, error)
	RefreshBalance(ctx context.Context, sessionID string) (*model.WalletState, error)
	RefreshAll(ctx context.Context) (int, error)
	ChangeAccount(ctx context.Context, sessionID, address string) (*model.WalletState, error)
	ChangeChainRef(ctx context.Context, sessionID, chainRef string) (*model.WalletState, error)
	Disconnect(sessionID string) (*model.WalletState, error)
	TokenBalances(ctx context.Context, sessionID string) ([]model.TokenBalance, error)
	Count() int
}

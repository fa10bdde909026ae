package solanarpc

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/dwarvesf/walletpay-backend/internal/model"
)

// RPCClient is the subset of *rpc.Client the adapter needs, so tests can stub the cluster.
type RPCClient interface {
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	GetFeeForMessage(ctx context.Context, message string, commitment rpc.CommitmentType) (*rpc.GetFeeForMessageResult, error)
	SendTransactionWithOpts(ctx context.Context, transaction *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

type ISolanaRPC interface {
	Chain() model.Chain
	Networks() []string
	ValidateAddress(address string) error
	ValidateTxHash(txHash string) error
	NativeBalance(ctx context.Context, chainRef, address string) (*model.Web3BigInt, error)
	TokenBalance(ctx context.Context, chainRef string, token model.Token, address string) (*model.Web3BigInt, error)
	EstimateTransferFee(ctx context.Context, chainRef string) (*model.Web3BigInt, error)
	PrepareTransfer(ctx context.Context, intent model.TransferIntent) (*model.UnsignedTransfer, error)
	SubmitSignedTransaction(ctx context.Context, chainRef, payload string) (string, error)
	TransactionStatus(ctx context.Context, chainRef, txHash string) (model.TransactionStatus, error)
}

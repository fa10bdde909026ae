package evmrpc

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/dwarvesf/walletpay-backend/internal/model"
)

// EthClient is the subset of *ethclient.Client the adapter uses.
type EthClient interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

type IEvmRPC interface {
	Chain() model.Chain
	ChainIDs() []int64
	ValidateAddress(address string) error
	ValidateTxHash(txHash string) error
	NativeBalance(ctx context.Context, chainRef, address string) (*model.Web3BigInt, error)
	TokenBalance(ctx context.Context, chainRef string, token model.Token, address string) (*model.Web3BigInt, error)
	Allowance(ctx context.Context, chainRef string, token model.Token, owner, spender string) (*model.Web3BigInt, error)
	EstimateTransferFee(ctx context.Context, chainRef string) (*model.Web3BigInt, error)
	PrepareTransfer(ctx context.Context, intent model.TransferIntent) (*model.UnsignedTransfer, error)
	SubmitSignedTransaction(ctx context.Context, chainRef, payload string) (string, error)
	TransactionStatus(ctx context.Context, chainRef, txHash string) (model.TransactionStatus, error)
}

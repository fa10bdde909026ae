package evmrpc

import (
	"context"
	"math/big"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"

	"github.com/dwarvesf/walletpay-backend/contracts/erc20"
	"github.com/dwarvesf/walletpay-backend/internal/model"
	"github.com/dwarvesf/walletpay-backend/internal/utils/config"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
)

const (
	NativeDecimals = 18

	// gas limits used when eth_estimateGas is unavailable
	nativeTransferGas uint64 = 21000
	tokenTransferGas  uint64 = 65000
)

var (
	addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	txHashPattern  = regexp.MustCompile(`^0x[a-fA-F0-9]{64}$`)
)

type EvmRPC struct {
	clients map[int64]EthClient
	logger  *logger.Logger
}

// New dials one client per configured chain id.
func New(cfg config.EthereumConfig, logger *logger.Logger) (*EvmRPC, error) {
	clients := make(map[int64]EthClient, len(cfg.RPCEndpoints))
	for chainID, endpoint := range cfg.RPCEndpoints {
		client, err := ethclient.Dial(endpoint)
		if err != nil {
			return nil, errors.Wrapf(err, "dial evm chain %d", chainID)
		}
		clients[chainID] = client
	}

	return NewWithClients(clients, logger), nil
}

func NewWithClients(clients map[int64]EthClient, logger *logger.Logger) *EvmRPC {
	return &EvmRPC{
		clients: clients,
		logger:  logger,
	}
}

func (e *EvmRPC) Chain() model.Chain {
	return model.ChainEthereum
}

func (e *EvmRPC) ChainIDs() []int64 {
	ids := make([]int64, 0, len(e.clients))
	for id := range e.clients {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (e *EvmRPC) ValidateAddress(address string) error {
	if !addressPattern.MatchString(strings.TrimSpace(address)) {
		return errors.Wrapf(model.ErrInvalidAddress, "%q is not an EVM address", address)
	}
	return nil
}

func (e *EvmRPC) ValidateTxHash(txHash string) error {
	if !txHashPattern.MatchString(strings.TrimSpace(txHash)) {
		return errors.Wrapf(model.ErrInvalidTxHash, "%q is not a 32-byte hex hash", txHash)
	}
	return nil
}

func (e *EvmRPC) client(chainRef string) (EthClient, int64, error) {
	chainID, err := strconv.ParseInt(strings.TrimSpace(chainRef), 10, 64)
	if err != nil {
		return nil, 0, errors.Wrapf(model.ErrUnsupportedChainRef, "chain id %q", chainRef)
	}
	c, ok := e.clients[chainID]
	if !ok {
		return nil, 0, errors.Wrapf(model.ErrUnsupportedChainRef, "no rpc endpoint for chain id %d", chainID)
	}
	return c, chainID, nil
}

func (e *EvmRPC) NativeBalance(ctx context.Context, chainRef, address string) (*model.Web3BigInt, error) {
	if err := e.ValidateAddress(address); err != nil {
		return nil, err
	}
	c, _, err := e.client(chainRef)
	if err != nil {
		return nil, err
	}

	balance, err := c.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, errors.Wrap(err, "eth_getBalance")
	}
	return model.NewWeb3BigInt(balance, NativeDecimals), nil
}

func (e *EvmRPC) TokenBalance(ctx context.Context, chainRef string, token model.Token, address string) (*model.Web3BigInt, error) {
	if token.IsNative || model.IsNativeAddress(token.Address) {
		return e.NativeBalance(ctx, chainRef, address)
	}
	if err := e.ValidateAddress(address); err != nil {
		return nil, err
	}

	data, err := erc20.PackBalanceOf(common.HexToAddress(address))
	if err != nil {
		return nil, err
	}
	balance, err := e.callUint256(ctx, chainRef, token.Address, "balanceOf", data)
	if err != nil {
		return nil, err
	}
	return model.NewWeb3BigInt(balance, token.Decimals), nil
}

func (e *EvmRPC) Allowance(ctx context.Context, chainRef string, token model.Token, owner, spender string) (*model.Web3BigInt, error) {
	if err := e.ValidateAddress(owner); err != nil {
		return nil, err
	}
	if err := e.ValidateAddress(spender); err != nil {
		return nil, err
	}

	data, err := erc20.PackAllowance(common.HexToAddress(owner), common.HexToAddress(spender))
	if err != nil {
		return nil, err
	}
	allowance, err := e.callUint256(ctx, chainRef, token.Address, "allowance", data)
	if err != nil {
		return nil, err
	}
	return model.NewWeb3BigInt(allowance, token.Decimals), nil
}

func (e *EvmRPC) callUint256(ctx context.Context, chainRef, contract, method string, data []byte) (*big.Int, error) {
	if err := e.ValidateAddress(contract); err != nil {
		return nil, err
	}
	c, _, err := e.client(chainRef)
	if err != nil {
		return nil, err
	}

	to := common.HexToAddress(contract)
	out, err := c.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "call %s on %s", method, contract)
	}
	return erc20.UnpackUint256(method, out)
}

// EstimateTransferFee is gas price times the plain transfer gas limit. A failing
// gas price lookup yields a zero fee.
func (e *EvmRPC) EstimateTransferFee(ctx context.Context, chainRef string) (*model.Web3BigInt, error) {
	c, _, err := e.client(chainRef)
	if err != nil {
		return nil, err
	}

	gasPrice, err := c.SuggestGasPrice(ctx)
	if err != nil {
		e.logger.Error("[EstimateTransferFee][SuggestGasPrice]", map[string]string{
			"chain_ref": chainRef,
			"error":     err.Error(),
		})
		return model.ZeroWeb3BigInt(NativeDecimals), nil
	}

	fee := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(nativeTransferGas))
	return model.NewWeb3BigInt(fee, NativeDecimals), nil
}

func (e *EvmRPC) PrepareTransfer(ctx context.Context, intent model.TransferIntent) (*model.UnsignedTransfer, error) {
	if err := e.ValidateAddress(intent.From); err != nil {
		return nil, err
	}
	if err := e.ValidateAddress(intent.To); err != nil {
		return nil, err
	}
	c, chainID, err := e.client(intent.ChainRef)
	if err != nil {
		return nil, err
	}

	from := common.HexToAddress(intent.From)
	amount := intent.Amount.BigInt()

	native := intent.Token.IsNative || model.IsNativeAddress(intent.Token.Address)
	msg := ethereum.CallMsg{From: from}
	fallbackGas := nativeTransferGas
	if native {
		to := common.HexToAddress(intent.To)
		msg.To = &to
		msg.Value = amount
	} else {
		if err := e.ValidateAddress(intent.Token.Address); err != nil {
			return nil, err
		}
		data, err := erc20.PackTransfer(common.HexToAddress(intent.To), amount)
		if err != nil {
			return nil, err
		}
		tokenAddr := common.HexToAddress(intent.Token.Address)
		msg.To = &tokenAddr
		msg.Value = new(big.Int)
		msg.Data = data
		fallbackGas = tokenTransferGas
	}

	nonce, err := c.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, errors.Wrap(err, "eth_getTransactionCount")
	}

	gasPrice, err := c.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "eth_gasPrice")
	}

	gas, err := c.EstimateGas(ctx, msg)
	if err != nil {
		e.logger.Debug("[PrepareTransfer][EstimateGas] using fallback gas limit", map[string]string{
			"chain_ref": intent.ChainRef,
			"error":     err.Error(),
		})
		gas = fallbackGas
	}

	tx := &model.EVMTransaction{
		ChainID:  hexutil.EncodeBig(big.NewInt(chainID)),
		From:     from.Hex(),
		To:       msg.To.Hex(),
		Value:    hexutil.EncodeBig(msg.Value),
		Gas:      hexutil.EncodeUint64(gas),
		GasPrice: hexutil.EncodeBig(gasPrice),
		Nonce:    hexutil.EncodeUint64(nonce),
	}
	if len(msg.Data) > 0 {
		tx.Data = hexutil.Encode(msg.Data)
	}

	fee := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(gas))
	return &model.UnsignedTransfer{
		Chain:    model.ChainEthereum,
		ChainRef: intent.ChainRef,
		From:     from.Hex(),
		To:       common.HexToAddress(intent.To).Hex(),
		Amount:   intent.Amount.Format(),
		Currency: intent.Token.Symbol,
		Token:    intent.Token,
		Fee:      model.NewWeb3BigInt(fee, NativeDecimals),
		EVM:      tx,
	}, nil
}

// SubmitSignedTransaction broadcasts a 0x-prefixed RLP/typed transaction signed by the wallet.
func (e *EvmRPC) SubmitSignedTransaction(ctx context.Context, chainRef, payload string) (string, error) {
	c, chainID, err := e.client(chainRef)
	if err != nil {
		return "", err
	}

	raw, err := hexutil.Decode(strings.TrimSpace(payload))
	if err != nil {
		return "", errors.Wrap(model.ErrInvalidSignedTransaction, err.Error())
	}

	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return "", errors.Wrap(model.ErrInvalidSignedTransaction, err.Error())
	}
	if id := tx.ChainId(); id != nil && id.Sign() > 0 && id.Int64() != chainID {
		return "", errors.Wrapf(model.ErrInvalidSignedTransaction, "signed for chain %s, expected %d", id, chainID)
	}

	if err := c.SendTransaction(ctx, tx); err != nil {
		return "", errors.Wrap(err, "eth_sendRawTransaction")
	}

	e.logger.Info("[SubmitSignedTransaction] broadcast", map[string]string{
		"chain_ref": chainRef,
		"tx_hash":   tx.Hash().Hex(),
	})
	return tx.Hash().Hex(), nil
}

func (e *EvmRPC) TransactionStatus(ctx context.Context, chainRef, txHash string) (model.TransactionStatus, error) {
	if err := e.ValidateTxHash(txHash); err != nil {
		return "", err
	}
	c, _, err := e.client(chainRef)
	if err != nil {
		return "", err
	}

	receipt, err := c.TransactionReceipt(ctx, common.HexToHash(strings.TrimSpace(txHash)))
	if errors.Is(err, ethereum.NotFound) {
		return model.TransactionStatusPending, nil
	}
	if err != nil {
		return "", errors.Wrap(err, "eth_getTransactionReceipt")
	}

	if receipt.Status == types.ReceiptStatusSuccessful {
		return model.TransactionStatusConfirmed, nil
	}
	return model.TransactionStatusFailed, nil
}

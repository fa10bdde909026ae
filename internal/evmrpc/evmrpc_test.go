package evmrpc

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwarvesf/walletpay-backend/contracts/erc20"
	"github.com/dwarvesf/walletpay-backend/internal/model"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
)

const (
	sepolia   = "11155111"
	alice     = "0x1111111111111111111111111111111111111111"
	bob       = "0x2222222222222222222222222222222222222222"
	usdcToken = "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238"
)

type mockEthClient struct {
	balance     *big.Int
	balanceErr  error
	tokenOut    *big.Int
	gasPrice    *big.Int
	gasPriceErr error
	estimateErr error
	receipt     *types.Receipt
	receiptErr  error
	sent        []*types.Transaction
	lastCall    ethereum.CallMsg
}

func (m *mockEthClient) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return m.balance, m.balanceErr
}

func (m *mockEthClient) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	m.lastCall = msg
	return erc20.ABI().Methods["balanceOf"].Outputs.Pack(m.tokenOut)
}

func (m *mockEthClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return m.gasPrice, m.gasPriceErr
}

func (m *mockEthClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return 7, nil
}

func (m *mockEthClient) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	if m.estimateErr != nil {
		return 0, m.estimateErr
	}
	return 50000, nil
}

func (m *mockEthClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	m.sent = append(m.sent, tx)
	return nil
}

func (m *mockEthClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return m.receipt, m.receiptErr
}

func newTestRPC(m *mockEthClient) *EvmRPC {
	return NewWithClients(map[int64]EthClient{11155111: m}, logger.NewNop())
}

func TestEvmRPC_ValidateAddress(t *testing.T) {
	rpc := newTestRPC(&mockEthClient{})

	assert.NoError(t, rpc.ValidateAddress(alice))
	assert.ErrorIs(t, rpc.ValidateAddress("0x123"), model.ErrInvalidAddress)
	assert.ErrorIs(t, rpc.ValidateAddress("1111111111111111111111111111111111111111"), model.ErrInvalidAddress)
}

func TestEvmRPC_ValidateTxHash(t *testing.T) {
	rpc := newTestRPC(&mockEthClient{})

	assert.NoError(t, rpc.ValidateTxHash("0x"+strings.Repeat("ab", 32)))
	assert.NoError(t, rpc.ValidateTxHash(" 0x"+strings.Repeat("CD", 32)+" "))
	for _, hash := range []string{"", "not-a-hash", "0x1234", strings.Repeat("ab", 32), "0x" + strings.Repeat("zz", 32)} {
		assert.ErrorIs(t, rpc.ValidateTxHash(hash), model.ErrInvalidTxHash, hash)
	}
}

func TestEvmRPC_NativeBalance(t *testing.T) {
	rpc := newTestRPC(&mockEthClient{balance: big.NewInt(1500000000000000000)})

	bal, err := rpc.NativeBalance(context.Background(), sepolia, alice)
	require.NoError(t, err)
	assert.Equal(t, "1.5", bal.Format())

	_, err = rpc.NativeBalance(context.Background(), "1", alice)
	assert.ErrorIs(t, err, model.ErrUnsupportedChainRef)
}

func TestEvmRPC_TokenBalance(t *testing.T) {
	m := &mockEthClient{tokenOut: big.NewInt(2500000)}
	rpc := newTestRPC(m)

	token := model.Token{Address: usdcToken, Symbol: "USDC", Decimals: 6}
	bal, err := rpc.TokenBalance(context.Background(), sepolia, token, alice)
	require.NoError(t, err)
	assert.Equal(t, "2.5", bal.Format())
	assert.Equal(t, common.HexToAddress(usdcToken), *m.lastCall.To)
}

func TestEvmRPC_EstimateTransferFee(t *testing.T) {
	rpc := newTestRPC(&mockEthClient{gasPrice: big.NewInt(10_000_000_000)})

	fee, err := rpc.EstimateTransferFee(context.Background(), sepolia)
	require.NoError(t, err)
	assert.Equal(t, "210000000000000", fee.Value)

	failing := newTestRPC(&mockEthClient{gasPriceErr: errors.New("rpc down")})
	fee, err = failing.EstimateTransferFee(context.Background(), sepolia)
	require.NoError(t, err)
	assert.True(t, fee.IsZero())
}

func TestEvmRPC_PrepareTransfer(t *testing.T) {
	m := &mockEthClient{gasPrice: big.NewInt(2_000_000_000), estimateErr: errors.New("no estimate")}
	rpc := newTestRPC(m)

	amount, err := model.ParseAmount("0.01", 18)
	require.NoError(t, err)

	unsigned, err := rpc.PrepareTransfer(context.Background(), model.TransferIntent{
		ChainRef: sepolia,
		From:     alice,
		To:       bob,
		Token:    model.Token{Address: model.NativeTokenAddress, Symbol: "ETH", Decimals: 18, IsNative: true},
		Amount:   amount,
	})
	require.NoError(t, err)
	require.NotNil(t, unsigned.EVM)
	assert.Equal(t, "0xaa36a7", unsigned.EVM.ChainID)
	assert.Equal(t, common.HexToAddress(bob).Hex(), unsigned.EVM.To)
	assert.Equal(t, hexutil.EncodeBig(amount.BigInt()), unsigned.EVM.Value)
	assert.Equal(t, "0x5208", unsigned.EVM.Gas)
	assert.Equal(t, "0x7", unsigned.EVM.Nonce)
	assert.Empty(t, unsigned.EVM.Data)
	assert.Equal(t, "0.01", unsigned.Amount)

	tokenAmount, err := model.ParseAmount("5", 6)
	require.NoError(t, err)
	unsigned, err = rpc.PrepareTransfer(context.Background(), model.TransferIntent{
		ChainRef: sepolia,
		From:     alice,
		To:       bob,
		Token:    model.Token{Address: usdcToken, Symbol: "USDC", Decimals: 6},
		Amount:   tokenAmount,
	})
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(usdcToken).Hex(), unsigned.EVM.To)
	assert.Equal(t, "0x0", unsigned.EVM.Value)
	assert.Equal(t, "0xa9059cbb", unsigned.EVM.Data[:10])
	assert.Equal(t, hexutil.EncodeUint64(tokenTransferGas), unsigned.EVM.Gas)
}

func signedTx(t *testing.T, chainID int64) string {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	to := common.HexToAddress(bob)
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(chainID),
		Nonce:     1,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(2_000_000_000),
		Gas:       21000,
		To:        &to,
		Value:     big.NewInt(1),
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(big.NewInt(chainID)), key)
	require.NoError(t, err)

	raw, err := signed.MarshalBinary()
	require.NoError(t, err)
	return hexutil.Encode(raw)
}

func TestEvmRPC_SubmitSignedTransaction(t *testing.T) {
	m := &mockEthClient{}
	rpc := newTestRPC(m)

	hash, err := rpc.SubmitSignedTransaction(context.Background(), sepolia, signedTx(t, 11155111))
	require.NoError(t, err)
	require.Len(t, m.sent, 1)
	assert.Equal(t, m.sent[0].Hash().Hex(), hash)

	_, err = rpc.SubmitSignedTransaction(context.Background(), sepolia, signedTx(t, 1))
	assert.ErrorIs(t, err, model.ErrInvalidSignedTransaction)

	_, err = rpc.SubmitSignedTransaction(context.Background(), sepolia, "0xzz")
	assert.ErrorIs(t, err, model.ErrInvalidSignedTransaction)
	assert.Len(t, m.sent, 1)
}

func TestEvmRPC_TransactionStatus(t *testing.T) {
	hash := "0x" + strings.Repeat("ab", 32)

	pending := newTestRPC(&mockEthClient{receiptErr: ethereum.NotFound})
	status, err := pending.TransactionStatus(context.Background(), sepolia, hash)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionStatusPending, status)

	ok := newTestRPC(&mockEthClient{receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful}})
	status, err = ok.TransactionStatus(context.Background(), sepolia, hash)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionStatusConfirmed, status)

	reverted := newTestRPC(&mockEthClient{receipt: &types.Receipt{Status: types.ReceiptStatusFailed}})
	status, err = reverted.TransactionStatus(context.Background(), sepolia, hash)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionStatusFailed, status)

	_, err = ok.TransactionStatus(context.Background(), sepolia, "0x1234")
	assert.ErrorIs(t, err, model.ErrInvalidTxHash)
}

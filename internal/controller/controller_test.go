package controller

import (
	"context"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwarvesf/walletpay-backend/internal/events"
	"github.com/dwarvesf/walletpay-backend/internal/model"
	"github.com/dwarvesf/walletpay-backend/internal/store"
	"github.com/dwarvesf/walletpay-backend/internal/store/storetest"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
	"github.com/dwarvesf/walletpay-backend/internal/wallet"
	"github.com/dwarvesf/walletpay-backend/internal/wallet/wallettest"
)

const (
	sepolia    = "11155111"
	sepoliaUSD = "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238"
	alice      = "0x00000000000000000000000000000000000a11ce"
	bob        = "0x0000000000000000000000000000000000000b0b"
	treasury   = "0x000000000000000000000000000000000000beef"
)

type fixture struct {
	ctrl      *Controller
	evm       *wallettest.FakeAdapter
	sol       *wallettest.FakeAdapter
	records   *storetest.MemoryTransactionRecords
	overrides *storetest.MemoryWalletOverrides
	publisher *events.MockPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		evm:       wallettest.NewFakeAdapter(model.ChainEthereum),
		sol:       wallettest.NewFakeAdapter(model.ChainSolana),
		records:   storetest.NewMemoryTransactionRecords(),
		overrides: storetest.NewMemoryWalletOverrides(),
		publisher: events.NewMockPublisher(),
	}
	s := &store.Store{TransactionRecord: f.records, WalletOverride: f.overrides}
	f.ctrl = New(nil, s, wallet.NewAdapters(f.evm, f.sol), wallettest.DefaultTokens(), f.publisher, logger.NewNop())
	f.ctrl.now = func() time.Time { return time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC) }
	return f
}

func ether(n int64) *model.Web3BigInt {
	v := new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	return model.NewWeb3BigInt(v, 18)
}

func transfer(amount string) TransferRequest {
	return TransferRequest{
		Chain:        model.ChainEthereum,
		ChainRef:     sepolia,
		From:         alice,
		To:           bob,
		TokenAddress: model.NativeTokenAddress,
		Amount:       amount,
	}
}

func TestPrepareTransfer_InvalidAmountMakesNoChainCalls(t *testing.T) {
	for _, amount := range []string{"", "abc", "1,5", "-1", "1e18", " .5", "0", "0.0000000000000000001"} {
		t.Run(amount, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.ctrl.PrepareTransfer(context.Background(), transfer(amount))
			assert.ErrorIs(t, err, model.ErrInvalidAmount)
			assert.Zero(t, f.evm.TotalCalls())
		})
	}
}

func TestPrepareTransfer(t *testing.T) {
	f := newFixture(t)
	f.evm.NativeBalanceFn = func(string, string) (*model.Web3BigInt, error) { return ether(2), nil }

	unsigned, err := f.ctrl.PrepareTransfer(context.Background(), transfer("1.5"))
	require.NoError(t, err)
	assert.Equal(t, bob, unsigned.To)
	assert.Equal(t, "1.5", unsigned.Amount)
	assert.Equal(t, "ETH", unsigned.Currency)
	assert.Equal(t, 1, f.evm.Calls("PrepareTransfer"))
}

func TestPrepareTransfer_InsufficientBalance(t *testing.T) {
	f := newFixture(t)
	f.evm.NativeBalanceFn = func(string, string) (*model.Web3BigInt, error) { return ether(1), nil }

	_, err := f.ctrl.PrepareTransfer(context.Background(), transfer("1.5"))
	assert.ErrorIs(t, err, model.ErrInsufficientBalance)
	assert.Zero(t, f.evm.Calls("PrepareTransfer"))
}

func TestPrepareTransfer_TokenBalance(t *testing.T) {
	f := newFixture(t)
	f.evm.TokenBalanceFn = func(_ string, token model.Token, _ string) (*model.Web3BigInt, error) {
		return model.NewWeb3BigInt(big.NewInt(10_000_000), token.Decimals), nil
	}

	req := transfer("9.99")
	req.TokenAddress = "0x1C7D4B196CB0C7B01D743FBC6116A902379C7238"
	unsigned, err := f.ctrl.PrepareTransfer(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "USDC", unsigned.Currency)
	assert.Equal(t, 1, f.evm.Calls("TokenBalance"))
	assert.Zero(t, f.evm.Calls("NativeBalance"))

	req.Amount = "10.01"
	_, err = f.ctrl.PrepareTransfer(context.Background(), req)
	assert.ErrorIs(t, err, model.ErrInsufficientBalance)
}

func TestPrepareTransfer_Validation(t *testing.T) {
	f := newFixture(t)

	req := transfer("1")
	req.Chain = "bitcoin"
	_, err := f.ctrl.PrepareTransfer(context.Background(), req)
	assert.ErrorIs(t, err, model.ErrUnsupportedChain)

	req = transfer("1")
	req.TokenAddress = "0x0000000000000000000000000000000000000001"
	_, err = f.ctrl.PrepareTransfer(context.Background(), req)
	assert.ErrorIs(t, err, model.ErrTokenNotFound)

	req = transfer("1")
	req.To = "not valid"
	_, err = f.ctrl.PrepareTransfer(context.Background(), req)
	assert.ErrorIs(t, err, model.ErrInvalidAddress)

	req = transfer("1.1234567")
	req.TokenAddress = sepoliaUSD
	_, err = f.ctrl.PrepareTransfer(context.Background(), req)
	assert.ErrorIs(t, err, model.ErrInvalidAmount)
}

func TestOverride_ReplacesRecipient(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.evm.NativeBalanceFn = func(string, string) (*model.Web3BigInt, error) { return ether(5), nil }

	_, err := f.ctrl.SetOverride(ctx, OverrideRequest{Chain: model.ChainEthereum, Address: treasury, Enabled: true, UpdatedBy: "ops"})
	require.NoError(t, err)

	unsigned, err := f.ctrl.PrepareTransfer(ctx, transfer("1"))
	require.NoError(t, err)
	assert.Equal(t, treasury, unsigned.To)

	rec, err := f.ctrl.RecordTransfer(ctx, RecordTransferRequest{TransferRequest: transfer("1"), TxHash: "0xabc"})
	require.NoError(t, err)
	assert.Equal(t, treasury, rec.ToAddress)

	_, err = f.ctrl.SetOverride(ctx, OverrideRequest{Chain: model.ChainEthereum, Address: treasury, Enabled: false})
	require.NoError(t, err)

	unsigned, err = f.ctrl.PrepareTransfer(ctx, transfer("1"))
	require.NoError(t, err)
	assert.Equal(t, bob, unsigned.To)
}

func TestOverride_OtherChainUnaffected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.evm.NativeBalanceFn = func(string, string) (*model.Web3BigInt, error) { return ether(5), nil }

	_, err := f.ctrl.SetOverride(ctx, OverrideRequest{Chain: model.ChainSolana, Address: "So1anaTreasury", Enabled: true})
	require.NoError(t, err)

	unsigned, err := f.ctrl.PrepareTransfer(ctx, transfer("1"))
	require.NoError(t, err)
	assert.Equal(t, bob, unsigned.To)
}

func TestSetOverride_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.ctrl.SetOverride(ctx, OverrideRequest{Chain: model.ChainEthereum, Address: "", Enabled: true})
	assert.ErrorIs(t, err, model.ErrInvalidAddress)

	_, err = f.ctrl.SetOverride(ctx, OverrideRequest{Chain: "bitcoin"})
	assert.ErrorIs(t, err, model.ErrUnsupportedChain)

	got, err := f.ctrl.GetOverride(ctx, model.ChainSolana)
	require.NoError(t, err)
	assert.False(t, got.Enabled)
	assert.Equal(t, model.ChainSolana, got.Chain)

	list, err := f.ctrl.ListOverrides(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSubmitTransfer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.evm.SubmitFn = func(_, payload string) (string, error) { return "0xfeed", nil }

	rec, err := f.ctrl.SubmitTransfer(ctx, SubmitTransferRequest{TransferRequest: transfer("0.25"), SignedTransaction: "0x02f8"})
	require.NoError(t, err)
	assert.Equal(t, model.TransactionStatusPending, rec.Status)
	assert.Equal(t, "0xfeed", rec.TxHash)
	assert.Equal(t, "0.25", rec.Amount)
	assert.Equal(t, "ETH", rec.Currency)

	created := f.publisher.EventsOfType(events.EventTransactionCreated)
	require.Len(t, created, 1)
	assert.Equal(t, "0xfeed", created[0].TxHash)

	_, err = f.ctrl.SubmitTransfer(ctx, SubmitTransferRequest{TransferRequest: transfer("0.25")})
	assert.ErrorIs(t, err, model.ErrInvalidSignedTransaction)
}

func TestRecordTransfer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ts := time.Date(2024, 4, 30, 8, 0, 0, 0, time.UTC)

	rec, err := f.ctrl.RecordTransfer(ctx, RecordTransferRequest{TransferRequest: transfer("3"), TxHash: " 0xabc ", Timestamp: ts})
	require.NoError(t, err)
	assert.Equal(t, "0xabc", rec.TxHash)
	assert.Equal(t, ts, rec.Timestamp)
	assert.Zero(t, f.evm.TotalCalls())

	_, err = f.ctrl.RecordTransfer(ctx, RecordTransferRequest{TransferRequest: transfer("3"), TxHash: "0xabc"})
	assert.ErrorIs(t, err, model.ErrDuplicateTransaction)
	assert.Len(t, f.publisher.Events(), 1)

	_, err = f.ctrl.RecordTransfer(ctx, RecordTransferRequest{TransferRequest: transfer("3")})
	assert.Error(t, err)

	got, err := f.ctrl.GetTransaction(ctx, model.ChainEthereum, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	list, total, err := f.ctrl.ListTransactions(ctx, model.TransactionFilter{Chain: model.ChainEthereum, Address: alice})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, list, 1)

	_, _, err = f.ctrl.ListTransactions(ctx, model.TransactionFilter{Status: "lost"})
	assert.Error(t, err)
}

func TestEstimateFee(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	// 0.001 ETH
	f.evm.FeeFn = func(string) (*model.Web3BigInt, error) {
		return model.NewWeb3BigInt(big.NewInt(1_000_000_000_000_000), 18), nil
	}

	est, err := f.ctrl.EstimateFee(ctx, model.ChainEthereum, sepolia, "1.5")
	require.NoError(t, err)
	assert.Equal(t, "ETH", est.Symbol)
	assert.Equal(t, "0.001", est.Formatted)
	assert.Equal(t, "1.499", est.MaxSendable)

	est, err = f.ctrl.EstimateFee(ctx, model.ChainEthereum, sepolia, "0.0005")
	require.NoError(t, err)
	assert.Equal(t, "0", est.MaxSendable)

	est, err = f.ctrl.EstimateFee(ctx, model.ChainEthereum, sepolia, "")
	require.NoError(t, err)
	assert.Empty(t, est.MaxSendable)

	_, err = f.ctrl.EstimateFee(ctx, model.ChainEthereum, sepolia, "lots")
	assert.ErrorIs(t, err, model.ErrInvalidAmount)
}

func TestCheckAllowance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.evm.AllowanceFn = func(_ string, token model.Token, _, _ string) (*model.Web3BigInt, error) {
		return model.NewWeb3BigInt(big.NewInt(5_000_000), token.Decimals), nil
	}

	req := AllowanceRequest{
		Chain:        model.ChainEthereum,
		ChainRef:     sepolia,
		TokenAddress: sepoliaUSD,
		Owner:        alice,
		Spender:      bob,
		Amount:       "4",
	}
	res, err := f.ctrl.CheckAllowance(ctx, req)
	require.NoError(t, err)
	assert.False(t, res.NeedsApproval)

	req.Amount = "6"
	res, err = f.ctrl.CheckAllowance(ctx, req)
	require.NoError(t, err)
	assert.True(t, res.NeedsApproval)

	req.TokenAddress = model.NativeTokenAddress
	res, err = f.ctrl.CheckAllowance(ctx, req)
	require.NoError(t, err)
	assert.False(t, res.NeedsApproval)

	res, err = f.ctrl.CheckAllowance(ctx, AllowanceRequest{
		Chain:        model.ChainSolana,
		ChainRef:     "devnet",
		TokenAddress: model.NativeTokenAddress,
		Amount:       "1",
	})
	require.NoError(t, err)
	assert.True(t, res.NeedsApproval)
	assert.Zero(t, f.sol.TotalCalls())
}

func TestRecordTransfer_StoresAmountAsEntered(t *testing.T) {
	ctx := context.Background()

	for i, amount := range []string{"1.50", "007", "0.10", " 2.000 "} {
		f := newFixture(t)
		hash := "0xhash" + string(rune('a'+i))

		_, err := f.ctrl.RecordTransfer(ctx, RecordTransferRequest{TransferRequest: transfer(amount), TxHash: hash})
		require.NoError(t, err, amount)

		got, err := f.ctrl.GetTransaction(ctx, model.ChainEthereum, hash)
		require.NoError(t, err)
		assert.Equal(t, strings.TrimSpace(amount), got.Amount)
	}
}

func TestRecordTransfer_RejectsMalformedInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.evm.ValidateTxHashFn = func(txHash string) error {
		if !strings.HasPrefix(txHash, "0x") {
			return model.ErrInvalidTxHash
		}
		return nil
	}
	now := f.ctrl.now()

	_, err := f.ctrl.RecordTransfer(ctx, RecordTransferRequest{
		TransferRequest: transfer("1"),
		TxHash:          "not-a-hash",
		Timestamp:       now,
	})
	assert.ErrorIs(t, err, model.ErrInvalidTxHash)

	_, err = f.ctrl.RecordTransfer(ctx, RecordTransferRequest{
		TransferRequest: transfer("1"),
		TxHash:          "0xabc",
		Timestamp:       time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, model.ErrInvalidTimestamp)

	rec, err := f.ctrl.RecordTransfer(ctx, RecordTransferRequest{
		TransferRequest: transfer("1"),
		TxHash:          "0xabc",
		Timestamp:       now.Add(time.Minute),
	})
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Minute), rec.Timestamp)

	_, total, err := f.ctrl.ListTransactions(ctx, model.TransactionFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, f.publisher.Events(), 1)
}

type dbRecorder struct {
	ops []string
}

func (r *dbRecorder) RecordDatabaseOperation(operationType, status string, _ float64) {
	r.ops = append(r.ops, operationType+"/"+status)
}

func TestWithMetrics_RecordsStoreCalls(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	recorder := &dbRecorder{}
	f.ctrl.WithMetrics(recorder)

	_, err := f.ctrl.RecordTransfer(ctx, RecordTransferRequest{TransferRequest: transfer("1"), TxHash: "0xabc"})
	require.NoError(t, err)
	_, err = f.ctrl.GetTransaction(ctx, model.ChainEthereum, "0xmissing")
	assert.ErrorIs(t, err, model.ErrTransactionNotFound)
	_, err = f.ctrl.ListOverrides(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"wallet_override_get/success",
		"transaction_record_create/success",
		"transaction_record_get/success",
		"wallet_override_list/success",
	}, recorder.ops)
}

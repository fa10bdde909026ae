package solanarpc

import (
	"context"
	"encoding/base64"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwarvesf/walletpay-backend/internal/model"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
)

const devnet = "devnet"

type mockRPCClient struct {
	balance      uint64
	balanceErr   error
	accountErr   error
	tokenAmount  string
	fee          uint64
	statuses     []*rpc.SignatureStatusesResult
	sent         []*solana.Transaction
	balanceCalls int
}

func (m *mockRPCClient) GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error) {
	m.balanceCalls++
	if m.balanceErr != nil {
		return nil, m.balanceErr
	}
	return &rpc.GetBalanceResult{Value: m.balance}, nil
}

func (m *mockRPCClient) GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	if m.accountErr != nil {
		return nil, m.accountErr
	}
	return &rpc.GetAccountInfoResult{Value: &rpc.Account{Owner: solana.TokenProgramID}}, nil
}

func (m *mockRPCClient) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error) {
	return &rpc.GetTokenAccountBalanceResult{Value: &rpc.UiTokenAmount{Amount: m.tokenAmount, Decimals: 6}}, nil
}

func (m *mockRPCClient) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	return &rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{
			Blockhash:            solana.Hash{1, 2, 3},
			LastValidBlockHeight: 4242,
		},
	}, nil
}

func (m *mockRPCClient) GetFeeForMessage(ctx context.Context, message string, commitment rpc.CommitmentType) (*rpc.GetFeeForMessageResult, error) {
	fee := m.fee
	return &rpc.GetFeeForMessageResult{Value: &fee}, nil
}

func (m *mockRPCClient) SendTransactionWithOpts(ctx context.Context, transaction *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error) {
	m.sent = append(m.sent, transaction)
	return transaction.Signatures[0], nil
}

func (m *mockRPCClient) GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	return &rpc.GetSignatureStatusesResult{Value: m.statuses}, nil
}

func newTestRPC(m *mockRPCClient) *SolanaRPC {
	return NewWithClients(map[string]RPCClient{devnet: m}, logger.NewNop())
}

func newWallet(t *testing.T) solana.PrivateKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key
}

func TestSolanaRPC_ValidateAddress(t *testing.T) {
	rpcClient := newTestRPC(&mockRPCClient{})

	assert.NoError(t, rpcClient.ValidateAddress(newWallet(t).PublicKey().String()))
	assert.ErrorIs(t, rpcClient.ValidateAddress("0x1111111111111111111111111111111111111111"), model.ErrInvalidAddress)
}

func TestSolanaRPC_ValidateTxHash(t *testing.T) {
	rpcClient := newTestRPC(&mockRPCClient{})

	assert.NoError(t, rpcClient.ValidateTxHash(solana.Signature{7}.String()))
	assert.ErrorIs(t, rpcClient.ValidateTxHash("not-a-hash"), model.ErrInvalidTxHash)
	assert.ErrorIs(t, rpcClient.ValidateTxHash(""), model.ErrInvalidTxHash)
	assert.ErrorIs(t, rpcClient.ValidateTxHash("0x1234abcd"), model.ErrInvalidTxHash)

	_, err := rpcClient.TransactionStatus(context.Background(), devnet, "not-a-hash")
	assert.ErrorIs(t, err, model.ErrInvalidTxHash)
}

func TestSolanaRPC_NativeBalance(t *testing.T) {
	rpcClient := newTestRPC(&mockRPCClient{balance: 1_500_000_000})

	bal, err := rpcClient.NativeBalance(context.Background(), devnet, newWallet(t).PublicKey().String())
	require.NoError(t, err)
	assert.Equal(t, "1.5", bal.Format())

	_, err = rpcClient.NativeBalance(context.Background(), "testnet", newWallet(t).PublicKey().String())
	assert.ErrorIs(t, err, model.ErrUnsupportedChainRef)
}

func TestSolanaRPC_TokenBalance(t *testing.T) {
	mint := newWallet(t).PublicKey().String()
	usdc := model.Token{Address: mint, Symbol: "USDC", Decimals: 6}

	missing := newTestRPC(&mockRPCClient{accountErr: rpc.ErrNotFound})
	bal, err := missing.TokenBalance(context.Background(), devnet, usdc, newWallet(t).PublicKey().String())
	require.NoError(t, err)
	assert.True(t, bal.IsZero())

	funded := newTestRPC(&mockRPCClient{tokenAmount: "12500000"})
	bal, err = funded.TokenBalance(context.Background(), devnet, usdc, newWallet(t).PublicKey().String())
	require.NoError(t, err)
	assert.Equal(t, "12.5", bal.Format())
}

func TestSolanaRPC_PrepareNativeTransfer(t *testing.T) {
	rpcClient := newTestRPC(&mockRPCClient{fee: 5000})
	from := newWallet(t).PublicKey()
	to := newWallet(t).PublicKey()

	amount, err := model.ParseAmount("0.25", NativeDecimals)
	require.NoError(t, err)

	unsigned, err := rpcClient.PrepareTransfer(context.Background(), model.TransferIntent{
		ChainRef: devnet,
		From:     from.String(),
		To:       to.String(),
		Token:    model.Token{Address: model.NativeTokenAddress, Symbol: "SOL", Decimals: 9, IsNative: true},
		Amount:   amount,
	})
	require.NoError(t, err)
	require.NotNil(t, unsigned.Solana)
	assert.Equal(t, uint64(4242), unsigned.Solana.LastValidBlockHeight)
	assert.Equal(t, "5000", unsigned.Fee.Value)

	raw, err := base64.StdEncoding.DecodeString(unsigned.Solana.Transaction)
	require.NoError(t, err)
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	require.NoError(t, err)

	assert.Len(t, tx.Signatures, 1)
	assert.Equal(t, from, tx.Message.AccountKeys[0])
	assert.Equal(t, solana.Hash{1, 2, 3}, tx.Message.RecentBlockhash)
	require.Len(t, tx.Message.Instructions, 1)

	programID, err := tx.Message.Program(tx.Message.Instructions[0].ProgramIDIndex)
	require.NoError(t, err)
	assert.Equal(t, solana.SystemProgramID, programID)
}

func TestSolanaRPC_PrepareTokenTransferCreatesRecipientAccount(t *testing.T) {
	rpcClient := newTestRPC(&mockRPCClient{fee: 5000, accountErr: rpc.ErrNotFound})

	amount, err := model.ParseAmount("1", 6)
	require.NoError(t, err)

	unsigned, err := rpcClient.PrepareTransfer(context.Background(), model.TransferIntent{
		ChainRef: devnet,
		From:     newWallet(t).PublicKey().String(),
		To:       newWallet(t).PublicKey().String(),
		Token:    model.Token{Address: newWallet(t).PublicKey().String(), Symbol: "USDC", Decimals: 6},
		Amount:   amount,
	})
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(unsigned.Solana.Transaction)
	require.NoError(t, err)
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	require.NoError(t, err)
	assert.Len(t, tx.Message.Instructions, 2)
}

func signedTransfer(t *testing.T, key solana.PrivateKey) string {
	t.Helper()

	tx, err := solana.NewTransactionBuilder().
		AddInstruction(system.NewTransferInstruction(1000, key.PublicKey(), newWallet(t).PublicKey()).Build()).
		SetRecentBlockHash(solana.Hash{9}).
		SetFeePayer(key.PublicKey()).
		Build()
	require.NoError(t, err)

	_, err = tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		if pk.Equals(key.PublicKey()) {
			return &key
		}
		return nil
	})
	require.NoError(t, err)

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func TestSolanaRPC_SubmitSignedTransaction(t *testing.T) {
	m := &mockRPCClient{}
	rpcClient := newTestRPC(m)

	sig, err := rpcClient.SubmitSignedTransaction(context.Background(), devnet, signedTransfer(t, newWallet(t)))
	require.NoError(t, err)
	require.Len(t, m.sent, 1)
	assert.Equal(t, m.sent[0].Signatures[0].String(), sig)

	_, err = rpcClient.SubmitSignedTransaction(context.Background(), devnet, "not base64!")
	assert.ErrorIs(t, err, model.ErrInvalidSignedTransaction)
}

func TestSolanaRPC_SubmitRejectsUnsignedTransaction(t *testing.T) {
	m := &mockRPCClient{fee: 5000}
	rpcClient := newTestRPC(m)

	amount, err := model.ParseAmount("0.1", NativeDecimals)
	require.NoError(t, err)
	unsigned, err := rpcClient.PrepareTransfer(context.Background(), model.TransferIntent{
		ChainRef: devnet,
		From:     newWallet(t).PublicKey().String(),
		To:       newWallet(t).PublicKey().String(),
		Token:    model.Token{IsNative: true, Symbol: "SOL", Decimals: 9},
		Amount:   amount,
	})
	require.NoError(t, err)

	_, err = rpcClient.SubmitSignedTransaction(context.Background(), devnet, unsigned.Solana.Transaction)
	assert.ErrorIs(t, err, model.ErrInvalidSignedTransaction)
	assert.Empty(t, m.sent)
}

func TestSolanaRPC_TransactionStatus(t *testing.T) {
	sig := solana.Signature{7}.String()

	tests := []struct {
		name     string
		statuses []*rpc.SignatureStatusesResult
		want     model.TransactionStatus
	}{
		{name: "unknown signature", statuses: []*rpc.SignatureStatusesResult{nil}, want: model.TransactionStatusPending},
		{name: "processed", statuses: []*rpc.SignatureStatusesResult{{ConfirmationStatus: rpc.ConfirmationStatusProcessed}}, want: model.TransactionStatusPending},
		{name: "finalized", statuses: []*rpc.SignatureStatusesResult{{ConfirmationStatus: rpc.ConfirmationStatusFinalized}}, want: model.TransactionStatusConfirmed},
		{name: "errored", statuses: []*rpc.SignatureStatusesResult{{Err: map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}}}, want: model.TransactionStatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, err := newTestRPC(&mockRPCClient{statuses: tt.statuses}).TransactionStatus(context.Background(), devnet, sig)
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestFormatLamports(t *testing.T) {
	assert.Equal(t, "1.2345", FormatLamports(1_234_567_890))
	assert.Equal(t, "0.0000", FormatLamports(0))
}

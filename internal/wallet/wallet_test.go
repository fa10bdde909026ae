package wallet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwarvesf/walletpay-backend/internal/model"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
	"github.com/dwarvesf/walletpay-backend/internal/wallet/wallettest"
)

const (
	sepolia = "11155111"
	alice   = "0x1111111111111111111111111111111111111111"
	bob     = "0x2222222222222222222222222222222222222222"
)

func newManager(adapters ...ChainAdapter) *Manager {
	return NewManager(NewAdapters(adapters...), wallettest.DefaultTokens(), Options{
		RefreshAttempts: 3,
		RefreshDelay:    time.Millisecond,
	}, logger.NewNop())
}

func TestManager_ConnectPopulatesState(t *testing.T) {
	eth := wallettest.NewFakeAdapter(model.ChainEthereum)
	eth.NativeBalanceFn = func(chainRef, address string) (*model.Web3BigInt, error) {
		return &model.Web3BigInt{Value: "1250000000000000000", Decimal: 18}, nil
	}
	m := newManager(eth)

	state, err := m.Connect(context.Background(), ConnectRequest{
		Chain:      model.ChainEthereum,
		ChainRef:   sepolia,
		Address:    alice,
		WalletName: "MetaMask",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, state.SessionID)
	assert.True(t, state.Connected)
	assert.Equal(t, alice, state.Account)
	assert.Equal(t, "ETH", state.Symbol)
	assert.Equal(t, "1.25", state.Balance)
	assert.NotNil(t, state.LastRefreshedAt)
	assert.Empty(t, state.RefreshError)
	assert.Equal(t, 1, m.Count())
}

func TestManager_RefreshRetriesThreeTimesThenZero(t *testing.T) {
	eth := wallettest.NewFakeAdapter(model.ChainEthereum)
	eth.NativeBalanceFn = func(chainRef, address string) (*model.Web3BigInt, error) {
		return nil, errors.New("rpc unavailable")
	}
	m := newManager(eth)

	state, err := m.Connect(context.Background(), ConnectRequest{Chain: model.ChainEthereum, ChainRef: sepolia, Address: alice})
	require.NoError(t, err)

	assert.Equal(t, 3, eth.Calls("NativeBalance"))
	assert.Equal(t, "0", state.Balance)
	assert.Equal(t, "rpc unavailable", state.RefreshError)
	assert.True(t, state.Connected)
}

func TestManager_RefreshRecoversOnThirdAttempt(t *testing.T) {
	eth := wallettest.NewFakeAdapter(model.ChainEthereum)
	n := 0
	eth.NativeBalanceFn = func(chainRef, address string) (*model.Web3BigInt, error) {
		n++
		if n < 3 {
			return nil, errors.New("flaky")
		}
		return &model.Web3BigInt{Value: "1000000000000000000", Decimal: 18}, nil
	}
	m := newManager(eth)

	state, err := m.Connect(context.Background(), ConnectRequest{Chain: model.ChainEthereum, ChainRef: sepolia, Address: alice})
	require.NoError(t, err)
	assert.Equal(t, "1", state.Balance)
	assert.Empty(t, state.RefreshError)
}

func TestManager_RefreshStopsOnCancelledContext(t *testing.T) {
	eth := wallettest.NewFakeAdapter(model.ChainEthereum)
	eth.NativeBalanceFn = func(chainRef, address string) (*model.Web3BigInt, error) {
		return nil, errors.New("down")
	}
	m := NewManager(NewAdapters(eth), wallettest.DefaultTokens(), Options{RefreshAttempts: 3, RefreshDelay: time.Hour}, logger.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	state, err := m.Connect(ctx, ConnectRequest{Chain: model.ChainEthereum, ChainRef: sepolia, Address: alice})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotNil(t, state)
	assert.Equal(t, "0", state.Balance)
	assert.Equal(t, 1, eth.Calls("NativeBalance"))
}

func TestManager_ConnectRejectsBadInput(t *testing.T) {
	eth := wallettest.NewFakeAdapter(model.ChainEthereum)
	m := newManager(eth)

	_, err := m.Connect(context.Background(), ConnectRequest{Chain: model.ChainSolana, ChainRef: "devnet", Address: "x"})
	assert.ErrorIs(t, err, model.ErrUnsupportedChain)

	_, err = m.Connect(context.Background(), ConnectRequest{Chain: model.ChainEthereum, ChainRef: "1", Address: alice})
	assert.ErrorIs(t, err, model.ErrUnsupportedChainRef)

	_, err = m.Connect(context.Background(), ConnectRequest{Chain: model.ChainEthereum, ChainRef: sepolia, Address: ""})
	assert.ErrorIs(t, err, model.ErrInvalidAddress)

	assert.Equal(t, 0, eth.Calls("NativeBalance"))
	assert.Equal(t, 0, m.Count())
}

func TestManager_ChangeAccountAndDisconnect(t *testing.T) {
	eth := wallettest.NewFakeAdapter(model.ChainEthereum)
	eth.NativeBalanceFn = func(chainRef, address string) (*model.Web3BigInt, error) {
		if address == bob {
			return &model.Web3BigInt{Value: "2000000000000000000", Decimal: 18}, nil
		}
		return &model.Web3BigInt{Value: "1000000000000000000", Decimal: 18}, nil
	}
	m := newManager(eth)

	state, err := m.Connect(context.Background(), ConnectRequest{Chain: model.ChainEthereum, ChainRef: sepolia, Address: alice})
	require.NoError(t, err)

	state, err = m.ChangeAccount(context.Background(), state.SessionID, bob)
	require.NoError(t, err)
	assert.Equal(t, bob, state.Account)
	assert.Equal(t, "2", state.Balance)

	state, err = m.Disconnect(state.SessionID)
	require.NoError(t, err)
	assert.False(t, state.Connected)
	assert.Empty(t, state.Account)
	assert.Equal(t, "0", state.Balance)

	_, err = m.Get(state.SessionID)
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
	_, err = m.Disconnect(state.SessionID)
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
}

func TestManager_TokenBalancesFallBackToZero(t *testing.T) {
	eth := wallettest.NewFakeAdapter(model.ChainEthereum)
	eth.TokenBalanceFn = func(chainRef string, token model.Token, address string) (*model.Web3BigInt, error) {
		if token.IsNative {
			return &model.Web3BigInt{Value: "500000000000000000", Decimal: 18}, nil
		}
		return nil, errors.New("call reverted")
	}
	m := newManager(eth)

	state, err := m.Connect(context.Background(), ConnectRequest{Chain: model.ChainEthereum, ChainRef: sepolia, Address: alice})
	require.NoError(t, err)

	balances, err := m.TokenBalances(context.Background(), state.SessionID)
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, "0.5", balances[0].FormattedBalance)
	assert.Equal(t, "USDC", balances[1].Token.Symbol)
	assert.Equal(t, "0", balances[1].Balance)
}

func TestManager_SolanaBalanceHasFourDecimals(t *testing.T) {
	sol := wallettest.NewFakeAdapter(model.ChainSolana)
	sol.NativeBalanceFn = func(chainRef, address string) (*model.Web3BigInt, error) {
		return &model.Web3BigInt{Value: "1234567890", Decimal: 9}, nil
	}
	m := newManager(sol)

	state, err := m.Connect(context.Background(), ConnectRequest{Chain: model.ChainSolana, ChainRef: "devnet", Address: "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"})
	require.NoError(t, err)
	assert.Equal(t, "SOL", state.Symbol)
	assert.Equal(t, "1.2345", state.Balance)
}

func TestManager_RefreshAll(t *testing.T) {
	eth := wallettest.NewFakeAdapter(model.ChainEthereum)
	m := newManager(eth)

	for _, addr := range []string{alice, bob} {
		_, err := m.Connect(context.Background(), ConnectRequest{Chain: model.ChainEthereum, ChainRef: sepolia, Address: addr})
		require.NoError(t, err)
	}

	refreshed, err := m.RefreshAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, refreshed)
	assert.Equal(t, 4, eth.Calls("NativeBalance"))
}

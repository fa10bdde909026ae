// Package wallettest provides in-memory chain adapters for tests.
package wallettest

import (
	"context"
	"strings"
	"sync"

	"github.com/dwarvesf/walletpay-backend/internal/model"
)

// FakeAdapter records calls and answers from its function fields. Nil fields return zero values.
type FakeAdapter struct {
	ChainValue model.Chain

	NativeBalanceFn   func(chainRef, address string) (*model.Web3BigInt, error)
	TokenBalanceFn    func(chainRef string, token model.Token, address string) (*model.Web3BigInt, error)
	FeeFn             func(chainRef string) (*model.Web3BigInt, error)
	PrepareFn         func(intent model.TransferIntent) (*model.UnsignedTransfer, error)
	SubmitFn          func(chainRef, payload string) (string, error)
	StatusFn          func(chainRef, txHash string) (model.TransactionStatus, error)
	AllowanceFn       func(chainRef string, token model.Token, owner, spender string) (*model.Web3BigInt, error)
	ValidateAddressFn func(address string) error
	ValidateTxHashFn  func(txHash string) error

	mu    sync.Mutex
	calls map[string]int
}

func NewFakeAdapter(chain model.Chain) *FakeAdapter {
	return &FakeAdapter{ChainValue: chain, calls: map[string]int{}}
}

func (f *FakeAdapter) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
}

// Calls returns how many times method was invoked.
func (f *FakeAdapter) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// TotalCalls counts every chain call, address and hash validation excluded.
func (f *FakeAdapter) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for name, n := range f.calls {
		if name != "ValidateAddress" && name != "ValidateTxHash" {
			total += n
		}
	}
	return total
}

func (f *FakeAdapter) Chain() model.Chain {
	return f.ChainValue
}

// ValidateAddress accepts any non-empty address without spaces unless ValidateAddressFn is set.
func (f *FakeAdapter) ValidateAddress(address string) error {
	f.record("ValidateAddress")
	if f.ValidateAddressFn != nil {
		return f.ValidateAddressFn(address)
	}
	if address == "" || strings.ContainsAny(address, " \t") {
		return model.ErrInvalidAddress
	}
	return nil
}

// ValidateTxHash accepts any non-empty hash without spaces unless ValidateTxHashFn is set.
func (f *FakeAdapter) ValidateTxHash(txHash string) error {
	f.record("ValidateTxHash")
	if f.ValidateTxHashFn != nil {
		return f.ValidateTxHashFn(txHash)
	}
	if txHash == "" || strings.ContainsAny(txHash, " \t") {
		return model.ErrInvalidTxHash
	}
	return nil
}

func (f *FakeAdapter) NativeBalance(ctx context.Context, chainRef, address string) (*model.Web3BigInt, error) {
	f.record("NativeBalance")
	if f.NativeBalanceFn != nil {
		return f.NativeBalanceFn(chainRef, address)
	}
	return model.ZeroWeb3BigInt(18), nil
}

func (f *FakeAdapter) TokenBalance(ctx context.Context, chainRef string, token model.Token, address string) (*model.Web3BigInt, error) {
	f.record("TokenBalance")
	if f.TokenBalanceFn != nil {
		return f.TokenBalanceFn(chainRef, token, address)
	}
	return model.ZeroWeb3BigInt(token.Decimals), nil
}

func (f *FakeAdapter) EstimateTransferFee(ctx context.Context, chainRef string) (*model.Web3BigInt, error) {
	f.record("EstimateTransferFee")
	if f.FeeFn != nil {
		return f.FeeFn(chainRef)
	}
	return model.ZeroWeb3BigInt(18), nil
}

func (f *FakeAdapter) PrepareTransfer(ctx context.Context, intent model.TransferIntent) (*model.UnsignedTransfer, error) {
	f.record("PrepareTransfer")
	if f.PrepareFn != nil {
		return f.PrepareFn(intent)
	}
	return &model.UnsignedTransfer{
		Chain:    intent.Chain,
		ChainRef: intent.ChainRef,
		From:     intent.From,
		To:       intent.To,
		Amount:   intent.Amount.Format(),
		Currency: intent.Token.Symbol,
		Token:    intent.Token,
	}, nil
}

func (f *FakeAdapter) SubmitSignedTransaction(ctx context.Context, chainRef, payload string) (string, error) {
	f.record("SubmitSignedTransaction")
	if f.SubmitFn != nil {
		return f.SubmitFn(chainRef, payload)
	}
	return "hash-" + payload, nil
}

func (f *FakeAdapter) TransactionStatus(ctx context.Context, chainRef, txHash string) (model.TransactionStatus, error) {
	f.record("TransactionStatus")
	if f.StatusFn != nil {
		return f.StatusFn(chainRef, txHash)
	}
	return model.TransactionStatusPending, nil
}

func (f *FakeAdapter) Allowance(ctx context.Context, chainRef string, token model.Token, owner, spender string) (*model.Web3BigInt, error) {
	f.record("Allowance")
	if f.AllowanceFn != nil {
		return f.AllowanceFn(chainRef, token, owner, spender)
	}
	return model.ZeroWeb3BigInt(token.Decimals), nil
}

// StaticTokens is a fixed token list keyed by chain and chain_ref.
type StaticTokens map[model.Chain]map[string][]model.Token

func (s StaticTokens) Tokens(chain model.Chain, chainRef string) ([]model.Token, error) {
	tokens, ok := s[chain][chainRef]
	if !ok {
		return nil, model.ErrUnsupportedChainRef
	}
	return tokens, nil
}

func (s StaticTokens) NativeToken(chain model.Chain, chainRef string) (model.Token, error) {
	tokens, err := s.Tokens(chain, chainRef)
	if err != nil {
		return model.Token{}, err
	}
	for _, t := range tokens {
		if t.IsNative {
			return t, nil
		}
	}
	return model.Token{}, model.ErrTokenNotFound
}

func (s StaticTokens) TokenByAddress(chain model.Chain, chainRef, address string) (model.Token, error) {
	tokens, err := s.Tokens(chain, chainRef)
	if err != nil {
		return model.Token{}, err
	}
	if model.IsNativeAddress(address) {
		return s.NativeToken(chain, chainRef)
	}
	for _, t := range tokens {
		if t.SameAddress(address) {
			return t, nil
		}
	}
	return model.Token{}, model.ErrTokenNotFound
}

// DefaultTokens covers sepolia and solana devnet.
func DefaultTokens() StaticTokens {
	return StaticTokens{
		model.ChainEthereum: {
			"11155111": {
				{Address: model.NativeTokenAddress, Name: "Sepolia Ether", Symbol: "ETH", Decimals: 18, Chain: model.ChainEthereum, ChainRef: "11155111", IsNative: true},
				{Address: "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238", Name: "USD Coin", Symbol: "USDC", Decimals: 6, Chain: model.ChainEthereum, ChainRef: "11155111"},
			},
		},
		model.ChainSolana: {
			"devnet": {
				{Address: model.NativeTokenAddress, Name: "Solana", Symbol: "SOL", Decimals: 9, Chain: model.ChainSolana, ChainRef: "devnet", IsNative: true},
			},
		},
	}
}

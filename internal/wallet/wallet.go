package wallet

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dwarvesf/walletpay-backend/internal/model"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
)

const (
	DefaultRefreshAttempts = 3
	DefaultRefreshDelay    = time.Second

	zeroBalance = "0"
)

type ConnectRequest struct {
	Chain      model.Chain
	ChainRef   string
	Address    string
	WalletName string
}

type Options struct {
	RefreshAttempts int
	RefreshDelay    time.Duration
}

type session struct {
	mu    sync.Mutex
	state model.WalletState
}

// Manager tracks connected wallets and keeps their balance in sync with the chain.
type Manager struct {
	adapters *Adapters
	tokens   TokenLister
	logger   *logger.Logger
	attempts int
	delay    time.Duration
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
}

func NewManager(adapters *Adapters, tokens TokenLister, opts Options, logger *logger.Logger) *Manager {
	if opts.RefreshAttempts <= 0 {
		opts.RefreshAttempts = DefaultRefreshAttempts
	}
	if opts.RefreshDelay < 0 {
		opts.RefreshDelay = DefaultRefreshDelay
	}

	return &Manager{
		adapters: adapters,
		tokens:   tokens,
		logger:   logger,
		attempts: opts.RefreshAttempts,
		delay:    opts.RefreshDelay,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

func (m *Manager) Connect(ctx context.Context, req ConnectRequest) (*model.WalletState, error) {
	adapter, err := m.adapters.Get(req.Chain)
	if err != nil {
		return nil, err
	}
	native, err := m.tokens.NativeToken(req.Chain, req.ChainRef)
	if err != nil {
		return nil, err
	}

	address := strings.TrimSpace(req.Address)
	if err := adapter.ValidateAddress(address); err != nil {
		return nil, err
	}

	s := &session{state: model.WalletState{
		SessionID:   uuid.NewString(),
		Chain:       req.Chain,
		ChainRef:    req.ChainRef,
		WalletName:  req.WalletName,
		Account:     address,
		Symbol:      native.Symbol,
		Balance:     zeroBalance,
		Connected:   true,
		ConnectedAt: m.now().UTC(),
	}}

	m.mu.Lock()
	m.sessions[s.state.SessionID] = s
	m.mu.Unlock()

	m.logger.Info("[Connect] wallet connected", map[string]string{
		"session_id": s.state.SessionID,
		"chain":      req.Chain.String(),
		"chain_ref":  req.ChainRef,
		"account":    address,
		"wallet":     req.WalletName,
	})

	return m.refresh(ctx, s)
}

func (m *Manager) lookup(sessionID string) (*session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) Get(sessionID string) (*model.WalletState, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.state
	return &state, nil
}

func (m *Manager) RefreshBalance(ctx context.Context, sessionID string) (*model.WalletState, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return m.refresh(ctx, s)
}

// refresh tries the balance read up to m.attempts times with a fixed delay in between.
// When every attempt fails the balance becomes "0" and the last error is kept on the state.
func (m *Manager) refresh(ctx context.Context, s *session) (*model.WalletState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Account == "" {
		s.state.Balance = zeroBalance
		state := s.state
		return &state, nil
	}

	adapter, err := m.adapters.Get(s.state.Chain)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= m.attempts; attempt++ {
		balance, err := adapter.NativeBalance(ctx, s.state.ChainRef, s.state.Account)
		if err == nil {
			now := m.now().UTC()
			s.state.Balance = formatBalance(s.state.Chain, balance)
			s.state.LastRefreshedAt = &now
			s.state.RefreshError = ""
			state := s.state
			return &state, nil
		}

		lastErr = err
		m.logger.Error("[refresh][NativeBalance]", map[string]string{
			"session_id": s.state.SessionID,
			"chain":      s.state.Chain.String(),
			"account":    s.state.Account,
			"attempt":    strconv.Itoa(attempt),
			"error":      err.Error(),
		})

		if attempt == m.attempts {
			break
		}
		if waitErr := sleepCtx(ctx, m.delay); waitErr != nil {
			lastErr = waitErr
			break
		}
	}

	s.state.Balance = zeroBalance
	s.state.RefreshError = lastErr.Error()
	state := s.state
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &state, ctxErr
	}
	return &state, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RefreshAll refreshes every connected session and returns how many ended with a live balance.
func (m *Manager) RefreshAll(ctx context.Context) (int, error) {
	m.mu.RLock()
	sessions := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	refreshed := 0
	for _, s := range sessions {
		state, err := m.refresh(ctx, s)
		if err != nil {
			return refreshed, err
		}
		if state.RefreshError == "" {
			refreshed++
		}
	}
	return refreshed, nil
}

// ChangeAccount handles the wallet switching to another account.
func (m *Manager) ChangeAccount(ctx context.Context, sessionID, address string) (*model.WalletState, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	address = strings.TrimSpace(address)
	if err := m.adapters.ValidateAddress(s.state.Chain, address); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.state.Account = address
	s.state.Balance = zeroBalance
	s.mu.Unlock()

	m.logger.Info("[ChangeAccount]", map[string]string{
		"session_id": sessionID,
		"account":    address,
	})
	return m.refresh(ctx, s)
}

// ChangeChainRef handles the wallet switching network (EVM chainChanged, Solana cluster switch).
func (m *Manager) ChangeChainRef(ctx context.Context, sessionID, chainRef string) (*model.WalletState, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	native, err := m.tokens.NativeToken(s.state.Chain, chainRef)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.state.ChainRef = chainRef
	s.state.Symbol = native.Symbol
	s.state.Balance = zeroBalance
	s.mu.Unlock()

	return m.refresh(ctx, s)
}

func (m *Manager) Disconnect(sessionID string) (*model.WalletState, error) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	if !ok {
		return nil, model.ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Account = ""
	s.state.Balance = zeroBalance
	s.state.Connected = false
	state := s.state

	m.logger.Info("[Disconnect]", map[string]string{"session_id": sessionID})
	return &state, nil
}

// TokenBalances lists every registry token for the session's chain. A failed read shows "0".
func (m *Manager) TokenBalances(ctx context.Context, sessionID string) ([]model.TokenBalance, error) {
	state, err := m.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if !state.Connected || state.Account == "" {
		return nil, model.ErrWalletNotConnected
	}

	adapter, err := m.adapters.Get(state.Chain)
	if err != nil {
		return nil, err
	}
	tokens, err := m.tokens.Tokens(state.Chain, state.ChainRef)
	if err != nil {
		return nil, err
	}

	balances := make([]model.TokenBalance, 0, len(tokens))
	for _, token := range tokens {
		bal, err := adapter.TokenBalance(ctx, state.ChainRef, token, state.Account)
		if err != nil {
			m.logger.Debug("[TokenBalances][TokenBalance]", map[string]string{
				"token": token.Symbol,
				"error": err.Error(),
			})
			bal = model.ZeroWeb3BigInt(token.Decimals)
		}
		balances = append(balances, model.TokenBalance{
			Token:            token,
			Balance:          bal.Value,
			FormattedBalance: formatBalance(state.Chain, bal),
		})
	}
	return balances, nil
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Solana wallets display four decimals, EVM wallets the full ether value.
func formatBalance(chain model.Chain, balance *model.Web3BigInt) string {
	if balance == nil {
		return zeroBalance
	}
	if chain == model.ChainSolana {
		return balance.FormatFixed(4)
	}
	return balance.Format()
}

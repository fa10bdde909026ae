package tokenregistry

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/dwarvesf/walletpay-backend/internal/model"
	"github.com/dwarvesf/walletpay-backend/internal/store/customtoken"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
	"github.com/dwarvesf/walletpay-backend/internal/wallet"
)

//go:embed tokens.yaml
var builtinTokens []byte

// minListedTokens is the list size under which the native token is always prepended.
const minListedTokens = 5

type chainRef struct {
	chain model.Chain
	ref   string
}

type chainEntry struct {
	Chain       model.Chain   `yaml:"chain"`
	ChainRef    string        `yaml:"chain_ref"`
	Name        string        `yaml:"name"`
	Symbol      string        `yaml:"symbol"`
	Decimals    int           `yaml:"decimals"`
	RPCURL      string        `yaml:"rpc_url"`
	ExplorerURL string        `yaml:"explorer_url"`
	Testnet     bool          `yaml:"testnet"`
	Tokens      []model.Token `yaml:"tokens"`
}

func (c chainEntry) info() model.ChainInfo {
	return model.ChainInfo{
		Chain:       c.Chain,
		ChainRef:    c.ChainRef,
		Name:        c.Name,
		Symbol:      c.Symbol,
		Decimals:    c.Decimals,
		RPCURL:      c.RPCURL,
		ExplorerURL: c.ExplorerURL,
		Testnet:     c.Testnet,
	}
}

type document struct {
	Chains []chainEntry `yaml:"chains"`
}

// Registry serves the built-in token lists plus user-added custom tokens.
type Registry struct {
	db       *gorm.DB
	store    customtoken.IStore
	adapters *wallet.Adapters
	logger   *logger.Logger

	chains []chainEntry
	index  map[chainRef]int

	mu     sync.RWMutex
	custom map[chainRef][]model.Token
}

// New loads the embedded token list.
func New(db *gorm.DB, store customtoken.IStore, adapters *wallet.Adapters, logger *logger.Logger) (*Registry, error) {
	return NewFromYAML(builtinTokens, db, store, adapters, logger)
}

func NewFromYAML(data []byte, db *gorm.DB, store customtoken.IStore, adapters *wallet.Adapters, logger *logger.Logger) (*Registry, error) {
	chains, err := parse(data)
	if err != nil {
		return nil, err
	}

	r := &Registry{
		db:       db,
		store:    store,
		adapters: adapters,
		logger:   logger,
		chains:   chains,
		index:    make(map[chainRef]int, len(chains)),
		custom:   make(map[chainRef][]model.Token),
	}
	for i, c := range chains {
		r.index[chainRef{c.Chain, c.ChainRef}] = i
	}
	return r, nil
}

func parse(data []byte) ([]chainEntry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "decode token list")
	}

	seen := map[chainRef]bool{}
	for i := range doc.Chains {
		c := &doc.Chains[i]
		if !c.Chain.IsValid() {
			return nil, fmt.Errorf("chain %q: %w", c.Chain, model.ErrUnsupportedChain)
		}
		if c.ChainRef == "" {
			return nil, fmt.Errorf("chain %s: empty chain_ref", c.Chain)
		}
		key := chainRef{c.Chain, c.ChainRef}
		if seen[key] {
			return nil, fmt.Errorf("chain %s/%s declared twice", c.Chain, c.ChainRef)
		}
		seen[key] = true

		natives := 0
		addresses := map[string]bool{}
		for j := range c.Tokens {
			t := &c.Tokens[j]
			t.Chain = c.Chain
			t.ChainRef = c.ChainRef
			if err := validateToken(*t); err != nil {
				return nil, fmt.Errorf("chain %s/%s: %w", c.Chain, c.ChainRef, err)
			}
			addr := strings.ToLower(t.Address)
			if addresses[addr] {
				return nil, fmt.Errorf("chain %s/%s: token %s: %w", c.Chain, c.ChainRef, t.Address, model.ErrDuplicateToken)
			}
			addresses[addr] = true
			if t.IsNative {
				natives++
			}
		}
		if natives != 1 {
			return nil, fmt.Errorf("chain %s/%s: expected one native token, found %d", c.Chain, c.ChainRef, natives)
		}
	}
	return doc.Chains, nil
}

func validateToken(t model.Token) error {
	if strings.TrimSpace(t.Symbol) == "" {
		return fmt.Errorf("token %s: empty symbol", t.Address)
	}
	if t.Decimals < 0 || t.Decimals > model.MaxTokenDecimals {
		return fmt.Errorf("token %s: decimals %d out of range", t.Symbol, t.Decimals)
	}
	if strings.TrimSpace(t.Address) == "" {
		return fmt.Errorf("token %s: empty address", t.Symbol)
	}
	return nil
}

func (r *Registry) Chains() []model.ChainInfo {
	out := make([]model.ChainInfo, 0, len(r.chains))
	for _, c := range r.chains {
		out = append(out, c.info())
	}
	return out
}

func (r *Registry) Chain(chain model.Chain, ref string) (model.ChainInfo, error) {
	entry, err := r.entry(chain, ref)
	if err != nil {
		return model.ChainInfo{}, err
	}
	return entry.info(), nil
}

func (r *Registry) entry(chain model.Chain, ref string) (*chainEntry, error) {
	if !chain.IsValid() {
		return nil, model.ErrUnsupportedChain
	}
	i, ok := r.index[chainRef{chain, ref}]
	if !ok {
		return nil, model.ErrUnsupportedChainRef
	}
	return &r.chains[i], nil
}

// Tokens returns the built-in list followed by custom tokens.
func (r *Registry) Tokens(chain model.Chain, ref string) ([]model.Token, error) {
	entry, err := r.entry(chain, ref)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	custom := r.custom[chainRef{chain, ref}]
	tokens := make([]model.Token, 0, len(entry.Tokens)+len(custom))
	tokens = append(tokens, entry.Tokens...)
	tokens = append(tokens, custom...)
	r.mu.RUnlock()

	if len(tokens) < minListedTokens && !hasNative(tokens) {
		native, err := r.NativeToken(chain, ref)
		if err != nil {
			return nil, err
		}
		tokens = append([]model.Token{native}, tokens...)
	}
	return tokens, nil
}

func hasNative(tokens []model.Token) bool {
	for _, t := range tokens {
		if t.IsNative {
			return true
		}
	}
	return false
}

func (r *Registry) NativeToken(chain model.Chain, ref string) (model.Token, error) {
	entry, err := r.entry(chain, ref)
	if err != nil {
		return model.Token{}, err
	}
	for _, t := range entry.Tokens {
		if t.IsNative {
			return t, nil
		}
	}
	return model.Token{}, model.ErrTokenNotFound
}

// TokenByAddress matches case-insensitively. Native placeholders resolve to the native token.
func (r *Registry) TokenByAddress(chain model.Chain, ref, address string) (model.Token, error) {
	if model.IsNativeAddress(address) {
		return r.NativeToken(chain, ref)
	}
	tokens, err := r.Tokens(chain, ref)
	if err != nil {
		return model.Token{}, err
	}
	for _, t := range tokens {
		if t.SameAddress(address) {
			return t, nil
		}
	}
	return model.Token{}, model.ErrTokenNotFound
}

// AddCustomToken validates and persists a user token, then makes it visible in Tokens.
func (r *Registry) AddCustomToken(ctx context.Context, token model.Token) (model.Token, error) {
	token.Address = strings.TrimSpace(token.Address)
	token.Symbol = strings.TrimSpace(token.Symbol)
	token.IsNative = false
	token.Custom = true

	if _, err := r.entry(token.Chain, token.ChainRef); err != nil {
		return model.Token{}, err
	}
	if err := validateToken(token); err != nil {
		return model.Token{}, errors.Wrap(model.ErrInvalidToken, err.Error())
	}
	if model.IsNativeAddress(token.Address) {
		return model.Token{}, model.ErrDuplicateToken
	}
	if err := r.adapters.ValidateAddress(token.Chain, token.Address); err != nil {
		return model.Token{}, err
	}
	if _, err := r.TokenByAddress(token.Chain, token.ChainRef, token.Address); err == nil {
		return model.Token{}, model.ErrDuplicateToken
	}

	record := &model.CustomToken{
		Chain:    token.Chain,
		ChainRef: token.ChainRef,
		Address:  token.Address,
		Name:     token.Name,
		Symbol:   token.Symbol,
		Decimals: token.Decimals,
		LogoURI:  token.LogoURI,
	}
	if _, err := r.store.Create(r.tx(ctx), record); err != nil {
		r.logger.Error("[AddCustomToken][Create]", map[string]string{
			"chain":   string(token.Chain),
			"address": token.Address,
			"error":   err.Error(),
		})
		return model.Token{}, err
	}

	r.addCustom(record.ToToken())
	r.logger.Info("[AddCustomToken] custom token added", map[string]string{
		"chain":     string(token.Chain),
		"chain_ref": token.ChainRef,
		"symbol":    token.Symbol,
	})
	return record.ToToken(), nil
}

// LoadCustomTokens warms the in-memory lists from the store. Rows for unknown chains are skipped.
func (r *Registry) LoadCustomTokens(ctx context.Context) (int, error) {
	rows, err := r.store.ListAll(r.tx(ctx))
	if err != nil {
		return 0, err
	}

	loaded := 0
	for _, row := range rows {
		if _, err := r.entry(row.Chain, row.ChainRef); err != nil {
			r.logger.Warn("[LoadCustomTokens] skipping token for unknown chain", map[string]string{
				"chain":     string(row.Chain),
				"chain_ref": row.ChainRef,
			})
			continue
		}
		if r.addCustom(row.ToToken()) {
			loaded++
		}
	}
	return loaded, nil
}

func (r *Registry) addCustom(token model.Token) bool {
	key := chainRef{token.Chain, token.ChainRef}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.custom[key] {
		if t.SameAddress(token.Address) {
			return false
		}
	}
	r.custom[key] = append(r.custom[key], token)
	return true
}

func (r *Registry) tx(ctx context.Context) *gorm.DB {
	if r.db == nil {
		return nil
	}
	return r.db.WithContext(ctx)
}

package wallet

import (
	"github.com/dwarvesf/walletpay-backend/internal/model"
)

// Adapters holds one ChainAdapter per supported chain.
type Adapters struct {
	byChain map[model.Chain]ChainAdapter
}

func NewAdapters(adapters ...ChainAdapter) *Adapters {
	a := &Adapters{byChain: make(map[model.Chain]ChainAdapter, len(adapters))}
	for _, adapter := range adapters {
		a.byChain[adapter.Chain()] = adapter
	}
	return a
}

func (a *Adapters) Get(chain model.Chain) (ChainAdapter, error) {
	adapter, ok := a.byChain[chain]
	if !ok {
		return nil, model.ErrUnsupportedChain
	}
	return adapter, nil
}

func (a *Adapters) Chains() []model.Chain {
	chains := make([]model.Chain, 0, len(a.byChain))
	for _, c := range model.SupportedChains() {
		if _, ok := a.byChain[c]; ok {
			chains = append(chains, c)
		}
	}
	return chains
}

// ValidateAddress dispatches to the chain's adapter.
func (a *Adapters) ValidateAddress(chain model.Chain, address string) error {
	adapter, err := a.Get(chain)
	if err != nil {
		return err
	}
	return adapter.ValidateAddress(address)
}

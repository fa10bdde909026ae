package model

import "strings"

type Chain string

const (
	ChainEthereum Chain = "ethereum"
	ChainSolana   Chain = "solana"
)

// NativeTokenAddress marks the chain's native coin in token lists.
const NativeTokenAddress = "0xNative"

var supportedChains = []Chain{ChainEthereum, ChainSolana}

func SupportedChains() []Chain {
	out := make([]Chain, len(supportedChains))
	copy(out, supportedChains)
	return out
}

func ParseChain(s string) (Chain, error) {
	c := Chain(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", ErrUnsupportedChain
	}
	return c, nil
}

func (c Chain) IsValid() bool {
	for _, sc := range supportedChains {
		if sc == c {
			return true
		}
	}
	return false
}

func (c Chain) String() string {
	return string(c)
}

// IsNativeAddress reports whether addr refers to the native coin rather than a token contract/mint.
func IsNativeAddress(addr string) bool {
	switch strings.ToLower(strings.TrimSpace(addr)) {
	case "", strings.ToLower(NativeTokenAddress), "native":
		return true
	}
	return false
}

package model

import (
	"strings"

	"gorm.io/gorm"
)

type Token struct {
	Address  string `json:"address" yaml:"address"`
	Name     string `json:"name" yaml:"name"`
	Symbol   string `json:"symbol" yaml:"symbol"`
	Decimals int    `json:"decimals" yaml:"decimals"`
	Chain    Chain  `json:"chain" yaml:"-"`
	ChainRef string `json:"chain_ref" yaml:"-"`
	IsNative bool   `json:"is_native,omitempty" yaml:"native"`
	LogoURI  string `json:"logo_uri,omitempty" yaml:"logo_uri"`
	Custom   bool   `json:"custom,omitempty" yaml:"-"`
}

// SameAddress compares addresses case-insensitively.
func (t Token) SameAddress(addr string) bool {
	return strings.EqualFold(strings.TrimSpace(t.Address), strings.TrimSpace(addr))
}

type TokenBalance struct {
	Token            Token  `json:"token"`
	Balance          string `json:"balance"`
	FormattedBalance string `json:"formatted_balance"`
}

// CustomToken is a user-added token persisted per chain/chain_ref.
type CustomToken struct {
	gorm.Model
	Chain    Chain  `gorm:"column:chain;type:varchar(20);not null;uniqueIndex:idx_custom_tokens_ref_address" json:"chain"`
	ChainRef string `gorm:"column:chain_ref;type:varchar(50);not null;uniqueIndex:idx_custom_tokens_ref_address" json:"chain_ref"`
	Address  string `gorm:"column:address;type:varchar(255);not null;uniqueIndex:idx_custom_tokens_ref_address" json:"address"`
	Name     string `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Symbol   string `gorm:"column:symbol;type:varchar(50);not null" json:"symbol"`
	Decimals int    `gorm:"column:decimals;not null" json:"decimals"`
	LogoURI  string `gorm:"column:logo_uri;type:text" json:"logo_uri,omitempty"`
}

func (CustomToken) TableName() string {
	return "custom_tokens"
}

func (c CustomToken) ToToken() Token {
	return Token{
		Address:  c.Address,
		Name:     c.Name,
		Symbol:   c.Symbol,
		Decimals: c.Decimals,
		Chain:    c.Chain,
		ChainRef: c.ChainRef,
		LogoURI:  c.LogoURI,
		Custom:   true,
	}
}

type ChainInfo struct {
	Chain       Chain  `json:"chain"`
	ChainRef    string `json:"chain_ref"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    int    `json:"decimals"`
	RPCURL      string `json:"rpc_url,omitempty"`
	ExplorerURL string `json:"explorer_url,omitempty"`
	Testnet     bool   `json:"testnet"`
}

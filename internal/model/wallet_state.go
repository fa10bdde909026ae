package model

import "time"

type WalletState struct {
	SessionID       string     `json:"session_id"`
	Chain           Chain      `json:"chain"`
	ChainRef        string     `json:"chain_ref"`
	WalletName      string     `json:"wallet_name,omitempty"`
	Account         string     `json:"account,omitempty"`
	Symbol          string     `json:"symbol"`
	Balance         string     `json:"balance"`
	Connected       bool       `json:"connected"`
	ConnectedAt     time.Time  `json:"connected_at"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at,omitempty"`
	RefreshError    string     `json:"refresh_error,omitempty"`
}

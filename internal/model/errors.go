package model

import "errors"

var (
	ErrUnsupportedChain         = errors.New("unsupported chain")
	ErrUnsupportedChainRef      = errors.New("unsupported chain id or network")
	ErrInvalidAddress           = errors.New("invalid address")
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrInsufficientBalance      = errors.New("insufficient balance")
	ErrTokenNotFound            = errors.New("token not found")
	ErrDuplicateToken           = errors.New("token already registered")
	ErrInvalidToken             = errors.New("invalid token metadata")
	ErrSessionNotFound          = errors.New("wallet session not found")
	ErrWalletNotConnected       = errors.New("wallet not connected")
	ErrTransactionNotFound      = errors.New("transaction not found")
	ErrDuplicateTransaction     = errors.New("transaction already recorded")
	ErrInvalidStatusTransition  = errors.New("invalid transaction status transition")
	ErrInvalidSignedTransaction = errors.New("invalid signed transaction")
	ErrInvalidTxHash            = errors.New("invalid transaction hash")
	ErrInvalidTimestamp         = errors.New("invalid timestamp")
	ErrPriceUnavailable         = errors.New("price unavailable")
)

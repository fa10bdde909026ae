package store

import (
	"github.com/dwarvesf/walletpay-backend/internal/store/customtoken"
	"github.com/dwarvesf/walletpay-backend/internal/store/transactionrecord"
	"github.com/dwarvesf/walletpay-backend/internal/store/walletoverride"
)

type Store struct {
	TransactionRecord transactionrecord.IStore
	WalletOverride    walletoverride.IStore
	CustomToken       customtoken.IStore
}

func New() *Store {
	return &Store{
		TransactionRecord: transactionrecord.New(),
		WalletOverride:    walletoverride.New(),
		CustomToken:       customtoken.New(),
	}
}

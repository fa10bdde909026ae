package model

import (
	"time"

	"gorm.io/gorm"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusConfirmed TransactionStatus = "confirmed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusConfirmed || s == TransactionStatusFailed
}

func (s TransactionStatus) IsValid() bool {
	return s == TransactionStatusPending || s.IsTerminal()
}

// CanTransitionTo allows pending -> confirmed|failed only. Terminal states never change.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	return s == TransactionStatusPending && next.IsTerminal()
}

// TransactionRecord is the receipt written once a wallet returns a signature/hash.
type TransactionRecord struct {
	gorm.Model
	Chain         Chain             `gorm:"column:chain;type:varchar(20);not null;uniqueIndex:idx_transaction_records_chain_tx_hash" json:"chain"`
	ChainRef      string            `gorm:"column:chain_ref;type:varchar(50);not null" json:"chain_ref"`
	FromAddress   string            `gorm:"column:from_address;type:varchar(255);not null" json:"from"`
	ToAddress     string            `gorm:"column:to_address;type:varchar(255);not null" json:"to"`
	Amount        string            `gorm:"column:amount;type:varchar(100);not null" json:"amount"`
	Currency      string            `gorm:"column:currency;type:varchar(50);not null" json:"currency"`
	TokenAddress  string            `gorm:"column:token_address;type:varchar(255)" json:"token_address,omitempty"`
	TxHash        string            `gorm:"column:tx_hash;type:varchar(255);not null;uniqueIndex:idx_transaction_records_chain_tx_hash" json:"tx_hash"`
	Status        TransactionStatus `gorm:"column:status;type:varchar(20);not null;default:'pending';index" json:"status"`
	Timestamp     time.Time         `gorm:"column:timestamp;not null" json:"timestamp"`
	ConfirmedAt   *time.Time        `gorm:"column:confirmed_at" json:"confirmed_at,omitempty"`
	FailureReason string            `gorm:"column:failure_reason;type:text" json:"failure_reason,omitempty"`
	LastCheckedAt *time.Time        `gorm:"column:last_checked_at" json:"last_checked_at,omitempty"`
}

func (TransactionRecord) TableName() string {
	return "transaction_records"
}

type TransactionFilter struct {
	Chain   Chain
	Address string
	Status  TransactionStatus
	Limit   int
	Offset  int
}

package transactionrecord

import (
	"time"

	"gorm.io/gorm"

	"github.com/dwarvesf/walletpay-backend/internal/model"
)

type IStore interface {
	Create(tx *gorm.DB, record *model.TransactionRecord) (*model.TransactionRecord, error)
	GetByTxHash(tx *gorm.DB, chain model.Chain, txHash string) (*model.TransactionRecord, error)
	List(tx *gorm.DB, filter model.TransactionFilter) ([]model.TransactionRecord, int64, error)
	// ListPending returns pending records least recently checked first, never-checked ones leading.
	ListPending(tx *gorm.DB, limit int) ([]model.TransactionRecord, error)
	MarkChecked(tx *gorm.DB, ids []uint, at time.Time) error
	// Resolve moves a pending record to a terminal status. It returns false when the
	// record was no longer pending.
	Resolve(tx *gorm.DB, id uint, status model.TransactionStatus, reason string, at time.Time) (bool, error)
}

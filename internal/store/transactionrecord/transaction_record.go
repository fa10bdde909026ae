package transactionrecord

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/dwarvesf/walletpay-backend/internal/model"
)

const defaultListLimit = 50

type Store struct {
}

func New() IStore {
	return &Store{}
}

func (s *Store) Create(tx *gorm.DB, record *model.TransactionRecord) (*model.TransactionRecord, error) {
	err := tx.Create(record).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, model.ErrDuplicateTransaction
	}
	return record, err
}

func (s *Store) GetByTxHash(tx *gorm.DB, chain model.Chain, txHash string) (*model.TransactionRecord, error) {
	var record model.TransactionRecord
	err := tx.Where("chain = ? AND tx_hash = ?", chain, txHash).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Store) List(tx *gorm.DB, filter model.TransactionFilter) ([]model.TransactionRecord, int64, error) {
	q := tx.Model(&model.TransactionRecord{})
	if filter.Chain != "" {
		q = q.Where("chain = ?", filter.Chain)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if addr := strings.TrimSpace(filter.Address); addr != "" {
		q = q.Where("LOWER(from_address) = LOWER(?) OR LOWER(to_address) = LOWER(?)", addr, addr)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var records []model.TransactionRecord
	err := q.Order("timestamp DESC, id DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (s *Store) ListPending(tx *gorm.DB, limit int) ([]model.TransactionRecord, error) {
	var records []model.TransactionRecord
	q := tx.Where("status = ?", model.TransactionStatusPending).
		Order("last_checked_at ASC NULLS FIRST, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) MarkChecked(tx *gorm.DB, ids []uint, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Model(&model.TransactionRecord{}).
		Where("id IN ? AND status = ?", ids, model.TransactionStatusPending).
		Update("last_checked_at", at).Error
}

func (s *Store) Resolve(tx *gorm.DB, id uint, status model.TransactionStatus, reason string, at time.Time) (bool, error) {
	if !model.TransactionStatusPending.CanTransitionTo(status) {
		return false, model.ErrInvalidStatusTransition
	}

	updates := map[string]interface{}{
		"status":         status,
		"failure_reason": reason,
	}
	if status == model.TransactionStatusConfirmed {
		updates["confirmed_at"] = at
	}

	res := tx.Model(&model.TransactionRecord{}).
		Where("id = ? AND status = ?", id, model.TransactionStatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

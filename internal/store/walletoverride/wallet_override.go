package walletoverride

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dwarvesf/walletpay-backend/internal/model"
)

type Store struct {
}

func New() IStore {
	return &Store{}
}

func (s *Store) Get(tx *gorm.DB, chain model.Chain) (*model.WalletOverride, error) {
	var override model.WalletOverride
	err := tx.Where("chain = ?", chain).First(&override).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &override, nil
}

func (s *Store) Upsert(tx *gorm.DB, override *model.WalletOverride) (*model.WalletOverride, error) {
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chain"}},
		DoUpdates: clause.AssignmentColumns([]string{"address", "enabled", "updated_by", "updated_at"}),
	}).Create(override).Error
	if err != nil {
		return nil, err
	}
	return s.Get(tx, override.Chain)
}

func (s *Store) List(tx *gorm.DB) ([]model.WalletOverride, error) {
	var overrides []model.WalletOverride
	if err := tx.Order("chain ASC").Find(&overrides).Error; err != nil {
		return nil, err
	}
	return overrides, nil
}

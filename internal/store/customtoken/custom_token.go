package customtoken

import (
	"errors"

	"gorm.io/gorm"

	"github.com/dwarvesf/walletpay-backend/internal/model"
)

type Store struct {
}

func New() IStore {
	return &Store{}
}

func (s *Store) Create(tx *gorm.DB, token *model.CustomToken) (*model.CustomToken, error) {
	err := tx.Create(token).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, model.ErrDuplicateToken
	}
	return token, err
}

func (s *Store) List(tx *gorm.DB, chain model.Chain, chainRef string) ([]model.CustomToken, error) {
	var tokens []model.CustomToken
	err := tx.Where("chain = ? AND chain_ref = ?", chain, chainRef).
		Order("id ASC").
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (s *Store) ListAll(tx *gorm.DB) ([]model.CustomToken, error) {
	var tokens []model.CustomToken
	if err := tx.Order("id ASC").Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

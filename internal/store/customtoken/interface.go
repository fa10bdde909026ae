package customtoken

import (
	"gorm.io/gorm"

	"github.com/dwarvesf/walletpay-backend/internal/model"
)

type IStore interface {
	Create(tx *gorm.DB, token *model.CustomToken) (*model.CustomToken, error)
	List(tx *gorm.DB, chain model.Chain, chainRef string) ([]model.CustomToken, error)
	ListAll(tx *gorm.DB) ([]model.CustomToken, error)
}

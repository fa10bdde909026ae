package walletoverride

import (
	"gorm.io/gorm"

	"github.com/dwarvesf/walletpay-backend/internal/model"
)

type IStore interface {
	// Get returns nil without error when no override exists for chain.
	Get(tx *gorm.DB, chain model.Chain) (*model.WalletOverride, error)
	Upsert(tx *gorm.DB, override *model.WalletOverride) (*model.WalletOverride, error)
	List(tx *gorm.DB) ([]model.WalletOverride, error)
}

package model

import "time"

// WalletOverride is the admin-configured recipient that replaces user input when enabled.
type WalletOverride struct {
	Chain     Chain     `gorm:"column:chain;type:varchar(20);primaryKey" json:"chain"`
	Address   string    `gorm:"column:address;type:varchar(255);not null" json:"address"`
	Enabled   bool      `gorm:"column:enabled;not null;default:false" json:"enabled"`
	UpdatedBy string    `gorm:"column:updated_by;type:varchar(255)" json:"updated_by,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (WalletOverride) TableName() string {
	return "wallet_overrides"
}

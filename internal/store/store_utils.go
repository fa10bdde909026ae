package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// DoInTx runs fn inside a transaction. A panic in fn rolls back and is returned as an error.
func DoInTx(db *gorm.DB, fn func(tx *gorm.DB) error) (err error) {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			err = fmt.Errorf("transaction panicked: %v", r)
		}
	}()

	if err = fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// WithContext binds ctx to db. A nil db stays nil so in-memory stores can stand in for postgres.
func WithContext(ctx context.Context, db *gorm.DB) *gorm.DB {
	if db == nil {
		return nil
	}
	return db.WithContext(ctx)
}

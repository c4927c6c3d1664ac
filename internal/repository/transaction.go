package repository

import (
	"context"

	"gorm.io/gorm"
)

// Stores groups repositories bound to the same database handle or transaction.
type Stores struct {
	Activity ActivityLogRepository
	Security SecuritySettingsRepository
	Visual   VisualSettingsRepository
}

// Transactor runs work against repositories sharing a single transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(stores Stores) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

// NewTransactor constructs a transactor backed by gorm.
func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

// NewStores binds every repository to db.
func NewStores(db *gorm.DB) Stores {
	return Stores{
		Activity: NewActivityLogRepository(db),
		Security: NewSecuritySettingsRepository(db),
		Visual:   NewVisualSettingsRepository(db),
	}
}

func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(stores Stores) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStores(tx))
	})
}

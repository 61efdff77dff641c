// Package dbtest opens throwaway SQLite databases with the full schema for tests.
package dbtest

import (
	"fmt"

	activityDatamodel "github.com/frahmantamala/group-expenses/internal/core/datamodel/activity"
	expenseDatamodel "github.com/frahmantamala/group-expenses/internal/core/datamodel/expense"
	groupDatamodel "github.com/frahmantamala/group-expenses/internal/core/datamodel/group"
	paymentMethodDatamodel "github.com/frahmantamala/group-expenses/internal/core/datamodel/paymentmethod"
	transactionDatamodel "github.com/frahmantamala/group-expenses/internal/core/datamodel/transaction"
	userDatamodel "github.com/frahmantamala/group-expenses/internal/core/datamodel/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is one in-memory database reachable through both gorm and sqlx.
type DB struct {
	Gorm *gorm.DB
	SQLX *sqlx.DB
}

// Models lists every table of the schema.
func Models() []interface{} {
	return []interface{}{
		&userDatamodel.User{},
		&groupDatamodel.Group{},
		&groupDatamodel.UserGroup{},
		&expenseDatamodel.Expense{},
		&transactionDatamodel.Transaction{},
		&paymentMethodDatamodel.PaymentMethod{},
		&activityDatamodel.Activity{},
	}
}

// Open creates a named shared-cache in-memory database so every pooled
// connection sees the same data.
func Open() (*DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := gdb.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}

	return &DB{Gorm: gdb, SQLX: sqlx.NewDb(sqlDB, "sqlite3")}, nil
}

func (d *DB) Close() error {
	return d.SQLX.Close()
}

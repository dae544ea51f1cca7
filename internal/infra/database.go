package infra

import (
	"fmt"

	"salonledger/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the GORM connection, migrates every model and then applies
// the idempotent SQL patches GORM cannot express (partial unique index, checks).
// TranslateError is on so unique violations surface as gorm.ErrDuplicatedKey.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates or updates all tables and applies schema patches.
// Integration tests call it directly against a fresh container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Operator{},
		&model.Account{},
		&model.Movement{},
		&model.CashRegister{},
		&model.CashRegisterMovement{},
		&model.SaleInstallment{},
		&model.AccountPayable{},
		&model.RecurringExpense{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL. Each statement checks for the object
// first so re-running on an already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// At most one OPEN register per account, even under concurrent opens.
		{"open register per account", `
CREATE UNIQUE INDEX IF NOT EXISTS ux_cash_registers_open_account
    ON cash_registers (account_id)
    WHERE status = 'OPEN'`},
		{"movement amount positive", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_movements_amount_positive') THEN
    ALTER TABLE movements ADD CONSTRAINT chk_movements_amount_positive CHECK (amount > 0);
  END IF;
END $$`},
		{"movement direction", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_movements_direction') THEN
    ALTER TABLE movements ADD CONSTRAINT chk_movements_direction CHECK (direction IN ('IN', 'OUT'));
  END IF;
END $$`},
		{"adjustment amount positive", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_cash_register_movements_amount_positive') THEN
    ALTER TABLE cash_register_movements
      ADD CONSTRAINT chk_cash_register_movements_amount_positive CHECK (amount > 0);
  END IF;
END $$`},
		{"installment amount positive", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_sale_installments_amount_positive') THEN
    ALTER TABLE sale_installments ADD CONSTRAINT chk_sale_installments_amount_positive CHECK (amount > 0);
  END IF;
END $$`},
		// Projection reads pending installments by due date.
		{"pending installments by due date", `
CREATE INDEX IF NOT EXISTS idx_sale_installments_pending_due
    ON sale_installments (due_date)
    WHERE status = 'PENDING'`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}

package db

import (
	"context" // Cancellation for long migrations
	"fmt"     // Error wrapping

	"shinsen_rewards/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Models lists every table owned by the rewards service
func Models() []any {
	return []any{
		&domain.User{},
		&domain.Ledger{},
		&domain.PrizeEntry{},
		&domain.Voucher{},
		&domain.VoucherGrant{},
		&domain.DrawRecord{},
	}
}

// Migrate performs automatic migration for the database schema
func Migrate(ctx context.Context, db *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logrus.Info("Migration completed.")
	return nil
}

// Seed installs the default vouchers and, for every game whose prize table is
// still empty, the default prize table. Tables edited by an admin are left alone.
func Seed(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, v := range DefaultVouchers() {
			if err := tx.Where(domain.Voucher{Code: v.Code}).FirstOrCreate(&v).Error; err != nil {
				return fmt.Errorf("seed voucher %s: %w", v.Code, err)
			}
		}
		tables := DefaultPrizeTables()
		for _, mode := range domain.GameModes {
			var n int64
			if err := tx.Model(&domain.PrizeEntry{}).Where("game_mode = ?", mode).Count(&n).Error; err != nil {
				return fmt.Errorf("count %s prizes: %w", mode, err)
			}
			if n > 0 {
				logrus.WithFields(logrus.Fields{
					"game_mode": mode,
					"prizes":    n,
				}).Info("Prize table already present, skipping")
				continue
			}
			table := tables[mode]
			if err := tx.Create(&table).Error; err != nil {
				return fmt.Errorf("seed %s prizes: %w", mode, err)
			}
			logrus.WithFields(logrus.Fields{
				"game_mode": mode,
				"prizes":    len(table),
			}).Info("Seeded prize table")
		}
		return nil
	})
}

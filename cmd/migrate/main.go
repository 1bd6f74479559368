package main

import (
	"context" // Migration context
	"flag"    // Command line flags

	"shinsen_rewards/internal/config" // Custom import path (Config)
	"shinsen_rewards/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/driver/mysql"       // MySQL driver for GORM
	"gorm.io/gorm"               // GORM ORM library
)

// Main entry point for migration
func main() {
	seed := flag.Bool("seed", true, "install default vouchers and prize tables for empty games")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	conn, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}
	ctx := context.Background()
	if err := db.Migrate(ctx, conn); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}
	if !*seed {
		return
	}
	if err := db.Seed(ctx, conn); err != nil {
		logrus.Fatalf("seeding failed: %v", err)
	}
	logrus.Info("Seeding completed.")
}

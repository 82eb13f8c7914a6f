// Package sqlite provides SQLite database setup and configuration
package sqlite

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	gormModels "github.com/foodisave/backend/internal/infrastructure/persistence/gorm"
)

// SetupDatabase opens the SQLite file at dbPath and creates the schema. Foreign keys are
// switched on so cascade and set-null rules behave as on PostgreSQL.
func SetupDatabase(dbPath string, cfg *gorm.Config) (*gorm.DB, error) {
	if dbPath == "" {
		dbPath = "foodisave.db"
	}
	if cfg == nil {
		cfg = &gorm.Config{TranslateError: true}
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on&_busy_timeout=5000"), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// A single writer avoids "database is locked" under concurrent requests.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(gormModels.AllModels()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// SeedDatabase fills an empty catalog with a few demo recipes for local development.
func SeedDatabase(db *gorm.DB) error {
	var count int64
	if err := db.Model(&gormModels.RecipeModel{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	demo := []gormModels.RecipeModel{
		{
			Name:          "Kycklinggryta med curry",
			Ingredients:   "kycklingfilé, curry, grädde, lök, ris",
			CookTime:      strPtr("40 min"),
			Calories:      floatPtr(520),
			Protein:       floatPtr(38),
			Carbohydrates: floatPtr(45),
			Fat:           floatPtr(18),
		},
		{
			Name:          "Ugnsbakad lax med citron",
			Ingredients:   "laxfilé, citron, dill, potatis, smör",
			CookTime:      strPtr("30 min"),
			Calories:      floatPtr(480),
			Protein:       floatPtr(34),
			Carbohydrates: floatPtr(30),
			Fat:           floatPtr(22),
		},
		{
			Name:          "Köttbullar med potatismos",
			Ingredients:   "nötfärs, ströbröd, mjölk, ägg, potatis, lingon",
			CookTime:      strPtr("45 min"),
			Calories:      floatPtr(650),
			Protein:       floatPtr(32),
			Carbohydrates: floatPtr(55),
			Fat:           floatPtr(30),
		},
		{
			Name:          "Linsgryta med kokosmjölk",
			Ingredients:   "röda linser, kokosmjölk, krossade tomater, vitlök, ingefära",
			CookTime:      strPtr("35 min"),
			Calories:      floatPtr(410),
			Protein:       floatPtr(18),
			Carbohydrates: floatPtr(50),
			Fat:           floatPtr(14),
		},
	}

	if err := db.Create(&demo).Error; err != nil {
		return fmt.Errorf("failed to create demo recipes: %w", err)
	}
	return nil
}

func strPtr(s string) *string      { return &s }
func floatPtr(f float64) *float64 { return &f }

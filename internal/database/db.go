package database

import (
	"log"

	"mutfak-backend/internal/config"
	"mutfak-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Material{},
		&models.Product{},
		&models.PriceRecord{},
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.LedgerMovement{},
		&models.AuditLog{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate hatası: %v", err)
	}

	// Eski kayıtlarda is_active NULL kalmış olabilir; soft-delete sorguları
	// is_active üzerinden filtrelediği için backfill gerekli
	DB.Exec("UPDATE recipes SET is_active = true WHERE is_active IS NULL AND deleted_at IS NULL")
	DB.Exec("UPDATE price_records SET is_active = true WHERE is_active IS NULL AND deleted_at IS NULL")

	log.Println("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}

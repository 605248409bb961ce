package database

import (
	"fmt"

	"damacana-backend/internal/config"
	"damacana-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Init veritabanı bağlantısını açar ve migration'ları çalıştırır.
// Elde edilen handle bootstrap'te component'lere açıkça paslanır;
// paket seviyesinde global DB tutulmaz.
func Init(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		// unique ihlalleri gorm.ErrDuplicatedKey olarak dönsün
		// (teslim tekilliği buna dayanıyor)
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("veritabanına bağlanılamadı: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate tüm tabloları oluşturur/günceller. Testler de aynı şemayı
// in-memory sqlite üzerinde bu fonksiyonla kurar.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Driver{},
		&models.Customer{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Expense{},
		&models.LedgerEntry{},
		&models.CashHandover{},
		&models.DailyStats{},
		&models.DriverLocationHistory{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("AutoMigrate hatası: %w", err)
	}
	return nil
}

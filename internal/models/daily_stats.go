package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyStats - gün başına tek, türetilmiş istatistik kaydı.
//
// Aggregator tarafından yazılır, diğer her yere salt okunurdur. Aynı gün
// için tekrar çalıştırma upsert ile mevcut kaydın üzerine yazar (idempotent),
// asla ikinci satır oluşturmaz.
type DailyStats struct {
	ID               uint            `gorm:"primaryKey"`
	Date             time.Time       `gorm:"uniqueIndex;not null"` // yerel gece yarısı
	OrdersCompleted  int             `gorm:"not null;default:0"`
	TotalRevenue     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	CashCollected    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"` // sipariş tarafı beklenen nakit
	BottlesDelivered int             `gorm:"not null;default:0"`                    // damacana adedi
	DriversActive    int             `gorm:"not null;default:0"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

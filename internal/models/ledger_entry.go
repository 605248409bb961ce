package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry - sürücü kasa defterinde tek bir imzalı hareket.
//
// İşaret kuralı: negatif = sürücü şirkete borçlu (açık), pozitif = şirket sürücüye borçlu (fazla).
// Kayıtlar oluşturulduktan sonra asla değiştirilmez veya silinmez; düzeltme
// her zaman yeni bir kayıtla yapılır. balance_after her kayıtta bir önceki
// bakiye + amount olarak zincirlenir.
type LedgerEntry struct {
	ID              uint `gorm:"primaryKey"`
	DriverID        uint `gorm:"index:idx_ledger_driver_created,priority:1;not null"`
	Driver          Driver
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	BalanceAfter    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Description     string          `gorm:"size:255"`
	SourceReference string          `gorm:"size:100;index"` // "handover:<id>" / "adjustment:<user_id>"
	CreatedAt       time.Time       `gorm:"index:idx_ledger_driver_created,priority:2"`
}

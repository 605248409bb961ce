package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type HandoverStatus string

const (
	HandoverStatusPending  HandoverStatus = "PENDING"
	HandoverStatusVerified HandoverStatus = "VERIFIED"
	HandoverStatusRejected HandoverStatus = "REJECTED"
	HandoverStatusAdjusted HandoverStatus = "ADJUSTED"
)

// CashHandover - sürücünün gün sonunda saydığı nakdi teslim etmesi.
//
// (driver_id, date) başına en fazla bir kayıt olabilir; ikinci deneme
// veritabanı seviyesinde unique index ile reddedilir. expected_cash ve
// variance teslim anında hesaplanıp dondurulur, sonradan yeniden hesaplanmaz.
// Durum geçişleri sadece ileri yönlüdür: PENDING -> VERIFIED/REJECTED/ADJUSTED.
type CashHandover struct {
	ID               uint `gorm:"primaryKey"`
	DriverID         uint `gorm:"uniqueIndex:idx_handover_driver_date;not null"`
	Driver           Driver
	Date             time.Time        `gorm:"uniqueIndex:idx_handover_driver_date;not null"` // gün bazlı
	ActualCash       decimal.Decimal  `gorm:"type:decimal(12,2);not null"`                   // sürücünün saydığı
	ExpectedCash     decimal.Decimal  `gorm:"type:decimal(12,2);not null"`                   // teslim anında hesaplanan
	Variance         decimal.Decimal  `gorm:"type:decimal(12,2);not null"`                   // actual - expected
	Status           HandoverStatus   `gorm:"size:20;not null;index"`
	DriverNotes      string           `gorm:"size:255"`
	AdminNotes       string           `gorm:"size:255"`
	AdjustmentAmount *decimal.Decimal `gorm:"type:decimal(12,2)"` // ADJUSTED için admin'in belirlediği tutar
	ShiftStart       *time.Time
	ShiftEnd         *time.Time
	VerifiedByUserID *uint
	VerifiedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

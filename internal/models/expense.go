package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ExpenseStatus string

const (
	ExpenseStatusPending  ExpenseStatus = "pending"
	ExpenseStatusApproved ExpenseStatus = "approved"
	ExpenseStatusRejected ExpenseStatus = "rejected"
)

type ExpenseCategory string

const (
	ExpenseCategoryFuel    ExpenseCategory = "yakit"  // yakıt
	ExpenseCategoryVehicle ExpenseCategory = "arac"   // araç bakım/tamir
	ExpenseCategoryMeal    ExpenseCategory = "yemek"  // yemek
	ExpenseCategoryOther   ExpenseCategory = "diger"
)

// Expense - sürücünün gün içinde yaptığı harcama.
// Sadece APPROVED + nakit olanlar beklenen kasa hesabından düşülür.
type Expense struct {
	ID            uint `gorm:"primaryKey"`
	DriverID      uint `gorm:"index;not null"`
	Driver        Driver
	Date          time.Time       `gorm:"index;not null"` // gün bazlı
	Category      ExpenseCategory `gorm:"size:20;not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentMethod PaymentMethod   `gorm:"size:20;not null"` // cash ise kasadan ödenmiştir
	Status        ExpenseStatus   `gorm:"size:20;not null;index"`
	Description   string          `gorm:"size:255"`
	ReceiptNote   string          `gorm:"size:255"` // fiş/fatura no
	ReviewedBy    *uint
	ReviewedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

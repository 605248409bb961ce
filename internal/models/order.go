package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusAssigned       OrderStatus = "assigned"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusCompleted      OrderStatus = "completed"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"   // nakit - sürücünün üstünde toplanır
	PaymentMethodPOS    PaymentMethod = "pos"    // pos
	PaymentMethodCredit PaymentMethod = "credit" // veresiye / aylık fatura
)

type Order struct {
	ID            uint `gorm:"primaryKey"`
	CustomerID    uint `gorm:"index;not null"`
	Customer      Customer
	DriverID      *uint `gorm:"index"`
	Driver        *Driver
	ScheduledDate time.Time       `gorm:"index;not null"` // gün bazlı
	Status        OrderStatus     `gorm:"size:20;not null;index"`
	PaymentMethod PaymentMethod   `gorm:"size:20;not null"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DeliveredAt   *time.Time
	Notes         string `gorm:"size:255"`
	Items         []OrderItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type OrderItem struct {
	ID        uint `gorm:"primaryKey"`
	OrderID   uint `gorm:"index;not null"`
	ProductID uint `gorm:"index;not null"`
	Product   Product
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"` // sipariş anındaki fiyat
	LineTotal decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

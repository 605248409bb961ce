package models

import "time"

type Customer struct {
	ID          uint    `gorm:"primaryKey"`
	Name        string  `gorm:"size:100;not null;index"`
	Phone       string  `gorm:"size:20;index"`
	Address     string  `gorm:"size:255"`
	Latitude    float64 // teslimat noktası
	Longitude   float64
	BottleCount int    `gorm:"not null;default:0"` // müşterideki emanet damacana sayısı
	Notes       string `gorm:"size:255"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

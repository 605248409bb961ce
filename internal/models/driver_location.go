package models

import "time"

// DriverLocationHistory - sürücülerden gelen GPS ping'leri.
// Sadece eklenir; saklama süresi dolan kayıtlar Aggregator'ın temizlik
// adımı tarafından topluca silinir.
type DriverLocationHistory struct {
	ID         uint      `gorm:"primaryKey"`
	DriverID   uint      `gorm:"index;not null"`
	Latitude   float64   `gorm:"not null"`
	Longitude  float64   `gorm:"not null"`
	SpeedKmh   float64
	RecordedAt time.Time `gorm:"index;not null"`
	CreatedAt  time.Time
}

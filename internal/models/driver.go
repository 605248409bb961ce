package models

import "time"

// Driver - teslimat yapan sürücü profili. Kullanıcı hesabından ayrıdır;
// giriş yapan sürücü hesabı User.DriverID üzerinden buraya bağlanır.
type Driver struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"size:100;not null"`
	Phone        string `gorm:"size:20"`
	VehiclePlate string `gorm:"size:20"`
	Active       bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

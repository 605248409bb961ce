package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductCategory string

const (
	ProductCategoryDamacana ProductCategory = "damacana" // 19L damacana - şişe sayımına girer
	ProductCategorySu       ProductCategory = "su"       // pet şişe su
	ProductCategoryDiger    ProductCategory = "diger"    // sebil, pompa vs.
)

type Product struct {
	ID        uint            `gorm:"primaryKey"`
	Name      string          `gorm:"size:100;not null"`
	Category  ProductCategory `gorm:"size:20;not null;index"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Deposit   bool            `gorm:"default:false"` // depozitolu mu
	Active    bool            `gorm:"default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

package products

import (
	"damacana-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductRequest struct {
	Name      string                 `json:"name"`
	Category  models.ProductCategory `json:"category"`
	UnitPrice decimal.Decimal        `json:"unit_price"`
	Deposit   *bool                  `json:"deposit"`
	Active    *bool                  `json:"active"`
}

func validateCategory(cat models.ProductCategory) error {
	switch cat {
	case models.ProductCategoryDamacana, models.ProductCategorySu, models.ProductCategoryDiger:
		return nil
	}
	return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kategori (damacana|su|diger)")
}

// POST /api/products (admin)
func CreateProductHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "İsim zorunlu")
		}
		if err := validateCategory(body.Category); err != nil {
			return err
		}
		if !body.UnitPrice.IsPositive() {
			return fiber.NewError(fiber.StatusBadRequest, "Birim fiyat 0'dan büyük olmalı")
		}

		product := models.Product{
			Name:      body.Name,
			Category:  body.Category,
			UnitPrice: body.UnitPrice,
			Active:    true,
		}
		if body.Deposit != nil {
			product.Deposit = *body.Deposit
		}

		if err := db.Create(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": product})
	}
}

// GET /api/products (auth olan herkes)
func ListProductsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := db.Model(&models.Product{})

		if c.Query("all") != "1" {
			dbq = dbq.Where("active = ?", true)
		}

		var products []models.Product
		if err := dbq.Order("name asc").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler listelenemedi")
		}

		return c.JSON(products)
	}
}

// PUT /api/products/:id (admin)
func UpdateProductHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Ürün id geçersiz")
		}

		var product models.Product
		if err := db.First(&product, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		var body ProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.Name != "" {
			product.Name = body.Name
		}
		if body.Category != "" {
			if err := validateCategory(body.Category); err != nil {
				return err
			}
			product.Category = body.Category
		}
		if body.UnitPrice.IsPositive() {
			product.UnitPrice = body.UnitPrice
		}
		if body.Deposit != nil {
			product.Deposit = *body.Deposit
		}
		if body.Active != nil {
			product.Active = *body.Active
		}

		if err := db.Save(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün güncellenemedi")
		}

		return c.JSON(fiber.Map{"data": product})
	}
}

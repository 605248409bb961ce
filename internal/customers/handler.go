package customers

import (
	"damacana-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CustomerRequest struct {
	Name        string  `json:"name"`
	Phone       string  `json:"phone"`
	Address     string  `json:"address"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	BottleCount *int    `json:"bottle_count"`
	Notes       string  `json:"notes"`
}

// POST /api/customers (admin)
func CreateCustomerHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "İsim zorunlu")
		}

		customer := models.Customer{
			Name:      body.Name,
			Phone:     body.Phone,
			Address:   body.Address,
			Latitude:  body.Latitude,
			Longitude: body.Longitude,
			Notes:     body.Notes,
		}
		if body.BottleCount != nil {
			customer.BottleCount = *body.BottleCount
		}

		if err := db.Create(&customer).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteri oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": customer})
	}
}

// GET /api/customers?q=ahmet
func ListCustomersHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := db.Model(&models.Customer{})

		if q := c.Query("q"); q != "" {
			like := "%" + q + "%"
			dbq = dbq.Where("name LIKE ? OR phone LIKE ?", like, like)
		}

		var customers []models.Customer
		if err := dbq.Order("name asc").Limit(500).Find(&customers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteriler listelenemedi")
		}

		return c.JSON(customers)
	}
}

// GET /api/customers/:id
func GetCustomerHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Müşteri id geçersiz")
		}

		var customer models.Customer
		if err := db.First(&customer, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}

		return c.JSON(fiber.Map{"data": customer})
	}
}

// PUT /api/customers/:id (admin)
func UpdateCustomerHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Müşteri id geçersiz")
		}

		var customer models.Customer
		if err := db.First(&customer, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}

		var body CustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "İsim zorunlu")
		}

		customer.Name = body.Name
		customer.Phone = body.Phone
		customer.Address = body.Address
		customer.Latitude = body.Latitude
		customer.Longitude = body.Longitude
		customer.Notes = body.Notes
		if body.BottleCount != nil {
			customer.BottleCount = *body.BottleCount
		}

		if err := db.Save(&customer).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteri güncellenemedi")
		}

		return c.JSON(fiber.Map{"data": customer})
	}
}

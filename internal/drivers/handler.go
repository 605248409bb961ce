package drivers

import (
	"damacana-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type DriverRequest struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	VehiclePlate string `json:"vehicle_plate"`
	Active       *bool  `json:"active"`
}

// POST /api/drivers (admin)
func CreateDriverHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body DriverRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "İsim zorunlu")
		}

		driver := models.Driver{
			Name:         body.Name,
			Phone:        body.Phone,
			VehiclePlate: body.VehiclePlate,
			Active:       true,
		}

		if err := db.Create(&driver).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sürücü oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": driver})
	}
}

// GET /api/drivers (admin)
func ListDriversHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := db.Model(&models.Driver{})

		if c.Query("all") != "1" {
			dbq = dbq.Where("active = ?", true)
		}

		var drivers []models.Driver
		if err := dbq.Order("name asc").Find(&drivers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sürücüler listelenemedi")
		}

		return c.JSON(drivers)
	}
}

// PUT /api/drivers/:id (admin)
func UpdateDriverHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Sürücü id geçersiz")
		}

		var driver models.Driver
		if err := db.First(&driver, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sürücü bulunamadı")
		}

		var body DriverRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.Name != "" {
			driver.Name = body.Name
		}
		if body.Phone != "" {
			driver.Phone = body.Phone
		}
		if body.VehiclePlate != "" {
			driver.VehiclePlate = body.VehiclePlate
		}
		if body.Active != nil {
			driver.Active = *body.Active
		}

		if err := db.Save(&driver).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sürücü güncellenemedi")
		}

		return c.JSON(fiber.Map{"data": driver})
	}
}

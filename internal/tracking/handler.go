package tracking

import (
	"time"

	"damacana-backend/internal/auth"
	"damacana-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type PingRequest struct {
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	SpeedKmh   float64    `json:"speed_kmh"`
	RecordedAt *time.Time `json:"recorded_at"` // boşsa şimdi
}

type LatestPositionResponse struct {
	DriverID   uint      `json:"driver_id"`
	DriverName string    `json:"driver_name"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	SpeedKmh   float64   `json:"speed_kmh"`
	RecordedAt time.Time `json:"recorded_at"`
}

// POST /api/tracking/ping (sürücü) - GPS kaydı sadece eklenir;
// silme işi Aggregator'ın zamanlanmış temizliğine aittir.
func PingHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		driverID, err := auth.DriverIDFromCtx(c)
		if err != nil {
			return err
		}

		var body PingRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.Latitude < -90 || body.Latitude > 90 || body.Longitude < -180 || body.Longitude > 180 {
			return fiber.NewError(fiber.StatusBadRequest, "Koordinat geçersiz")
		}

		recordedAt := time.Now()
		if body.RecordedAt != nil {
			recordedAt = *body.RecordedAt
		}

		ping := models.DriverLocationHistory{
			DriverID:   driverID,
			Latitude:   body.Latitude,
			Longitude:  body.Longitude,
			SpeedKmh:   body.SpeedKmh,
			RecordedAt: recordedAt,
		}

		if err := db.Create(&ping).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Konum kaydedilemedi")
		}

		return c.SendStatus(fiber.StatusCreated)
	}
}

// GET /api/tracking/latest (admin) - aktif sürücülerin son bilinen konumu
func LatestPositionsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var activeDrivers []models.Driver
		if err := db.Where("active = ?", true).Find(&activeDrivers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sürücüler listelenemedi")
		}

		resp := make([]LatestPositionResponse, 0, len(activeDrivers))
		for _, drv := range activeDrivers {
			var last models.DriverLocationHistory
			err := db.Where("driver_id = ?", drv.ID).
				Order("recorded_at desc").
				First(&last).Error
			if err == gorm.ErrRecordNotFound {
				continue // hiç ping atmamış
			}
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Konumlar okunamadı")
			}
			resp = append(resp, LatestPositionResponse{
				DriverID:   drv.ID,
				DriverName: drv.Name,
				Latitude:   last.Latitude,
				Longitude:  last.Longitude,
				SpeedKmh:   last.SpeedKmh,
				RecordedAt: last.RecordedAt,
			})
		}

		return c.JSON(resp)
	}
}

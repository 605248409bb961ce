package reports

import (
	"fmt"
	"time"

	"damacana-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// GET /api/reports/daily-stats/export?from=2025-12-01&to=2025-12-31 (admin)
// Günlük istatistikleri Excel olarak indirir.
func ExportDailyStatsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := db.Model(&models.DailyStats{})

		if fromStr := c.Query("from"); fromStr != "" {
			from, err := time.ParseInLocation("2006-01-02", fromStr, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from tarihi geçersiz")
			}
			dbq = dbq.Where("date >= ?", from)
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.ParseInLocation("2006-01-02", toStr, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to tarihi geçersiz")
			}
			dbq = dbq.Where("date <= ?", to)
		}

		var stats []models.DailyStats
		if err := dbq.Order("date asc").Find(&stats).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İstatistikler okunamadı")
		}

		f := excelize.NewFile()
		defer f.Close()

		sheet := "Günlük İstatistik"
		f.SetSheetName("Sheet1", sheet)

		headers := []string{"Tarih", "Tamamlanan Sipariş", "Ciro", "Beklenen Nakit", "Damacana", "Aktif Sürücü"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}

		for row, s := range stats {
			values := []interface{}{
				s.Date.Format("2006-01-02"),
				s.OrdersCompleted,
				s.TotalRevenue.StringFixed(2),
				s.CashCollected.StringFixed(2),
				s.BottlesDelivered,
				s.DriversActive,
			}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
				f.SetCellValue(sheet, cell, v)
			}
		}

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Excel dosyası oluşturulamadı")
		}

		filename := fmt.Sprintf("gunluk-istatistik-%s.xlsx", time.Now().Format("2006-01-02"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
		return c.Send(buf.Bytes())
	}
}

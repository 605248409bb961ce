package dashboard

import (
	"time"

	"damacana-backend/internal/models"
	"damacana-backend/internal/reconcile"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SummaryResponse struct {
	Date             string          `json:"date"`
	OrdersTotal      int64           `json:"orders_total"`
	OrdersCompleted  int64           `json:"orders_completed"`
	Revenue          decimal.Decimal `json:"revenue"`
	PendingHandovers int64           `json:"pending_handovers"`
	PendingExpenses  int64           `json:"pending_expenses"`
	ActiveDrivers    int64           `json:"active_drivers"`
}

// GET /api/dashboard/summary (admin) - bugünün canlı özeti.
// DailyStats'tan farkı: bu anlık sorgu, o ise dondurulmuş gün sonu kaydı.
func SummaryHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start, end := reconcile.DayRange(time.Now())

		resp := SummaryResponse{Date: start.Format("2006-01-02")}

		if err := db.Model(&models.Order{}).
			Where("scheduled_date >= ? AND scheduled_date < ?", start, end).
			Count(&resp.OrdersTotal).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Siparişler sayılamadı")
		}

		var completedRow struct {
			Cnt   int64
			Total decimal.Decimal
		}
		if err := db.Model(&models.Order{}).
			Select("COUNT(*) as cnt, COALESCE(SUM(total_amount),0) as total").
			Where("status = ? AND scheduled_date >= ? AND scheduled_date < ?",
				models.OrderStatusCompleted, start, end).
			Scan(&completedRow).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ciro hesaplanamadı")
		}
		resp.OrdersCompleted = completedRow.Cnt
		resp.Revenue = completedRow.Total

		if err := db.Model(&models.CashHandover{}).
			Where("status = ?", models.HandoverStatusPending).
			Count(&resp.PendingHandovers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Teslimler sayılamadı")
		}

		if err := db.Model(&models.Expense{}).
			Where("status = ?", models.ExpenseStatusPending).
			Count(&resp.PendingExpenses).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Harcamalar sayılamadı")
		}

		if err := db.Model(&models.Driver{}).
			Where("active = ?", true).
			Count(&resp.ActiveDrivers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sürücüler sayılamadı")
		}

		return c.JSON(resp)
	}
}

package aggregator

import (
	"crypto/subtle"
	"strconv"
	"time"

	"damacana-backend/internal/config"
	"damacana-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type CleanupResult struct {
	DeletedRecords int64  `json:"deleted_records"`
	Error          string `json:"error,omitempty"`
}

type AggregateResponse struct {
	RunID   string        `json:"run_id"`
	Days    []DayResult   `json:"days"`
	Cleanup CleanupResult `json:"cleanup"`
}

// POST /api/cron/aggregate-stats?date=2025-12-09 veya ?backfill=7
//
// Zamanlayıcıdan X-Cron-Secret header'ı ile çağrılır; JWT akışının
// dışındadır. Parametresiz çağrı dünü toplar. Temizlik adımı toplama
// başarısız olsa da koşulsuz çalışır - iki adım bağımsız hata alanları.
func AggregateStatsHandler(cfg *config.Config, agg *Aggregator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		secret := c.Get("X-Cron-Secret")
		if secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(cfg.CronSecret)) != 1 {
			return fiber.NewError(fiber.StatusUnauthorized, "Geçersiz cron secret")
		}

		runID := uuid.NewString()
		log := logrus.WithField("run_id", runID)

		var days []DayResult

		if backfillStr := c.Query("backfill"); backfillStr != "" {
			n, err := strconv.Atoi(backfillStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "backfill sayı olmalı")
			}
			days, err = agg.Backfill(n, cfg.BackfillMaxDays)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		} else {
			// tek gün: verilen tarih ya da dün
			day := time.Now().AddDate(0, 0, -1)
			if dStr := c.Query("date"); dStr != "" {
				d, err := time.ParseInLocation("2006-01-02", dStr, time.Local)
				if err != nil {
					return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı geçersiz, 'YYYY-MM-DD' olmalı")
				}
				day = d
			}

			stats, err := agg.AggregateDailyStats(day)
			if err != nil {
				log.WithError(err).Error("günlük toplama başarısız")
				days = []DayResult{{Date: day.Format("2006-01-02"), Error: err.Error()}}
			} else {
				days = []DayResult{{Date: stats.Date.Format("2006-01-02"), Stats: stats}}
			}
		}

		// Temizlik her durumda çalışır
		cleanup := CleanupResult{}
		deleted, err := agg.CleanupOldLocationHistory()
		if err != nil {
			log.WithError(err).Error("GPS temizliği başarısız")
			cleanup.Error = err.Error()
		} else {
			cleanup.DeletedRecords = deleted
		}

		ok := 0
		for _, d := range days {
			if d.Error == "" {
				ok++
			}
		}
		log.WithFields(logrus.Fields{
			"days_total":      len(days),
			"days_ok":         ok,
			"cleanup_deleted": cleanup.DeletedRecords,
		}).Info("zamanlanmış toplama tamamlandı")

		return c.JSON(AggregateResponse{
			RunID:   runID,
			Days:    days,
			Cleanup: cleanup,
		})
	}
}

type DailyStatsResponse struct {
	Date             string `json:"date"`
	OrdersCompleted  int    `json:"orders_completed"`
	TotalRevenue     string `json:"total_revenue"`
	CashCollected    string `json:"cash_collected"`
	BottlesDelivered int    `json:"bottles_delivered"`
	DriversActive    int    `json:"drivers_active"`
}

// GET /api/daily-stats?from=2025-12-01&to=2025-12-31 (admin)
func ListDailyStatsHandler(db *gorm.DB) fiber.Handler {
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
		if err := dbq.Order("date desc").Limit(366).Find(&stats).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İstatistikler listelenemedi")
		}

		resp := make([]DailyStatsResponse, 0, len(stats))
		for _, s := range stats {
			resp = append(resp, DailyStatsResponse{
				Date:             s.Date.Format("2006-01-02"),
				OrdersCompleted:  s.OrdersCompleted,
				TotalRevenue:     s.TotalRevenue.StringFixed(2),
				CashCollected:    s.CashCollected.StringFixed(2),
				BottlesDelivered: s.BottlesDelivered,
				DriversActive:    s.DriversActive,
			})
		}

		return c.JSON(resp)
	}
}

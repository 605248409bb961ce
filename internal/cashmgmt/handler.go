package cashmgmt

import (
	"fmt"
	"strconv"
	"time"

	"damacana-backend/internal/audit"
	"damacana-backend/internal/auth"
	"damacana-backend/internal/models"
	"damacana-backend/internal/reconcile"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type SubmitRequest struct {
	Date        string           `json:"date"` // "2025-12-09", boşsa bugün
	ActualCash  decimal.Decimal  `json:"actual_cash"`
	DriverNotes string           `json:"driver_notes"`
	ShiftStart  *time.Time       `json:"shift_start"`
	ShiftEnd    *time.Time       `json:"shift_end"`
}

type ReviewRequest struct {
	Status           models.HandoverStatus `json:"status"` // VERIFIED | REJECTED | ADJUSTED
	AdminNotes       string                `json:"admin_notes"`
	AdjustmentAmount *decimal.Decimal      `json:"adjustment_amount"`
}

type HandoverResponse struct {
	ID               uint                  `json:"id"`
	DriverID         uint                  `json:"driver_id"`
	DriverName       string                `json:"driver_name,omitempty"`
	Date             string                `json:"date"`
	ActualCash       decimal.Decimal       `json:"actual_cash"`
	ExpectedCash     decimal.Decimal       `json:"expected_cash"`
	Variance         decimal.Decimal       `json:"variance"`
	Status           models.HandoverStatus `json:"status"`
	DriverNotes      string                `json:"driver_notes,omitempty"`
	AdminNotes       string                `json:"admin_notes,omitempty"`
	AdjustmentAmount *decimal.Decimal      `json:"adjustment_amount,omitempty"`
	ShiftStart       *time.Time            `json:"shift_start,omitempty"`
	ShiftEnd         *time.Time            `json:"shift_end,omitempty"`
	VerifiedByUserID *uint                 `json:"verified_by_user_id,omitempty"`
	VerifiedAt       *time.Time            `json:"verified_at,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
}

func toResponse(h *models.CashHandover) HandoverResponse {
	resp := HandoverResponse{
		ID:               h.ID,
		DriverID:         h.DriverID,
		Date:             h.Date.Format("2006-01-02"),
		ActualCash:       h.ActualCash,
		ExpectedCash:     h.ExpectedCash,
		Variance:         h.Variance,
		Status:           h.Status,
		DriverNotes:      h.DriverNotes,
		AdminNotes:       h.AdminNotes,
		AdjustmentAmount: h.AdjustmentAmount,
		ShiftStart:       h.ShiftStart,
		ShiftEnd:         h.ShiftEnd,
		VerifiedByUserID: h.VerifiedByUserID,
		VerifiedAt:       h.VerifiedAt,
		CreatedAt:        h.CreatedAt,
	}
	if h.Driver.ID != 0 {
		resp.DriverName = h.Driver.Name
	}
	return resp
}

// POST /api/cash-management (sürücü)
func SubmitHandler(wf *Workflow) fiber.Handler {
	return func(c *fiber.Ctx) error {
		driverID, err := auth.DriverIDFromCtx(c)
		if err != nil {
			return err
		}

		var body SubmitRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		var date time.Time
		if body.Date == "" {
			date = time.Now()
		} else {
			d, err := time.ParseInLocation("2006-01-02", body.Date, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı geçersiz, 'YYYY-MM-DD' olmalı")
			}
			date = d
		}

		handover, err := wf.Submit(SubmitInput{
			DriverID:    driverID,
			Date:        date,
			ActualCash:  body.ActualCash,
			DriverNotes: body.DriverNotes,
			ShiftStart:  body.ShiftStart,
			ShiftEnd:    body.ShiftEnd,
		})
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": toResponse(handover)})
	}
}

// PATCH /api/cash-management/:id/verify (admin)
func ReviewHandler(db *gorm.DB, wf *Workflow) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Teslim id geçersiz")
		}

		var body ReviewRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		adminID, err := auth.UserIDFromCtx(c)
		if err != nil {
			return err
		}

		handover, err := wf.Review(ReviewInput{
			HandoverID:       uint(id),
			AdminUserID:      adminID,
			Status:           body.Status,
			AdminNotes:       body.AdminNotes,
			AdjustmentAmount: body.AdjustmentAmount,
		})
		if err != nil {
			return err
		}

		// Audit log (hata kritik değil)
		var user models.User
		userName := ""
		if dbErr := db.First(&user, adminID).Error; dbErr == nil {
			userName = user.Name
		}
		action := models.AuditActionVerify
		switch body.Status {
		case models.HandoverStatusRejected:
			action = models.AuditActionReject
		case models.HandoverStatusAdjusted:
			action = models.AuditActionAdjust
		}
		if logErr := audit.WriteLog(db, audit.LogOptions{
			UserID:      adminID,
			UserName:    userName,
			EntityType:  "cash_handover",
			EntityID:    handover.ID,
			Action:      action,
			Description: fmt.Sprintf("Kasa teslimi sonuçlandırıldı: %s, varyans %s", body.Status, handover.Variance.StringFixed(2)),
			After:       handover,
		}); logErr != nil {
			logrus.WithError(logErr).Warn("audit log yazılamadı")
		}

		return c.JSON(fiber.Map{
			"data":    toResponse(handover),
			"message": "Teslim sonuçlandırıldı",
		})
	}
}

// GET /api/cash-management?status=PENDING&driver_id=3&from=2025-12-01&to=2025-12-31&page=1&limit=20 (admin)
func ListHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, _ := strconv.Atoi(c.Query("page", "1"))
		limit, _ := strconv.Atoi(c.Query("limit", "20"))
		if page < 1 {
			page = 1
		}
		if limit < 1 || limit > 100 {
			limit = 20
		}

		dbq := db.Model(&models.CashHandover{}).Preload("Driver")

		if st := c.Query("status"); st != "" {
			dbq = dbq.Where("status = ?", st)
		}
		if didStr := c.Query("driver_id"); didStr != "" {
			did, err := strconv.Atoi(didStr)
			if err != nil || did <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "driver_id geçersiz")
			}
			dbq = dbq.Where("driver_id = ?", did)
		}
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

		var total int64
		if err := dbq.Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Teslimler sayılamadı")
		}

		var handovers []models.CashHandover
		if err := dbq.Order("date desc, id desc").
			Offset((page - 1) * limit).
			Limit(limit).
			Find(&handovers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Teslimler listelenemedi")
		}

		resp := make([]HandoverResponse, 0, len(handovers))
		for i := range handovers {
			resp = append(resp, toResponse(&handovers[i]))
		}

		return c.JSON(fiber.Map{
			"data":  resp,
			"page":  page,
			"limit": limit,
			"total": total,
		})
	}
}

type StatsResponse struct {
	PendingCount  int64           `json:"pending_count"`
	VerifiedCount int64           `json:"verified_count"`
	RejectedCount int64           `json:"rejected_count"`
	AdjustedCount int64           `json:"adjusted_count"`
	TotalActual   decimal.Decimal `json:"total_actual"`
	TotalExpected decimal.Decimal `json:"total_expected"`
	TotalVariance decimal.Decimal `json:"total_variance"`
}

// GET /api/cash-management/stats?from=2025-12-01&to=2025-12-31 (admin)
func StatsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := db.Model(&models.CashHandover{})

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

		type countRow struct {
			Status models.HandoverStatus
			Cnt    int64
		}
		var counts []countRow
		if err := dbq.Session(&gorm.Session{}).
			Select("status, COUNT(*) as cnt").
			Group("status").
			Scan(&counts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İstatistik hesaplanamadı")
		}

		var sums struct {
			TotalActual   decimal.Decimal
			TotalExpected decimal.Decimal
			TotalVariance decimal.Decimal
		}
		if err := dbq.Session(&gorm.Session{}).
			Select("COALESCE(SUM(actual_cash),0) as total_actual, COALESCE(SUM(expected_cash),0) as total_expected, COALESCE(SUM(variance),0) as total_variance").
			Scan(&sums).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İstatistik hesaplanamadı")
		}

		resp := StatsResponse{
			TotalActual:   sums.TotalActual,
			TotalExpected: sums.TotalExpected,
			TotalVariance: sums.TotalVariance,
		}
		for _, r := range counts {
			switch r.Status {
			case models.HandoverStatusPending:
				resp.PendingCount = r.Cnt
			case models.HandoverStatusVerified:
				resp.VerifiedCount = r.Cnt
			case models.HandoverStatusRejected:
				resp.RejectedCount = r.Cnt
			case models.HandoverStatusAdjusted:
				resp.AdjustedCount = r.Cnt
			}
		}

		return c.JSON(resp)
	}
}

type DaySummaryResponse struct {
	Date              string          `json:"date"`
	ExpectedCash      decimal.Decimal `json:"expected_cash"`
	CompletedOrders   int64           `json:"completed_orders"`
	HandoverSubmitted bool            `json:"handover_submitted"`
	HandoverStatus    string          `json:"handover_status,omitempty"`
}

// GET /api/cash-management/driver/day-summary?date=2025-12-09 (sürücü)
// Sürücünün teslim öncesi görmesi gereken özet: bugün ne kadar nakit
// toplamış olması bekleniyor, teslim etmiş mi.
func DaySummaryHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		driverID, err := auth.DriverIDFromCtx(c)
		if err != nil {
			return err
		}

		var date time.Time
		if dStr := c.Query("date"); dStr != "" {
			d, err := time.ParseInLocation("2006-01-02", dStr, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı geçersiz, 'YYYY-MM-DD' olmalı")
			}
			date = d
		} else {
			date = time.Now()
		}
		start, end := reconcile.DayRange(date)

		expected, err := reconcile.ExpectedCashForDriver(db, driverID, start)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Beklenen nakit hesaplanamadı")
		}

		var orderCount int64
		if err := db.Model(&models.Order{}).
			Where("driver_id = ? AND status = ? AND scheduled_date >= ? AND scheduled_date < ?",
				driverID, models.OrderStatusCompleted, start, end).
			Count(&orderCount).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Siparişler sayılamadı")
		}

		resp := DaySummaryResponse{
			Date:            start.Format("2006-01-02"),
			ExpectedCash:    expected,
			CompletedOrders: orderCount,
		}

		var handover models.CashHandover
		err = db.Where("driver_id = ? AND date = ?", driverID, start).First(&handover).Error
		if err == nil {
			resp.HandoverSubmitted = true
			resp.HandoverStatus = string(handover.Status)
		} else if err != gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusInternalServerError, "Teslim kaydı okunamadı")
		}

		return c.JSON(resp)
	}
}

package expense

import (
	"fmt"
	"strconv"
	"time"

	"damacana-backend/internal/audit"
	"damacana-backend/internal/auth"
	"damacana-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type CreateExpenseRequest struct {
	Date          string                 `json:"date"` // "2025-12-09", boşsa bugün
	Category      models.ExpenseCategory `json:"category"`
	Amount        decimal.Decimal        `json:"amount"`
	PaymentMethod models.PaymentMethod   `json:"payment_method"`
	Description   string                 `json:"description"`
	ReceiptNote   string                 `json:"receipt_note"`
}

type ReviewExpenseRequest struct {
	Status models.ExpenseStatus `json:"status"` // approved | rejected
}

type ExpenseResponse struct {
	ID            uint                   `json:"id"`
	DriverID      uint                   `json:"driver_id"`
	Date          string                 `json:"date"`
	Category      models.ExpenseCategory `json:"category"`
	Amount        decimal.Decimal        `json:"amount"`
	PaymentMethod models.PaymentMethod   `json:"payment_method"`
	Status        models.ExpenseStatus   `json:"status"`
	Description   string                 `json:"description,omitempty"`
	ReceiptNote   string                 `json:"receipt_note,omitempty"`
}

func toResponse(e *models.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:            e.ID,
		DriverID:      e.DriverID,
		Date:          e.Date.Format("2006-01-02"),
		Category:      e.Category,
		Amount:        e.Amount,
		PaymentMethod: e.PaymentMethod,
		Status:        e.Status,
		Description:   e.Description,
		ReceiptNote:   e.ReceiptNote,
	}
}

// POST /api/expenses (sürücü)
func CreateExpenseHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		driverID, err := auth.DriverIDFromCtx(c)
		if err != nil {
			return err
		}

		var body CreateExpenseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if !body.Amount.IsPositive() {
			return fiber.NewError(fiber.StatusBadRequest, "Tutar 0'dan büyük olmalı")
		}

		switch body.Category {
		case models.ExpenseCategoryFuel, models.ExpenseCategoryVehicle,
			models.ExpenseCategoryMeal, models.ExpenseCategoryOther:
			// ok
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kategori (yakit|arac|yemek|diger)")
		}

		switch body.PaymentMethod {
		case models.PaymentMethodCash, models.PaymentMethodPOS, models.PaymentMethodCredit:
			// ok
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ödeme yöntemi (cash|pos|credit)")
		}

		var date time.Time
		if body.Date == "" {
			now := time.Now()
			date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		} else {
			d, err := time.ParseInLocation("2006-01-02", body.Date, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı geçersiz, 'YYYY-MM-DD' olmalı")
			}
			date = d
		}

		expense := models.Expense{
			DriverID:      driverID,
			Date:          date,
			Category:      body.Category,
			Amount:        body.Amount,
			PaymentMethod: body.PaymentMethod,
			Status:        models.ExpenseStatusPending,
			Description:   body.Description,
			ReceiptNote:   body.ReceiptNote,
		}

		if err := db.Create(&expense).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Harcama kaydedilemedi")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": toResponse(&expense)})
	}
}

// GET /api/expenses?status=pending&driver_id=3&from=...&to=...
// Sürücüler sadece kendi harcamalarını görür.
func ListExpensesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, err := auth.RoleFromCtx(c)
		if err != nil {
			return err
		}

		dbq := db.Model(&models.Expense{})

		if role == models.RoleDriver {
			driverID, err := auth.DriverIDFromCtx(c)
			if err != nil {
				return err
			}
			dbq = dbq.Where("driver_id = ?", driverID)
		} else if didStr := c.Query("driver_id"); didStr != "" {
			did, err := strconv.Atoi(didStr)
			if err != nil || did <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "driver_id geçersiz")
			}
			dbq = dbq.Where("driver_id = ?", did)
		}

		if st := c.Query("status"); st != "" {
			dbq = dbq.Where("status = ?", st)
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

		var expenses []models.Expense
		if err := dbq.Order("date desc, id desc").Find(&expenses).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Harcamalar listelenemedi")
		}

		resp := make([]ExpenseResponse, 0, len(expenses))
		for i := range expenses {
			resp = append(resp, toResponse(&expenses[i]))
		}

		return c.JSON(resp)
	}
}

// PATCH /api/expenses/:id/review (admin) - onay/ret.
// Sadece onaylı + nakit harcamalar beklenen kasa hesabına girer.
func ReviewExpenseHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Harcama id geçersiz")
		}

		var body ReviewExpenseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.Status != models.ExpenseStatusApproved && body.Status != models.ExpenseStatusRejected {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz durum (approved|rejected)")
		}

		userID, err := auth.UserIDFromCtx(c)
		if err != nil {
			return err
		}

		var expense models.Expense
		if err := db.First(&expense, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Harcama bulunamadı")
		}

		if expense.Status != models.ExpenseStatusPending {
			return fiber.NewError(fiber.StatusConflict, "Harcama zaten değerlendirilmiş")
		}

		now := time.Now()
		expense.Status = body.Status
		expense.ReviewedBy = &userID
		expense.ReviewedAt = &now

		if err := db.Save(&expense).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Harcama güncellenemedi")
		}

		// Audit log (hata kritik değil)
		var user models.User
		userName := ""
		if dbErr := db.First(&user, userID).Error; dbErr == nil {
			userName = user.Name
		}
		action := models.AuditActionVerify
		if body.Status == models.ExpenseStatusRejected {
			action = models.AuditActionReject
		}
		if logErr := audit.WriteLog(db, audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "expense",
			EntityID:    expense.ID,
			Action:      action,
			Description: fmt.Sprintf("Harcama %s: %s TL", body.Status, expense.Amount.StringFixed(2)),
			After:       expense,
		}); logErr != nil {
			logrus.WithError(logErr).Warn("audit log yazılamadı")
		}

		return c.JSON(fiber.Map{"data": toResponse(&expense)})
	}
}

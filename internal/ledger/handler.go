package ledger

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

type EntryResponse struct {
	ID              uint            `json:"id"`
	DriverID        uint            `json:"driver_id"`
	Amount          decimal.Decimal `json:"amount"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	Description     string          `json:"description"`
	SourceReference string          `json:"source_reference"`
	CreatedAt       time.Time       `json:"created_at"`
}

type LedgerResponse struct {
	DriverID       uint            `json:"driver_id"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	Transactions   []EntryResponse `json:"transactions"`
	Page           int             `json:"page"`
	Limit          int             `json:"limit"`
	Total          int64           `json:"total"`
}

type ManualAdjustmentRequest struct {
	Amount      decimal.Decimal `json:"amount"` // imzalı: negatif = sürücü borçlanır
	Description string          `json:"description"`
}

func toEntryResponses(entries []models.LedgerEntry) []EntryResponse {
	resp := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, EntryResponse{
			ID:              e.ID,
			DriverID:        e.DriverID,
			Amount:          e.Amount,
			BalanceAfter:    e.BalanceAfter,
			Description:     e.Description,
			SourceReference: e.SourceReference,
			CreatedAt:       e.CreatedAt,
		})
	}
	return resp
}

func ledgerResponse(store *Store, driverID uint, page, limit int) (*LedgerResponse, error) {
	balance, err := store.CurrentBalance(driverID)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Bakiye okunamadı")
	}
	entries, total, err := store.History(driverID, page, limit)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Defter hareketleri listelenemedi")
	}
	return &LedgerResponse{
		DriverID:       driverID,
		CurrentBalance: balance,
		Transactions:   toEntryResponses(entries),
		Page:           page,
		Limit:          limit,
		Total:          total,
	}, nil
}

// GET /api/drivers/me/ledger?page=1&limit=20 (sürücü)
func MyLedgerHandler(store *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		driverID, err := auth.DriverIDFromCtx(c)
		if err != nil {
			return err
		}

		page, _ := strconv.Atoi(c.Query("page", "1"))
		limit, _ := strconv.Atoi(c.Query("limit", "20"))

		resp, err := ledgerResponse(store, driverID, page, limit)
		if err != nil {
			return err
		}
		return c.JSON(resp)
	}
}

// GET /api/drivers/:id/ledger (admin)
func DriverLedgerHandler(store *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Sürücü id geçersiz")
		}

		page, _ := strconv.Atoi(c.Query("page", "1"))
		limit, _ := strconv.Atoi(c.Query("limit", "20"))

		resp, err := ledgerResponse(store, uint(id), page, limit)
		if err != nil {
			return err
		}
		return c.JSON(resp)
	}
}

// POST /api/drivers/:id/ledger/adjustments (admin) - manuel defter düzeltmesi.
// Teslim akışının dışında kalan durumlar için: kayıp para bulundu, elden
// tahsilat yapıldı vs. Kayıt yine zincire eklenir, geçmiş değişmez.
func ManualAdjustmentHandler(db *gorm.DB, store *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Sürücü id geçersiz")
		}

		var body ManualAdjustmentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.Amount.IsZero() {
			return fiber.NewError(fiber.StatusBadRequest, "Tutar sıfır olamaz")
		}
		if body.Description == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Açıklama zorunlu")
		}

		userID, err := auth.UserIDFromCtx(c)
		if err != nil {
			return err
		}

		entry, err := store.Append(uint(id), body.Amount,
			body.Description, fmt.Sprintf("adjustment:%d", userID))
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				return fe
			}
			return err
		}

		// Audit log yaz (hata kritik değil)
		var user models.User
		userName := ""
		if dbErr := db.First(&user, userID).Error; dbErr == nil {
			userName = user.Name
		}
		if logErr := audit.WriteLog(db, audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "ledger_entry",
			EntityID:    entry.ID,
			Action:      models.AuditActionAdjust,
			Description: fmt.Sprintf("Manuel defter düzeltmesi: sürücü %d, tutar %s", id, body.Amount.StringFixed(2)),
			After:       entry,
		}); logErr != nil {
			logrus.WithError(logErr).Warn("audit log yazılamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"data": toEntryResponses([]models.LedgerEntry{*entry})[0],
		})
	}
}

package cashmgmt

import (
	"errors"
	"fmt"
	"time"

	"damacana-backend/internal/apperr"
	"damacana-backend/internal/ledger"
	"damacana-backend/internal/models"
	"damacana-backend/internal/reconcile"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrDuplicateSubmission - aynı sürücü + gün için ikinci teslim denemesi.
	ErrDuplicateSubmission = apperr.New(fiber.StatusConflict, "DuplicateSubmission",
		"Bu gün için zaten bir kasa teslimi var")

	// ErrInvalidStateTransition - PENDING olmayan bir teslim üzerinde işlem denemesi.
	// Defterde mükerrer kayıt oluşmasını engeller.
	ErrInvalidStateTransition = apperr.New(fiber.StatusConflict, "InvalidStateTransition",
		"Bu teslim zaten sonuçlandırılmış")
)

// Workflow - kasa teslim durum makinesi.
//
// PENDING -> VERIFIED | REJECTED | ADJUSTED, hepsi terminal. Terminal
// geçiş + defter kaydı tek transaction'da yapılır: durum güncellenip
// defter yazılamadan kalma ihtimali yoktur.
type Workflow struct {
	db     *gorm.DB
	ledger *ledger.Store
}

func NewWorkflow(db *gorm.DB, store *ledger.Store) *Workflow {
	return &Workflow{db: db, ledger: store}
}

type SubmitInput struct {
	DriverID    uint
	Date        time.Time
	ActualCash  decimal.Decimal
	DriverNotes string
	ShiftStart  *time.Time
	ShiftEnd    *time.Time
}

// Submit - sürücünün gün sonu nakit teslimi. expected_cash ve variance
// teslim anında hesaplanıp dondurulur.
func (w *Workflow) Submit(in SubmitInput) (*models.CashHandover, error) {
	if in.ActualCash.IsNegative() {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Sayılan nakit negatif olamaz")
	}

	day, _ := reconcile.DayRange(in.Date)

	expected, err := reconcile.ExpectedCashForDriver(w.db, in.DriverID, day)
	if err != nil {
		return nil, err
	}

	handover := models.CashHandover{
		DriverID:     in.DriverID,
		Date:         day,
		ActualCash:   in.ActualCash,
		ExpectedCash: expected,
		Variance:     reconcile.Variance(in.ActualCash, expected),
		Status:       models.HandoverStatusPending,
		DriverNotes:  in.DriverNotes,
		ShiftStart:   in.ShiftStart,
		ShiftEnd:     in.ShiftEnd,
	}

	if err := w.db.Create(&handover).Error; err != nil {
		// Tekillik veritabanında zorlanıyor: iki eşzamanlı deneme bile
		// olsa sadece biri kayıt oluşturabilir.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateSubmission
		}
		return nil, err
	}

	return &handover, nil
}

type ReviewInput struct {
	HandoverID       uint
	AdminUserID      uint
	Status           models.HandoverStatus // VERIFIED | REJECTED | ADJUSTED
	AdminNotes       string
	AdjustmentAmount *decimal.Decimal // ADJUSTED için zorunlu
}

// Review - admin'in teslimi sonuçlandırması. Tek transaction:
// durum güncellemesi + (REJECTED hariç) defter kaydı.
func (w *Workflow) Review(in ReviewInput) (*models.CashHandover, error) {
	switch in.Status {
	case models.HandoverStatusVerified:
		// varyans olduğu gibi deftere yazılır
	case models.HandoverStatusRejected, models.HandoverStatusAdjusted:
		if in.AdminNotes == "" {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Bu işlem için admin notu zorunlu")
		}
		if in.Status == models.HandoverStatusAdjusted && in.AdjustmentAmount == nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "ADJUSTED için adjustment_amount zorunlu")
		}
	default:
		return nil, fiber.NewError(fiber.StatusBadRequest, "Geçersiz durum (VERIFIED|REJECTED|ADJUSTED)")
	}

	var handover models.CashHandover

	err := w.db.Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&handover, in.HandoverID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fiber.NewError(fiber.StatusNotFound, "Teslim kaydı bulunamadı")
			}
			return err
		}

		// Terminal durumlar değişmez; eşzamanlı ikinci verify burada düşer.
		if handover.Status != models.HandoverStatusPending {
			return ErrInvalidStateTransition
		}

		now := time.Now()
		handover.Status = in.Status
		handover.AdminNotes = in.AdminNotes
		handover.AdjustmentAmount = in.AdjustmentAmount
		handover.VerifiedByUserID = &in.AdminUserID
		handover.VerifiedAt = &now

		if err := tx.Save(&handover).Error; err != nil {
			return err
		}

		// REJECTED deftere dokunmaz: şirket teslimi bütünüyle reddediyor,
		// çözüm manuel sürece kalıyor.
		if in.Status == models.HandoverStatusRejected {
			return nil
		}

		delta := reconcile.LedgerDelta(&handover)
		desc := fmt.Sprintf("Kasa teslimi %s (%s)", handover.Date.Format("2006-01-02"), in.Status)
		_, err := w.ledger.AppendEntry(tx, handover.DriverID, delta, desc,
			fmt.Sprintf("handover:%d", handover.ID))
		return err
	})
	if err != nil {
		return nil, err
	}

	return &handover, nil
}

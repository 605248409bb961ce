package ledger

import (
	"fmt"
	"strings"
	"time"

	"damacana-backend/internal/apperr"
	"damacana-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrConcurrencyConflict - aynı sürücü için eşzamanlı defter yazımları
// retry bütçesini aştığında döner; kayıt asla sessizce düşmez.
var ErrConcurrencyConflict = apperr.New(fiber.StatusConflict, "ConcurrencyConflict",
	"Kasa defteri şu anda meşgul, lütfen tekrar deneyin")

const appendRetries = 3

// Store - sürücü kasa defteri. Sadece ekleme yapılır; her kayıt bir önceki
// bakiyenin üzerine zincirlenir. Aynı sürücü için eşzamanlı eklemeler satır
// kilidiyle sıralanır, farklı sürücüler birbirini bloklamaz.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AppendEntry - açık bir transaction içinde defter kaydı ekler. Teslim
// onayı gibi tetikleyen yazma ile aynı transaction'da çağrılmalıdır ki
// durum güncellemesi ve defter kaydı atomik olsun.
func (s *Store) AppendEntry(tx *gorm.DB, driverID uint, amount decimal.Decimal, description, sourceRef string) (*models.LedgerEntry, error) {
	// Sürücü satırını kilitle: bakiye zinciri sürücü başına seri ilerlemeli.
	// sqlite (test) FOR UPDATE desteklemez; orada yazmalar zaten seri.
	var drv models.Driver
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&drv, driverID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fiber.NewError(fiber.StatusNotFound, "Sürücü bulunamadı")
		}
		return nil, err
	}

	var last models.LedgerEntry
	balance := decimal.Zero
	err := tx.Where("driver_id = ?", driverID).
		Order("id desc").
		First(&last).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}
	if err == nil {
		balance = last.BalanceAfter
	}

	entry := models.LedgerEntry{
		DriverID:        driverID,
		Amount:          amount,
		BalanceAfter:    balance.Add(amount),
		Description:     description,
		SourceReference: sourceRef,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}

	return &entry, nil
}

// Append - kendi transaction'ını açan kısayol (manuel düzeltmeler için).
// Kilit/serileştirme hatalarında sınırlı sayıda yeniden dener.
func (s *Store) Append(driverID uint, amount decimal.Decimal, description, sourceRef string) (*models.LedgerEntry, error) {
	var entry *models.LedgerEntry
	var err error

	for attempt := 0; attempt < appendRetries; attempt++ {
		err = s.db.Transaction(func(tx *gorm.DB) error {
			var txErr error
			entry, txErr = s.AppendEntry(tx, driverID, amount, description, sourceRef)
			return txErr
		})
		if err == nil {
			return entry, nil
		}
		if !isLockError(err) {
			return nil, err
		}
		time.Sleep(time.Duration(attempt+1) * 50 * time.Millisecond)
	}

	return nil, fmt.Errorf("%w: %v", ErrConcurrencyConflict, err)
}

// CurrentBalance - en son kaydın balance_after değeri, kayıt yoksa 0.
func (s *Store) CurrentBalance(driverID uint) (decimal.Decimal, error) {
	var last models.LedgerEntry
	err := s.db.Where("driver_id = ?", driverID).
		Order("id desc").
		First(&last).Error
	if err == gorm.ErrRecordNotFound {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return last.BalanceAfter, nil
}

// History - sürücünün defter hareketleri, en yeni önce, sayfalı.
func (s *Store) History(driverID uint, page, limit int) ([]models.LedgerEntry, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := s.db.Model(&models.LedgerEntry{}).Where("driver_id = ?", driverID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.LedgerEntry
	err := s.db.Where("driver_id = ?", driverID).
		Order("id desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "could not serialize") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

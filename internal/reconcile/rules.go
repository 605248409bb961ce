package reconcile

import (
	"time"

	"damacana-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Mutabakat kuralları. Hem teslim (cashmgmt) hem günlük istatistik
// (aggregator) aynı hesaptan geçer; iki tarafın farklı formül kullanması
// mutabakatı anlamsızlaştırır.

// ExpectedCash - sürücünün gün sonunda üstünde olması beklenen nakit:
// nakit tahsil edilen tamamlanmış siparişler - kasadan ödenen onaylı harcamalar.
func ExpectedCash(cashOrderTotal, cashExpenseTotal decimal.Decimal) decimal.Decimal {
	return cashOrderTotal.Sub(cashExpenseTotal)
}

// Variance - sayılan nakit ile beklenen arasındaki fark.
// Pozitif: fazla (şirket sürücüye borçlu), negatif: açık (sürücü şirkete borçlu).
// Aynı işaret kuralı defter kaydına olduğu gibi taşınır.
func Variance(actualCash, expectedCash decimal.Decimal) decimal.Decimal {
	return actualCash.Sub(expectedCash)
}

// LedgerDelta - teslim sonucunda deftere yazılacak tutar.
// ADJUSTED'da admin'in belirlediği tutar varyansın yerine geçer.
func LedgerDelta(h *models.CashHandover) decimal.Decimal {
	if h.Status == models.HandoverStatusAdjusted && h.AdjustmentAmount != nil {
		return *h.AdjustmentAmount
	}
	return h.Variance
}

// DayRange - verilen günü yerel gece yarısı sınırlarına oturtur: [start, end).
// An hangi dilimde ifade edilirse edilsin önce yerel saate çevrilir; aynı
// takvim günü her yoldan aynı sınırlara düşer.
func DayRange(day time.Time) (time.Time, time.Time) {
	day = day.In(time.Local)
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.Local)
	return start, start.AddDate(0, 0, 1)
}

// ExpectedCashForDriver - sürücünün ilgili gündeki beklenen nakdini veritabanından
// hesaplar. Veri yoksa sıfır kabul edilir, hata sayılmaz.
func ExpectedCashForDriver(db *gorm.DB, driverID uint, day time.Time) (decimal.Decimal, error) {
	start, end := DayRange(day)

	var orderRow struct {
		Total decimal.Decimal
	}
	err := db.Model(&models.Order{}).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Where("driver_id = ? AND status = ? AND payment_method = ? AND scheduled_date >= ? AND scheduled_date < ?",
			driverID, models.OrderStatusCompleted, models.PaymentMethodCash, start, end).
		Scan(&orderRow).Error
	if err != nil {
		return decimal.Zero, err
	}

	var expenseRow struct {
		Total decimal.Decimal
	}
	err = db.Model(&models.Expense{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("driver_id = ? AND status = ? AND payment_method = ? AND date >= ? AND date < ?",
			driverID, models.ExpenseStatusApproved, models.PaymentMethodCash, start, end).
		Scan(&expenseRow).Error
	if err != nil {
		return decimal.Zero, err
	}

	return ExpectedCash(orderRow.Total, expenseRow.Total), nil
}

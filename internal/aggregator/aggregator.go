package aggregator

import (
	"fmt"
	"time"

	"damacana-backend/internal/models"
	"damacana-backend/internal/reconcile"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Aggregator - günlük istatistik toplayıcı ve GPS geçmişi temizleyicisi.
// Zamanlayıcı (cron) sadece dışarıdan tetikler; tüm iş burada.
type Aggregator struct {
	db            *gorm.DB
	retentionDays int
}

func New(db *gorm.DB, retentionDays int) *Aggregator {
	return &Aggregator{db: db, retentionDays: retentionDays}
}

// AggregateDailyStats - verilen gün için istatistikleri hesaplar ve tek
// upsert ile yazar. Aynı gün için tekrar çalıştırmak kaydın üzerine yazar,
// asla ikinci satır üretmez; yarım kalan iş güvenle yeniden denenebilir.
func (a *Aggregator) AggregateDailyStats(day time.Time) (*models.DailyStats, error) {
	start, end := reconcile.DayRange(day)

	// 1. Tamamlanan sipariş sayısı + toplam ciro
	var orderRow struct {
		Cnt   int64
		Total decimal.Decimal
	}
	err := a.db.Model(&models.Order{}).
		Select("COUNT(*) as cnt, COALESCE(SUM(total_amount),0) as total").
		Where("status = ? AND scheduled_date >= ? AND scheduled_date < ?",
			models.OrderStatusCompleted, start, end).
		Scan(&orderRow).Error
	if err != nil {
		return nil, fmt.Errorf("sipariş toplamları okunamadı: %w", err)
	}

	// 2. O gün tamamlanmış siparişi olan sürücüler
	var driverIDs []uint
	err = a.db.Model(&models.Order{}).
		Distinct("driver_id").
		Where("status = ? AND driver_id IS NOT NULL AND scheduled_date >= ? AND scheduled_date < ?",
			models.OrderStatusCompleted, start, end).
		Pluck("driver_id", &driverIDs).Error
	if err != nil {
		return nil, fmt.Errorf("aktif sürücüler okunamadı: %w", err)
	}

	// 3. Sipariş tarafı beklenen nakit: sürücü başına aynı mutabakat
	// kuralından geçer, teslim yapılıp yapılmadığından bağımsızdır.
	cashCollected := decimal.Zero
	for _, id := range driverIDs {
		expected, err := reconcile.ExpectedCashForDriver(a.db, id, start)
		if err != nil {
			return nil, fmt.Errorf("sürücü %d beklenen nakit hesaplanamadı: %w", id, err)
		}
		cashCollected = cashCollected.Add(expected)
	}

	// 4. Teslim edilen damacana adedi
	var bottleRow struct {
		Total int64
	}
	err = a.db.Model(&models.OrderItem{}).
		Select("COALESCE(SUM(order_items.quantity),0) as total").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("orders.status = ? AND orders.scheduled_date >= ? AND orders.scheduled_date < ? AND products.category = ?",
			models.OrderStatusCompleted, start, end, models.ProductCategoryDamacana).
		Scan(&bottleRow).Error
	if err != nil {
		return nil, fmt.Errorf("damacana adedi okunamadı: %w", err)
	}

	stats := models.DailyStats{
		Date:             start,
		OrdersCompleted:  int(orderRow.Cnt),
		TotalRevenue:     orderRow.Total,
		CashCollected:    cashCollected,
		BottlesDelivered: int(bottleRow.Total),
		DriversActive:    len(driverIDs),
	}

	// 5. Tek statement upsert: yarıda kesilse bile yarım satır kalmaz.
	err = a.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"orders_completed", "total_revenue", "cash_collected",
			"bottles_delivered", "drivers_active", "updated_at",
		}),
	}).Create(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("günlük istatistik yazılamadı: %w", err)
	}

	return &stats, nil
}

// CleanupOldLocationHistory - saklama süresi dolan GPS kayıtlarını siler,
// silinen satır sayısını döner. Çekirdekteki tek yıkıcı işlem; sadece
// zamanlanmış çalıştırmadan tetiklenir, hiçbir yerde örtük çağrılmaz.
// Yarım kalan silme sorun değil: filtre her çalıştırmada yeniden hesaplanır.
func (a *Aggregator) CleanupOldLocationHistory() (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -a.retentionDays)
	result := a.db.Where("recorded_at < ?", cutoff).Delete(&models.DriverLocationHistory{})
	if result.Error != nil {
		return 0, fmt.Errorf("GPS geçmişi temizlenemedi: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DayResult - backfill'de gün başına sonuç.
type DayResult struct {
	Date  string             `json:"date"`
	Stats *models.DailyStats `json:"stats,omitempty"`
	Error string             `json:"error,omitempty"`
}

// Backfill - son n günü sırayla toplar. Bir günün hatası yakalanır,
// loglanır ve sonraki günleri durdurmaz; sonuç listesi gün başına
// başarı/hata taşır.
func (a *Aggregator) Backfill(n, maxDays int) ([]DayResult, error) {
	if n < 1 || n > maxDays {
		return nil, fmt.Errorf("backfill gün sayısı 1-%d aralığında olmalı", maxDays)
	}

	results := make([]DayResult, 0, n)
	for i := n; i >= 1; i-- {
		day := time.Now().AddDate(0, 0, -i)
		start, _ := reconcile.DayRange(day)

		stats, err := a.AggregateDailyStats(start)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"date": start.Format("2006-01-02"),
			}).WithError(err).Error("backfill günü başarısız")
			results = append(results, DayResult{
				Date:  start.Format("2006-01-02"),
				Error: err.Error(),
			})
			continue
		}

		results = append(results, DayResult{
			Date:  start.Format("2006-01-02"),
			Stats: stats,
		})
	}

	return results, nil
}

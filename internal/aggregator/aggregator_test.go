package aggregator_test

import (
	"fmt"
	"testing"
	"time"

	"damacana-backend/internal/aggregator"
	"damacana-backend/internal/models"
	"damacana-backend/internal/testutil"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

var testDay = time.Date(2024, 6, 1, 0, 0, 0, 0, time.Local)

type fixture struct {
	db  *gorm.DB
	agg *aggregator.Aggregator

	damacanaID uint
	petID      uint
	custID     uint
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.OpenTestDB(t)

	damacana := models.Product{Name: "19L Damacana", Category: models.ProductCategoryDamacana, UnitPrice: dec("100"), Active: true}
	pet := models.Product{Name: "0.5L Pet", Category: models.ProductCategorySu, UnitPrice: dec("10"), Active: true}
	cust := models.Customer{Name: "Test Müşteri"}
	for _, m := range []interface{}{&damacana, &pet, &cust} {
		if err := db.Create(m).Error; err != nil {
			t.Fatalf("seed hatası: %v", err)
		}
	}

	return &fixture{
		db:         db,
		agg:        aggregator.New(db, 30),
		damacanaID: damacana.ID,
		petID:      pet.ID,
		custID:     cust.ID,
	}
}

func (f *fixture) seedDriver(t *testing.T, name string) uint {
	t.Helper()
	drv := models.Driver{Name: name, Active: true}
	if err := f.db.Create(&drv).Error; err != nil {
		t.Fatalf("sürücü oluşturulamadı: %v", err)
	}
	return drv.ID
}

func (f *fixture) seedOrder(t *testing.T, driverID uint, day time.Time, status models.OrderStatus, method models.PaymentMethod, items ...models.OrderItem) {
	t.Helper()
	total := decimal.Zero
	for i := range items {
		items[i].LineTotal = items[i].UnitPrice.Mul(decimal.NewFromInt(int64(items[i].Quantity)))
		total = total.Add(items[i].LineTotal)
	}
	order := models.Order{
		CustomerID:    f.custID,
		DriverID:      &driverID,
		ScheduledDate: day,
		Status:        status,
		PaymentMethod: method,
		TotalAmount:   total,
		Items:         items,
	}
	if err := f.db.Create(&order).Error; err != nil {
		t.Fatalf("sipariş oluşturulamadı: %v", err)
	}
}

func (f *fixture) statsCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := f.db.Model(&models.DailyStats{}).Count(&count).Error; err != nil {
		t.Fatalf("istatistik sayılamadı: %v", err)
	}
	return count
}

func TestAggregateDailyStats(t *testing.T) {
	f := newFixture(t)
	ahmet := f.seedDriver(t, "Ahmet")
	mehmet := f.seedDriver(t, "Mehmet")

	// Ahmet: 3 damacana nakit, Mehmet: 2 damacana + 5 pet pos
	f.seedOrder(t, ahmet, testDay, models.OrderStatusCompleted, models.PaymentMethodCash,
		models.OrderItem{ProductID: f.damacanaID, Quantity: 3, UnitPrice: dec("100")})
	f.seedOrder(t, mehmet, testDay, models.OrderStatusCompleted, models.PaymentMethodPOS,
		models.OrderItem{ProductID: f.damacanaID, Quantity: 2, UnitPrice: dec("100")},
		models.OrderItem{ProductID: f.petID, Quantity: 5, UnitPrice: dec("10")})
	// Sayılmayanlar: iptal edilen ve başka günün siparişi
	f.seedOrder(t, ahmet, testDay, models.OrderStatusCancelled, models.PaymentMethodCash,
		models.OrderItem{ProductID: f.damacanaID, Quantity: 9, UnitPrice: dec("100")})
	f.seedOrder(t, ahmet, testDay.AddDate(0, 0, 1), models.OrderStatusCompleted, models.PaymentMethodCash,
		models.OrderItem{ProductID: f.damacanaID, Quantity: 4, UnitPrice: dec("100")})

	// Ahmet'in onaylı nakit harcaması beklenen nakitten düşer
	exp := models.Expense{
		DriverID: ahmet, Date: testDay, Category: models.ExpenseCategoryFuel,
		Amount: dec("40"), PaymentMethod: models.PaymentMethodCash, Status: models.ExpenseStatusApproved,
	}
	if err := f.db.Create(&exp).Error; err != nil {
		t.Fatalf("harcama oluşturulamadı: %v", err)
	}

	stats, err := f.agg.AggregateDailyStats(testDay)
	if err != nil {
		t.Fatalf("AggregateDailyStats hata: %v", err)
	}

	if stats.OrdersCompleted != 2 {
		t.Errorf("orders_completed = %d, want 2", stats.OrdersCompleted)
	}
	if !stats.TotalRevenue.Equal(dec("550")) { // 300 + 250
		t.Errorf("total_revenue = %s, want 550", stats.TotalRevenue)
	}
	// Nakit beklenen: Ahmet 300-40=260, Mehmet 0 (pos)
	if !stats.CashCollected.Equal(dec("260")) {
		t.Errorf("cash_collected = %s, want 260", stats.CashCollected)
	}
	if stats.BottlesDelivered != 5 { // 3 + 2 damacana, pet sayılmaz
		t.Errorf("bottles_delivered = %d, want 5", stats.BottlesDelivered)
	}
	if stats.DriversActive != 2 {
		t.Errorf("drivers_active = %d, want 2", stats.DriversActive)
	}
}

// Idempotans: aynı gün iki kez toplanınca tek satır, aynı değerler.
func TestAggregateIdempotent(t *testing.T) {
	f := newFixture(t)
	ahmet := f.seedDriver(t, "Ahmet")
	f.seedOrder(t, ahmet, testDay, models.OrderStatusCompleted, models.PaymentMethodCash,
		models.OrderItem{ProductID: f.damacanaID, Quantity: 2, UnitPrice: dec("100")})

	first, err := f.agg.AggregateDailyStats(testDay)
	if err != nil {
		t.Fatalf("ilk çalıştırma hata: %v", err)
	}
	second, err := f.agg.AggregateDailyStats(testDay)
	if err != nil {
		t.Fatalf("ikinci çalıştırma hata: %v", err)
	}

	if got := f.statsCount(t); got != 1 {
		t.Fatalf("satır sayısı = %d, want 1", got)
	}
	if first.OrdersCompleted != second.OrdersCompleted ||
		!first.TotalRevenue.Equal(second.TotalRevenue) ||
		!first.CashCollected.Equal(second.CashCollected) ||
		first.BottlesDelivered != second.BottlesDelivered ||
		first.DriversActive != second.DriversActive {
		t.Error("iki çalıştırma farklı değerler üretti")
	}
}

// Veri değişince yeniden çalıştırma üzerine yazar, kopya üretmez.
func TestAggregateOverwritesOnRerun(t *testing.T) {
	f := newFixture(t)
	ahmet := f.seedDriver(t, "Ahmet")
	f.seedOrder(t, ahmet, testDay, models.OrderStatusCompleted, models.PaymentMethodCash,
		models.OrderItem{ProductID: f.damacanaID, Quantity: 2, UnitPrice: dec("100")})

	if _, err := f.agg.AggregateDailyStats(testDay); err != nil {
		t.Fatalf("ilk çalıştırma hata: %v", err)
	}

	// geç gelen sipariş
	f.seedOrder(t, ahmet, testDay, models.OrderStatusCompleted, models.PaymentMethodCash,
		models.OrderItem{ProductID: f.damacanaID, Quantity: 1, UnitPrice: dec("100")})

	stats, err := f.agg.AggregateDailyStats(testDay)
	if err != nil {
		t.Fatalf("ikinci çalıştırma hata: %v", err)
	}

	if got := f.statsCount(t); got != 1 {
		t.Fatalf("satır sayısı = %d, want 1", got)
	}
	if stats.OrdersCompleted != 2 || stats.BottlesDelivered != 3 {
		t.Errorf("güncellenen değerler yanlış: %+v", stats)
	}

	var stored models.DailyStats
	if err := f.db.Where("date = ?", testDay).First(&stored).Error; err != nil {
		t.Fatalf("kayıt okunamadı: %v", err)
	}
	if stored.OrdersCompleted != 2 {
		t.Errorf("saklanan orders_completed = %d, want 2", stored.OrdersCompleted)
	}
}

// Veri olmayan gün sıfırlarla yazılır, hata üretmez.
func TestAggregateEmptyDay(t *testing.T) {
	f := newFixture(t)

	stats, err := f.agg.AggregateDailyStats(testDay)
	if err != nil {
		t.Fatalf("AggregateDailyStats hata: %v", err)
	}
	if stats.OrdersCompleted != 0 || !stats.TotalRevenue.IsZero() || stats.DriversActive != 0 {
		t.Errorf("boş gün sıfır değil: %+v", stats)
	}
}

func TestCleanupOldLocationHistory(t *testing.T) {
	f := newFixture(t)
	ahmet := f.seedDriver(t, "Ahmet")

	old := models.DriverLocationHistory{
		DriverID: ahmet, Latitude: 41.0, Longitude: 29.0,
		RecordedAt: time.Now().AddDate(0, 0, -45),
	}
	fresh := models.DriverLocationHistory{
		DriverID: ahmet, Latitude: 41.1, Longitude: 29.1,
		RecordedAt: time.Now().Add(-1 * time.Hour),
	}
	for _, p := range []*models.DriverLocationHistory{&old, &fresh} {
		if err := f.db.Create(p).Error; err != nil {
			t.Fatalf("ping oluşturulamadı: %v", err)
		}
	}

	deleted, err := f.agg.CleanupOldLocationHistory()
	if err != nil {
		t.Fatalf("CleanupOldLocationHistory hata: %v", err)
	}
	if deleted != 1 {
		t.Errorf("silinen = %d, want 1", deleted)
	}

	var remaining int64
	f.db.Model(&models.DriverLocationHistory{}).Count(&remaining)
	if remaining != 1 {
		t.Errorf("kalan = %d, want 1", remaining)
	}
}

func TestBackfillBounds(t *testing.T) {
	f := newFixture(t)

	for _, n := range []int{0, -3, 91} {
		if _, err := f.agg.Backfill(n, 90); err == nil {
			t.Errorf("Backfill(%d) kabul edildi", n)
		}
	}
}

func TestBackfillProducesPerDayResults(t *testing.T) {
	f := newFixture(t)
	ahmet := f.seedDriver(t, "Ahmet")

	// dünün siparişi
	yesterday := time.Now().AddDate(0, 0, -1)
	day := time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, yesterday.Location())
	f.seedOrder(t, ahmet, day, models.OrderStatusCompleted, models.PaymentMethodCash,
		models.OrderItem{ProductID: f.damacanaID, Quantity: 1, UnitPrice: dec("100")})

	results, err := f.agg.Backfill(3, 90)
	if err != nil {
		t.Fatalf("Backfill hata: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	for _, r := range results {
		if r.Error != "" {
			t.Errorf("gün %s hata verdi: %s", r.Date, r.Error)
		}
		if r.Stats == nil {
			t.Errorf("gün %s stats boş", r.Date)
		}
	}
	if got := f.statsCount(t); got != 3 {
		t.Errorf("satır sayısı = %d, want 3", got)
	}

	// son eleman dün olmalı (kronolojik sıra)
	if results[len(results)-1].Date != day.Format("2006-01-02") {
		t.Errorf("son gün = %s, want %s", results[len(results)-1].Date, day.Format("2006-01-02"))
	}
	if results[len(results)-1].Stats.OrdersCompleted != 1 {
		t.Errorf("dünün orders_completed = %d, want 1", results[len(results)-1].Stats.OrdersCompleted)
	}
}

// Bir günün yazımı patlarsa o gün hata taşır, kalan günler yine toplanır
// ve başarısız gün için yarım satır kalmaz.
func TestBackfillContinuesAfterFailedDay(t *testing.T) {
	f := newFixture(t)

	// ortadaki günün (2 gün önce) yazımını tetikleyiciyle engelle
	mid := time.Now().AddDate(0, 0, -2)
	midStr := time.Date(mid.Year(), mid.Month(), mid.Day(), 0, 0, 0, 0, mid.Location()).Format("2006-01-02")
	trigger := fmt.Sprintf(
		`CREATE TRIGGER block_mid_day BEFORE INSERT ON daily_stats
		 WHEN NEW.date LIKE '%s%%'
		 BEGIN SELECT RAISE(ABORT, 'disk dolu'); END;`, midStr)
	if err := f.db.Exec(trigger).Error; err != nil {
		t.Fatalf("tetikleyici oluşturulamadı: %v", err)
	}

	results, err := f.agg.Backfill(3, 90)
	if err != nil {
		t.Fatalf("Backfill hata: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}

	failed := 0
	for _, r := range results {
		if r.Date == midStr {
			failed++
			if r.Error == "" {
				t.Error("başarısız gün hata taşımıyor")
			}
			if r.Stats != nil {
				t.Error("başarısız gün stats taşıyor")
			}
			continue
		}
		if r.Error != "" {
			t.Errorf("gün %s hata verdi: %s", r.Date, r.Error)
		}
		if r.Stats == nil {
			t.Errorf("gün %s stats boş", r.Date)
		}
	}
	if failed != 1 {
		t.Errorf("başarısız gün sayısı = %d, want 1", failed)
	}

	// Engellenen gün için satır yok, diğer iki gün yazılmış
	if got := f.statsCount(t); got != 2 {
		t.Errorf("satır sayısı = %d, want 2", got)
	}
}

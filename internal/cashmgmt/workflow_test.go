package cashmgmt_test

import (
	"errors"
	"testing"
	"time"

	"damacana-backend/internal/cashmgmt"
	"damacana-backend/internal/ledger"
	"damacana-backend/internal/models"
	"damacana-backend/internal/testutil"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

type fixture struct {
	db       *gorm.DB
	store    *ledger.Store
	wf       *cashmgmt.Workflow
	driverID uint
	custID   uint
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.OpenTestDB(t)
	store := ledger.NewStore(db)

	drv := models.Driver{Name: "Ahmet", Active: true}
	if err := db.Create(&drv).Error; err != nil {
		t.Fatalf("sürücü oluşturulamadı: %v", err)
	}
	cust := models.Customer{Name: "Test Müşteri"}
	if err := db.Create(&cust).Error; err != nil {
		t.Fatalf("müşteri oluşturulamadı: %v", err)
	}

	return &fixture{
		db:       db,
		store:    store,
		wf:       cashmgmt.NewWorkflow(db, store),
		driverID: drv.ID,
		custID:   cust.ID,
	}
}

func (f *fixture) seedCashOrder(t *testing.T, day time.Time, total string) {
	t.Helper()
	order := models.Order{
		CustomerID:    f.custID,
		DriverID:      &f.driverID,
		ScheduledDate: day,
		Status:        models.OrderStatusCompleted,
		PaymentMethod: models.PaymentMethodCash,
		TotalAmount:   dec(total),
	}
	if err := f.db.Create(&order).Error; err != nil {
		t.Fatalf("sipariş oluşturulamadı: %v", err)
	}
}

func (f *fixture) ledgerCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := f.db.Model(&models.LedgerEntry{}).Count(&count).Error; err != nil {
		t.Fatalf("defter sayılamadı: %v", err)
	}
	return count
}

var testDay = time.Date(2024, 6, 1, 0, 0, 0, 0, time.Local)

// Senaryo: 3 sipariş toplam 1200 nakit, harcama yok; sürücü 1150 sayıyor.
// expected=1200, variance=-50; onayda defter -50 hareket görür.
func TestSubmitAndVerifyShortage(t *testing.T) {
	f := newFixture(t)
	f.seedCashOrder(t, testDay, "400")
	f.seedCashOrder(t, testDay, "500")
	f.seedCashOrder(t, testDay, "300")

	handover, err := f.wf.Submit(cashmgmt.SubmitInput{
		DriverID:   f.driverID,
		Date:       testDay,
		ActualCash: dec("1150"),
	})
	if err != nil {
		t.Fatalf("Submit hata: %v", err)
	}

	if !handover.ExpectedCash.Equal(dec("1200")) {
		t.Errorf("expected_cash = %s, want 1200", handover.ExpectedCash)
	}
	if !handover.Variance.Equal(dec("-50")) {
		t.Errorf("variance = %s, want -50", handover.Variance)
	}
	if handover.Status != models.HandoverStatusPending {
		t.Errorf("status = %s, want PENDING", handover.Status)
	}

	reviewed, err := f.wf.Review(cashmgmt.ReviewInput{
		HandoverID:  handover.ID,
		AdminUserID: 1,
		Status:      models.HandoverStatusVerified,
	})
	if err != nil {
		t.Fatalf("Review hata: %v", err)
	}
	if reviewed.Status != models.HandoverStatusVerified {
		t.Errorf("status = %s, want VERIFIED", reviewed.Status)
	}
	if reviewed.VerifiedAt == nil || reviewed.VerifiedByUserID == nil {
		t.Error("verified_at / verified_by boş kaldı")
	}

	// Defter: açık kadar negatif hareket
	balance, err := f.store.CurrentBalance(f.driverID)
	if err != nil {
		t.Fatalf("CurrentBalance hata: %v", err)
	}
	if !balance.Equal(dec("-50")) {
		t.Errorf("bakiye = %s, want -50", balance)
	}

	var entry models.LedgerEntry
	if err := f.db.Where("driver_id = ?", f.driverID).First(&entry).Error; err != nil {
		t.Fatalf("defter kaydı bulunamadı: %v", err)
	}
	if !entry.Amount.Equal(dec("-50")) {
		t.Errorf("defter amount = %s, want -50", entry.Amount)
	}
	if entry.SourceReference == "" {
		t.Error("source_reference boş")
	}
}

// Varyans işareti: fazla sayılan nakit bakiyeyi artırır.
func TestVerifySurplusIncreaseBalance(t *testing.T) {
	f := newFixture(t)
	f.seedCashOrder(t, testDay, "1200")

	handover, err := f.wf.Submit(cashmgmt.SubmitInput{
		DriverID:   f.driverID,
		Date:       testDay,
		ActualCash: dec("1500"),
	})
	if err != nil {
		t.Fatalf("Submit hata: %v", err)
	}
	if !handover.Variance.Equal(dec("300")) {
		t.Errorf("variance = %s, want 300", handover.Variance)
	}

	if _, err := f.wf.Review(cashmgmt.ReviewInput{
		HandoverID:  handover.ID,
		AdminUserID: 1,
		Status:      models.HandoverStatusVerified,
	}); err != nil {
		t.Fatalf("Review hata: %v", err)
	}

	balance, _ := f.store.CurrentBalance(f.driverID)
	if !balance.Equal(dec("300")) {
		t.Errorf("bakiye = %s, want +300", balance)
	}
}

// Aynı gün için ikinci teslim DuplicateSubmission ile düşmeli.
func TestDuplicateSubmission(t *testing.T) {
	f := newFixture(t)

	if _, err := f.wf.Submit(cashmgmt.SubmitInput{
		DriverID:   f.driverID,
		Date:       testDay,
		ActualCash: dec("100"),
	}); err != nil {
		t.Fatalf("ilk Submit hata: %v", err)
	}

	_, err := f.wf.Submit(cashmgmt.SubmitInput{
		DriverID:   f.driverID,
		Date:       testDay.Add(5 * time.Hour), // aynı gün, farklı saat
		ActualCash: dec("200"),
	})
	if !errors.Is(err, cashmgmt.ErrDuplicateSubmission) {
		t.Fatalf("err = %v, want ErrDuplicateSubmission", err)
	}

	// Tek kayıt kalmalı
	var count int64
	f.db.Model(&models.CashHandover{}).Count(&count)
	if count != 1 {
		t.Errorf("teslim sayısı = %d, want 1", count)
	}

	// Ertesi gün serbest
	if _, err := f.wf.Submit(cashmgmt.SubmitInput{
		DriverID:   f.driverID,
		Date:       testDay.AddDate(0, 0, 1),
		ActualCash: dec("200"),
	}); err != nil {
		t.Fatalf("ertesi gün Submit hata: %v", err)
	}
}

// Aynı an farklı dilimlerde ifade edilse de aynı güne normalize edilir;
// UTC gösterimiyle gelen ikinci teslim de tekillikten düşer.
func TestDuplicateSubmissionAcrossZones(t *testing.T) {
	f := newFixture(t)

	local := time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)
	if _, err := f.wf.Submit(cashmgmt.SubmitInput{
		DriverID:   f.driverID,
		Date:       local,
		ActualCash: dec("100"),
	}); err != nil {
		t.Fatalf("ilk Submit hata: %v", err)
	}

	_, err := f.wf.Submit(cashmgmt.SubmitInput{
		DriverID:   f.driverID,
		Date:       local.UTC(), // aynı an, UTC gösterimi
		ActualCash: dec("200"),
	})
	if !errors.Is(err, cashmgmt.ErrDuplicateSubmission) {
		t.Fatalf("err = %v, want ErrDuplicateSubmission", err)
	}

	var count int64
	f.db.Model(&models.CashHandover{}).Count(&count)
	if count != 1 {
		t.Errorf("teslim sayısı = %d, want 1", count)
	}
}

func TestSubmitNegativeCash(t *testing.T) {
	f := newFixture(t)

	if _, err := f.wf.Submit(cashmgmt.SubmitInput{
		DriverID:   f.driverID,
		Date:       testDay,
		ActualCash: dec("-1"),
	}); err == nil {
		t.Fatal("negatif nakit kabul edildi")
	}
}

// Terminal durumdan çıkış yok: ikinci sonuçlandırma denemesi
// InvalidStateTransition almalı ve defter yeni kayıt görmemeli.
func TestTerminalImmutability(t *testing.T) {
	f := newFixture(t)
	f.seedCashOrder(t, testDay, "100")

	handover, err := f.wf.Submit(cashmgmt.SubmitInput{
		DriverID:   f.driverID,
		Date:       testDay,
		ActualCash: dec("90"),
	})
	if err != nil {
		t.Fatalf("Submit hata: %v", err)
	}

	if _, err := f.wf.Review(cashmgmt.ReviewInput{
		HandoverID:  handover.ID,
		AdminUserID: 1,
		Status:      models.HandoverStatusVerified,
	}); err != nil {
		t.Fatalf("ilk Review hata: %v", err)
	}
	countAfterFirst := f.ledgerCount(t)

	for _, status := range []models.HandoverStatus{
		models.HandoverStatusVerified,
		models.HandoverStatusRejected,
		models.HandoverStatusAdjusted,
	} {
		adj := dec("-10")
		_, err := f.wf.Review(cashmgmt.ReviewInput{
			HandoverID:       handover.ID,
			AdminUserID:      1,
			Status:           status,
			AdminNotes:       "tekrar deneme",
			AdjustmentAmount: &adj,
		})
		if !errors.Is(err, cashmgmt.ErrInvalidStateTransition) {
			t.Errorf("%s: err = %v, want ErrInvalidStateTransition", status, err)
		}
	}

	if got := f.ledgerCount(t); got != countAfterFirst {
		t.Errorf("defter kayıt sayısı %d -> %d, mükerrer kayıt oluştu", countAfterFirst, got)
	}
}

// REJECTED deftere dokunmaz ve admin notu ister.
func TestReject(t *testing.T) {
	f := newFixture(t)
	f.seedCashOrder(t, testDay, "100")

	handover, err := f.wf.Submit(cashmgmt.SubmitInput{
		DriverID:   f.driverID,
		Date:       testDay,
		ActualCash: dec("10"),
	})
	if err != nil {
		t.Fatalf("Submit hata: %v", err)
	}

	// not olmadan reddedilemez
	if _, err := f.wf.Review(cashmgmt.ReviewInput{
		HandoverID:  handover.ID,
		AdminUserID: 1,
		Status:      models.HandoverStatusRejected,
	}); err == nil {
		t.Fatal("notsuz red kabul edildi")
	}

	reviewed, err := f.wf.Review(cashmgmt.ReviewInput{
		HandoverID:  handover.ID,
		AdminUserID: 1,
		Status:      models.HandoverStatusRejected,
		AdminNotes:  "sayım şüpheli, elden çözülecek",
	})
	if err != nil {
		t.Fatalf("Review hata: %v", err)
	}
	if reviewed.Status != models.HandoverStatusRejected {
		t.Errorf("status = %s, want REJECTED", reviewed.Status)
	}

	if got := f.ledgerCount(t); got != 0 {
		t.Errorf("red sonrası defter kayıt sayısı = %d, want 0", got)
	}
}

// ADJUSTED: ham varyans yerine admin'in tutarı deftere yazılır.
func TestAdjustOverridesVariance(t *testing.T) {
	f := newFixture(t)
	f.seedCashOrder(t, testDay, "1000")

	handover, err := f.wf.Submit(cashmgmt.SubmitInput{
		DriverID:   f.driverID,
		Date:       testDay,
		ActualCash: dec("900"), // variance -100
	})
	if err != nil {
		t.Fatalf("Submit hata: %v", err)
	}

	// tutar olmadan ADJUSTED olmaz
	if _, err := f.wf.Review(cashmgmt.ReviewInput{
		HandoverID:  handover.ID,
		AdminUserID: 1,
		Status:      models.HandoverStatusAdjusted,
		AdminNotes:  "kısmi itiraz",
	}); err == nil {
		t.Fatal("adjustment_amount olmadan kabul edildi")
	}

	adj := dec("-60")
	reviewed, err := f.wf.Review(cashmgmt.ReviewInput{
		HandoverID:       handover.ID,
		AdminUserID:      1,
		Status:           models.HandoverStatusAdjusted,
		AdminNotes:       "60 TL'lik kısmı kabul edildi",
		AdjustmentAmount: &adj,
	})
	if err != nil {
		t.Fatalf("Review hata: %v", err)
	}

	// variance dondurulmuş kalır, defter admin tutarını görür
	if !reviewed.Variance.Equal(dec("-100")) {
		t.Errorf("variance = %s, want -100", reviewed.Variance)
	}
	balance, _ := f.store.CurrentBalance(f.driverID)
	if !balance.Equal(dec("-60")) {
		t.Errorf("bakiye = %s, want -60", balance)
	}
}

func TestReviewUnknownHandover(t *testing.T) {
	f := newFixture(t)

	if _, err := f.wf.Review(cashmgmt.ReviewInput{
		HandoverID:  999,
		AdminUserID: 1,
		Status:      models.HandoverStatusVerified,
	}); err == nil {
		t.Fatal("olmayan teslim sonuçlandırılabildi")
	}
}

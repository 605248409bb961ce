package ledger_test

import (
	"testing"

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

func seedDriver(t *testing.T, db *gorm.DB, name string) uint {
	t.Helper()
	drv := models.Driver{Name: name, Active: true}
	if err := db.Create(&drv).Error; err != nil {
		t.Fatalf("sürücü oluşturulamadı: %v", err)
	}
	return drv.ID
}

func TestCurrentBalanceEmpty(t *testing.T) {
	db := testutil.OpenTestDB(t)
	store := ledger.NewStore(db)
	driverID := seedDriver(t, db, "Ahmet")

	balance, err := store.CurrentBalance(driverID)
	if err != nil {
		t.Fatalf("CurrentBalance hata: %v", err)
	}
	if !balance.IsZero() {
		t.Errorf("boş defterde bakiye = %s, want 0", balance)
	}
}

// Bakiye bütünlüğü: N kayıttan sonra son balance_after,
// tüm amount'ların sırayla toplamına eşit olmalı.
func TestAppendBalanceChaining(t *testing.T) {
	db := testutil.OpenTestDB(t)
	store := ledger.NewStore(db)
	driverID := seedDriver(t, db, "Ahmet")

	amounts := []string{"-50", "300", "-120.25", "0.25", "-80"}
	running := decimal.Zero

	for i, a := range amounts {
		entry, err := store.Append(driverID, dec(a), "test", "manual")
		if err != nil {
			t.Fatalf("Append %d hata: %v", i, err)
		}
		running = running.Add(dec(a))
		if !entry.BalanceAfter.Equal(running) {
			t.Errorf("kayıt %d: balance_after = %s, want %s", i, entry.BalanceAfter, running)
		}
	}

	balance, err := store.CurrentBalance(driverID)
	if err != nil {
		t.Fatalf("CurrentBalance hata: %v", err)
	}
	if !balance.Equal(dec("50")) { // -50+300-120.25+0.25-80
		t.Errorf("son bakiye = %s, want 50", balance)
	}
}

func TestAppendDriversIndependent(t *testing.T) {
	db := testutil.OpenTestDB(t)
	store := ledger.NewStore(db)
	ahmetID := seedDriver(t, db, "Ahmet")
	mehmetID := seedDriver(t, db, "Mehmet")

	if _, err := store.Append(ahmetID, dec("100"), "test", "manual"); err != nil {
		t.Fatalf("Append hata: %v", err)
	}
	if _, err := store.Append(mehmetID, dec("-40"), "test", "manual"); err != nil {
		t.Fatalf("Append hata: %v", err)
	}

	// Bir sürücünün zinciri diğerini etkilemez
	balance, _ := store.CurrentBalance(ahmetID)
	if !balance.Equal(dec("100")) {
		t.Errorf("ahmet bakiye = %s, want 100", balance)
	}
	balance, _ = store.CurrentBalance(mehmetID)
	if !balance.Equal(dec("-40")) {
		t.Errorf("mehmet bakiye = %s, want -40", balance)
	}
}

func TestAppendUnknownDriver(t *testing.T) {
	db := testutil.OpenTestDB(t)
	store := ledger.NewStore(db)

	if _, err := store.Append(999, dec("10"), "test", "manual"); err == nil {
		t.Fatal("olmayan sürücüye kayıt eklenebildi")
	}
}

func TestHistoryNewestFirstPaginated(t *testing.T) {
	db := testutil.OpenTestDB(t)
	store := ledger.NewStore(db)
	driverID := seedDriver(t, db, "Ahmet")

	for i := 0; i < 5; i++ {
		if _, err := store.Append(driverID, dec("10"), "test", "manual"); err != nil {
			t.Fatalf("Append hata: %v", err)
		}
	}

	entries, total, err := store.History(driverID, 1, 2)
	if err != nil {
		t.Fatalf("History hata: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	// En yeni önce: son eklenen kaydın bakiyesi 50
	if !entries[0].BalanceAfter.Equal(dec("50")) {
		t.Errorf("ilk kayıt balance_after = %s, want 50", entries[0].BalanceAfter)
	}
	if entries[0].ID <= entries[1].ID {
		t.Errorf("sıralama yanlış: %d <= %d", entries[0].ID, entries[1].ID)
	}

	// Son sayfa
	entries, _, err = store.History(driverID, 3, 2)
	if err != nil {
		t.Fatalf("History hata: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("son sayfa len = %d, want 1", len(entries))
	}
}

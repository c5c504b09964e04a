package pricing

import (
	"errors"
	"testing"
	"time"

	"mutfak-backend/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.PriceRecord{}))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, active bool) *models.Product {
	t.Helper()
	p := models.Product{Name: name, Unit: "porsiyon", IsActive: active}
	require.NoError(t, db.Create(&p).Error)
	return &p
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func dayPtr(s string) *time.Time {
	d := day(s)
	return &d
}

func TestResolvePriceNoneReturnsNilNil(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "Mercimek Çorbası", true)

	rec, err := ResolvePrice(db, p.ID, models.PriceTypeSale, day("2025-06-01"))
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestResolvePriceLatestStartWins(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "Adana Kebap", true)

	old := models.PriceRecord{ProductID: p.ID, PriceType: models.PriceTypeSale, UnitPrice: 100, Unit: "porsiyon", StartDate: day("2025-01-01"), EndDate: dayPtr("2025-03-31"), IsActive: true}
	newer := models.PriceRecord{ProductID: p.ID, PriceType: models.PriceTypeSale, UnitPrice: 120, Unit: "porsiyon", StartDate: day("2025-04-01"), IsActive: true}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&newer).Error)

	// Eski aralığın içi: eski kayıt
	rec, err := ResolvePrice(db, p.ID, models.PriceTypeSale, day("2025-02-15"))
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, old.ID, rec.ID)

	// Yeni açık uçlu kayıt
	rec, err = ResolvePrice(db, p.ID, models.PriceTypeSale, day("2025-06-01"))
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, newer.ID, rec.ID)
	require.Equal(t, 120.0, rec.UnitPrice)
}

func TestResolvePriceTieBreaksOnNewestID(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "Lahmacun", true)

	first := models.PriceRecord{ProductID: p.ID, PriceType: models.PriceTypeSale, UnitPrice: 60, Unit: "adet", StartDate: day("2025-05-01"), IsActive: true}
	second := models.PriceRecord{ProductID: p.ID, PriceType: models.PriceTypeSale, UnitPrice: 65, Unit: "adet", StartDate: day("2025-05-01"), IsActive: true}
	require.NoError(t, db.Create(&first).Error)
	require.NoError(t, db.Create(&second).Error)

	rec, err := ResolvePrice(db, p.ID, models.PriceTypeSale, day("2025-05-10"))
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, second.ID, rec.ID)
}

func TestResolvePriceIgnoresInactiveDeletedAndOtherTypes(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "İskender", true)

	now := time.Now()
	passive := models.PriceRecord{ProductID: p.ID, PriceType: models.PriceTypeSale, UnitPrice: 10, Unit: "porsiyon", StartDate: day("2025-01-01"), IsActive: false}
	deleted := models.PriceRecord{ProductID: p.ID, PriceType: models.PriceTypeSale, UnitPrice: 20, Unit: "porsiyon", StartDate: day("2025-01-01"), IsActive: true, DeletedAt: &now}
	purchase := models.PriceRecord{ProductID: p.ID, PriceType: models.PriceTypePurchase, UnitPrice: 30, Unit: "porsiyon", StartDate: day("2025-01-01"), IsActive: true}
	require.NoError(t, db.Create(&passive).Error)
	require.NoError(t, db.Create(&deleted).Error)
	require.NoError(t, db.Create(&purchase).Error)

	rec, err := ResolvePrice(db, p.ID, models.PriceTypeSale, day("2025-02-01"))
	require.NoError(t, err)
	require.Nil(t, rec)

	rec, err = ResolvePrice(db, p.ID, models.PriceTypePurchase, day("2025-02-01"))
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, purchase.ID, rec.ID)
}

func TestResolvePriceRespectsDateBounds(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "Künefe", true)

	rec := models.PriceRecord{ProductID: p.ID, PriceType: models.PriceTypeSale, UnitPrice: 90, Unit: "porsiyon", StartDate: day("2025-03-01"), EndDate: dayPtr("2025-03-31"), IsActive: true}
	require.NoError(t, db.Create(&rec).Error)

	got, err := ResolvePrice(db, p.ID, models.PriceTypeSale, day("2025-02-28"))
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = ResolvePrice(db, p.ID, models.PriceTypeSale, day("2025-04-01"))
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = ResolvePrice(db, p.ID, models.PriceTypeSale, day("2025-03-31"))
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestCreatePriceRecordValidation(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "Ayran", true)

	var invalid *InvalidPriceError

	_, err := CreatePriceRecord(db, CreatePriceInput{ProductID: p.ID, PriceType: models.PriceTypeSale, UnitPrice: 0, StartDate: day("2025-01-01")})
	require.ErrorAs(t, err, &invalid)

	_, err = CreatePriceRecord(db, CreatePriceInput{ProductID: p.ID, PriceType: models.PriceTypeSale, UnitPrice: 15, StartDate: day("2025-02-01"), EndDate: dayPtr("2025-01-01")})
	require.ErrorAs(t, err, &invalid)

	_, err = CreatePriceRecord(db, CreatePriceInput{ProductID: p.ID, PriceType: "indirim", UnitPrice: 15, StartDate: day("2025-01-01")})
	require.ErrorAs(t, err, &invalid)
}

func TestCreatePriceRecordProductChecks(t *testing.T) {
	db := setupTestDB(t)
	passive := seedProduct(t, db, "Eski Menü", false)

	_, err := CreatePriceRecord(db, CreatePriceInput{ProductID: 9999, PriceType: models.PriceTypeSale, UnitPrice: 10, StartDate: day("2025-01-01")})
	require.ErrorIs(t, err, ErrProductNotFound)

	_, err = CreatePriceRecord(db, CreatePriceInput{ProductID: passive.ID, PriceType: models.PriceTypeSale, UnitPrice: 10, StartDate: day("2025-01-01")})
	require.ErrorIs(t, err, ErrProductInactive)
}

func TestCreatePriceRecordRejectsOverlap(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "Pide", true)

	existing, err := CreatePriceRecord(db, CreatePriceInput{
		ProductID: p.ID, PriceType: models.PriceTypeSale, UnitPrice: 80, Unit: "adet",
		StartDate: day("2025-01-01"), EndDate: dayPtr("2025-06-30"),
	})
	require.NoError(t, err)

	// Aralık içinde çakışan yeni kayıt
	_, err = CreatePriceRecord(db, CreatePriceInput{
		ProductID: p.ID, PriceType: models.PriceTypeSale, UnitPrice: 85, Unit: "adet",
		StartDate: day("2025-03-01"), EndDate: dayPtr("2025-04-30"),
	})
	var overlap *OverlapError
	require.ErrorAs(t, err, &overlap)
	require.Equal(t, existing.ID, overlap.ConflictID)

	// Açık uçlu yeni kayıt da mevcut aralığa değiyor
	_, err = CreatePriceRecord(db, CreatePriceInput{
		ProductID: p.ID, PriceType: models.PriceTypeSale, UnitPrice: 90, Unit: "adet",
		StartDate: day("2025-06-30"),
	})
	require.ErrorAs(t, err, &overlap)

	// Farklı tür çakışma sayılmaz
	_, err = CreatePriceRecord(db, CreatePriceInput{
		ProductID: p.ID, PriceType: models.PriceTypePurchase, UnitPrice: 40, Unit: "adet",
		StartDate: day("2025-03-01"),
	})
	require.NoError(t, err)

	// Bitişten sonra başlayan kayıt serbest
	_, err = CreatePriceRecord(db, CreatePriceInput{
		ProductID: p.ID, PriceType: models.PriceTypeSale, UnitPrice: 95, Unit: "adet",
		StartDate: day("2025-07-01"),
	})
	require.NoError(t, err)
}

func TestCreatePriceRecordDeactivateOverlapping(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "Döner", true)

	old, err := CreatePriceRecord(db, CreatePriceInput{
		ProductID: p.ID, PriceType: models.PriceTypeSale, UnitPrice: 100, Unit: "porsiyon",
		StartDate: day("2025-01-01"),
	})
	require.NoError(t, err)

	created, err := CreatePriceRecord(db, CreatePriceInput{
		ProductID: p.ID, PriceType: models.PriceTypeSale, UnitPrice: 110, Unit: "porsiyon",
		StartDate: day("2025-05-01"), DeactivateOverlapping: true,
	})
	require.NoError(t, err)
	require.True(t, created.IsActive)

	var reloaded models.PriceRecord
	require.NoError(t, db.First(&reloaded, "id = ?", old.ID).Error)
	require.False(t, reloaded.IsActive)

	// Çakışma temizlendi: artık tek aktif kayıt yeni olan
	rec, err := ResolvePrice(db, p.ID, models.PriceTypeSale, day("2025-06-01"))
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, created.ID, rec.ID)
}

func TestOverlapErrorUnwrapsAsError(t *testing.T) {
	err := error(&OverlapError{ConflictID: 7, StartDate: day("2025-01-01")})
	var overlap *OverlapError
	require.True(t, errors.As(err, &overlap))
	require.Contains(t, err.Error(), "çakış")
}

func TestInactiveFlagPersistsOnCreate(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "Pide", false)

	pr := models.PriceRecord{ProductID: p.ID, PriceType: models.PriceTypeSale, UnitPrice: 90, Unit: "adet", StartDate: day("2025-01-01"), IsActive: false}
	require.NoError(t, db.Create(&pr).Error)

	var gotProduct models.Product
	require.NoError(t, db.First(&gotProduct, "id = ?", p.ID).Error)
	require.False(t, gotProduct.IsActive)

	var gotRecord models.PriceRecord
	require.NoError(t, db.First(&gotRecord, "id = ?", pr.ID).Error)
	require.False(t, gotRecord.IsActive)
}

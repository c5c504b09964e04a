package trash

import (
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
	require.NoError(t, db.AutoMigrate(
		&models.Product{},
		&models.PriceRecord{},
		&models.Recipe{},
		&models.RecipeIngredient{},
	))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string) *models.Product {
	t.Helper()
	p := models.Product{Name: name, Unit: "adet", IsActive: true}
	require.NoError(t, db.Create(&p).Error)
	return &p
}

func TestSoftDeleteMarksRecord(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "Baklava")

	require.NoError(t, SoftDelete(db, EntityProduct, p.ID, "ayse", "menüden kaldırıldı"))

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", p.ID).Error)
	require.False(t, reloaded.IsActive)
	require.NotNil(t, reloaded.DeletedAt)
	require.Equal(t, "ayse", reloaded.DeletedBy)
	require.Equal(t, "menüden kaldırıldı", reloaded.DeleteReason)
}

func TestSoftDeleteTwiceIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "Şöbiyet")

	require.NoError(t, SoftDelete(db, EntityProduct, p.ID, "ali", ""))
	require.NoError(t, SoftDelete(db, EntityProduct, p.ID, "veli", "tekrar"))

	// İlk silenin izi korunur
	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", p.ID).Error)
	require.Equal(t, "ali", reloaded.DeletedBy)
}

func TestSoftDeleteMissingRecord(t *testing.T) {
	db := setupTestDB(t)
	require.ErrorIs(t, SoftDelete(db, EntityProduct, 9999, "ali", ""), gorm.ErrRecordNotFound)
}

func TestRestoreRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "Sütlaç")

	require.NoError(t, SoftDelete(db, EntityProduct, p.ID, "ayse", "sezon dışı"))
	require.NoError(t, Restore(db, EntityProduct, p.ID))

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", p.ID).Error)
	require.True(t, reloaded.IsActive)
	require.Nil(t, reloaded.DeletedAt)
	require.Empty(t, reloaded.DeletedBy)
	require.Empty(t, reloaded.DeleteReason)
}

func TestRestoreNotDeleted(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "Kazandibi")

	require.ErrorIs(t, Restore(db, EntityProduct, p.ID), ErrNotDeleted)
	require.ErrorIs(t, Restore(db, EntityProduct, 9999), gorm.ErrRecordNotFound)
}

func TestUnknownEntity(t *testing.T) {
	db := setupTestDB(t)
	require.ErrorIs(t, SoftDelete(db, EntityType("sube"), 1, "", ""), ErrUnknownEntity)
	require.ErrorIs(t, Restore(db, EntityType("sube"), 1), ErrUnknownEntity)
	_, _, err := ListTrash(db, EntityType("sube"), "", 1, 20)
	require.ErrorIs(t, err, ErrUnknownEntity)
}

func TestListTrashNewestDeletedFirst(t *testing.T) {
	db := setupTestDB(t)
	first := seedProduct(t, db, "Ayran")
	second := seedProduct(t, db, "Şalgam")
	seedProduct(t, db, "Limonata") // silinmedi, listede görünmemeli

	// Silinme zamanları farklı olsun
	require.NoError(t, SoftDelete(db, EntityProduct, first.ID, "ali", ""))
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", first.ID).
		Update("deleted_at", time.Now().Add(-time.Hour)).Error)
	require.NoError(t, SoftDelete(db, EntityProduct, second.ID, "ali", ""))

	items, total, err := ListTrash(db, EntityProduct, "", 1, 20)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, items, 2)
	require.Equal(t, second.ID, items[0].ID)
	require.Equal(t, first.ID, items[1].ID)
}

func TestListTrashSearchAndPaging(t *testing.T) {
	db := setupTestDB(t)
	a := seedProduct(t, db, "Tavuk Sote")
	b := seedProduct(t, db, "TAVUK Pilav")
	c := seedProduct(t, db, "Mercimek")
	for _, p := range []*models.Product{a, b, c} {
		require.NoError(t, SoftDelete(db, EntityProduct, p.ID, "ali", ""))
	}

	items, total, err := ListTrash(db, EntityProduct, "tavuk", 1, 20)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, items, 2)

	items, total, err = ListTrash(db, EntityProduct, "", 1, 2)
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, items, 2)

	items, _, err = ListTrash(db, EntityProduct, "", 2, 2)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestListTrashPriceRecordShowsProductName(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "Adana Kebap")
	rec := models.PriceRecord{
		ProductID: p.ID, PriceType: models.PriceTypeSale, UnitPrice: 150, Unit: "porsiyon",
		StartDate: time.Now(), IsActive: true,
	}
	require.NoError(t, db.Create(&rec).Error)
	older := models.PriceRecord{
		ProductID: p.ID, PriceType: models.PriceTypePurchase, UnitPrice: 80, Unit: "porsiyon",
		StartDate: time.Now(), IsActive: true,
	}
	require.NoError(t, db.Create(&older).Error)

	require.NoError(t, SoftDelete(db, EntityPriceRecord, older.ID, "ayse", "eski alış"))
	require.NoError(t, SoftDelete(db, EntityPriceRecord, rec.ID, "ayse", "yanlış fiyat"))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(&models.PriceRecord{}).Where("id = ?", older.ID).Update("deleted_at", past).Error)

	items, total, err := ListTrash(db, EntityPriceRecord, "", 1, 20)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Equal(t, rec.ID, items[0].ID)
	require.Equal(t, older.ID, items[1].ID)
	require.Equal(t, "Adana Kebap", items[0].Name)
	require.Equal(t, "yanlış fiyat", items[0].DeleteReason)
}

func TestRestoredRecipeIsActiveAgain(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "İskender")
	rec := models.Recipe{Name: "İskender", Portion: 1, ProductID: p.ID, IsActive: true}
	require.NoError(t, db.Create(&rec).Error)

	require.NoError(t, SoftDelete(db, EntityRecipe, rec.ID, "ali", ""))

	var deleted models.Recipe
	require.NoError(t, db.First(&deleted, "id = ?", rec.ID).Error)
	require.False(t, deleted.IsActive)

	require.NoError(t, Restore(db, EntityRecipe, rec.ID))

	var restored models.Recipe
	require.NoError(t, db.First(&restored, "id = ?", rec.ID).Error)
	require.True(t, restored.IsActive)
	require.Nil(t, restored.DeletedAt)
}

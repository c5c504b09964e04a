package recipe

import (
	"testing"

	"mutfak-backend/internal/models"

	"github.com/stretchr/testify/require"
)

func TestRecalculateByRecipe(t *testing.T) {
	db := setupTestDB(t)
	m1 := seedMaterial(t, db, "DM-01", "Domates", 25, true)
	m2 := seedMaterial(t, db, "BB-01", "Biber", 40, true)
	rec := seedRecipe(t, db, "Menemen", 2,
		models.RecipeIngredient{MaterialID: m1.ID, Quantity: 0.4, Unit: "kg"},
		models.RecipeIngredient{MaterialID: m2.ID, Quantity: 0.1, Unit: "kg"},
	)

	res, err := Recalculate(db, RecalcInput{RecipeID: rec.ID})
	require.NoError(t, err)
	require.InDelta(t, 14.0, res.TotalCost, 0.001) // 0.4*25 + 0.1*40
	require.InDelta(t, 7.0, res.UnitCost, 0.001)
	require.Len(t, res.Lines, 2)
	require.False(t, res.Persisted)

	// Persist istenmedi: önbellek değişmedi
	var reloaded models.Recipe
	require.NoError(t, db.First(&reloaded, "id = ?", rec.ID).Error)
	require.Zero(t, reloaded.TotalCost)
}

func TestRecalculateSkipsMissingAndInactiveMaterials(t *testing.T) {
	db := setupTestDB(t)
	ok := seedMaterial(t, db, "TZ-01", "Tuz", 10, true)
	passive := seedMaterial(t, db, "ES-01", "Eski Malzeme", 99, false)
	rec := seedRecipe(t, db, "Turşu", 1,
		models.RecipeIngredient{MaterialID: ok.ID, Quantity: 1, Unit: "kg"},
		models.RecipeIngredient{MaterialID: passive.ID, Quantity: 1, Unit: "kg"},
		models.RecipeIngredient{MaterialID: 9999, Quantity: 1, Unit: "kg"},
	)

	res, err := Recalculate(db, RecalcInput{RecipeID: rec.ID})
	require.NoError(t, err)
	require.InDelta(t, 10.0, res.TotalCost, 0.001) // sadece tuz
	require.Len(t, res.Lines, 1)
	require.ElementsMatch(t, []uint{passive.ID, 9999}, res.SkippedMaterials)
}

func TestRecalculateMissingRecipeIsZeroResult(t *testing.T) {
	db := setupTestDB(t)

	res, err := Recalculate(db, RecalcInput{RecipeID: 404})
	require.NoError(t, err)
	require.Zero(t, res.TotalCost)
	require.Empty(t, res.Lines)
	require.False(t, res.Persisted)
}

func TestRecalculateAdHocItems(t *testing.T) {
	db := setupTestDB(t)
	m := seedMaterial(t, db, "SG-01", "Süt", 35, true)

	res, err := Recalculate(db, RecalcInput{
		Items:   []RecalcItem{{MaterialID: m.ID, Quantity: 2}},
		Portion: 4,
	})
	require.NoError(t, err)
	require.InDelta(t, 70.0, res.TotalCost, 0.001)
	require.InDelta(t, 17.5, res.UnitCost, 0.001)
	require.Equal(t, 4.0, res.Portion)
	// Ad-hoc satırda birim malzemeden alınır
	require.Equal(t, "kg", res.Lines[0].Unit)
}

func TestRecalculatePersistUpdatesRecipeAndIngredients(t *testing.T) {
	db := setupTestDB(t)
	m := seedMaterial(t, db, "TV-01", "Tavuk", 120, true)
	rec := seedRecipe(t, db, "Tavuk Sote", 2,
		models.RecipeIngredient{MaterialID: m.ID, Quantity: 0.5, Unit: "kg"},
	)

	res, err := Recalculate(db, RecalcInput{RecipeID: rec.ID, Persist: true})
	require.NoError(t, err)
	require.True(t, res.Persisted)

	var reloaded models.Recipe
	require.NoError(t, db.Preload("Ingredients").First(&reloaded, "id = ?", rec.ID).Error)
	require.InDelta(t, 60.0, reloaded.TotalCost, 0.001)
	require.InDelta(t, 30.0, reloaded.UnitCost, 0.001)
	require.Len(t, reloaded.Ingredients, 1)
	require.InDelta(t, 120.0, reloaded.Ingredients[0].LastUnitPrice, 0.001)
	require.InDelta(t, 60.0, reloaded.Ingredients[0].LineCost, 0.001)
}

func TestRecalculateAllSkipsBrokenRecipesAndCountsUpdated(t *testing.T) {
	db := setupTestDB(t)
	m := seedMaterial(t, db, "NK-01", "Nohut", 45, true)

	r1 := seedRecipe(t, db, "Nohut Yemeği", 1,
		models.RecipeIngredient{MaterialID: m.ID, Quantity: 0.5, Unit: "kg"},
	)
	r2 := seedRecipe(t, db, "Humus", 1,
		models.RecipeIngredient{MaterialID: m.ID, Quantity: 0.3, Unit: "kg"},
	)
	passive := seedRecipe(t, db, "Pasif Reçete", 1,
		models.RecipeIngredient{MaterialID: m.ID, Quantity: 1, Unit: "kg"},
	)
	require.NoError(t, db.Model(&models.Recipe{}).Where("id = ?", passive.ID).Update("is_active", false).Error)

	updated, err := RecalculateAll(db, nil, true)
	require.NoError(t, err)
	require.Equal(t, 2, updated)

	var c1, c2, c3 models.Recipe
	require.NoError(t, db.First(&c1, "id = ?", r1.ID).Error)
	require.NoError(t, db.First(&c2, "id = ?", r2.ID).Error)
	require.NoError(t, db.First(&c3, "id = ?", passive.ID).Error)
	require.InDelta(t, 22.5, c1.TotalCost, 0.001)
	require.InDelta(t, 13.5, c2.TotalCost, 0.001)
	require.Zero(t, c3.TotalCost) // pasif reçeteye dokunulmadı
}

func TestRecalculateAllWithExplicitIDs(t *testing.T) {
	db := setupTestDB(t)
	m := seedMaterial(t, db, "MR-01", "Mercimek", 50, true)

	r1 := seedRecipe(t, db, "Mercimek Çorbası", 4,
		models.RecipeIngredient{MaterialID: m.ID, Quantity: 0.4, Unit: "kg"},
	)
	r2 := seedRecipe(t, db, "Mercimek Köftesi", 1,
		models.RecipeIngredient{MaterialID: m.ID, Quantity: 0.6, Unit: "kg"},
	)

	updated, err := RecalculateAll(db, []uint{r1.ID}, false)
	require.NoError(t, err)
	require.Equal(t, 1, updated)

	var c2 models.Recipe
	require.NoError(t, db.First(&c2, "id = ?", r2.ID).Error)
	require.Zero(t, c2.TotalCost)
}

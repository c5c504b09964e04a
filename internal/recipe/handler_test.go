package recipe

import (
	"bytes"
	"fmt"
	"net/http/httptest"
	"testing"

	"mutfak-backend/internal/database"
	"mutfak-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestUpdateRecipePortionRefreshesUnitCost(t *testing.T) {
	db := setupTestDB(t)
	database.DB = db

	rec := seedRecipe(t, db, "Mantı", 4)
	rec.TotalCost = 204
	rec.UnitCost = 51
	require.NoError(t, db.Save(rec).Error)

	app := fiber.New()
	app.Put("/api/recipes/:id", UpdateRecipeHandler())

	body := bytes.NewBufferString(`{"portion": 2}`)
	req := httptest.NewRequest(fiber.MethodPut, fmt.Sprintf("/api/recipes/%d", rec.ID), body)
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated models.Recipe
	require.NoError(t, db.First(&updated, "id = ?", rec.ID).Error)
	require.InDelta(t, 2.0, updated.Portion, 0.001)
	require.InDelta(t, 204.0, updated.TotalCost, 0.001) // toplam maliyet porsiyondan etkilenmez
	require.InDelta(t, 102.0, updated.UnitCost, 0.001)  // 204 / yeni porsiyon
}

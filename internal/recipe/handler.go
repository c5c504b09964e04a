package recipe

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"mutfak-backend/internal/audit"
	"mutfak-backend/internal/auth"
	"mutfak-backend/internal/database"
	"mutfak-backend/internal/models"
	"mutfak-backend/internal/trash"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// -------------------------
// Request/Response Types
// -------------------------

type IngredientRequest struct {
	MaterialID uint    `json:"material_id"`
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit"`
}

type CreateRecipeRequest struct {
	Name        string              `json:"name"`
	Portion     float64             `json:"portion"`
	ProductID   uint                `json:"product_id"`
	Ingredients []IngredientRequest `json:"ingredients"`
}

type UpdateRecipeRequest struct {
	Name        *string             `json:"name"`
	Portion     *float64            `json:"portion"`
	ProductID   *uint               `json:"product_id"`
	Ingredients []IngredientRequest `json:"ingredients"` // Verilirse satırlar komple değiştirilir
}

type IngredientResponse struct {
	ID            uint    `json:"id"`
	MaterialID    uint    `json:"material_id"`
	MaterialName  string  `json:"material_name"`
	Quantity      float64 `json:"quantity"`
	Unit          string  `json:"unit"`
	LastUnitPrice float64 `json:"last_unit_price"`
	LineCost      float64 `json:"line_cost"`
}

type RecipeResponse struct {
	ID          uint                 `json:"id"`
	Name        string               `json:"name"`
	Portion     float64              `json:"portion"`
	ProductID   uint                 `json:"product_id"`
	TotalCost   float64              `json:"total_cost"`
	UnitCost    float64              `json:"unit_cost"`
	IsActive    bool                 `json:"is_active"`
	Ingredients []IngredientResponse `json:"ingredients,omitempty"`
	CreatedAt   string               `json:"created_at"`
	UpdatedAt   string               `json:"updated_at"`
}

type RecalcRequest struct {
	Items   []RecalcItem `json:"items"`
	Portion float64      `json:"portion"`
	Persist bool         `json:"persist"`
}

type RecalcAllRequest struct {
	RecipeIDs  []uint `json:"recipe_ids"`
	OnlyActive *bool  `json:"only_active"` // Varsayılan true
}

func toRecipeResponse(rec *models.Recipe, withIngredients bool) RecipeResponse {
	resp := RecipeResponse{
		ID:        rec.ID,
		Name:      rec.Name,
		Portion:   rec.Portion,
		ProductID: rec.ProductID,
		TotalCost: rec.TotalCost,
		UnitCost:  rec.UnitCost,
		IsActive:  rec.IsActive,
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt: rec.UpdatedAt.Format(time.RFC3339),
	}
	if withIngredients {
		resp.Ingredients = make([]IngredientResponse, 0, len(rec.Ingredients))
		for _, ing := range rec.Ingredients {
			resp.Ingredients = append(resp.Ingredients, IngredientResponse{
				ID:            ing.ID,
				MaterialID:    ing.MaterialID,
				MaterialName:  ing.Material.Name,
				Quantity:      ing.Quantity,
				Unit:          ing.Unit,
				LastUnitPrice: ing.LastUnitPrice,
				LineCost:      ing.LineCost,
			})
		}
	}
	return resp
}

// -------------------------
// Yardımcı: Kullanıcı bilgilerini al
// -------------------------
func getUserInfo(c *fiber.Ctx) (uint, string, error) {
	userIDVal := c.Locals(auth.CtxUserIDKey)
	userID, ok := userIDVal.(uint)
	if !ok {
		return 0, "", fiber.NewError(fiber.StatusForbidden, "Kullanıcı bilgisi alınamadı")
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return 0, "", fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı bulunamadı")
	}

	return userID, user.Name, nil
}

// buildIngredients - İstekteki satırları, fiyatları çözülmüş reçete
// satırlarına çevirir. Reçete satırları her zaman komple yeniden kurulur.
func buildIngredients(db *gorm.DB, recipeID uint, items []IngredientRequest) ([]models.RecipeIngredient, float64, error) {
	fallback := ProductNameFallback{}
	now := time.Now()

	ingredients := make([]models.RecipeIngredient, 0, len(items))
	totalCost := 0.0
	for i, it := range items {
		if it.MaterialID == 0 || it.Quantity <= 0 {
			return nil, 0, fiber.NewError(fiber.StatusBadRequest, "Her satırda material_id ve 0'dan büyük quantity zorunlu")
		}
		var material models.Material
		if err := db.First(&material, "id = ?", it.MaterialID).Error; err != nil {
			return nil, 0, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Malzeme bulunamadı: %d", it.MaterialID))
		}

		unitPrice := resolveUnitPrice(db, &material, fallback, now)
		lineCost := unitPrice * it.Quantity
		totalCost += lineCost

		unit := it.Unit
		if unit == "" {
			unit = material.Unit
		}
		ingredients = append(ingredients, models.RecipeIngredient{
			RecipeID:      recipeID,
			MaterialID:    it.MaterialID,
			Quantity:      it.Quantity,
			Unit:          unit,
			LastUnitPrice: unitPrice,
			LineCost:      lineCost,
			SortOrder:     i,
		})
	}
	return ingredients, totalCost, nil
}

// -------------------------
// Recipe CRUD
// -------------------------

// POST /api/recipes
func CreateRecipeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateRecipeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if strings.TrimSpace(body.Name) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name boş olamaz")
		}
		if body.ProductID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "product_id zorunlu")
		}
		var product models.Product
		if err := database.DB.First(&product, "id = ?", body.ProductID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Ürün bulunamadı")
		}

		portion := body.Portion
		if portion <= 0 {
			portion = 1
		}

		rec := models.Recipe{
			Name:      strings.TrimSpace(body.Name),
			Portion:   portion,
			ProductID: body.ProductID,
			IsActive:  true,
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
			ingredients, totalCost, err := buildIngredients(tx, rec.ID, body.Ingredients)
			if err != nil {
				return err
			}
			if len(ingredients) > 0 {
				if err := tx.Create(&ingredients).Error; err != nil {
					return err
				}
			}
			rec.TotalCost = totalCost
			rec.UnitCost = totalCost / portion
			return tx.Model(&models.Recipe{}).Where("id = ?", rec.ID).Updates(map[string]interface{}{
				"total_cost": rec.TotalCost,
				"unit_cost":  rec.UnitCost,
			}).Error
		}, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Reçete kaydedilemedi")
		}

		// Audit log yaz
		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			afterData := map[string]interface{}{
				"id":         rec.ID,
				"name":       rec.Name,
				"portion":    rec.Portion,
				"product_id": rec.ProductID,
				"total_cost": rec.TotalCost,
			}
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "recipe",
				EntityID:    rec.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Reçete eklendi: %s (%.2f TL)", rec.Name, rec.TotalCost),
				Before:      nil,
				After:       afterData,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(toRecipeResponse(&rec, false))
	}
}

// PUT /api/recipes/:id
func UpdateRecipeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var rec models.Recipe
		if err := database.DB.First(&rec, "id = ? AND deleted_at IS NULL", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Reçete bulunamadı")
		}

		var body UpdateRecipeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		beforeData := map[string]interface{}{
			"id":         rec.ID,
			"name":       rec.Name,
			"portion":    rec.Portion,
			"product_id": rec.ProductID,
			"total_cost": rec.TotalCost,
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name boş olamaz")
			}
			rec.Name = name
		}
		if body.Portion != nil {
			if *body.Portion <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "portion 0'dan büyük olmalı")
			}
			rec.Portion = *body.Portion
		}
		if body.ProductID != nil {
			var product models.Product
			if err := database.DB.First(&product, "id = ?", *body.ProductID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Ürün bulunamadı")
			}
			rec.ProductID = *body.ProductID
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			// Satırlar verilmişse komple değiştir: önce hepsini sil, sonra
			// yeniden kur. Satır bazlı diff yapılmaz.
			if body.Ingredients != nil {
				if err := tx.Where("recipe_id = ?", rec.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
					return err
				}
				ingredients, totalCost, err := buildIngredients(tx, rec.ID, body.Ingredients)
				if err != nil {
					return err
				}
				if len(ingredients) > 0 {
					if err := tx.Create(&ingredients).Error; err != nil {
						return err
					}
				}
				rec.TotalCost = totalCost
				rec.UnitCost = totalCost / rec.Portion
			} else if body.Portion != nil {
				// Porsiyon değişti, önbellekteki birim maliyet eski porsiyona göre kalmasın
				rec.UnitCost = rec.TotalCost / rec.Portion
			}
			return tx.Save(&rec).Error
		}, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Reçete güncellenemedi")
		}

		// Audit log
		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			afterData := map[string]interface{}{
				"id":         rec.ID,
				"name":       rec.Name,
				"portion":    rec.Portion,
				"product_id": rec.ProductID,
				"total_cost": rec.TotalCost,
			}
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "recipe",
				EntityID:    rec.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Reçete güncellendi: %s", rec.Name),
				Before:      beforeData,
				After:       afterData,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(toRecipeResponse(&rec, false))
	}
}

// GET /api/recipes?search=...&include_passive=true
func ListRecipesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Recipe{}).Where("deleted_at IS NULL")

		if search := strings.TrimSpace(c.Query("search")); search != "" {
			dbq = dbq.Where("LOWER(name) LIKE LOWER(?)", "%"+search+"%")
		}
		if c.Query("include_passive") != "true" {
			dbq = dbq.Where("is_active = ?", true)
		}

		var recipes []models.Recipe
		if err := dbq.Order("name asc").Find(&recipes).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Reçeteler listelenemedi")
		}

		resp := make([]RecipeResponse, 0, len(recipes))
		for i := range recipes {
			resp = append(resp, toRecipeResponse(&recipes[i], false))
		}
		return c.JSON(resp)
	}
}

// GET /api/recipes/:id
func GetRecipeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var rec models.Recipe
		err := database.DB.Preload("Ingredients", func(q *gorm.DB) *gorm.DB {
			return q.Order("sort_order asc, id asc")
		}).Preload("Ingredients.Material").
			First(&rec, "id = ? AND deleted_at IS NULL", id).Error
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Reçete bulunamadı")
		}
		return c.JSON(toRecipeResponse(&rec, true))
	}
}

// DELETE /api/recipes/:id - Soft delete; aktif siparişte kullanılan ürünün
// reçetesi silinemez
func DeleteRecipeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var rec models.Recipe
		if err := database.DB.First(&rec, "id = ? AND deleted_at IS NULL", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Reçete bulunamadı")
		}

		// Ürünü ödenmemiş bir siparişte geçen reçete silinemez
		var openOrders int64
		database.DB.Model(&models.OrderItem{}).
			Joins("JOIN orders ON orders.id = order_items.order_id").
			Where("order_items.product_id = ? AND orders.payment_status <> ?", rec.ProductID, models.PaymentStatusPaid).
			Count(&openOrders)
		if openOrders > 0 {
			return fiber.NewError(fiber.StatusConflict, "Reçetenin ürünü açık siparişlerde kullanılıyor, önce siparişleri kapatın")
		}

		userID, userName, uerr := getUserInfo(c)
		actor := ""
		if uerr == nil {
			actor = userName
		}

		reason := strings.TrimSpace(c.Query("reason"))
		if err := trash.SoftDelete(database.DB, trash.EntityRecipe, rec.ID, actor, reason); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Reçete silinemedi")
		}

		if uerr == nil {
			beforeData := map[string]interface{}{
				"id":      rec.ID,
				"name":    rec.Name,
				"portion": rec.Portion,
			}
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "recipe",
				EntityID:    rec.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Reçete silindi: %s", rec.Name),
				Before:      beforeData,
				After:       nil,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// -------------------------
// Maliyet endpoint'leri
// -------------------------

// GET /api/recipes/:id/cost?breakdown=true&margin=true
func CostHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var recipeID uint
		if _, err := fmt.Sscan(c.Params("id"), &recipeID); err != nil || recipeID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz reçete ID")
		}

		includeMargin := c.Query("margin") == "true"
		if includeMargin && !auth.IsAdmin(c) {
			return fiber.NewError(fiber.StatusForbidden, "Marj bilgisini sadece admin görebilir")
		}

		report, err := CurrentCost(database.DB, recipeID, CostOptions{
			IncludeBreakdown: c.Query("breakdown") == "true",
			IncludeMargin:    includeMargin,
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Maliyet hesaplanamadı")
		}

		return c.JSON(report)
	}
}

// POST /api/recipes/:id/recalculate
func RecalculateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var recipeID uint
		if _, err := fmt.Sscan(c.Params("id"), &recipeID); err != nil || recipeID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz reçete ID")
		}

		var body RecalcRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
			}
		}

		if body.Persist && !auth.IsAdmin(c) {
			return fiber.NewError(fiber.StatusForbidden, "Maliyet kalıcılaştırmayı sadece admin yapabilir")
		}

		result, err := Recalculate(database.DB, RecalcInput{
			RecipeID: recipeID,
			Portion:  body.Portion,
			Persist:  body.Persist,
		})
		if err != nil {
			var pe *PersistenceError
			if errors.As(err, &pe) {
				return fiber.NewError(fiber.StatusConflict, "Maliyet kaydedilemedi, tekrar deneyin")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Maliyet hesaplanamadı")
		}

		if result.Persisted {
			userID, userName, uerr := getUserInfo(c)
			if uerr == nil {
				if logErr := audit.WriteLog(audit.LogOptions{
					UserID:      userID,
					UserName:    userName,
					EntityType:  "recipe",
					EntityID:    recipeID,
					Action:      models.AuditActionUpdate,
					Description: fmt.Sprintf("Reçete maliyeti yeniden hesaplandı: %.2f TL", result.TotalCost),
					Before:      nil,
					After:       map[string]interface{}{"total_cost": result.TotalCost, "unit_cost": result.UnitCost},
				}); logErr != nil {
					fmt.Printf("Audit log yazılamadı: %v\n", logErr)
				}
			}
		}

		return c.JSON(result)
	}
}

// POST /api/recipes/recalculate - Ad-hoc malzeme listesi için maliyet hesabı
func RecalculateAdHocHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RecalcRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		if len(body.Items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "items boş olamaz")
		}

		result, err := Recalculate(database.DB, RecalcInput{
			Items:   body.Items,
			Portion: body.Portion,
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Maliyet hesaplanamadı")
		}

		return c.JSON(result)
	}
}

// POST /api/recipes/recalculate-all
func RecalculateAllHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Gövde opsiyonel: boş istek tüm aktif reçeteleri hesaplar
		var body RecalcAllRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
			}
		}

		onlyActive := true
		if body.OnlyActive != nil {
			onlyActive = *body.OnlyActive
		}

		updated, err := RecalculateAll(database.DB, body.RecipeIDs, onlyActive)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Toplu hesaplama başarısız")
		}

		return c.JSON(fiber.Map{"updated": updated})
	}
}

package inventory

import (
	"fmt"
	"strings"

	"mutfak-backend/internal/audit"
	"mutfak-backend/internal/auth"
	"mutfak-backend/internal/database"
	"mutfak-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// -------------------------
// Request/Response Types
// -------------------------

type MaterialResponse struct {
	ID            uint    `json:"id"`
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	Unit          string  `json:"unit"`
	UnitPrice     float64 `json:"unit_price"`
	IsActive      bool    `json:"is_active"`
	MinStock      float64 `json:"min_stock"`
	CriticalStock float64 `json:"critical_stock"`
}

type CreateMaterialRequest struct {
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	Unit          string  `json:"unit"`
	UnitPrice     float64 `json:"unit_price"` // 0 = fiyat bilinmiyor
	MinStock      float64 `json:"min_stock"`
	CriticalStock float64 `json:"critical_stock"`
}

type UpdateMaterialRequest struct {
	Name          *string  `json:"name"`
	Unit          *string  `json:"unit"`
	UnitPrice     *float64 `json:"unit_price"`
	IsActive      *bool    `json:"is_active"`
	MinStock      *float64 `json:"min_stock"`
	CriticalStock *float64 `json:"critical_stock"`
}

func toMaterialResponse(m *models.Material) MaterialResponse {
	return MaterialResponse{
		ID:            m.ID,
		Code:          m.Code,
		Name:          m.Name,
		Unit:          m.Unit,
		UnitPrice:     m.UnitPrice,
		IsActive:      m.IsActive,
		MinStock:      m.MinStock,
		CriticalStock: m.CriticalStock,
	}
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

// -------------------------
// Material CRUD
// -------------------------

// POST /api/materials
func CreateMaterialHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateMaterialRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		// Kod büyük harfe normalize edilir; benzersizlik böylece
		// büyük/küçük harf duyarsız olur
		code := strings.ToUpper(strings.TrimSpace(body.Code))
		name := strings.TrimSpace(body.Name)

		if code == "" || name == "" || strings.TrimSpace(body.Unit) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "code, name ve unit zorunlu")
		}
		if body.UnitPrice < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "unit_price negatif olamaz")
		}

		var existing int64
		database.DB.Model(&models.Material{}).Where("code = ?", code).Count(&existing)
		if existing > 0 {
			return fiber.NewError(fiber.StatusConflict, "Bu kodla bir malzeme zaten var")
		}

		material := models.Material{
			Code:          code,
			Name:          name,
			Unit:          strings.TrimSpace(body.Unit),
			UnitPrice:     body.UnitPrice,
			IsActive:      true,
			MinStock:      body.MinStock,
			CriticalStock: body.CriticalStock,
		}

		if err := database.DB.Create(&material).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzeme kaydedilemedi")
		}

		// Audit log yaz
		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			afterData := map[string]interface{}{
				"id":         material.ID,
				"code":       material.Code,
				"name":       material.Name,
				"unit_price": material.UnitPrice,
			}
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "material",
				EntityID:    material.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Malzeme eklendi: %s (%s)", material.Name, material.Code),
				Before:      nil,
				After:       afterData,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(toMaterialResponse(&material))
	}
}

// GET /api/materials?search=...&include_passive=true
func ListMaterialsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Material{})

		if search := strings.TrimSpace(c.Query("search")); search != "" {
			dbq = dbq.Where("LOWER(name) LIKE LOWER(?) OR LOWER(code) LIKE LOWER(?)", "%"+search+"%", "%"+search+"%")
		}
		if c.Query("include_passive") != "true" {
			dbq = dbq.Where("is_active = ?", true)
		}

		var materials []models.Material
		if err := dbq.Order("name asc").Find(&materials).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzemeler listelenemedi")
		}

		resp := make([]MaterialResponse, 0, len(materials))
		for i := range materials {
			resp = append(resp, toMaterialResponse(&materials[i]))
		}
		return c.JSON(resp)
	}
}

// PUT /api/materials/:id
func UpdateMaterialHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var material models.Material
		if err := database.DB.First(&material, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Malzeme bulunamadı")
		}

		var body UpdateMaterialRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		beforeData := map[string]interface{}{
			"id":         material.ID,
			"name":       material.Name,
			"unit":       material.Unit,
			"unit_price": material.UnitPrice,
			"is_active":  material.IsActive,
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name boş olamaz")
			}
			material.Name = name
		}
		if body.Unit != nil {
			unit := strings.TrimSpace(*body.Unit)
			if unit == "" {
				return fiber.NewError(fiber.StatusBadRequest, "unit boş olamaz")
			}
			material.Unit = unit
		}
		if body.UnitPrice != nil {
			if *body.UnitPrice < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "unit_price negatif olamaz")
			}
			material.UnitPrice = *body.UnitPrice
		}
		if body.IsActive != nil {
			material.IsActive = *body.IsActive
		}
		if body.MinStock != nil {
			material.MinStock = *body.MinStock
		}
		if body.CriticalStock != nil {
			material.CriticalStock = *body.CriticalStock
		}

		if err := database.DB.Save(&material).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzeme güncellenemedi")
		}

		// Audit log
		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			afterData := map[string]interface{}{
				"id":         material.ID,
				"name":       material.Name,
				"unit":       material.Unit,
				"unit_price": material.UnitPrice,
				"is_active":  material.IsActive,
			}
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "material",
				EntityID:    material.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Malzeme güncellendi: %s", material.Name),
				Before:      beforeData,
				After:       afterData,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(toMaterialResponse(&material))
	}
}

// DELETE /api/materials/:id - Reçetede geçen malzeme silinmez, pasife çekilir
func DeleteMaterialHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var material models.Material
		if err := database.DB.First(&material, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Malzeme bulunamadı")
		}

		var refCount int64
		database.DB.Model(&models.RecipeIngredient{}).Where("material_id = ?", material.ID).Count(&refCount)
		if refCount > 0 {
			// Referanslı malzeme kalıcı silinemez; pasife çek
			if err := database.DB.Model(&material).Update("is_active", false).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Malzeme pasife çekilemedi")
			}
		} else {
			if err := database.DB.Delete(&material).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Malzeme silinemedi")
			}
		}

		// Audit log
		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			beforeData := map[string]interface{}{
				"id":   material.ID,
				"code": material.Code,
				"name": material.Name,
			}
			action := models.AuditActionDelete
			desc := fmt.Sprintf("Malzeme silindi: %s", material.Name)
			if refCount > 0 {
				action = models.AuditActionUpdate
				desc = fmt.Sprintf("Malzeme pasife çekildi (reçetede kullanılıyor): %s", material.Name)
			}
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "material",
				EntityID:    material.ID,
				Action:      action,
				Description: desc,
				Before:      beforeData,
				After:       nil,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

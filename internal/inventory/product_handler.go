package inventory

import (
	"fmt"
	"strings"

	"mutfak-backend/internal/audit"
	"mutfak-backend/internal/database"
	"mutfak-backend/internal/models"
	"mutfak-backend/internal/trash"

	"github.com/gofiber/fiber/v2"
)

type ProductResponse struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Unit     string `json:"unit"`
	IsActive bool   `json:"is_active"`
}

type CreateProductRequest struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

type UpdateProductRequest struct {
	Name     *string `json:"name"`
	Unit     *string `json:"unit"`
	IsActive *bool   `json:"is_active"`
}

// GET /api/products?search=...&include_passive=true
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Product{}).Where("deleted_at IS NULL")

		if search := strings.TrimSpace(c.Query("search")); search != "" {
			dbq = dbq.Where("LOWER(name) LIKE LOWER(?)", "%"+search+"%")
		}
		if c.Query("include_passive") != "true" {
			dbq = dbq.Where("is_active = ?", true)
		}

		var products []models.Product
		if err := dbq.Order("name asc").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler listelenemedi")
		}

		res := make([]ProductResponse, 0, len(products))
		for _, p := range products {
			res = append(res, ProductResponse{
				ID:       p.ID,
				Name:     p.Name,
				Unit:     p.Unit,
				IsActive: p.IsActive,
			})
		}
		return c.JSON(res)
	}
}

// POST /api/products
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		name := strings.TrimSpace(body.Name)
		if name == "" || strings.TrimSpace(body.Unit) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name ve unit zorunlu")
		}

		product := models.Product{
			Name:     name,
			Unit:     strings.TrimSpace(body.Unit),
			IsActive: true,
		}

		if err := database.DB.Create(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün kaydedilemedi")
		}

		// Audit log yaz
		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "product",
				EntityID:    product.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Ürün eklendi: %s", product.Name),
				Before:      nil,
				After:       map[string]interface{}{"id": product.ID, "name": product.Name, "unit": product.Unit},
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(ProductResponse{
			ID:       product.ID,
			Name:     product.Name,
			Unit:     product.Unit,
			IsActive: product.IsActive,
		})
	}
}

// PUT /api/products/:id
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var product models.Product
		if err := database.DB.First(&product, "id = ? AND deleted_at IS NULL", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		beforeData := map[string]interface{}{
			"id":        product.ID,
			"name":      product.Name,
			"unit":      product.Unit,
			"is_active": product.IsActive,
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name boş olamaz")
			}
			product.Name = name
		}
		if body.Unit != nil {
			unit := strings.TrimSpace(*body.Unit)
			if unit == "" {
				return fiber.NewError(fiber.StatusBadRequest, "unit boş olamaz")
			}
			product.Unit = unit
		}
		if body.IsActive != nil {
			product.IsActive = *body.IsActive
		}

		if err := database.DB.Save(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün güncellenemedi")
		}

		// Audit log
		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			afterData := map[string]interface{}{
				"id":        product.ID,
				"name":      product.Name,
				"unit":      product.Unit,
				"is_active": product.IsActive,
			}
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "product",
				EntityID:    product.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Ürün güncellendi: %s", product.Name),
				Before:      beforeData,
				After:       afterData,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(ProductResponse{
			ID:       product.ID,
			Name:     product.Name,
			Unit:     product.Unit,
			IsActive: product.IsActive,
		})
	}
}

// DELETE /api/products/:id - Soft delete, çöp kutusundan geri getirilebilir
func DeleteProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var product models.Product
		if err := database.DB.First(&product, "id = ? AND deleted_at IS NULL", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		userID, userName, uerr := getUserInfo(c)
		actor := ""
		if uerr == nil {
			actor = userName
		}

		reason := strings.TrimSpace(c.Query("reason"))
		if err := trash.SoftDelete(database.DB, trash.EntityProduct, product.ID, actor, reason); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün silinemedi")
		}

		// Audit log
		if uerr == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "product",
				EntityID:    product.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Ürün silindi: %s", product.Name),
				Before:      map[string]interface{}{"id": product.ID, "name": product.Name},
				After:       nil,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

package trash

import (
	"errors"
	"fmt"

	"mutfak-backend/internal/audit"
	"mutfak-backend/internal/auth"
	"mutfak-backend/internal/database"
	"mutfak-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func parseEntity(raw string) (EntityType, error) {
	switch EntityType(raw) {
	case EntityProduct, EntityRecipe, EntityPriceRecord:
		return EntityType(raw), nil
	}
	return "", ErrUnknownEntity
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

// GET /api/trash/:entity?search=...&page=1&page_size=20
func ListTrashHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		entity, err := parseEntity(c.Params("entity"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "entity product/recipe/price_record olmalı")
		}

		page := c.QueryInt("page", 1)
		pageSize := c.QueryInt("page_size", 20)

		items, total, err := ListTrash(database.DB, entity, c.Query("search"), page, pageSize)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Çöp kutusu listelenemedi")
		}

		return c.JSON(fiber.Map{
			"items":     items,
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		})
	}
}

// POST /api/trash/:entity/:id/restore
func RestoreHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		entity, err := parseEntity(c.Params("entity"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "entity product/recipe/price_record olmalı")
		}

		var id uint
		if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ID")
		}

		if err := Restore(database.DB, entity, id); err != nil {
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				return fiber.NewError(fiber.StatusNotFound, "Kayıt bulunamadı")
			case errors.Is(err, ErrNotDeleted):
				return fiber.NewError(fiber.StatusConflict, "Kayıt silinmiş durumda değil")
			default:
				return fiber.NewError(fiber.StatusInternalServerError, "Kayıt geri getirilemedi")
			}
		}

		// Audit log
		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  string(entity),
				EntityID:    id,
				Action:      models.AuditActionRestore,
				Description: fmt.Sprintf("Kayıt geri getirildi: %s #%d", entity, id),
				Before:      nil,
				After:       nil,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(fiber.Map{"message": "Kayıt geri getirildi"})
	}
}

package pricing

import (
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
)

// -------------------------
// Request/Response Types
// -------------------------

type CreatePriceRecordRequest struct {
	ProductID             uint    `json:"product_id"`
	PriceType             string  `json:"price_type"` // sale/purchase/transfer/special
	UnitPrice             float64 `json:"unit_price"`
	Unit                  string  `json:"unit"`
	StartDate             string  `json:"start_date"` // "2025-12-09"
	EndDate               *string `json:"end_date"`   // Opsiyonel, yoksa açık uçlu
	DeactivateOverlapping bool    `json:"deactivate_overlapping"`
}

type PriceRecordResponse struct {
	ID        uint    `json:"id"`
	ProductID uint    `json:"product_id"`
	PriceType string  `json:"price_type"`
	UnitPrice float64 `json:"unit_price"`
	Unit      string  `json:"unit"`
	StartDate string  `json:"start_date"`
	EndDate   *string `json:"end_date"`
	IsActive  bool    `json:"is_active"`
	CreatedAt string  `json:"created_at"`
}

func toPriceRecordResponse(rec *models.PriceRecord) PriceRecordResponse {
	var endStr *string
	if rec.EndDate != nil {
		formatted := rec.EndDate.Format("2006-01-02")
		endStr = &formatted
	}
	return PriceRecordResponse{
		ID:        rec.ID,
		ProductID: rec.ProductID,
		PriceType: string(rec.PriceType),
		UnitPrice: rec.UnitPrice,
		Unit:      rec.Unit,
		StartDate: rec.StartDate.Format("2006-01-02"),
		EndDate:   endStr,
		IsActive:  rec.IsActive,
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
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
// Handlers
// -------------------------

// POST /api/price-records
func CreatePriceRecordHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePriceRecordRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if body.ProductID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "product_id zorunlu")
		}
		if !models.ValidPriceType(body.PriceType) {
			return fiber.NewError(fiber.StatusBadRequest, "price_type sale/purchase/transfer/special olmalı")
		}

		start, err := time.Parse("2006-01-02", body.StartDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
		}

		var end *time.Time
		if body.EndDate != nil && *body.EndDate != "" {
			e, err := time.Parse("2006-01-02", *body.EndDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
			}
			end = &e
		}

		rec, err := CreatePriceRecord(database.DB, CreatePriceInput{
			ProductID:             body.ProductID,
			PriceType:             models.PriceType(body.PriceType),
			UnitPrice:             body.UnitPrice,
			Unit:                  body.Unit,
			StartDate:             start,
			EndDate:               end,
			DeactivateOverlapping: body.DeactivateOverlapping,
		})
		if err != nil {
			var overlapErr *OverlapError
			var invalidErr *InvalidPriceError
			switch {
			case errors.As(err, &overlapErr):
				return fiber.NewError(fiber.StatusConflict, overlapErr.Error())
			case errors.As(err, &invalidErr):
				return fiber.NewError(fiber.StatusBadRequest, invalidErr.Error())
			case errors.Is(err, ErrProductNotFound):
				return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
			case errors.Is(err, ErrProductInactive):
				return fiber.NewError(fiber.StatusBadRequest, "Ürün pasif durumda, fiyat kaydı açılamaz")
			default:
				return fiber.NewError(fiber.StatusInternalServerError, "Fiyat kaydı oluşturulamadı")
			}
		}

		// Audit log yaz
		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			afterData := map[string]interface{}{
				"id":         rec.ID,
				"product_id": rec.ProductID,
				"price_type": string(rec.PriceType),
				"unit_price": rec.UnitPrice,
				"start_date": rec.StartDate.Format("2006-01-02"),
			}
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "price_record",
				EntityID:    rec.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Fiyat kaydı eklendi: ürün #%d %s %.2f TL", rec.ProductID, rec.PriceType, rec.UnitPrice),
				Before:      nil,
				After:       afterData,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(toPriceRecordResponse(rec))
	}
}

// GET /api/products/:id/price?type=sale&date=2025-12-09
func ResolvePriceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var productID uint
		if _, err := fmt.Sscan(c.Params("id"), &productID); err != nil || productID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		priceType := c.Query("type", string(models.PriceTypeSale))
		if !models.ValidPriceType(priceType) {
			return fiber.NewError(fiber.StatusBadRequest, "type sale/purchase/transfer/special olmalı")
		}

		asOf := time.Now()
		if dateStr := c.Query("date"); dateStr != "" {
			d, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
			}
			asOf = d
		}

		rec, err := ResolvePrice(database.DB, productID, models.PriceType(priceType), asOf)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fiyat sorgulanamadı")
		}

		// Fiyat bulunamaması hata değil: found=false ile dön
		if rec == nil {
			return c.JSON(fiber.Map{"found": false})
		}

		return c.JSON(fiber.Map{
			"found": true,
			"price": toPriceRecordResponse(rec),
		})
	}
}

// GET /api/price-records?product_id=...&type=...&include_passive=true
func ListPriceRecordsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.PriceRecord{}).Where("deleted_at IS NULL")

		if pidStr := c.Query("product_id"); pidStr != "" {
			var pid uint
			if _, err := fmt.Sscan(pidStr, &pid); err != nil || pid == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "product_id geçersiz")
			}
			dbq = dbq.Where("product_id = ?", pid)
		}

		if typeFilter := c.Query("type"); typeFilter != "" {
			if !models.ValidPriceType(typeFilter) {
				return fiber.NewError(fiber.StatusBadRequest, "type sale/purchase/transfer/special olmalı")
			}
			dbq = dbq.Where("price_type = ?", typeFilter)
		}

		if c.Query("include_passive") != "true" {
			dbq = dbq.Where("is_active = ?", true)
		}

		var records []models.PriceRecord
		if err := dbq.Order("start_date desc, id desc").Find(&records).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fiyat kayıtları listelenemedi")
		}

		resp := make([]PriceRecordResponse, 0, len(records))
		for i := range records {
			resp = append(resp, toPriceRecordResponse(&records[i]))
		}

		return c.JSON(resp)
	}
}

// DELETE /api/price-records/:id - Soft delete, çöp kutusundan geri getirilebilir
func DeletePriceRecordHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id uint
		if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz fiyat kaydı ID")
		}

		var rec models.PriceRecord
		if err := database.DB.First(&rec, "id = ? AND deleted_at IS NULL", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Fiyat kaydı bulunamadı")
		}

		userID, userName, uerr := getUserInfo(c)
		actor := ""
		if uerr == nil {
			actor = userName
		}

		reason := strings.TrimSpace(c.Query("reason"))
		if err := trash.SoftDelete(database.DB, trash.EntityPriceRecord, rec.ID, actor, reason); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fiyat kaydı silinemedi")
		}

		// Audit log
		if uerr == nil {
			beforeData := map[string]interface{}{
				"id":         rec.ID,
				"product_id": rec.ProductID,
				"price_type": string(rec.PriceType),
				"unit_price": rec.UnitPrice,
			}
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "price_record",
				EntityID:    rec.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Fiyat kaydı silindi: ürün #%d %s", rec.ProductID, rec.PriceType),
				Before:      beforeData,
				After:       nil,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

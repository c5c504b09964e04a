package order

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
	"mutfak-backend/internal/pricing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// -------------------------
// Request/Response Types
// -------------------------

type OrderItemRequest struct {
	ProductID uint    `json:"product_id"`
	Quantity  float64 `json:"quantity"`
}

type CreateOrderRequest struct {
	CustomerID uint               `json:"customer_id"`
	Items      []OrderItemRequest `json:"items"`
}

type OrderItemResponse struct {
	ID        uint    `json:"id"`
	ProductID uint    `json:"product_id"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
	LineCost  float64 `json:"line_cost"`
}

type OrderResponse struct {
	ID            uint                `json:"id"`
	OrderNumber   string              `json:"order_number"`
	CustomerID    uint                `json:"customer_id"`
	TotalAmount   float64             `json:"total_amount"`
	TotalCost     float64             `json:"total_cost"`
	PaymentStatus string              `json:"payment_status"`
	TotalPaid     float64             `json:"total_paid"`
	Remaining     float64             `json:"remaining"`
	Items         []OrderItemResponse `json:"items,omitempty"`
	CreatedAt     string              `json:"created_at"`
}

type CreatePaymentRequest struct {
	Amount      float64 `json:"amount"`
	Method      string  `json:"method"`       // nakit, kart, havale vs.
	PaymentDate string  `json:"payment_date"` // "2025-12-09", boşsa bugün
	Description string  `json:"description"`
}

type PaymentResponse struct {
	ID          uint    `json:"id"`
	OrderID     uint    `json:"order_id"`
	CustomerID  uint    `json:"customer_id"`
	Amount      float64 `json:"amount"`
	Method      string  `json:"method"`
	PaymentDate string  `json:"payment_date"`
	Description string  `json:"description"`
	CreatedAt   string  `json:"created_at"`
}

func toOrderResponse(ord *models.Order, totalPaid float64, withItems bool) OrderResponse {
	resp := OrderResponse{
		ID:            ord.ID,
		OrderNumber:   ord.OrderNumber,
		CustomerID:    ord.CustomerID,
		TotalAmount:   ord.TotalAmount,
		TotalCost:     ord.TotalCost,
		PaymentStatus: string(ord.PaymentStatus),
		TotalPaid:     totalPaid,
		Remaining:     ord.TotalAmount - totalPaid,
		CreatedAt:     ord.CreatedAt.Format(time.RFC3339),
	}
	if withItems {
		resp.Items = make([]OrderItemResponse, 0, len(ord.Items))
		for _, it := range ord.Items {
			resp.Items = append(resp.Items, OrderItemResponse{
				ID:        it.ID,
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
				LineTotal: it.LineTotal,
				LineCost:  it.LineCost,
			})
		}
	}
	return resp
}

func toPaymentResponse(p *models.Payment) PaymentResponse {
	return PaymentResponse{
		ID:          p.ID,
		OrderID:     p.OrderID,
		CustomerID:  p.CustomerID,
		Amount:      p.Amount,
		Method:      p.Method,
		PaymentDate: p.PaymentDate.Format("2006-01-02"),
		Description: p.Description,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
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

func newOrderNumber() string {
	return "SIP-" + strings.ToUpper(uuid.NewString()[:8])
}

// -------------------------
// Order CRUD
// -------------------------

// POST /api/orders - Satır fiyatları sipariş anındaki satış fiyatından,
// satır maliyetleri ürünün aktif reçetesinin birim maliyetinden yakalanır.
// Sonradan fiyat değişse de satırlar geriye dönük güncellenmez.
func CreateOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if body.CustomerID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "customer_id zorunlu")
		}
		if len(body.Items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "items boş olamaz")
		}

		var customer models.Customer
		if err := database.DB.First(&customer, "id = ?", body.CustomerID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cari bulunamadı")
		}

		ord := models.Order{
			OrderNumber:   newOrderNumber(),
			CustomerID:    body.CustomerID,
			PaymentStatus: models.PaymentStatusPending,
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			now := time.Now()
			items := make([]models.OrderItem, 0, len(body.Items))
			for _, it := range body.Items {
				if it.ProductID == 0 || it.Quantity <= 0 {
					return fiber.NewError(fiber.StatusBadRequest, "Her satırda product_id ve 0'dan büyük quantity zorunlu")
				}
				var product models.Product
				if err := tx.First(&product, "id = ? AND deleted_at IS NULL", it.ProductID).Error; err != nil {
					return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Ürün bulunamadı: %d", it.ProductID))
				}

				unitPrice := 0.0
				if rec, err := pricing.ResolvePrice(tx, product.ID, models.PriceTypeSale, now); err != nil {
					return err
				} else if rec != nil {
					unitPrice = rec.UnitPrice
				}

				// Satır maliyeti: ürünün aktif reçetesinin önbellek birim maliyeti
				lineCost := 0.0
				var recipe models.Recipe
				if err := tx.Where("product_id = ? AND is_active = ? AND deleted_at IS NULL", product.ID, true).
					Order("id desc").First(&recipe).Error; err == nil {
					lineCost = recipe.UnitCost * it.Quantity
				}

				lineTotal := unitPrice * it.Quantity
				ord.TotalAmount += lineTotal
				ord.TotalCost += lineCost

				items = append(items, models.OrderItem{
					ProductID: it.ProductID,
					Quantity:  it.Quantity,
					UnitPrice: unitPrice,
					LineTotal: lineTotal,
					LineCost:  lineCost,
				})
			}

			ord.Items = items
			if err := tx.Create(&ord).Error; err != nil {
				return err
			}

			// Siparişten türeyen cari hareket (borç)
			movement := models.LedgerMovement{
				CustomerID:  ord.CustomerID,
				Type:        models.MovementTypeDebit,
				Amount:      ord.TotalAmount,
				OrderID:     &ord.ID,
				Description: fmt.Sprintf("Sipariş %s", ord.OrderNumber),
			}
			return tx.Create(&movement).Error
		}, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Sipariş kaydedilemedi")
		}

		// Audit log yaz
		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			afterData := map[string]interface{}{
				"id":           ord.ID,
				"order_number": ord.OrderNumber,
				"customer_id":  ord.CustomerID,
				"total_amount": ord.TotalAmount,
			}
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "order",
				EntityID:    ord.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Sipariş eklendi: %s %.2f TL", ord.OrderNumber, ord.TotalAmount),
				Before:      nil,
				After:       afterData,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(toOrderResponse(&ord, 0, true))
	}
}

// GET /api/orders?customer_id=...&status=...
func ListOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Order{})

		if cidStr := c.Query("customer_id"); cidStr != "" {
			var cid uint
			if _, err := fmt.Sscan(cidStr, &cid); err != nil || cid == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "customer_id geçersiz")
			}
			dbq = dbq.Where("customer_id = ?", cid)
		}
		if status := c.Query("status"); status != "" {
			if status != string(models.PaymentStatusPending) &&
				status != string(models.PaymentStatusPartial) &&
				status != string(models.PaymentStatusPaid) {
				return fiber.NewError(fiber.StatusBadRequest, "status pending/partial/paid olmalı")
			}
			dbq = dbq.Where("payment_status = ?", status)
		}

		var orders []models.Order
		if err := dbq.Preload("Payments").Order("created_at desc, id desc").Find(&orders).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Siparişler listelenemedi")
		}

		resp := make([]OrderResponse, 0, len(orders))
		for i := range orders {
			totalPaid := 0.0
			for _, p := range orders[i].Payments {
				totalPaid += p.Amount
			}
			resp = append(resp, toOrderResponse(&orders[i], totalPaid, false))
		}
		return c.JSON(resp)
	}
}

// GET /api/orders/:id
func GetOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var ord models.Order
		if err := database.DB.Preload("Items").Preload("Payments").First(&ord, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
		}

		totalPaid := 0.0
		for _, p := range ord.Payments {
			totalPaid += p.Amount
		}
		return c.JSON(toOrderResponse(&ord, totalPaid, true))
	}
}

// DELETE /api/orders/:id?force=true - force sadece admin
func DeleteOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var orderID uint
		if _, err := fmt.Sscan(c.Params("id"), &orderID); err != nil || orderID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sipariş ID")
		}

		force := c.Query("force") == "true"
		if force && !auth.IsAdmin(c) {
			return fiber.NewError(fiber.StatusForbidden, "Zorla silmeyi sadece admin yapabilir")
		}

		var ord models.Order
		if err := database.DB.First(&ord, "id = ?", orderID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
		}

		if err := DeleteOrder(database.DB, orderID, force); err != nil {
			switch {
			case errors.Is(err, ErrOrderNotFound):
				return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
			case errors.Is(err, ErrHasPayments):
				return fiber.NewError(fiber.StatusConflict, "Siparişin ödemeleri var, önce ödemeleri silin veya force kullanın")
			default:
				return fiber.NewError(fiber.StatusInternalServerError, "Sipariş silinemedi")
			}
		}

		// Audit log
		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			beforeData := map[string]interface{}{
				"id":           ord.ID,
				"order_number": ord.OrderNumber,
				"total_amount": ord.TotalAmount,
			}
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "order",
				EntityID:    ord.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Sipariş silindi: %s (force=%t)", ord.OrderNumber, force),
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
// Payment endpoints
// -------------------------

// POST /api/orders/:id/payments
func CreatePaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var orderID uint
		if _, err := fmt.Sscan(c.Params("id"), &orderID); err != nil || orderID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sipariş ID")
		}

		var body CreatePaymentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if body.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "amount 0'dan büyük olmalı")
		}
		if strings.TrimSpace(body.Method) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "method boş olamaz")
		}

		paymentDate := time.Now()
		if body.PaymentDate != "" {
			d, err := time.Parse("2006-01-02", body.PaymentDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
			}
			paymentDate = d
		}

		payment, err := AddPayment(database.DB, AddPaymentInput{
			OrderID:     orderID,
			Amount:      body.Amount,
			Method:      strings.TrimSpace(body.Method),
			PaymentDate: paymentDate,
			Description: strings.TrimSpace(body.Description),
		})
		if err != nil {
			var overErr *OverpaymentError
			switch {
			case errors.As(err, &overErr):
				return fiber.NewError(fiber.StatusBadRequest, overErr.Error())
			case errors.Is(err, ErrOrderNotFound):
				return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
			case errors.Is(err, ErrInvalidAmount):
				return fiber.NewError(fiber.StatusBadRequest, "amount 0'dan büyük olmalı")
			default:
				return fiber.NewError(fiber.StatusInternalServerError, "Ödeme kaydedilemedi")
			}
		}

		// Audit log yaz
		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			afterData := map[string]interface{}{
				"id":           payment.ID,
				"order_id":     payment.OrderID,
				"amount":       payment.Amount,
				"method":       payment.Method,
				"payment_date": payment.PaymentDate.Format("2006-01-02"),
			}
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "payment",
				EntityID:    payment.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Sipariş #%d için ödeme eklendi: %.2f TL", payment.OrderID, payment.Amount),
				Before:      nil,
				After:       afterData,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(toPaymentResponse(payment))
	}
}

// GET /api/orders/:id/payments
func ListPaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var orderID uint
		if _, err := fmt.Sscan(c.Params("id"), &orderID); err != nil || orderID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sipariş ID")
		}

		var ord models.Order
		if err := database.DB.First(&ord, "id = ?", orderID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
		}

		var payments []models.Payment
		if err := database.DB.Where("order_id = ?", orderID).
			Order("payment_date desc, id desc").
			Find(&payments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ödemeler listelenemedi")
		}

		resp := make([]PaymentResponse, 0, len(payments))
		for i := range payments {
			resp = append(resp, toPaymentResponse(&payments[i]))
		}
		return c.JSON(resp)
	}
}

// DELETE /api/orders/:id/payments/:payment_id
func DeletePaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var orderID, paymentID uint
		if _, err := fmt.Sscan(c.Params("id"), &orderID); err != nil || orderID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sipariş ID")
		}
		if _, err := fmt.Sscan(c.Params("payment_id"), &paymentID); err != nil || paymentID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ödeme ID")
		}

		// Audit için silinmeden önce oku
		var payment models.Payment
		if err := database.DB.First(&payment, "id = ? AND order_id = ?", paymentID, orderID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ödeme bulunamadı")
		}

		result, err := DeletePayment(database.DB, orderID, paymentID)
		if err != nil {
			switch {
			case errors.Is(err, ErrOrderNotFound):
				return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
			case errors.Is(err, ErrPaymentNotFound):
				return fiber.NewError(fiber.StatusNotFound, "Ödeme bulunamadı")
			default:
				return fiber.NewError(fiber.StatusInternalServerError, "Ödeme silinemedi")
			}
		}

		// Audit log
		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			beforeData := map[string]interface{}{
				"id":       payment.ID,
				"order_id": payment.OrderID,
				"amount":   payment.Amount,
				"method":   payment.Method,
			}
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "payment",
				EntityID:    payment.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Sipariş #%d için ödeme silindi: %.2f TL", orderID, payment.Amount),
				Before:      beforeData,
				After:       nil,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(result)
	}
}

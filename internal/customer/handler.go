package customer

import (
	"strings"

	"mutfak-backend/internal/database"
	"mutfak-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CustomerResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

type CreateCustomerRequest struct {
	Name  string  `json:"name"`
	Phone *string `json:"phone"` // Opsiyonel
}

type UpdateCustomerRequest struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	IsActive *bool   `json:"is_active"`
}

type LedgerEntryResponse struct {
	ID          uint    `json:"id"`
	Type        string  `json:"type"` // debit/credit
	Amount      float64 `json:"amount"`
	OrderID     *uint   `json:"order_id,omitempty"`
	PaymentID   *uint   `json:"payment_id,omitempty"`
	Description string  `json:"description"`
	CreatedAt   string  `json:"created_at"`
}

type LedgerResponse struct {
	CustomerID  uint                  `json:"customer_id"`
	Name        string                `json:"name"`
	TotalDebit  float64               `json:"total_debit"`
	TotalCredit float64               `json:"total_credit"`
	Balance     float64               `json:"balance"` // Borç - Alacak
	Movements   []LedgerEntryResponse `json:"movements"`
}

func toCustomerResponse(cu *models.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        cu.ID,
		Name:      cu.Name,
		Phone:     cu.Phone,
		IsActive:  cu.IsActive,
		CreatedAt: cu.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// ----------------------------------------
// CARİ CRUD
// ----------------------------------------

func CreateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Cari adı boş olamaz")
		}

		customer := models.Customer{
			Name:     body.Name,
			IsActive: true,
		}
		if body.Phone != nil {
			customer.Phone = strings.TrimSpace(*body.Phone)
		}

		if err := database.DB.Create(&customer).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Cari oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(toCustomerResponse(&customer))
	}
}

func ListCustomersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := database.DB.Model(&models.Customer{})

		if search := strings.TrimSpace(c.Query("search")); search != "" {
			query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+search+"%")
		}
		if c.Query("include_passive") != "true" {
			query = query.Where("is_active = ?", true)
		}

		var customers []models.Customer
		if err := query.Order("name ASC").Find(&customers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Cariler listelenemedi")
		}

		res := make([]CustomerResponse, 0, len(customers))
		for i := range customers {
			res = append(res, toCustomerResponse(&customers[i]))
		}

		return c.JSON(res)
	}
}

func GetCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var customer models.Customer
		if err := database.DB.First(&customer, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Cari bulunamadı")
		}

		return c.JSON(toCustomerResponse(&customer))
	}
}

func UpdateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var customer models.Customer
		if err := database.DB.First(&customer, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Cari bulunamadı")
		}

		var body UpdateCustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Cari adı boş olamaz")
			}
			customer.Name = name
		}
		if body.Phone != nil {
			customer.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.IsActive != nil {
			customer.IsActive = *body.IsActive
		}

		if err := database.DB.Save(&customer).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Cari güncellenemedi")
		}

		return c.JSON(toCustomerResponse(&customer))
	}
}

// ----------------------------------------
// CARİ EKSTRE
// GET /api/customers/:id/ledger
// Bakiye cari hareketlerden sıfırdan kurulur, ayrı bir bakiye
// kolonu tutulmaz.
// ----------------------------------------

func GetLedgerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var customer models.Customer
		if err := database.DB.First(&customer, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Cari bulunamadı")
		}

		var movements []models.LedgerMovement
		if err := database.DB.
			Where("customer_id = ?", customer.ID).
			Order("created_at DESC, id DESC").
			Find(&movements).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Cari hareketler listelenemedi")
		}

		res := LedgerResponse{
			CustomerID: customer.ID,
			Name:       customer.Name,
			Movements:  make([]LedgerEntryResponse, 0, len(movements)),
		}

		for _, m := range movements {
			switch m.Type {
			case models.MovementTypeDebit:
				res.TotalDebit += m.Amount
			case models.MovementTypeCredit:
				res.TotalCredit += m.Amount
			}
			res.Movements = append(res.Movements, LedgerEntryResponse{
				ID:          m.ID,
				Type:        string(m.Type),
				Amount:      m.Amount,
				OrderID:     m.OrderID,
				PaymentID:   m.PaymentID,
				Description: m.Description,
				CreatedAt:   m.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}

		res.Balance = res.TotalDebit - res.TotalCredit

		return c.JSON(res)
	}
}

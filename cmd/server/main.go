package main

import (
	"log"
	"strings"

	"mutfak-backend/internal/audit"
	"mutfak-backend/internal/auth"
	"mutfak-backend/internal/config"
	"mutfak-backend/internal/customer"
	"mutfak-backend/internal/database"
	"mutfak-backend/internal/inventory"
	"mutfak-backend/internal/models"
	"mutfak-backend/internal/order"
	"mutfak-backend/internal/pricing"
	"mutfak-backend/internal/recipe"
	"mutfak-backend/internal/trash"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	// Kullanıcı yönetimi
	adminRoutes.Post("/users", auth.CreateUserHandler())

	// Hammadde yönetimi
	adminRoutes.Post("/materials", inventory.CreateMaterialHandler())
	adminRoutes.Put("/materials/:id", inventory.UpdateMaterialHandler())
	adminRoutes.Delete("/materials/:id", inventory.DeleteMaterialHandler())

	// Ürün yönetimi
	adminRoutes.Post("/products", inventory.CreateProductHandler())
	adminRoutes.Put("/products/:id", inventory.UpdateProductHandler())
	adminRoutes.Delete("/products/:id", inventory.DeleteProductHandler())

	// Fiyat kayıtları
	adminRoutes.Post("/price-records", pricing.CreatePriceRecordHandler())
	adminRoutes.Delete("/price-records/:id", pricing.DeletePriceRecordHandler())

	// Toplu maliyet güncelleme
	adminRoutes.Post("/recipes/recalculate-all", recipe.RecalculateAllHandler())

	// Çöp kutusundan geri getirme
	adminRoutes.Post("/trash/:entity/:id/restore", trash.RestoreHandler())

	// Ortak (auth gerektiren) route’lar

	// Hammadde & ürün listeleri
	protected.Get("/materials", inventory.ListMaterialsHandler())
	protected.Get("/products", inventory.ListProductsHandler())

	// Fiyat çözümleme
	protected.Get("/products/:id/price", pricing.ResolvePriceHandler())
	protected.Get("/price-records", pricing.ListPriceRecordsHandler())

	// Reçeteler & maliyet
	protected.Post("/recipes", recipe.CreateRecipeHandler())
	protected.Get("/recipes", recipe.ListRecipesHandler())
	protected.Get("/recipes/:id", recipe.GetRecipeHandler())
	protected.Put("/recipes/:id", recipe.UpdateRecipeHandler())
	protected.Delete("/recipes/:id", recipe.DeleteRecipeHandler())
	protected.Get("/recipes/:id/cost", recipe.CostHandler())
	protected.Post("/recipes/:id/recalculate", recipe.RecalculateHandler())
	protected.Post("/recipes/recalculate", recipe.RecalculateAdHocHandler())

	// Cariler
	protected.Post("/customers", customer.CreateCustomerHandler())
	protected.Get("/customers", customer.ListCustomersHandler())
	protected.Get("/customers/:id", customer.GetCustomerHandler())
	protected.Put("/customers/:id", customer.UpdateCustomerHandler())
	protected.Get("/customers/:id/ledger", customer.GetLedgerHandler())

	// Siparişler & ödemeler
	protected.Post("/orders", order.CreateOrderHandler())
	protected.Get("/orders", order.ListOrdersHandler())
	protected.Get("/orders/:id", order.GetOrderHandler())
	protected.Delete("/orders/:id", order.DeleteOrderHandler())
	protected.Post("/orders/:id/payments", order.CreatePaymentHandler())
	protected.Get("/orders/:id/payments", order.ListPaymentsHandler())
	protected.Delete("/orders/:id/payments/:payment_id", order.DeletePaymentHandler())

	// Çöp kutusu
	protected.Get("/trash/:entity", trash.ListTrashHandler())

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}

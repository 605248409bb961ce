package main

import (
	"errors"
	"strings"

	"damacana-backend/internal/aggregator"
	"damacana-backend/internal/apperr"
	"damacana-backend/internal/audit"
	"damacana-backend/internal/auth"
	"damacana-backend/internal/authz"
	"damacana-backend/internal/cashmgmt"
	"damacana-backend/internal/config"
	"damacana-backend/internal/customers"
	"damacana-backend/internal/dashboard"
	"damacana-backend/internal/database"
	"damacana-backend/internal/drivers"
	"damacana-backend/internal/expense"
	"damacana-backend/internal/ledger"
	"damacana-backend/internal/orders"
	"damacana-backend/internal/products"
	"damacana-backend/internal/reports"
	"damacana-backend/internal/tracking"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := config.Load()

	db, err := database.Init(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("veritabanı başlatılamadı")
	}

	// Çekirdek bileşenler: bağımlılıklar bootstrap'te açıkça kurulur,
	// paket seviyesinde singleton yok.
	ledgerStore := ledger.NewStore(db)
	handoverWF := cashmgmt.NewWorkflow(db, ledgerStore)
	agg := aggregator.New(db, cfg.LocationRetentionDays)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var appErr *apperr.AppError
			if errors.As(err, &appErr) {
				return c.Status(appErr.Status).JSON(fiber.Map{
					"error": appErr.Message,
					"code":  appErr.Code,
				})
			}
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			logrus.WithError(err).Error("beklenmeyen hata")
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
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Cron-Secret",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-super-admin", auth.RegisterSuperAdminHandler(cfg, db))
	api.Post("/auth/login", auth.LoginHandler(cfg, db))

	// Zamanlayıcı tetiği: JWT yerine paylaşılan secret ile korunur
	api.Post("/cron/aggregate-stats", aggregator.AggregateStatsHandler(cfg, agg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler(db))

	// Kullanıcı yönetimi
	protected.Post("/admin/users", authz.Require(authz.ActionManageUsers), auth.CreateUserHandler(db))

	// Tanımlar: müşteri / ürün / sürücü
	protected.Post("/customers", authz.Require(authz.ActionManageCatalog), customers.CreateCustomerHandler(db))
	protected.Get("/customers", authz.Require(authz.ActionManageCatalog), customers.ListCustomersHandler(db))
	protected.Get("/customers/:id", authz.Require(authz.ActionManageCatalog), customers.GetCustomerHandler(db))
	protected.Put("/customers/:id", authz.Require(authz.ActionManageCatalog), customers.UpdateCustomerHandler(db))

	protected.Post("/products", authz.Require(authz.ActionManageCatalog), products.CreateProductHandler(db))
	protected.Get("/products", products.ListProductsHandler(db))
	protected.Put("/products/:id", authz.Require(authz.ActionManageCatalog), products.UpdateProductHandler(db))

	protected.Post("/drivers", authz.Require(authz.ActionManageCatalog), drivers.CreateDriverHandler(db))
	protected.Get("/drivers", authz.Require(authz.ActionManageCatalog), drivers.ListDriversHandler(db))
	protected.Put("/drivers/:id", authz.Require(authz.ActionManageCatalog), drivers.UpdateDriverHandler(db))

	// Siparişler
	protected.Post("/orders", authz.Require(authz.ActionManageOrders), orders.CreateOrderHandler(db))
	protected.Get("/orders", orders.ListOrdersHandler(db))
	protected.Get("/orders/:id", orders.GetOrderHandler(db))
	protected.Patch("/orders/:id/assign", authz.Require(authz.ActionManageOrders), orders.AssignDriverHandler(db))
	protected.Patch("/orders/:id/status", orders.UpdateStatusHandler(db))

	// Harcamalar
	protected.Post("/expenses", authz.Require(authz.ActionSubmitExpense), expense.CreateExpenseHandler(db))
	protected.Get("/expenses", expense.ListExpensesHandler(db))
	protected.Patch("/expenses/:id/review", authz.Require(authz.ActionReviewExpense), expense.ReviewExpenseHandler(db))

	// Kasa teslim akışı
	protected.Post("/cash-management", authz.Require(authz.ActionSubmitHandover), cashmgmt.SubmitHandler(handoverWF))
	protected.Patch("/cash-management/:id/verify", authz.Require(authz.ActionReviewHandover), cashmgmt.ReviewHandler(db, handoverWF))
	protected.Get("/cash-management", authz.Require(authz.ActionReviewHandover), cashmgmt.ListHandler(db))
	protected.Get("/cash-management/stats", authz.Require(authz.ActionReviewHandover), cashmgmt.StatsHandler(db))
	protected.Get("/cash-management/driver/day-summary", authz.Require(authz.ActionSubmitHandover), cashmgmt.DaySummaryHandler(db))

	// Sürücü kasa defteri
	protected.Get("/drivers/me/ledger", authz.Require(authz.ActionViewOwnLedger), ledger.MyLedgerHandler(ledgerStore))
	protected.Get("/drivers/:id/ledger", authz.Require(authz.ActionManageLedger), ledger.DriverLedgerHandler(ledgerStore))
	protected.Post("/drivers/:id/ledger/adjustments", authz.Require(authz.ActionManageLedger), ledger.ManualAdjustmentHandler(db, ledgerStore))

	// Konum takibi
	protected.Post("/tracking/ping", authz.Require(authz.ActionPingLocation), tracking.PingHandler(db))
	protected.Get("/tracking/latest", authz.Require(authz.ActionTrackDrivers), tracking.LatestPositionsHandler(db))

	// Dashboard & raporlar
	protected.Get("/dashboard/summary", authz.Require(authz.ActionViewReports), dashboard.SummaryHandler(db))
	protected.Get("/daily-stats", authz.Require(authz.ActionViewReports), aggregator.ListDailyStatsHandler(db))
	protected.Get("/reports/daily-stats/export", authz.Require(authz.ActionViewReports), reports.ExportDailyStatsHandler(db))

	// Audit logs
	protected.Get("/audit-logs", authz.Require(authz.ActionViewReports), audit.ListAuditLogsHandler(db))

	logrus.WithField("port", cfg.HTTPPort).Info("sunucu çalışıyor")
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		logrus.WithError(err).Fatal("sunucu durdu")
	}
}

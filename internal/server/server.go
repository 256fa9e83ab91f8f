// Package server assembles the HTTP application.
package server

import (
	"context"
	"strings"
	"time"

	"seva-backend/internal/admin"
	"seva-backend/internal/apperr"
	"seva-backend/internal/audit"
	"seva-backend/internal/auth"
	"seva-backend/internal/config"
	"seva-backend/internal/customer"
	"seva-backend/internal/database"
	"seva-backend/internal/document"
	"seva-backend/internal/logger"
	"seva-backend/internal/metrics"
	"seva-backend/internal/payment"
	"seva-backend/internal/report"
	"seva-backend/internal/work"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps holds every store and service the routes use.
type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Log     *logrus.Logger
	Metrics *metrics.Metrics

	Auth      *auth.Service
	Audit     *audit.Writer
	Business  *admin.BusinessStore
	Branches  *admin.BranchStore
	Employees *admin.EmployeeStore
	Customers *customer.Store
	Work      *work.Store
	Documents *document.Store
	Payments  *payment.Store
	Reports   *report.Service
}

// NewDeps wires the stores around one database handle.
func NewDeps(cfg *config.Config, db *gorm.DB, log *logrus.Logger, m *metrics.Metrics) (*Deps, error) {
	disk, err := document.NewDiskStorage(cfg.DocumentStoragePath)
	if err != nil {
		return nil, err
	}

	aw := audit.NewWriter(db, log)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL)
	gateway := payment.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayBaseURL, cfg.PaymentTestMode)

	return &Deps{
		Config:  cfg,
		DB:      db,
		Log:     log,
		Metrics: m,
		Auth: &auth.Service{
			Credentials: auth.NewCredentialStore(db, aw),
			Tokens:      tokens,
			Gate:        auth.NewGate(tokens, m),
			Cookies:     auth.CookieConfig{Secure: cfg.Production(), MaxAge: cfg.SessionTTL},
			Audit:       aw,
			Metrics:     m,
			Log:         log,
			SetupKey:    cfg.SetupKey,
		},
		Audit:     aw,
		Business:  admin.NewBusinessStore(db, aw),
		Branches:  admin.NewBranchStore(db, aw),
		Employees: admin.NewEmployeeStore(db, aw),
		Customers: customer.NewStore(db, aw),
		Work:      work.NewStore(db, aw),
		Documents: document.NewStore(db, disk, aw, log),
		Payments:  payment.NewStore(db, gateway, cfg.PaymentTestMode, aw, m, log),
		Reports:   report.NewService(db),
	}, nil
}

// ErrorHandler renders every error as {"error": message}. Internal errors
// are logged and never shown to the client.
func ErrorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, msg := apperr.Status(err)
		if status >= fiber.StatusInternalServerError && log != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"method":     c.Method(),
				"path":       c.Path(),
				"request_id": c.GetRespHeader(fiber.HeaderXRequestID),
			}).Error("unexpected error")
		}
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}
}

func corsConfig(origins string) cors.Config {
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	allow := strings.Join(parts, ",")
	return cors.Config{
		AllowOrigins: allow,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + auth.SetupKeyHeader,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		// Browsers refuse credentials with a wildcard origin.
		AllowCredentials: allow != "*",
	}
}

func New(d *Deps) *fiber.App {
	bodyLimit := d.Config.MaxUploadBytes + 1<<20
	if bodyLimit < fiber.DefaultBodyLimit {
		bodyLimit = fiber.DefaultBodyLimit
	}

	app := fiber.New(fiber.Config{
		AppName:      "seva-backend",
		ErrorHandler: ErrorHandler(d.Log),
		BodyLimit:    bodyLimit,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(corsConfig(d.Config.CORSOrigins)))
	app.Use(logger.Requests(d.Log))
	if d.Metrics != nil {
		app.Use(d.Metrics.Middleware())
	}

	api := app.Group("/api")
	api.Get("/health", healthHandler(d.DB))
	if d.Metrics != nil {
		app.Get("/metrics", d.Metrics.Handler())
		api.Get("/metrics", d.Metrics.Handler())
	}

	routes(api, d)
	return app
}

func healthHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := database.Ping(ctx, db); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

func routes(api fiber.Router, d *Deps) {
	gate := d.Auth.Gate
	staffOrCustomer := auth.AnyRole
	adminOrCustomer := auth.Roles(auth.AdminRoles, auth.CustomerRoles)

	// Auth
	loginLimit := limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many login attempts")
		},
	})
	api.Post("/auth/login", loginLimit, auth.LoginHandler(d.Auth))
	api.Post("/auth/logout", auth.LogoutHandler(d.Auth))
	api.Get("/auth/me", gate.Require(auth.AnyRole...), auth.MeHandler(d.Auth))

	// Provisioning checks the host key itself.
	api.Get("/super-admins", auth.ListSuperAdminsHandler(d.Auth))
	api.Post("/super-admins", auth.CreateSuperAdminHandler(d.Auth))

	// Business
	api.Get("/business", gate.Require(auth.StaffRoles...), admin.GetBusinessHandler(d.Business))
	api.Put("/business", gate.Require(auth.SuperAdminOnly...), admin.UpdateBusinessHandler(d.Business))

	// Branches
	api.Get("/branches", gate.Require(staffOrCustomer...), admin.ListBranchesHandler(d.Branches))
	api.Get("/branches/:id", gate.Require(staffOrCustomer...), admin.GetBranchHandler(d.Branches))
	api.Post("/branches", gate.Require(auth.SuperAdminOnly...), admin.CreateBranchHandler(d.Branches))
	api.Put("/branches/:id", gate.Require(auth.SuperAdminOnly...), admin.UpdateBranchHandler(d.Branches))
	api.Delete("/branches/:id", gate.Require(auth.SuperAdminOnly...), admin.DeleteBranchHandler(d.Branches))

	// Employees
	api.Get("/employees", gate.Require(auth.AdminRoles...), admin.ListEmployeesHandler(d.Employees))
	api.Get("/employees/:id", gate.Require(auth.AdminRoles...), admin.GetEmployeeHandler(d.Employees))
	api.Post("/employees", gate.Require(auth.SuperAdminOnly...), admin.CreateEmployeeHandler(d.Employees))
	api.Put("/employees/:id", gate.Require(auth.SuperAdminOnly...), admin.UpdateEmployeeHandler(d.Employees))
	api.Delete("/employees/:id", gate.Require(auth.SuperAdminOnly...), admin.DeleteEmployeeHandler(d.Employees))

	// Customers
	api.Get("/customers", gate.Require(auth.StaffRoles...), customer.ListHandler(d.Customers))
	api.Get("/customers/:id", gate.Require(auth.StaffRoles...), customer.GetHandler(d.Customers))
	api.Post("/customers", gate.Require(auth.AdminRoles...), customer.CreateHandler(d.Customers))
	api.Put("/customers/:id", gate.Require(auth.AdminRoles...), customer.UpdateHandler(d.Customers))
	api.Delete("/customers/:id", gate.Require(auth.AdminRoles...), customer.DeleteHandler(d.Customers))

	// Work entries
	api.Get("/work-entries", gate.Require(staffOrCustomer...), work.ListHandler(d.Work))
	api.Get("/work-entries/:id", gate.Require(staffOrCustomer...), work.GetHandler(d.Work))
	api.Post("/work-entries", gate.Require(auth.StaffRoles...), work.CreateHandler(d.Work))
	api.Put("/work-entries/:id", gate.Require(auth.StaffRoles...), work.UpdateHandler(d.Work))
	api.Delete("/work-entries/:id", gate.Require(auth.StaffRoles...), work.DeleteHandler(d.Work))

	// Documents
	api.Get("/documents", gate.Require(staffOrCustomer...), document.ListHandler(d.Documents))
	api.Get("/documents/:id", gate.Require(staffOrCustomer...), document.GetHandler(d.Documents))
	api.Get("/documents/:id/download", gate.Require(staffOrCustomer...), document.DownloadHandler(d.Documents))
	api.Post("/documents", gate.Require(auth.StaffRoles...), document.UploadHandler(d.Documents, d.Config.MaxUploadBytes))
	api.Delete("/documents/:id", gate.Require(auth.StaffRoles...), document.DeleteHandler(d.Documents))

	// Payments
	api.Get("/payments", gate.Require(adminOrCustomer...), payment.ListHandler(d.Payments))
	api.Post("/payments", gate.Require(auth.AdminRoles...), payment.RecordHandler(d.Payments))
	api.Post("/payments/gateway/order", gate.Require(adminOrCustomer...), payment.CreateOrderHandler(d.Payments, d.Log))
	api.Post("/payments/gateway/verify", gate.Require(adminOrCustomer...), payment.VerifyHandler(d.Payments))

	// Reports
	api.Get("/reports", gate.Require(auth.AdminRoles...), report.Handler(d.Reports))
	api.Get("/reports/export", gate.Require(auth.AdminRoles...), report.ExportHandler(d.Reports))

	// Audit
	api.Get("/audit-logs", gate.Require(auth.AdminRoles...), audit.ListAuditLogsHandler(d.Audit))
}

package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/config"
	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/handlers"
	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/middleware"
	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/models"
	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/repository"
	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/services"
	notifyws "github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/websocket"
)

// App bundles what main needs a handle on after wiring: the background
// sweep closes over the reservation and package services.
type App struct {
	ReservationService *services.ReservationService
	PackageService     *services.PackageService
}

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) *App {
	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	sessionRepo := repository.NewClassSessionRepository(db)
	packageRepo := repository.NewPackageRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	feedHub := notifyws.NewHub()
	go feedHub.Run()

	catalogService := services.NewCatalogService(classRepo, sessionRepo, userRepo, reservationRepo)
	packageService := services.NewPackageService(db, packageRepo, paymentRepo, cfg.Currency, feedHub)
	reservationService := services.NewReservationService(db, reservationRepo, sessionRepo, packageRepo, paymentRepo, feedHub)
	notificationService := services.NewNotificationService(notificationRepo)
	attendanceService := services.NewAttendanceService(userRepo, reservationRepo, attendanceRepo)

	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	packageHandler := handlers.NewPackageHandler(packageService)
	reservationHandler := handlers.NewReservationHandler(reservationService)
	paymentHandler := handlers.NewPaymentHandler(paymentRepo)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	attendanceHandler := handlers.NewAttendanceHandler(attendanceService)
	feedWSHandler := handlers.NewFeedWSHandler(feedHub, cfg.JWTSecret)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	protected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	classes := protected.Group("/classes")
	classes.Get("", catalogHandler.ListClasses)
	classes.Post("", adminOnly, catalogHandler.CreateClass)
	classes.Get("/:id/sessions", catalogHandler.ListClassSessions)
	classes.Put("/:id/active", adminOnly, catalogHandler.SetClassActive)

	sessions := protected.Group("/sessions")
	sessions.Get("", catalogHandler.ListSessions)
	sessions.Post("", adminOnly, catalogHandler.ScheduleSession)
	sessions.Put("/:id/status", adminOnly, catalogHandler.UpdateSessionStatus)
	sessions.Delete("/:id", adminOnly, catalogHandler.DeleteSession)
	sessions.Get("/:id/attendance", middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor), attendanceHandler.ListBySession)

	packages := protected.Group("/packages")
	packages.Post("/purchase", middleware.RequireRoles(models.RoleStudent), packageHandler.Purchase)
	packages.Get("", middleware.RequireRoles(models.RoleStudent, models.RoleAdmin), packageHandler.List)
	packages.Post("/:id/confirm-payment", adminOnly, packageHandler.ConfirmPayment)

	reservations := protected.Group("/reservations")
	reservations.Post("", middleware.RequireRoles(models.RoleStudent), reservationHandler.Create)
	reservations.Get("", middleware.RequireRoles(models.RoleStudent), reservationHandler.ListOwn)
	reservations.Get("/pending", adminOnly, reservationHandler.ListPending)
	reservations.Post("/:id/confirm", adminOnly, reservationHandler.Confirm)
	reservations.Post("/:id/reject", adminOnly, reservationHandler.Reject)

	payments := protected.Group("/payments", adminOnly)
	payments.Get("", paymentHandler.List)
	payments.Post("/:id/overdue", paymentHandler.MarkOverdue)

	notifications := protected.Group("/notifications", adminOnly)
	notifications.Get("", notificationHandler.Feed)
	notifications.Post("/:id/read", notificationHandler.MarkRead)

	attendance := protected.Group("/attendance", middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor))
	attendance.Post("/check-in", attendanceHandler.CheckIn)

	api.Use("/v1/ws", feedWSHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(feedWSHandler.HandleWebSocket))

	return &App{
		ReservationService: reservationService,
		PackageService:     packageService,
	}
}

package main

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/config"
	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/database"
	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/models"
	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/repository"
	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/routes"
	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/pkg/utils"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.DBUrl == "" {
		log.Fatal("DB_URL is required")
	}
	if err := database.ConnectDB(cfg.DBUrl); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB()
	log.Println("Connected to PostgreSQL")

	if err := ensureDefaultAdmin(cfg); err != nil {
		log.Fatalf("Failed to ensure default admin: %v", err)
	}

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	deps := routes.RegisterRoutes(app, cfg, database.DB)
	go runSweeper(cfg, deps)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// runSweeper periodically expires packages past their expires_at and
// auto-cancels reservations pending longer than the configured TTL.
func runSweeper(cfg *config.Config, deps *routes.App) {
	if cfg.SweepInterval <= 0 {
		return
	}

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)

		if expired, err := deps.PackageService.ExpireDue(ctx); err != nil {
			log.Printf("sweep: expire packages: %v", err)
		} else if expired > 0 {
			log.Printf("sweep: expired %d packages", expired)
		}

		if cancelled, err := deps.ReservationService.ExpirePending(ctx, cfg.PendingReservationTTL); err != nil {
			log.Printf("sweep: expire pending reservations: %v", err)
		} else if cancelled > 0 {
			log.Printf("sweep: auto-cancelled %d pending reservations", cancelled)
		}

		cancel()
	}
}

func ensureDefaultAdmin(cfg *config.Config) error {
	if cfg.DefaultAdminEmail == "" || cfg.DefaultAdminPassword == "" {
		return nil
	}

	ctx := context.Background()
	userRepo := repository.NewUserRepository(database.DB)

	if _, err := userRepo.GetByEmail(ctx, cfg.DefaultAdminEmail); err == nil {
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := utils.HashPassword(cfg.DefaultAdminPassword)
	if err != nil {
		return err
	}
	admin := &models.User{
		Email:        cfg.DefaultAdminEmail,
		PasswordHash: hash,
		FullName:     "Administrator",
		Role:         models.RoleAdmin,
		CheckInToken: uuid.NewString(),
	}
	if err := userRepo.CreateUser(ctx, admin); err != nil {
		return err
	}
	log.Printf("Created default admin user %s (id %s)", admin.Email, strconv.FormatInt(admin.ID, 10))
	return nil
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"asl-holdem/handlers"
	"asl-holdem/models"
	"asl-holdem/services"
	"asl-holdem/utils"
	"asl-holdem/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 50 * 1024 * 1024, // uploads are images and small attachments
	})

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	origins := strings.Split(allowedOriginsEnv, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}
	utils.InitCache()

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Store{},
		&models.Banner{},
		&models.Tournament{},
		&models.TournamentPlayer{},
		&models.SeatTicket{},
		&models.SeatTicketTransaction{},
		&models.UserTicketSummary{},
		&models.TicketDistribution{},
		&models.Notice{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	policy := services.NewPolicy()
	authService := services.NewAuthService(db)
	ticketService := services.NewTicketService(db, policy)
	distributionService := services.NewDistributionService(db, policy)
	tournamentService := services.NewTournamentService(db)
	registrationService := services.NewRegistrationService(db)
	storeService := services.NewStoreService(db, policy)
	bannerService := services.NewBannerService(db, policy)
	noticeService := services.NewNoticeService(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reconciler := workers.NewSummaryReconciler(db)
	go workers.PollSummaries(ctx, reconciler, 5*time.Minute)

	ticketService.StartTicketScheduler()

	handlers.SetupAuthRoutes(app, authService)
	handlers.SetupSeatRoutes(app, ticketService, distributionService)
	handlers.SetupTournamentRoutes(app, tournamentService, registrationService)
	handlers.SetupStoreRoutes(app, storeService, bannerService)
	handlers.SetupNoticeRoutes(app, noticeService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Ticket expiry scheduler running (every 1m)")
	log.Println("✅ Summary reconcile worker running (every 5m)")

	<-ctx.Done()
	log.Println("Shutting down server...")
	_ = app.Shutdown()
}

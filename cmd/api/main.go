package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"lendhub/internal/database"
	"lendhub/internal/middleware"
	"lendhub/internal/modules/auth"
	"lendhub/internal/modules/catalog"
	"lendhub/internal/modules/dashboard"
	"lendhub/internal/modules/events"
	"lendhub/internal/modules/lending"
	jwtsvc "lendhub/internal/pkg/jwt"
	"lendhub/internal/repository"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "lendhub.db"
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is empty")
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal(err)
	}

	userRepo := repository.NewUserRepository(db)
	equipmentRepo := repository.NewEquipmentRepository(db)
	requestRepo := repository.NewRequestRepository(db)

	for _, migrate := range []func() error{userRepo.Migrate, equipmentRepo.Migrate, requestRepo.Migrate} {
		if err := migrate(); err != nil {
			log.Fatal(err)
		}
	}

	j := jwtsvc.New(secret, 24*time.Hour)

	hub := events.NewHub()
	eventsHandler := events.NewHandler(hub)

	authService := auth.NewService(userRepo, j)
	authHandler := auth.NewHandler(authService)

	ledger := lending.NewLedger(requestRepo)
	lendingService := lending.NewService(requestRepo, equipmentRepo, ledger, hub)
	lendingHandler := lending.NewHandler(lendingService)

	catalogService := catalog.NewService(equipmentRepo, requestRepo, ledger)
	catalogHandler := catalog.NewHandler(catalogService)

	dashboardService := dashboard.NewService(userRepo, equipmentRepo, requestRepo)
	dashboardHandler := dashboard.NewHandler(dashboardService)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	api := r.Group("/api")
	{
		// public
		authHandler.RegisterRoutes(api)

		// everything else requires a token
		protected := api.Group("/")
		protected.Use(middleware.Auth(j))
		{
			authHandler.RegisterProtectedRoutes(protected)
			catalogHandler.RegisterRoutes(protected)
			lendingHandler.RegisterRoutes(protected)
			dashboardHandler.RegisterRoutes(protected)
			eventsHandler.RegisterRoutes(protected)
		}
	}

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	if err := r.Run(addr); err != nil {
		log.Fatal(err)
	}
}

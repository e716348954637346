package main

import (
	"context"
	"log"
	"os"
	"time"

	"lendhub/internal/database"
	"lendhub/internal/domain"
	"lendhub/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "lendhub.db"
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	userRepo := repository.NewUserRepository(db)
	equipmentRepo := repository.NewEquipmentRepository(db)
	requestRepo := repository.NewRequestRepository(db)

	log.Println("Running migrations...")
	for _, m := range []func() error{userRepo.Migrate, equipmentRepo.Migrate, requestRepo.Migrate} {
		if err := m(); err != nil {
			log.Fatal("Migration failed:", err)
		}
	}

	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM borrowing_requests")
	db.Exec("DELETE FROM equipment")
	db.Exec("DELETE FROM users")

	ctx := context.Background()

	log.Println("Creating users...")
	users := []struct {
		email, password, name string
		role                  domain.Role
	}{
		{"admin@lendhub.local", "admin123", "Portal Admin", domain.RoleAdmin},
		{"staff@lendhub.local", "staff123", "Equipment Desk", domain.RoleStaff},
		{"alice@lendhub.local", "alice123", "Alice Cooper", domain.RoleUser},
		{"bob@lendhub.local", "bob123", "Bob Marley", domain.RoleUser},
	}
	var requesterID int64
	for _, u := range users {
		hash, _ := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		created := &domain.User{
			Email:        u.email,
			PasswordHash: string(hash),
			Name:         u.name,
			Role:         u.role,
		}
		if err := userRepo.Create(ctx, created); err != nil {
			log.Fatal("user seed failed:", err)
		}
		if u.role == domain.RoleUser && requesterID == 0 {
			requesterID = created.ID
		}
	}

	log.Println("Creating equipment...")
	items := []domain.Equipment{
		{Name: "Canon EOS R6", Category: "Cameras", Condition: domain.ConditionExcellent, Quantity: 2, Description: "Full-frame mirrorless body"},
		{Name: "Sony A7 III", Category: "Cameras", Condition: domain.ConditionGood, Quantity: 1, Description: "Workhorse mirrorless body"},
		{Name: "Manfrotto Tripod", Category: "Support", Condition: domain.ConditionGood, Quantity: 5, Description: "Aluminium tripod with ball head"},
		{Name: "Rode VideoMic Pro", Category: "Audio", Condition: domain.ConditionFair, Quantity: 3, Description: "Shotgun microphone"},
		{Name: "Aputure 120d", Category: "Lighting", Condition: domain.ConditionExcellent, Quantity: 2, Description: "Daylight LED with softbox"},
		{Name: "DJI Mavic 3", Category: "Drones", Condition: domain.ConditionGood, Quantity: 1, Description: "Requires drone certification"},
	}
	for i := range items {
		if err := equipmentRepo.Create(ctx, &items[i]); err != nil {
			log.Fatal("equipment seed failed:", err)
		}
	}

	log.Println("Creating sample requests...")
	start := domain.Day(time.Now()).AddDate(0, 0, 3)
	if err := requestRepo.Create(ctx, &domain.Request{
		EquipmentID: items[0].ID,
		UserID:      requesterID,
		StartDate:   start,
		EndDate:     start.AddDate(0, 0, 4),
		RequestDate: time.Now().UTC(),
		Status:      domain.RequestPending,
	}); err != nil {
		log.Fatal("request seed failed:", err)
	}

	log.Println("Seed complete.")
}

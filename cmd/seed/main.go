package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"kreede/internal/bookings"
	"kreede/internal/memberships"
	"kreede/internal/registrations"
	"kreede/internal/shared/config"
	"kreede/internal/shared/database"
	"kreede/internal/users"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting Kreede Database Seeder...")

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(context.Background()); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates every table the console owns
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"refunds",
		"event_registrations",
		"guest_bookings",
		"bookings",
		"memberships",
		"users",
	}

	return s.db.PostgreSQL.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			fmt.Printf("  Truncating table: %s\n", table)
			if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
				return fmt.Errorf("failed to truncate table %s: %w", table, err)
			}
		}
		return nil
	})
}

// SeedAll seeds one booking per cancellation path plus an event registration
func (s *Seeder) SeedAll(ctx context.Context) error {
	userIDs, err := s.SeedUsers()
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	if err := s.SeedMemberships(ctx, userIDs["member"]); err != nil {
		return fmt.Errorf("failed to seed memberships: %w", err)
	}

	if err := s.SeedBookings(ctx, userIDs); err != nil {
		return fmt.Errorf("failed to seed bookings: %w", err)
	}

	if err := s.SeedRegistrations(ctx, userIDs["player"]); err != nil {
		return fmt.Errorf("failed to seed registrations: %w", err)
	}

	return nil
}

// SeedUsers creates an operator and two customers
func (s *Seeder) SeedUsers() (map[string]uuid.UUID, error) {
	fmt.Println("  👤 Seeding users...")

	userIDs := make(map[string]uuid.UUID)

	// Same password for every seeded account ("qwerty")
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("qwerty"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	usersData := []struct {
		key      string
		username string
		name     string
		email    string
		role     users.Role
	}{
		{"admin", "desk", "Front Desk", "desk@kreede.in", users.RoleAdmin},
		{"member", "aarav", "Aarav Mehta", "aarav@kreede.in", users.RoleUser},
		{"player", "isha", "Isha Rao", "isha@kreede.in", users.RoleUser},
	}

	for _, userData := range usersData {
		user := users.User{
			ID:        uuid.New(),
			Username:  userData.username,
			Name:      userData.name,
			Email:     userData.email,
			Password:  string(hashedPassword),
			Role:      userData.role,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}

		if err := s.db.PostgreSQL.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", userData.email, err)
		}

		userIDs[userData.key] = user.ID
		fmt.Printf("    ✅ Created user: %s (%s)\n", user.Email, user.Role)
	}

	return userIDs, nil
}

// SeedMemberships gives the member a ten-game pack with two games used
func (s *Seeder) SeedMemberships(ctx context.Context, userID uuid.UUID) error {
	fmt.Println("  🎟️ Seeding memberships...")

	validUntil := time.Now().AddDate(0, 3, 0)
	membership := memberships.Membership{
		UserID:     userID,
		Plan:       "10-game pack",
		Games:      10,
		GamesUsed:  2,
		Status:     memberships.StatusPaid,
		ValidUntil: &validUntil,
	}
	if err := s.db.PostgreSQL.WithContext(ctx).Create(&membership).Error; err != nil {
		return err
	}

	fmt.Printf("    ✅ Created membership: %s (%d/%d used)\n", membership.Plan, membership.GamesUsed, membership.Games)
	return nil
}

// SeedBookings creates one booking for each payment path
func (s *Seeder) SeedBookings(ctx context.Context, userIDs map[string]uuid.UUID) error {
	fmt.Println("  📅 Seeding bookings...")

	repo := bookings.NewRepository(s.db.PostgreSQL)
	tomorrow := time.Now().AddDate(0, 0, 1).Truncate(24 * time.Hour)
	member := userIDs["member"]
	player := userIDs["player"]

	evening := []bookings.Slot{
		{CourtID: "court-1", Start: "18:00", End: "19:00"},
		{CourtID: "court-1", Start: "19:00", End: "20:00"},
		{CourtID: "court-2", Start: "18:00", End: "19:00"},
	}

	seed := []struct {
		label   string
		booking bookings.Booking
	}{
		{"membership", bookings.Booking{
			Variant: bookings.VariantAccount, UserID: &member, UserEmail: "aarav@kreede.in", UserName: "aarav",
			Date: tomorrow, Slots: evening[:2], Amount: 0, PaymentMethod: bookings.PaymentMethodMembership, Paid: true,
		}},
		{"gateway", bookings.Booking{
			Variant: bookings.VariantAccount, UserID: &player, UserEmail: "isha@kreede.in", UserName: "isha",
			Date: tomorrow, Slots: evening, Amount: 1000, PaymentMethod: bookings.PaymentMethodOnline, Paid: true,
			OrderID: "order_" + uuid.NewString()[:8],
		}},
		{"cash", bookings.Booking{
			Variant: bookings.VariantAccount, UserID: &player, UserEmail: "isha@kreede.in", UserName: "isha",
			Date: tomorrow.AddDate(0, 0, 1), Slots: evening, Amount: 1500, PaymentMethod: bookings.PaymentMethodCash, Paid: true,
		}},
		{"guest", bookings.Booking{
			Variant: bookings.VariantGuest, GuestName: "Walk-in", GuestPhone: "9800000000",
			Date: tomorrow, Slots: evening[2:], Amount: 450, PaymentMethod: bookings.PaymentMethodCash,
		}},
	}

	for _, item := range seed {
		b := item.booking
		b.Currency = "INR"
		if err := repo.Create(ctx, &b); err != nil {
			return fmt.Errorf("failed to create %s booking: %w", item.label, err)
		}
		fmt.Printf("    ✅ Created %s booking: %s (%s, %d slots)\n", item.label, b.ID, b.PaymentRef(), len(b.Slots))
	}

	return nil
}

// SeedRegistrations creates a paid event registration
func (s *Seeder) SeedRegistrations(ctx context.Context, userID uuid.UUID) error {
	fmt.Println("  🏸 Seeding event registrations...")

	repo := registrations.NewRepository(s.db.PostgreSQL)
	reg := registrations.Registration{
		EventName:     "Sunday Doubles Ladder",
		EventDate:     time.Now().AddDate(0, 0, 5).Truncate(24 * time.Hour),
		UserID:        &userID,
		Name:          "Isha Rao",
		Email:         "isha@kreede.in",
		Amount:        300,
		Currency:      "INR",
		PaymentMethod: bookings.PaymentMethodOnline,
		OrderID:       "order_" + uuid.NewString()[:8],
		Status:        registrations.StatusRegistered,
	}
	if err := repo.Create(ctx, &reg); err != nil {
		return err
	}

	fmt.Printf("    ✅ Created registration: %s for %s\n", reg.ID, reg.EventName)
	return nil
}

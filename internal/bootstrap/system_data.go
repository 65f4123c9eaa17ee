package bootstrap

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/nimbuscrm/backend/internal/domain/models"
	"github.com/nimbuscrm/backend/internal/infrastructure/database"
	"github.com/nimbuscrm/backend/internal/infrastructure/persistence"
	"github.com/nimbuscrm/backend/pkg/auth"
	"github.com/nimbuscrm/backend/pkg/utils"
)

// seedCurrencies is the initial reference set. EUR is the base; rates are
// placeholders refreshed by operators through the currency API.
var seedCurrencies = []models.Currency{
	{Code: "EUR", Name: "Euro", Symbol: "€", Rate: 1, IsBase: true},
	{Code: "USD", Name: "US Dollar", Symbol: "$", Rate: 1.08},
	{Code: "GBP", Name: "British Pound", Symbol: "£", Rate: 0.85},
	{Code: "CHF", Name: "Swiss Franc", Symbol: "CHF", Rate: 0.94},
}

// InitializeSystemData ensures the currency reference table and the
// initial super user exist. Called during startup before accepting
// requests.
func InitializeSystemData(db *database.Connection) error {
	log.Println("Initializing system data...")
	ctx := context.Background()

	currencyRepo := persistence.NewCurrencyRepository(db)
	for _, c := range seedCurrencies {
		existing, err := currencyRepo.GetByCode(ctx, c.Code)
		if err != nil {
			return fmt.Errorf("failed to check currency %s: %w", c.Code, err)
		}
		if existing != nil {
			continue // never overwrite operator-maintained rates
		}
		c.UpdatedAt = time.Now()
		if err := currencyRepo.Upsert(ctx, &c); err != nil {
			return fmt.Errorf("failed to seed currency %s: %w", c.Code, err)
		}
	}
	log.Printf("Ensured %d currencies", len(seedCurrencies))

	return ensureSuperUser(ctx, db)
}

// ensureSuperUser creates the server super user from ADMIN_EMAIL /
// ADMIN_PASSWORD / ADMIN_NAME. Skipped when ADMIN_EMAIL is unset or the
// account already exists.
func ensureSuperUser(ctx context.Context, db *database.Connection) error {
	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		log.Println("ADMIN_EMAIL not set, skipping super user seed")
		return nil
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required when ADMIN_EMAIL is set")
	}
	name := os.Getenv("ADMIN_NAME")
	if name == "" {
		name = "Administrator"
	}

	userRepo := persistence.NewUserRepository(db)
	exists, err := userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check super user: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash super user password: %w", err)
	}

	u := &models.User{
		ID:        utils.GenerateID(),
		Name:      name,
		Email:     email,
		SuperUser: true,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if err := userRepo.Create(ctx, u, hash); err != nil {
		return fmt.Errorf("failed to create super user: %w", err)
	}

	log.Printf("Created super user %s", email)
	return nil
}

package database

import (
	"errors"
	"fmt"

	"github.com/Eursukkul/quickfix-service/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var defaultCatalog = []models.Service{
	{ID: 1, Name: "Electrical Repair", Category: models.CategoryElectrical, Description: "Wiring, switch repairs, electrical installations", BasePrice: 500},
	{ID: 2, Name: "Plumbing Service", Category: models.CategoryPlumbing, Description: "Pipe repairs, leak fixing, installations", BasePrice: 400},
	{ID: 3, Name: "Carpentry Work", Category: models.CategoryCarpentry, Description: "Furniture repair, custom woodwork", BasePrice: 600},
	{ID: 4, Name: "House Painting", Category: models.CategoryPainting, Description: "Interior and exterior painting services", BasePrice: 350},
	{ID: 5, Name: "AC Repair", Category: models.CategoryAppliance, Description: "Air conditioner servicing and repair", BasePrice: 450},
	{ID: 6, Name: "Home Cleaning", Category: models.CategoryCleaning, Description: "Deep cleaning and maintenance", BasePrice: 300},
}

// SeedCatalog inserts the default services, leaving existing rows untouched.
func SeedCatalog(db *gorm.DB) error {
	services := make([]models.Service, len(defaultCatalog))
	copy(services, defaultCatalog)

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&services).Error; err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}

	// explicit ids leave the postgres sequence behind
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec(`SELECT setval(pg_get_serial_sequence('services', 'id'), (SELECT MAX(id) FROM services))`).Error; err != nil {
			return fmt.Errorf("sync services sequence: %w", err)
		}
	}
	return nil
}

// SeedAdmin creates the admin account once; an existing email is left as is.
func SeedAdmin(db *gorm.DB, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := &models.User{
		Name:         "Admin User",
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Membership:   models.TierNone,
	}
	if err := db.Create(admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/Wikid82/warden/backend/internal/config"
	"github.com/Wikid82/warden/backend/internal/database"
	"github.com/Wikid82/warden/backend/internal/models"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}
	fmt.Println("✓ Database migrated successfully")

	password := os.Getenv("WARDEN_SEED_PASSWORD")
	if password == "" {
		password = "changeme123"
	}

	users := []models.User{
		{Email: "admin@warden.local", Name: "System Administrator", Role: models.RoleAdmin, Department: "Information Security"},
		{Email: "analyst@warden.local", Name: "Risk Analyst", Role: models.RoleAnalyst, Department: "Third Party Risk Management"},
	}
	for _, u := range users {
		var existing models.User
		if err := db.Where("email = ?", u.Email).First(&existing).Error; err == nil {
			fmt.Printf("  User already exists: %s\n", u.Email)
			continue
		}
		if err := u.SetPassword(password); err != nil {
			log.Printf("Failed to hash password for %s: %v", u.Email, err)
			continue
		}
		if err := db.Create(&u).Error; err != nil {
			log.Printf("Failed to seed user %s: %v", u.Email, err)
			continue
		}
		fmt.Printf("✓ Created user: %s (%s)\n", u.Email, u.Role)
	}

	vendors := []models.Vendor{
		{
			ID:                  "acme-cloud-services",
			Name:                "Acme Cloud Services",
			Industry:            "Cloud Computing",
			Country:             "United States",
			StateProvince:       "California",
			PrimaryContactEmail: "security@acme.example.com",
			Status:              models.VendorStatusActive,
		},
		{
			ID:                  "datatech-solutions",
			Name:                "DataTech Solutions",
			Industry:            "Data Analytics",
			Country:             "United States",
			StateProvince:       "Texas",
			PrimaryContactEmail: "contact@datatech.example.com",
			Status:              models.VendorStatusActive,
		},
		{
			ID:                  "securepayments-inc",
			Name:                "SecurePayments Inc",
			Industry:            "Financial Services",
			Country:             "United States",
			StateProvince:       "New York",
			PrimaryContactEmail: "security@securepay.example.com",
			Status:              models.VendorStatusPending,
		},
	}
	for _, v := range vendors {
		result := db.Where("id = ?", v.ID).FirstOrCreate(&v)
		if result.Error != nil {
			log.Printf("Failed to seed vendor %s: %v", v.Name, result.Error)
		} else if result.RowsAffected > 0 {
			fmt.Printf("✓ Created vendor: %s\n", v.Name)
		} else {
			fmt.Printf("  Vendor already exists: %s\n", v.Name)
		}
	}

	fmt.Println("\n✓ Database seeded successfully!")
}

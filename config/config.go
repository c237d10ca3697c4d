package config

import (
	"fmt"
	"os"

	"github.com/xendit/xendit-go/v6"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/urbankart/urbankart-api/internal/models"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
}

func LoadConfig() (*Config, error) {
	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
	}, nil
}

type XenditConfig struct {
	SecretKey string
}

func LoadXenditConfig() (*XenditConfig, error) {
	return &XenditConfig{
		SecretKey: os.Getenv("XENDIT_SECRET_KEY"),
	}, nil
}

func InitXenditClient(config *XenditConfig) (*xendit.APIClient, error) {
	client := xendit.NewClient(config.SecretKey)

	return client, nil
}

func enableUUIDExtension(db *gorm.DB) error {
	return db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error
}

func InitDatabase(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := enableUUIDExtension(db); err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.Coupon{},
		&models.CouponUsage{},
		&models.Discount{},
		&models.CoinTransaction{},
		&models.CoinRule{},
		&models.Return{},
	)
	if err != nil {
		return nil, err
	}

	seedRoles(db)
	seedCoinRules(db)

	return db, nil
}

func seedRoles(db *gorm.DB) {
	roles := []models.Role{
		{Name: "customer"},
		{Name: "admin"},
	}

	for _, role := range roles {
		var existingRole models.Role
		result := db.Where("name = ?", role.Name).First(&existingRole)
		if result.Error != nil {
			db.Create(&role)
		}
	}
}

// seedCoinRules installs the default earning and redemption rules when no
// configuration rows exist yet.
func seedCoinRules(db *gorm.DB) {
	rules := []models.CoinRule{
		{Kind: models.CoinRuleEarning, Threshold: 5000, Coins: 10},
		{Kind: models.CoinRuleRedemption, Coins: 50, DiscountPercent: 5},
	}

	for _, rule := range rules {
		var existingRule models.CoinRule
		result := db.Where("kind = ?", rule.Kind).First(&existingRule)
		if result.Error != nil {
			db.Create(&rule)
		}
	}
}

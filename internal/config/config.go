package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/pkg/db"
)

type Config struct {
	DB_HOST     string
	DB_PORT     string
	DB_USER     string
	DB_PASSWORD string
	DB_NAME     string

	ES_URL      string
	ES_USER     string
	ES_PASSWORD string

	JWT_SECRET     string
	REFRESH_SECRET string

	KAFKA_ADDRESS string

	SMTP_HOST string
	SMTP_PORT string
	SMTP_FROM string
	SMTP_USER string
	SMTP_PASS string

	STRIPE_SECRET_KEY string
	CLIENT_URL        string

	TWILIO_ACCOUNT_SID   string
	TWILIO_AUTH_TOKEN    string
	TWILIO_FROM          string
	DEFAULT_COUNTRY_CODE string
	SMS_ENABLED          bool

	CLOUDINARY_URL string

	LOG_LEVEL string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		DB_HOST:     os.Getenv("DB_HOST"),
		DB_PORT:     os.Getenv("DB_PORT"),
		DB_USER:     os.Getenv("DB_USER"),
		DB_PASSWORD: os.Getenv("DB_PASSWORD"),
		DB_NAME:     os.Getenv("DB_NAME"),

		ES_URL:      os.Getenv("ES_URL"),
		ES_USER:     os.Getenv("ES_USER"),
		ES_PASSWORD: os.Getenv("ES_PASSWORD"),

		JWT_SECRET:     os.Getenv("JWT_SECRET"),
		REFRESH_SECRET: os.Getenv("REFRESH_SECRET"),

		KAFKA_ADDRESS: os.Getenv("KAFKA_ADDRESS"),

		SMTP_HOST: os.Getenv("SMTP_HOST"),
		SMTP_PORT: os.Getenv("SMTP_PORT"),
		SMTP_FROM: os.Getenv("SMTP_FROM"),
		SMTP_USER: os.Getenv("SMTP_USER"),
		SMTP_PASS: os.Getenv("SMTP_PASS"),

		STRIPE_SECRET_KEY: os.Getenv("STRIPE_SECRET_KEY"),
		CLIENT_URL:        EnvDefault("CLIENT_URL", "http://localhost:3000"),

		TWILIO_ACCOUNT_SID:   os.Getenv("TWILIO_ACCOUNT_SID"),
		TWILIO_AUTH_TOKEN:    os.Getenv("TWILIO_AUTH_TOKEN"),
		TWILIO_FROM:          os.Getenv("TWILIO_FROM"),
		DEFAULT_COUNTRY_CODE: EnvDefault("DEFAULT_COUNTRY_CODE", "91"),
		SMS_ENABLED:          EnvBoolDefault("SMS_ENABLED", false),

		CLOUDINARY_URL: os.Getenv("CLOUDINARY_URL"),

		LOG_LEVEL: EnvDefault("LOG_LEVEL", "info"),
	}

	return config, nil
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DB_USER, c.DB_PASSWORD, c.DB_HOST, c.DB_PORT, c.DB_NAME,
	)
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	gdb, err := db.Open(cfg.DatabaseURL())
	if err != nil {
		return nil, err
	}
	if err := Migrate(gdb); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return gdb, nil
}

func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Message{},
		&models.Review{},
	)
}

package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"backend/models"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Config collects everything the services need at construction time.
// Credentials are read from the environment exactly once, here — never
// inside request handling.
type Config struct {
	Port string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	JWTSecret string

	// External nutrition sources
	OpenFoodFactsBaseURL string // override for tests; empty = live endpoints
	USDAAPIKey           string // empty disables the USDA source
	SourceTimeout        time.Duration

	// IP geolocation fallback
	GeoIPBaseURL string
	GeoIPTimeout time.Duration

	DefaultRegion string

	// Product photo storage (optional)
	S3Bucket      string
	S3Region      string
	CloudFrontURL string

	// Scanner rate limiting, per client IP
	ScanRPS   float64
	ScanBurst int
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment as-is")
	}

	return Config{
		Port:          getenv("PORT", "8080"),
		DBHost:        getenv("DB_HOST", "localhost"),
		DBUser:        getenv("DB_USER", "postgres"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBName:        getenv("DB_NAME", "safecart"),
		DBPort:        getenv("DB_PORT", "5432"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		USDAAPIKey:    os.Getenv("USDA_API_KEY"),
		SourceTimeout: 5 * time.Second,
		GeoIPBaseURL:  getenv("GEOIP_BASE_URL", "https://ipapi.co"),
		GeoIPTimeout:  3 * time.Second,
		DefaultRegion: getenv("DEFAULT_REGION", "US"),
		S3Bucket:      os.Getenv("S3_BUCKET"),
		S3Region:      getenv("S3_REGION", os.Getenv("AWS_REGION")),
		CloudFrontURL: os.Getenv("CLOUDFRONT_URL"),
		ScanRPS:       5,
		ScanBurst:     10,
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (c Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

func InitDB(c Config) *gorm.DB {
	db, err := gorm.Open(postgres.Open(c.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.RegionEntry{},
		&models.Alert{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	return db
}

package config

import (
	"os"
	"time"
)

// Config collects every environment knob in one place so nothing reads the
// environment ad hoc further down.
type Config struct {
	Port      string
	MongoURI  string
	Database  string
	JWTSecret string

	// ReportLocation is the reporting timezone for sales report buckets.
	ReportLocation *time.Location

	// MinIO image storage; empty endpoint falls back to local disk.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// SMTP for the low-stock alert mail; empty host disables it.
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	AlertTo  string
}

// Load builds the config from the environment. Call after godotenv has run.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getenv("PORT", "5000"),
		MongoURI:       getenv("MONGO_URI", "mongodb://localhost:27017"),
		Database:       getenv("MONGO_DATABASE", "inventorysales"),
		JWTSecret:      getenv("JWT_SECRET", "dev_secret_change_me"),
		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getenv("MINIO_BUCKET", "product-images"),
		MinioUseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
		SMTPHost:       os.Getenv("SMTP_HOST"),
		SMTPPort:       587,
		SMTPUser:       os.Getenv("SMTP_USER"),
		SMTPPass:       os.Getenv("SMTP_PASS"),
		AlertTo:        os.Getenv("LOW_STOCK_ALERT_TO"),
	}

	loc, err := time.LoadLocation(getenv("REPORT_TIMEZONE", "UTC"))
	if err != nil {
		return nil, err
	}
	cfg.ReportLocation = loc
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

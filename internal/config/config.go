package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Identity  IdentityConfig
	SMTP      SMTPConfig
	MinIO     MinIOConfig
	Advisory  AdvisoryConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// IdentityConfig points at the managed identity provider (Keycloak-compatible
// realm API). TokenSecret signs the short-lived custom tokens returned by
// register/login for immediate client use.
type IdentityConfig struct {
	URL          string
	Realm        string
	ClientID     string
	ClientSecret string
	TokenSecret  string
	TokenTTL     time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

type AdvisoryConfig struct {
	BaseURL string
	Timeout time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

type CORSConfig struct {
	FrontendURL string
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5000")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_DATABASE", "smartagrinet")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_FROM", "SmartAgriNet <no-reply@smartagrinet.com>")
	viper.SetDefault("ADVISORY_TIMEOUT", 10)
	viper.SetDefault("CUSTOM_TOKEN_TTL", 60)
	viper.SetDefault("RATE_LIMIT_ENABLED", true)
	viper.SetDefault("RATE_LIMIT_RPS", 10)
	viper.SetDefault("RATE_LIMIT_BURST", 100)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 900)
	viper.SetDefault("FRONTEND_URL", "http://localhost:3000")
	viper.SetDefault("MINIO_BUCKET", "smartagrinet")

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		Identity: IdentityConfig{
			URL:          viper.GetString("IDENTITY_URL"),
			Realm:        viper.GetString("IDENTITY_REALM"),
			ClientID:     viper.GetString("IDENTITY_CLIENT_ID"),
			ClientSecret: os.Getenv("IDENTITY_CLIENT_SECRET"),
			TokenSecret:  os.Getenv("CUSTOM_TOKEN_SECRET"),
			TokenTTL:     time.Duration(viper.GetInt("CUSTOM_TOKEN_TTL")) * time.Minute,
		},
		SMTP: SMTPConfig{
			Host:     viper.GetString("SMTP_HOST"),
			Port:     viper.GetInt("SMTP_PORT"),
			User:     viper.GetString("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     viper.GetString("SMTP_FROM"),
		},
		MinIO: MinIOConfig{
			Endpoint:  viper.GetString("MINIO_ENDPOINT"),
			AccessKey: viper.GetString("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:    viper.GetBool("MINIO_USE_SSL"),
			Bucket:    viper.GetString("MINIO_BUCKET"),
		},
		Advisory: AdvisoryConfig{
			BaseURL: viper.GetString("ADVISORY_URL"),
			Timeout: time.Duration(viper.GetInt("ADVISORY_TIMEOUT")) * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		CORS: CORSConfig{
			FrontendURL: viper.GetString("FRONTEND_URL"),
		},
	}

	// Basic validation
	if cfg.Identity.TokenSecret == "" {
		log.Println("WARNING: CUSTOM_TOKEN_SECRET is not set; set a secure value in production")
	}

	return cfg, nil
}

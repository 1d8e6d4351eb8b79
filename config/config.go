package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/farellandr/eventreg/internal/repository"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port        string
	Environment string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTSecret  string
	JWTTTL     time.Duration
	PassSecret string

	MediaRoot         string
	MediaURL          string
	MaxUploadMB       int64
	ImageTargetHeight int
	ImageQuality      int
	CORSOrigins       []string

	RabbitURL      string
	RabbitExchange string
	RabbitQueue    string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	AdminEmail    string
	AdminPassword string
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// MaxUploadBytes is the configured upload limit, or 0 for the per-kind
// defaults.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB * 1024 * 1024
}

// Load reads the optional .env file and then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Port:        v.GetString("PORT"),
		Environment: strings.ToLower(v.GetString("ENVIRONMENT")),

		DBDriver:   strings.ToLower(v.GetString("DB_DRIVER")),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBSSLMode:  v.GetString("DB_SSLMODE"),

		JWTSecret:  v.GetString("JWT_SECRET"),
		JWTTTL:     v.GetDuration("JWT_TTL"),
		PassSecret: v.GetString("PASS_SECRET"),

		MediaRoot:         v.GetString("MEDIA_ROOT"),
		MediaURL:          v.GetString("MEDIA_URL"),
		MaxUploadMB:       v.GetInt64("MAX_UPLOAD_MB"),
		ImageTargetHeight: v.GetInt("IMAGE_TARGET_HEIGHT"),
		ImageQuality:      v.GetInt("IMAGE_QUALITY"),
		CORSOrigins:       splitList(v.GetString("CORS_ALLOWED_ORIGINS")),

		RabbitURL:      v.GetString("RABBITMQ_URL"),
		RabbitExchange: v.GetString("RABBITMQ_EXCHANGE"),
		RabbitQueue:    v.GetString("RABBITMQ_QUEUE"),

		SMTPHost:     v.GetString("SMTP_HOST"),
		SMTPPort:     v.GetInt("SMTP_PORT"),
		SMTPUser:     v.GetString("SMTP_USER"),
		SMTPPassword: v.GetString("SMTP_PASSWORD"),
		SMTPFrom:     v.GetString("SMTP_FROM"),

		AdminEmail:    v.GetString("ADMIN_EMAIL"),
		AdminPassword: v.GetString("ADMIN_PASSWORD"),
	}
	if cfg.PassSecret == "" {
		cfg.PassSecret = cfg.JWTSecret
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("MEDIA_ROOT", "media")
	v.SetDefault("MEDIA_URL", "/media")
	v.SetDefault("MAX_UPLOAD_MB", 0)
	v.SetDefault("IMAGE_TARGET_HEIGHT", 900)
	v.SetDefault("IMAGE_QUALITY", 50)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("RABBITMQ_EXCHANGE", "eventreg")
	v.SetDefault("RABBITMQ_QUEUE", "registration_approvals")
	v.SetDefault("SMTP_PORT", 587)
}

func (c *Config) validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.DBDriver {
	case DriverMemory:
	case DriverPostgres:
		if c.DBName == "" || c.DBUser == "" {
			errs = append(errs, errors.New("DB_NAME and DB_USER are required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver))
	}
	if c.ImageQuality < 1 || c.ImageQuality > 100 {
		errs = append(errs, fmt.Errorf("IMAGE_QUALITY must be between 1 and 100, got %d", c.ImageQuality))
	}
	if c.ImageTargetHeight < 1 {
		errs = append(errs, fmt.Errorf("IMAGE_TARGET_HEIGHT must be positive, got %d", c.ImageTargetHeight))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode,
	)
}

func enableUUIDExtension(db *gorm.DB) error {
	return db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error
}

// InitDatabase connects to postgres and migrates the schema.
func InitDatabase(cfg *Config) (*gorm.DB, error) {
	gormConfig := &gorm.Config{TranslateError: true}
	if !cfg.IsDevelopment() {
		gormConfig.Logger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := enableUUIDExtension(db); err != nil {
		return nil, fmt.Errorf("enable uuid extension: %w", err)
	}

	if err := repository.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return db, nil
}

package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "memory")

	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.Port != "8080" || cfg.JWTTTL != 24*time.Hour {
		t.Errorf("Port = %q, JWTTTL = %v", cfg.Port, cfg.JWTTTL)
	}
	if cfg.ImageTargetHeight != 900 || cfg.ImageQuality != 50 {
		t.Errorf("image settings = %d/%d", cfg.ImageTargetHeight, cfg.ImageQuality)
	}
	if cfg.PassSecret != "secret" {
		t.Errorf("PassSecret should fall back to JWT_SECRET, got %q", cfg.PassSecret)
	}
	if !cfg.IsDevelopment() || cfg.MaxUploadBytes() != 0 {
		t.Errorf("Environment = %q, MaxUploadBytes = %d", cfg.Environment, cfg.MaxUploadBytes())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_NAME", "events")
	t.Setenv("DB_SSLMODE", "require")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("MAX_UPLOAD_MB", "8")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.DBDriver != DriverPostgres || cfg.JWTTTL != 2*time.Hour {
		t.Errorf("DBDriver = %q, JWTTTL = %v", cfg.DBDriver, cfg.JWTTTL)
	}
	if cfg.MaxUploadBytes() != 8*1024*1024 {
		t.Errorf("MaxUploadBytes = %d", cfg.MaxUploadBytes())
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %q", cfg.CORSOrigins)
	}
	if !strings.Contains(cfg.DSN(), "sslmode=require") || !strings.Contains(cfg.DSN(), "dbname=events") {
		t.Errorf("DSN = %q", cfg.DSN())
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{"DB_DRIVER": "memory"}, "JWT_SECRET"},
		{"unknown driver", map[string]string{"JWT_SECRET": "s", "DB_DRIVER": "mysql"}, "DB_DRIVER"},
		{"postgres without database", map[string]string{"JWT_SECRET": "s", "DB_DRIVER": "postgres", "DB_NAME": "", "DB_USER": ""}, "DB_NAME"},
		{"quality out of range", map[string]string{"JWT_SECRET": "s", "DB_DRIVER": "memory", "IMAGE_QUALITY": "101"}, "IMAGE_QUALITY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := load(viper.New())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("load() error = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

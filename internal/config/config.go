package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Auth (single operator)
	AdminUsername    string
	AdminPassword    string // plaintext in env for initial setup, hashed on boot
	AdminEmail       string
	AdminDisplayName string
	AdminRole        string
	JWTSecret        string

	// Secret parameter store
	ParamEncryptionKey string // 32-byte hex for AES-256-GCM
	ParamStorePrefix   string
	ParamCacheTTL      time.Duration // 0 disables caching, capped at 60s

	// Audit trail
	AuditLogGroup string

	// Device transport
	DeviceTimeout time.Duration
}

func Load() *Config {
	deviceTimeout, _ := strconv.Atoi(getEnv("DEVICE_TIMEOUT", "30"))
	cacheTTL, _ := strconv.Atoi(getEnv("PARAM_CACHE_TTL", "0"))
	return &Config{
		Port:               getEnv("PORT", "8098"),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "5432"),
		DBUser:             getEnv("DB_USER", "postgres"),
		DBPassword:         getEnv("DB_PASSWORD", ""),
		DBName:             getEnv("DB_NAME", "plc_control_db"),
		DBSSLMode:          getEnv("DB_SSLMODE", "disable"),
		AdminUsername:      getEnv("ADMIN_USERNAME", "operator"),
		AdminPassword:      getEnv("ADMIN_PASSWORD", ""),
		AdminEmail:         getEnv("ADMIN_EMAIL", "operator@example.com"),
		AdminDisplayName:   getEnv("ADMIN_DISPLAY_NAME", "Operator"),
		AdminRole:          getEnv("ADMIN_ROLE", "operator"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		ParamEncryptionKey: getEnv("PARAM_ENCRYPTION_KEY", ""),
		ParamStorePrefix:   getEnv("PARAM_STORE_PREFIX", "/plc/secure"),
		ParamCacheTTL:      time.Duration(cacheTTL) * time.Second,
		AuditLogGroup:      getEnv("AUDIT_LOG_GROUP", "plc-control-audit"),
		DeviceTimeout:      time.Duration(deviceTimeout) * time.Second,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all service configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Upload     UploadConfig
	Compliance ComplianceConfig
	CalcSvc    CalcSvcConfig
	Report     ReportConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

type JWTConfig struct {
	Secret      string
	Issuer      string
	ExpiryHours int
}

type UploadConfig struct {
	MaxFileSize     int64 // bytes
	TempDir         string
	AllowedTypes    []string
	BatchInsertSize int
}

// ComplianceConfig carries the voltage-drop classification thresholds. The
// limit is the deployment default; project overrides replace it per run.
type ComplianceConfig struct {
	MaxVoltageDropPct float64
	WarningFraction   float64
}

// CalcSvcConfig points at the external string-calculation service.
type CalcSvcConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ReportConfig points at the external PDF rendering service.
type ReportConfig struct {
	RenderURL string
	Timeout   time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "sciq"),
			Password: getEnv("DB_PASSWORD", "sciq_dev_password"),
			DBName:   getEnv("DB_NAME", "sciq"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: int(getIntEnv("DB_MAX_CONNS", 20)),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "dev-secret-change-in-production"),
			Issuer:      getEnv("JWT_ISSUER", "string-compliance-iq"),
			ExpiryHours: getIntEnv("JWT_EXPIRY_HOURS", 24),
		},
		Upload: UploadConfig{
			MaxFileSize:     int64(getIntEnv("UPLOAD_MAX_SIZE_MB", 50)) * 1024 * 1024,
			TempDir:         getEnv("UPLOAD_TEMP_DIR", "/tmp/sciq-uploads"),
			AllowedTypes:    []string{"text/csv", "application/csv"},
			BatchInsertSize: getIntEnv("UPLOAD_BATCH_INSERT_SIZE", 1000),
		},
		Compliance: ComplianceConfig{
			MaxVoltageDropPct: getFloatEnv("COMPLIANCE_MAX_VDROP_PCT", 1.5),
			WarningFraction:   getFloatEnv("COMPLIANCE_WARNING_FRACTION", 0.8),
		},
		CalcSvc: CalcSvcConfig{
			BaseURL: getEnv("CALC_SERVICE_URL", "http://localhost:8100"),
			Timeout: getDurationEnv("CALC_SERVICE_TIMEOUT", 60*time.Second),
		},
		Report: ReportConfig{
			RenderURL: getEnv("REPORT_RENDER_URL", "http://localhost:8200"),
			Timeout:   getDurationEnv("REPORT_RENDER_TIMEOUT", 120*time.Second),
		},
	}
}

// DSN returns the Postgres connection string.
func (d *DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password +
		"@" + d.Host + ":" + d.Port +
		"/" + d.DBName + "?sslmode=" + d.SSLMode
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mdwight/quittance/internal/logger"
	"github.com/mdwight/quittance/internal/receipt"
)

// Config is the composition-root configuration, loaded from environment
// variables with local-friendly defaults. Secrets (SMTP, WebDAV) come from
// the environment only; an unset transport degrades at send/archive time
// instead of blocking startup.
type Config struct {
	// Storage
	DatabasePath string
	TemplatePath string

	// Landlord identity printed on receipts
	LandlordName      string
	LandlordAddress   string
	LandlordIssueCity string

	// SMTP Configuration
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	SMTPEncryption string
	SMTPFromEmail  string
	SMTPFromName   string

	// WebDAV archive (Nextcloud-style)
	WebdavBaseURL   string
	WebdavUsername  string
	WebdavPassword  string
	WebdavBasePath  string
	WebdavTargetDir string

	// Local archive fallback
	ArchiveFallbackDir string

	// PDF layout
	PDFPageSize       string
	PDFOrientation    string
	PDFMarginTopMm    int
	PDFMarginRightMm  int
	PDFMarginBottomMm int
	PDFMarginLeftMm   int

	// Timezone for default period/payment date resolution
	Timezone string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load builds the configuration from the environment.
func Load() (*Config, error) {
	config := &Config{
		DatabasePath:       getEnv("QUITTANCE_DB_PATH", "database.sqlite"),
		TemplatePath:       getEnv("QUITTANCE_TEMPLATE_PATH", "templates/receipt.html"),
		LandlordName:       getEnv("LANDLORD_NAME", ""),
		LandlordAddress:    getEnv("LANDLORD_ADDRESS", ""),
		LandlordIssueCity:  getEnv("LANDLORD_ISSUE_CITY", "Paris"),
		SMTPHost:           getEnv("SMTP_HOST", ""),
		SMTPPort:           getEnvInt("SMTP_PORT", 587),
		SMTPUsername:       getEnv("SMTP_USERNAME", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		SMTPEncryption:     getEnv("SMTP_ENCRYPTION", "tls"),
		SMTPFromEmail:      getEnv("SMTP_FROM_EMAIL", "no-reply@example.com"),
		SMTPFromName:       getEnv("SMTP_FROM_NAME", "Bailleur"),
		WebdavBaseURL:      getEnv("WEBDAV_BASE_URL", ""),
		WebdavUsername:     getEnv("WEBDAV_USERNAME", ""),
		WebdavPassword:     getEnv("WEBDAV_PASSWORD", ""),
		WebdavBasePath:     getEnv("WEBDAV_BASE_PATH", "/remote.php/dav/files"),
		WebdavTargetDir:    getEnv("WEBDAV_TARGET_DIR", ""),
		ArchiveFallbackDir: getEnv("ARCHIVE_FALLBACK_DIR", "var/archives"),
		PDFPageSize:        getEnv("PDF_PAGE_SIZE", "A4"),
		PDFOrientation:     getEnv("PDF_ORIENTATION", "Portrait"),
		PDFMarginTopMm:     getEnvInt("PDF_MARGIN_TOP_MM", 10),
		PDFMarginRightMm:   getEnvInt("PDF_MARGIN_RIGHT_MM", 10),
		PDFMarginBottomMm:  getEnvInt("PDF_MARGIN_BOTTOM_MM", 10),
		PDFMarginLeftMm:    getEnvInt("PDF_MARGIN_LEFT_MM", 10),
		Timezone:           getEnv("QUITTANCE_TIMEZONE", "Europe/Paris"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:      getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:          getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("QUITTANCE_DB_PATH is required")
	}
	if c.TemplatePath == "" {
		return fmt.Errorf("QUITTANCE_TEMPLATE_PATH is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("QUITTANCE_TIMEZONE is invalid: %w", err)
	}
	return nil
}

// Location returns the configured timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	cfg := logger.DefaultConfig()
	cfg.Level = c.LogLevel
	cfg.Format = c.LogFormat
	cfg.TimeFormat = c.LogTimeFormat
	cfg.Output = c.LogOutput
	return cfg
}

// SMTPConfig returns the transport settings for the email sender.
func (c *Config) SMTPConfig() receipt.SMTPConfig {
	return receipt.SMTPConfig{
		Host:       c.SMTPHost,
		Port:       c.SMTPPort,
		Username:   c.SMTPUsername,
		Password:   c.SMTPPassword,
		Encryption: c.SMTPEncryption,
		FromEmail:  c.SMTPFromEmail,
		FromName:   c.SMTPFromName,
	}
}

// WebdavConfig returns the remote archive settings.
func (c *Config) WebdavConfig() receipt.WebdavConfig {
	return receipt.WebdavConfig{
		BaseURL:  c.WebdavBaseURL,
		Username: c.WebdavUsername,
		Password: c.WebdavPassword,
		BasePath: c.WebdavBasePath,
	}
}

// PDFOptions returns the configured receipt page layout.
func (c *Config) PDFOptions() receipt.PDFOptions {
	opts := receipt.DefaultPDFOptions()
	opts.PageSize = c.PDFPageSize
	opts.Orientation = c.PDFOrientation
	opts.MarginTopMm = uint(c.PDFMarginTopMm)
	opts.MarginRightMm = uint(c.PDFMarginRightMm)
	opts.MarginBottomMm = uint(c.PDFMarginBottomMm)
	opts.MarginLeftMm = uint(c.PDFMarginLeftMm)
	return opts
}

// Landlord returns the issuing landlord identity.
func (c *Config) Landlord() receipt.Landlord {
	return receipt.Landlord{
		Name:      c.LandlordName,
		Address:   c.LandlordAddress,
		IssueCity: c.LandlordIssueCity,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

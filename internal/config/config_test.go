package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "database.sqlite", cfg.DatabasePath)
	assert.Equal(t, "templates/receipt.html", cfg.TemplatePath)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, "tls", cfg.SMTPEncryption)
	assert.Equal(t, "/remote.php/dav/files", cfg.WebdavBasePath)
	assert.Equal(t, "var/archives", cfg.ArchiveFallbackDir)
	assert.Equal(t, "Europe/Paris", cfg.Timezone)
	assert.Equal(t, "Paris", cfg.LandlordIssueCity)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("QUITTANCE_DB_PATH", "/data/rent.sqlite")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("SMTP_ENCRYPTION", "ssl")
	t.Setenv("PDF_MARGIN_TOP_MM", "20")
	t.Setenv("QUITTANCE_TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/rent.sqlite", cfg.DatabasePath)
	assert.Equal(t, 465, cfg.SMTPPort)
	assert.Equal(t, "ssl", cfg.SMTPEncryption)
	assert.Equal(t, uint(20), cfg.PDFOptions().MarginTopMm)
	assert.Equal(t, "UTC", cfg.Location().String())
}

func TestLoadInvalidTimezone(t *testing.T) {
	t.Setenv("QUITTANCE_TIMEZONE", "Mars/Olympus")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QUITTANCE_TIMEZONE")
}

func TestLoadBadIntFallsBack(t *testing.T) {
	t.Setenv("SMTP_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 587, cfg.SMTPPort)
}

func TestSMTPConfigMapping(t *testing.T) {
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_FROM_EMAIL", "marie@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	smtp := cfg.SMTPConfig()
	assert.Equal(t, "smtp.example.com", smtp.Host)
	assert.Equal(t, "marie@example.com", smtp.FromEmail)
}

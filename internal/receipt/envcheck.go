package receipt

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// EnvCheck is one environment readiness probe. Values are never echoed, only
// whether the setting is usable, so the report is safe to paste in an issue.
type EnvCheck struct {
	Name     string
	Required bool
	OK       bool
	Detail   string
}

// EnvReport aggregates the readiness probes of one run.
type EnvReport struct {
	Checks []EnvCheck
}

// Missing returns the names of required checks that did not pass.
func (r EnvReport) Missing() []string {
	var names []string
	for _, c := range r.Checks {
		if c.Required && !c.OK {
			names = append(names, c.Name)
		}
	}
	return names
}

// CheckEnvironment probes everything the send pipeline depends on: SMTP and
// WebDAV settings, the receipt template and the wkhtmltopdf binary. With
// strict=false (dry-run) the transport settings are reported but not
// required, since a dry run performs no delivery or archival.
func CheckEnvironment(smtp SMTPConfig, webdav WebdavConfig, templatePath string, strict bool) EnvReport {
	var r EnvReport

	set := func(name, value, detail string, required bool) {
		r.Checks = append(r.Checks, EnvCheck{
			Name:     name,
			Required: required,
			OK:       value != "",
			Detail:   detail,
		})
	}

	set("smtp_host", smtp.Host, "SMTP server hostname", strict)
	port := ""
	if smtp.Port != 0 {
		port = "set"
	}
	set("smtp_port", port, "SMTP server port", strict)
	set("smtp_username", smtp.Username, "SMTP username", strict)
	set("smtp_password", smtp.Password, "SMTP password", strict)
	set("smtp_from_email", smtp.FromEmail, "SMTP sender email", strict)
	set("smtp_encryption", smtp.Encryption, "SMTP encryption (tls/ssl)", false)
	set("smtp_from_name", smtp.FromName, "SMTP sender name", false)

	set("webdav_base_url", webdav.BaseURL, "WebDAV base URL", strict)
	set("webdav_username", webdav.Username, "WebDAV username", strict)
	set("webdav_password", webdav.Password, "WebDAV password", strict)
	set("webdav_base_path", webdav.BasePath, "WebDAV base path", strict)

	r.Checks = append(r.Checks, EnvCheck{
		Name:     "template",
		Required: true,
		OK:       fileExists(templatePath),
		Detail:   "receipt HTML template " + templatePath,
	})
	r.Checks = append(r.Checks, checkWkhtmltopdf(strict))

	return r
}

// checkWkhtmltopdf resolves the binary the way the PDF generator does:
// WKHTMLTOPDF_PATH (a directory) first, PATH otherwise.
func checkWkhtmltopdf(required bool) EnvCheck {
	check := EnvCheck{
		Name:     "wkhtmltopdf",
		Required: required,
		Detail:   "wkhtmltopdf binary on PATH or under WKHTMLTOPDF_PATH",
	}

	if dir := strings.TrimSpace(os.Getenv("WKHTMLTOPDF_PATH")); dir != "" {
		check.OK = fileExists(filepath.Join(dir, "wkhtmltopdf"))
		return check
	}
	_, err := exec.LookPath("wkhtmltopdf")
	check.OK = err == nil
	return check
}

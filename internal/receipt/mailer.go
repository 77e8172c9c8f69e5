package receipt

import (
	"crypto/tls"
	"os"

	gomail "gopkg.in/gomail.v2"
)

// SendRequest describes one receipt email to deliver.
type SendRequest struct {
	ToEmail  string
	ToName   string
	Subject  string
	BodyText string
	PDFPath  string
}

// SendResult is the structured outcome of a delivery attempt. Transport
// failures are reported here, never as panics or raised errors, so batch
// runs can degrade per-item.
type SendResult struct {
	Success      bool
	ErrorMessage string
}

// Sender delivers an email with a PDF attachment to one recipient.
type Sender interface {
	Send(req SendRequest) SendResult
}

// SMTPConfig holds the SMTP transport settings.
type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	Encryption string // "tls" (STARTTLS), "ssl" (implicit TLS) or "" (none)
	FromEmail  string
	FromName   string
}

// SMTPSender delivers receipt emails over SMTP via gomail.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender returns an SMTPSender for the given transport settings.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send implements Sender.
func (s *SMTPSender) Send(req SendRequest) SendResult {
	if s.cfg.Host == "" {
		return SendResult{ErrorMessage: "smtp not configured"}
	}

	if _, err := os.Stat(req.PDFPath); err != nil {
		return SendResult{ErrorMessage: "pdf not found: " + req.PDFPath}
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", s.cfg.FromEmail, s.cfg.FromName)
	msg.SetAddressHeader("To", req.ToEmail, req.ToName)
	msg.SetHeader("Subject", req.Subject)
	msg.SetBody("text/plain", req.BodyText)
	msg.Attach(req.PDFPath)

	dialer := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	switch s.cfg.Encryption {
	case "ssl":
		dialer.SSL = true
	case "tls":
		// STARTTLS is negotiated opportunistically by gomail.
	default:
		dialer.TLSConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // plain relays on trusted networks
	}

	if err := dialer.DialAndSend(msg); err != nil {
		return SendResult{ErrorMessage: err.Error()}
	}
	return SendResult{Success: true}
}

package utils

import (
	"gopkg.in/gomail.v2"

	"backend/config"
)

// SendLowStockAlert mails the daily low-stock summary. No-op when SMTP is
// not configured.
func SendLowStockAlert(cfg *config.Config, body string) error {
	if cfg.SMTPHost == "" || cfg.AlertTo == "" {
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", cfg.SMTPUser)
	m.SetHeader("To", cfg.AlertTo)
	m.SetHeader("Subject", "Low stock report")
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	return d.DialAndSend(m)
}

package service

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type smtpSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPSender sends mail through a plain SMTP relay.
func NewSMTPSender(host string, port int, username, password, from string) EmailSender {
	return &smtpSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (s *smtpSender) Send(ctx context.Context, to, subject, plainText, html string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainText)
	if html != "" {
		m.AddAlternative("text/html", html)
	}

	d := gomail.NewDialer(s.host, s.port, s.username, s.password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email via smtp: %w", err)
	}
	return nil
}

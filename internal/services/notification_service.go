// internal/services/notification_service.go
package services

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/mail.v2"

	"github.com/kmrl/metrodocs/internal/config"
)

const (
	DefaultEmailSubject = "Hello from Lets Build Something"

	msgEmailFieldsRequired = "The 'to' email and 'message' fields are required."
	msgMissingFromAddress  = "Missing MAIL_FROM_ADDRESS environment variable."
	msgSMTPIncomplete      = "SMTP configuration is incomplete. " +
		"Please set MAIL_SMTP_HOST, MAIL_SMTP_USERNAME, and MAIL_SMTP_PASSWORD."
	msgEmailSent = "Email sent successfully."
)

// MailSender delivers composed messages. *mail.Dialer satisfies it.
type MailSender interface {
	DialAndSend(m ...*mail.Message) error
}

type NotificationService struct {
	config    config.MailConfig
	newSender func(cfg config.MailConfig) MailSender
}

type SendEmailRequest struct {
	To          string `json:"to"`
	Subject     string `json:"subject"`
	Message     string `json:"message"`
	FromAddress string `json:"from_address"`
}

type SendEmailResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func NewNotificationService(cfg config.MailConfig) *NotificationService {
	return &NotificationService{
		config:    cfg,
		newSender: newDialer,
	}
}

func newDialer(cfg config.MailConfig) MailSender {
	d := mail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	// always a plain connection upgraded with STARTTLS, even on port 465
	d.SSL = false
	if cfg.UseTLS {
		d.StartTLSPolicy = mail.MandatoryStartTLS
	} else {
		d.StartTLSPolicy = mail.NoStartTLS
	}
	d.Timeout = time.Duration(cfg.Timeout) * time.Second
	return d
}

// Send composes one plain-text message and hands it to the SMTP relay. There is
// exactly one delivery attempt.
func (s *NotificationService) Send(req *SendEmailRequest) (*SendEmailResponse, error) {
	to := strings.TrimSpace(req.To)
	body := strings.TrimSpace(req.Message)
	if to == "" || body == "" {
		return nil, ValidationError(msgEmailFieldsRequired)
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = DefaultEmailSubject
	}

	from := strings.TrimSpace(req.FromAddress)
	if from == "" {
		from = s.config.FromAddress
	}
	if from == "" {
		return nil, ConfigError(msgMissingFromAddress)
	}

	if s.config.SMTPHost == "" || s.config.SMTPUsername == "" || s.config.SMTPPassword == "" {
		return nil, ConfigError(msgSMTPIncomplete)
	}

	m := mail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.newSender(s.config).DialAndSend(m); err != nil {
		logrus.WithError(err).WithField("to", to).Warn("Email delivery failed")
		return nil, UpstreamError("Unable to send email: "+err.Error(), err)
	}

	logrus.WithField("to", to).Info("Email sent")
	return &SendEmailResponse{Success: true, Message: msgEmailSent}, nil
}

package services

import (
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendVerificationCode(email, category, code string) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer: dialer,
		from:   fromEmail,
	}
}

func (s *emailService) SendVerificationCode(email, category, code string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Your verification code")
	m.SetBody("text/html", verificationEmailBody(category, code))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

func verificationEmailBody(category, code string) string {
	purpose := strings.ReplaceAll(category, "_", " ")
	return fmt.Sprintf(`
		<h3>Verification code</h3>
		<p>Use the following code to confirm %s: <strong>%s</strong></p>
		<p>If you did not request this code, you can ignore this email.</p>
	`, purpose, code)
}

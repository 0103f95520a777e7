package services

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendTaskAssigned(email, name, taskTitle string) error
	SendApprovalDecided(email, name, taskTitle string, approved bool, reason string) error
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

func (s *emailService) SendTaskAssigned(email, name, taskTitle string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "New task assigned to you")

	body := fmt.Sprintf(`
		<h3>Hi %s,</h3>
		<p>The task <strong>%s</strong> has been assigned to you.</p>
		<p>Open the dashboard to see the details.</p>
	`, name, taskTitle)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send assignment email: %w", err)
	}

	return nil
}

func (s *emailService) SendApprovalDecided(email, name, taskTitle string, approved bool, reason string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)

	verdict := "rejected"
	if approved {
		verdict = "approved"
	}
	m.SetHeader("Subject", fmt.Sprintf("Assignment %s: %s", verdict, taskTitle))

	body := fmt.Sprintf(`
		<h3>Hi %s,</h3>
		<p>The assignment request for <strong>%s</strong> was %s.</p>
		<p>%s</p>
	`, name, taskTitle, verdict, reason)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send approval email: %w", err)
	}

	return nil
}

package services

import (
	"fmt"
	"html"
	"log"
	"net/url"
	"time"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendWelcomeEmail(email, fullName string) error
	SendPasswordResetEmail(email, token string) error
	SendLoginEmail(email, fullName string) error
}

type emailService struct {
	dialer   *gomail.Dialer
	from     string
	appURL   string
	resetTTL time.Duration
}

// NewEmailService returns a gomail-backed sender. With an empty smtpHost
// every send is logged and skipped.
func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail, appURL string, resetTTL time.Duration) EmailService {
	var dialer *gomail.Dialer
	if smtpHost != "" {
		dialer = gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	}
	return &emailService{
		dialer: dialer,
		from:     fromEmail,
		appURL:   appURL,
		resetTTL: resetTTL,
	}
}

func (s *emailService) send(to, subject, body string) error {
	if s.dialer == nil {
		log.Printf("[email][skip] smtp not configured, to=%s subject=%q", to, subject)
		return nil
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return s.dialer.DialAndSend(m)
}

func (s *emailService) SendWelcomeEmail(email, fullName string) error {
	body := fmt.Sprintf(`
		<h2>Welcome to TaskHub, %s!</h2>
		<p>Your account has been created. You can sign in with %s.</p>
		<p>The TaskHub Team</p>
	`, html.EscapeString(fullName), html.EscapeString(email))

	if err := s.send(email, "Welcome to TaskHub", body); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	return nil
}

func (s *emailService) SendPasswordResetEmail(email, token string) error {
	if err := s.send(email, "Password reset request", s.resetBody(token)); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

func (s *emailService) resetBody(token string) string {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.appURL, url.QueryEscape(token))
	expiry := ""
	if s.resetTTL > 0 {
		expiry = " It expires in " + expiryText(s.resetTTL) + "."
	}
	return fmt.Sprintf(`
		<h3>Password reset requested</h3>
		<p>Follow <a href="%s">this link</a> to choose a new password.%s</p>
		<p>If you did not request this change, you can ignore this email.</p>
	`, html.EscapeString(link), expiry)
}

// expiryText renders d in the largest whole unit: "1 hour", "15 minutes",
// "90 seconds".
func expiryText(d time.Duration) string {
	unit := func(n int64, name string) string {
		if n == 1 {
			return "1 " + name
		}
		return fmt.Sprintf("%d %ss", n, name)
	}
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return unit(int64(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return unit(int64(d/time.Minute), "minute")
	default:
		return unit(int64(d.Round(time.Second)/time.Second), "second")
	}
}

func (s *emailService) SendLoginEmail(email, fullName string) error {
	body := fmt.Sprintf(`
		<h3>New sign-in to TaskHub</h3>
		<p>Hello %s, your account was just used to sign in at %s.</p>
		<p>If this was not you, reset your password right away.</p>
	`, html.EscapeString(fullName), time.Now().UTC().Format(time.RFC1123))

	if err := s.send(email, "New sign-in to your account", body); err != nil {
		return fmt.Errorf("failed to send login email: %w", err)
	}
	return nil
}

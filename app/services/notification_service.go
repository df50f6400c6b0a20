// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"regexp"
	"strings"
	"sync"
)

var (
	// Philippine mobile numbers in local format: 09XXXXXXXXX
	mobilePattern = regexp.MustCompile(`^09\d{9}$`)
	emailPattern  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// NotificationService handles sending notifications via SMS and email
type NotificationService interface {
	SendSMS(ctx context.Context, mobile, message string) error
	SendEmail(ctx context.Context, email, subject, message string) error
}

// NotificationServiceImpl implements NotificationService
type NotificationServiceImpl struct {
	smsProvider   SMSProvider
	emailProvider EmailProvider
}

// SMSProvider interface for SMS sending
type SMSProvider interface {
	SendSMS(ctx context.Context, mobile, message string) error
}

// EmailProvider interface for email sending
type EmailProvider interface {
	SendEmail(ctx context.Context, email, subject, message string) error
}

// NewNotificationService creates a new notification service
func NewNotificationService(smsProvider SMSProvider, emailProvider EmailProvider) NotificationService {
	return &NotificationServiceImpl{
		smsProvider:   smsProvider,
		emailProvider: emailProvider,
	}
}

// IsValidMobile reports whether mobile is an 11 digit 09XXXXXXXXX number
func IsValidMobile(mobile string) bool {
	return mobilePattern.MatchString(mobile)
}

// IsValidEmail performs a shallow syntax check
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// SendSMS sends an SMS message to the specified mobile number
func (s *NotificationServiceImpl) SendSMS(ctx context.Context, mobile, message string) error {
	if s.smsProvider == nil {
		return fmt.Errorf("SMS provider not configured")
	}

	if !IsValidMobile(mobile) {
		return fmt.Errorf("invalid mobile number format: %s", mobile)
	}

	return s.smsProvider.SendSMS(ctx, mobile, message)
}

// SendEmail sends an email to the specified email address
func (s *NotificationServiceImpl) SendEmail(ctx context.Context, email, subject, message string) error {
	if s.emailProvider == nil {
		return fmt.Errorf("email provider not configured")
	}

	if !IsValidEmail(email) {
		return fmt.Errorf("invalid email address: %s", email)
	}

	return s.emailProvider.SendEmail(ctx, email, subject, message)
}

// MockSMSProvider logs and records messages instead of sending them
type MockSMSProvider struct {
	mu   sync.Mutex
	Sent []SentMessage
}

// SentMessage is a message captured by a mock provider
type SentMessage struct {
	To      string
	Subject string
	Body    string
}

func NewMockSMSProvider() *MockSMSProvider {
	return &MockSMSProvider{}
}

func (p *MockSMSProvider) SendSMS(ctx context.Context, mobile, message string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	log.Printf("SMS sent to %s", mobile)
	p.Sent = append(p.Sent, SentMessage{To: mobile, Body: message})
	return nil
}

// Messages returns a copy of the captured messages
func (p *MockSMSProvider) Messages() []SentMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]SentMessage(nil), p.Sent...)
}

type MockEmailProvider struct {
	mu   sync.Mutex
	Sent []SentMessage
}

func NewMockEmailProvider() *MockEmailProvider {
	return &MockEmailProvider{}
}

func (p *MockEmailProvider) SendEmail(ctx context.Context, email, subject, message string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	log.Printf("Email sent to %s [%s]", email, subject)
	p.Sent = append(p.Sent, SentMessage{To: email, Subject: subject, Body: message})
	return nil
}

func (p *MockEmailProvider) Messages() []SentMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]SentMessage(nil), p.Sent...)
}

// SMTPEmailProvider sends plain text mail through an authenticated SMTP relay
type SMTPEmailProvider struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
	fromName  string
	send      func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPEmailProvider(host string, port int, username, password, fromEmail, fromName string) EmailProvider {
	return &SMTPEmailProvider{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromEmail: fromEmail,
		fromName:  fromName,
		send:      smtp.SendMail,
	}
}

func (p *SMTPEmailProvider) SendEmail(ctx context.Context, email, subject, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	from := p.fromEmail
	if p.fromName != "" {
		from = fmt.Sprintf("%s <%s>", p.fromName, p.fromEmail)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", email)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(message)

	var auth smtp.Auth
	if p.username != "" {
		auth = smtp.PlainAuth("", p.username, p.password, p.host)
	}

	addr := fmt.Sprintf("%s:%d", p.host, p.port)
	if err := p.send(addr, auth, p.fromEmail, []string{email}, []byte(b.String())); err != nil {
		return fmt.Errorf("failed to send email via SMTP: %w", err)
	}
	return nil
}

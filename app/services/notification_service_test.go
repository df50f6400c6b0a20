package services

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidMobile(t *testing.T) {
	tests := []struct {
		mobile string
		valid  bool
	}{
		{"09171234567", true},
		{"09981234567", true},
		{"0917123456", false},
		{"091712345678", false},
		{"+639171234567", false},
		{"08171234567", false},
		{"0917123456a", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.mobile, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidMobile(tt.mobile))
		})
	}
}

func TestNotificationServiceSendSMS(t *testing.T) {
	ctx := context.Background()
	sms := NewMockSMSProvider()
	svc := NewNotificationService(sms, NewMockEmailProvider())

	require.NoError(t, svc.SendSMS(ctx, "09171234567", "Your code is 123456"))
	messages := sms.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "09171234567", messages[0].To)
	assert.Equal(t, "Your code is 123456", messages[0].Body)

	err := svc.SendSMS(ctx, "0917123456", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid mobile number format")
	assert.Len(t, sms.Messages(), 1)
}

func TestNotificationServiceSendEmail(t *testing.T) {
	ctx := context.Background()
	email := NewMockEmailProvider()
	svc := NewNotificationService(NewMockSMSProvider(), email)

	require.NoError(t, svc.SendEmail(ctx, "ana@example.ph", "Verify", "code 123456"))
	messages := email.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "Verify", messages[0].Subject)

	err := svc.SendEmail(ctx, "not-an-email", "Verify", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email address")
}

func TestNotificationServiceMissingProviders(t *testing.T) {
	svc := NewNotificationService(nil, nil)
	assert.Error(t, svc.SendSMS(context.Background(), "09171234567", "x"))
	assert.Error(t, svc.SendEmail(context.Background(), "ana@example.ph", "s", "x"))
}

func TestSMTPEmailProvider(t *testing.T) {
	p := NewSMTPEmailProvider("smtp.example.ph", 587, "user", "pass", "noreply@example.ph", "DTI Portal").(*SMTPEmailProvider)

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	p.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	require.NoError(t, p.SendEmail(context.Background(), "ana@example.ph", "Verify", "code 123456"))
	assert.Equal(t, "smtp.example.ph:587", gotAddr)
	assert.Equal(t, "noreply@example.ph", gotFrom)
	assert.Equal(t, []string{"ana@example.ph"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Verify\r\n")
	assert.Contains(t, string(gotMsg), "From: DTI Portal <noreply@example.ph>\r\n")
	assert.Contains(t, string(gotMsg), "code 123456")

	p.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}
	err := p.SendEmail(context.Background(), "ana@example.ph", "Verify", "x")
	assert.ErrorContains(t, err, "connection refused")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.SendEmail(ctx, "ana@example.ph", "Verify", "x"), context.Canceled)
}

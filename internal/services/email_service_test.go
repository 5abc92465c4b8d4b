package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpiryText(t *testing.T) {
	cases := map[time.Duration]string{
		15 * time.Minute: "15 minutes",
		time.Minute:      "1 minute",
		time.Hour:        "1 hour",
		2 * time.Hour:    "2 hours",
		90 * time.Minute: "90 minutes",
		90 * time.Second: "90 seconds",
	}
	for d, want := range cases {
		assert.Equal(t, want, expiryText(d), d.String())
	}
}

func TestResetBodyUsesConfiguredTTL(t *testing.T) {
	svc := NewEmailService("", 0, "", "", "noreply@example.com", "https://app.example.com", 5*time.Minute).(*emailService)

	body := svc.resetBody("a.b+c")
	assert.Contains(t, body, "It expires in 5 minutes.")
	assert.NotContains(t, body, "15 minutes")
	assert.Contains(t, body, "https://app.example.com/reset-password?token=a.b%2Bc")

	hourly := NewEmailService("", 0, "", "", "", "", time.Hour).(*emailService)
	assert.Contains(t, hourly.resetBody("t"), "It expires in 1 hour.")
}

func TestUnconfiguredSMTPSkipsSends(t *testing.T) {
	svc := NewEmailService("", 0, "", "", "noreply@example.com", "", 15*time.Minute)
	assert.NoError(t, svc.SendLoginEmail("one@example.com", "One"))
	assert.NoError(t, svc.SendPasswordResetEmail("one@example.com", "tok"))
}

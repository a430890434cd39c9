package config

import (
	"testing"
)

func TestValidateRequiresPublicBaseURL(t *testing.T) {
	s := &Settings{Model: ModelConfig{APIKey: "key"}}
	if err := s.Validate(); err == nil {
		t.Fatal("expected error when PublicBaseURL is empty")
	}
}

func TestValidateRequiresModelAPIKey(t *testing.T) {
	s := &Settings{PublicBaseURL: "https://example.com"}
	if err := s.Validate(); err == nil {
		t.Fatal("expected error when model API key is empty")
	}
}

func TestValidateDefaultsRateLimit(t *testing.T) {
	s := &Settings{
		PublicBaseURL: "https://example.com",
		Model:         ModelConfig{APIKey: "key"},
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if s.RateLimit.CallsPerMinute != 10 {
		t.Fatalf("expected default calls-per-minute 10, got %d", s.RateLimit.CallsPerMinute)
	}
	if s.RateLimit.WindowMs != 60000 {
		t.Fatalf("expected default window 60000ms, got %d", s.RateLimit.WindowMs)
	}
}

func TestValidateKeepsExplicitRateLimit(t *testing.T) {
	s := &Settings{
		PublicBaseURL: "https://example.com",
		Model:         ModelConfig{APIKey: "key"},
		RateLimit:     RateLimitConfig{CallsPerMinute: 5, WindowMs: 30000},
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if s.RateLimit.CallsPerMinute != 5 || s.RateLimit.WindowMs != 30000 {
		t.Fatalf("expected explicit rate limit preserved, got %+v", s.RateLimit)
	}
}

func TestDBConfigDSNWithAndWithoutPassword(t *testing.T) {
	withPass := DBConfig{Host: "db", Port: 3306, Username: "u", Password: "p", Name: "voicebridge"}
	dsn := withPass.DSN()
	if dsn != "u:p@tcp(db:3306)/voicebridge?charset=utf8mb4&parseTime=True&loc=Local" {
		t.Fatalf("unexpected DSN with password: %s", dsn)
	}

	noPass := DBConfig{Host: "db", Port: 3306, Username: "u", Name: "voicebridge"}
	dsn = noPass.DSN()
	if dsn != "u@tcp(db:3306)/voicebridge?charset=utf8mb4&parseTime=True&loc=Local" {
		t.Fatalf("unexpected DSN without password: %s", dsn)
	}
}

func TestDBConfigDSNWithTLS(t *testing.T) {
	c := DBConfig{Host: "db", Port: 3306, Username: "u", Name: "voicebridge", TLS: true}
	dsn := c.DSN()
	if dsn != "u@tcp(db:3306)/voicebridge?charset=utf8mb4&parseTime=True&loc=Local&tls=true" {
		t.Fatalf("unexpected DSN with TLS: %s", dsn)
	}
}

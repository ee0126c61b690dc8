package cfg

import (
	"strings"
	"testing"
	"time"
)

// createValidSettings creates a valid Settings struct for testing
func createValidSettings() *Settings {
	return &Settings{
		DataDir:      "data",
		Seed:         42,
		TestFraction: 0.2,
		APIPort:      8001,
		MetricsPort:  9090,
		LogLevel:     "info",
		MLMode:       "mock",
		MLServiceURL: "http://ml:8001",
		MLTimeout:    30 * time.Second,
	}
}

func TestValidateSettings_ValidConfig(t *testing.T) {
	settings := createValidSettings()

	err := validateSettings(settings)
	if err != nil {
		t.Errorf("Expected valid config to pass, got error: %v", err)
	}
}

func TestValidateSettings_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantMsg string
	}{
		{"empty data dir", func(s *Settings) { s.DataDir = "" }, "data directory"},
		{"zero test fraction", func(s *Settings) { s.TestFraction = 0 }, "test fraction"},
		{"negative test fraction", func(s *Settings) { s.TestFraction = -0.1 }, "test fraction"},
		{"test fraction above half", func(s *Settings) { s.TestFraction = 0.6 }, "test fraction"},
		{"API port too low", func(s *Settings) { s.APIPort = 80 }, "API port"},
		{"API port too high", func(s *Settings) { s.APIPort = 70000 }, "API port"},
		{"metrics port too low", func(s *Settings) { s.MetricsPort = 1000 }, "metrics port"},
		{"ports collide", func(s *Settings) { s.MetricsPort = s.APIPort }, "must differ"},
		{"unknown mode", func(s *Settings) { s.MLMode = "grpc" }, "ML mode"},
		{"http mode without URL", func(s *Settings) { s.MLMode = "http"; s.MLServiceURL = "" }, "service URL"},
		{"timeout too short", func(s *Settings) { s.MLTimeout = 500 * time.Millisecond }, "ML timeout"},
		{"timeout too long", func(s *Settings) { s.MLTimeout = 10 * time.Minute }, "ML timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := createValidSettings()
			tt.mutate(settings)

			err := validateSettings(settings)
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Expected error containing %q, got %v", tt.wantMsg, err)
			}
		})
	}
}

func TestValidateSettings_Boundaries(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Settings)
	}{
		{"test fraction at half", func(s *Settings) { s.TestFraction = 0.5 }},
		{"lowest port", func(s *Settings) { s.APIPort = 1024 }},
		{"highest port", func(s *Settings) { s.MetricsPort = 65535 }},
		{"shortest timeout", func(s *Settings) { s.MLTimeout = time.Second }},
		{"longest timeout", func(s *Settings) { s.MLTimeout = 5 * time.Minute }},
		{"http mode with URL", func(s *Settings) { s.MLMode = "http" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := createValidSettings()
			tt.mutate(settings)

			if err := validateSettings(settings); err != nil {
				t.Errorf("Expected boundary value to pass, got error: %v", err)
			}
		})
	}
}

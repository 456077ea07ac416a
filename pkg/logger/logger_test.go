package logger

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Hmiku8338/e621-dl/pkg/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"fatal", zerolog.FatalLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"loud", zerolog.InfoLevel, true},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		level, err := parseLogLevel(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseLogLevel(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseLogLevel(%q): unexpected error %v", tt.input, err)
			continue
		}
		if level != tt.expected {
			t.Errorf("parseLogLevel(%q) = %v, expected %v", tt.input, level, tt.expected)
		}
	}
}

func TestNewWithInvalidLevel(t *testing.T) {
	_, err := New(&config.LoggingConfig{Level: "loud"})
	if err == nil {
		t.Error("Expected error for invalid log level")
	}
}

func TestNewWithFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "e621dl.log")

	log, err := New(&config.LoggingConfig{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	log.Info("test message")
	log.WithField("post_id", 42).Debug("field message")
	log.InfoWithFields("fields message", map[string]interface{}{
		"count": 3,
		"tags":  "wolf canine",
	})
}

func TestInitializeAndGetLogger(t *testing.T) {
	if err := Initialize(&config.LoggingConfig{Level: "error"}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	log := GetLogger()
	if log == nil {
		t.Fatal("GetLogger returned nil after Initialize")
	}
	log.Error("initialized logger works")
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	log.Debug("dropped")
	log.Info("dropped")
	log.Warn("dropped")
	log.Error("dropped")
	log.WithField("k", "v").Info("dropped")
	log.WithFields(map[string]interface{}{"k": "v"}).Info("dropped")
	log.WithError(nil).Info("dropped")
	log.InfoWithFields("dropped", map[string]interface{}{"k": "v"})
}

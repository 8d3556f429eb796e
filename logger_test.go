package restrepo

import (
	"context"
	"testing"

	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"
)

func TestSimpleLoggerLevels(t *testing.T) {
	logger := NewSimpleLogger()

	if logger.Level() != LevelDebug {
		t.Errorf("Expected debug level, got %v", logger.Level())
	}

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")
}

func TestLevelLoggerThreshold(t *testing.T) {
	tests := []struct {
		level Level
		want  []log.Level
	}{
		{LevelError, []log.Level{log.ErrorLevel}},
		{LevelWarn, []log.Level{log.WarnLevel, log.ErrorLevel}},
		{LevelInfo, []log.Level{log.InfoLevel, log.WarnLevel, log.ErrorLevel}},
		{LevelDebug, []log.Level{log.DebugLevel, log.InfoLevel, log.WarnLevel, log.ErrorLevel}},
	}

	for _, tc := range tests {
		t.Run(tc.level.String(), func(t *testing.T) {
			handler := memory.New()
			logger := NewLevelLogger(tc.level, handler)

			logger.Debug("d")
			logger.Info("i")
			logger.Warn("w")
			logger.Error("e")

			if len(handler.Entries) != len(tc.want) {
				t.Fatalf("Expected %d entries, got %d", len(tc.want), len(handler.Entries))
			}
			for i, entry := range handler.Entries {
				if entry.Level != tc.want[i] {
					t.Errorf("Entry %d: expected %v, got %v", i, tc.want[i], entry.Level)
				}
			}
		})
	}
}

func TestLevelLoggerSetLevel(t *testing.T) {
	handler := memory.New()
	logger := NewLevelLogger(LevelError, handler)

	logger.Info("dropped")
	logger.SetLevel(LevelInfo)
	logger.Info("kept")

	if len(handler.Entries) != 1 || handler.Entries[0].Message != "kept" {
		t.Errorf("Expected only the message logged after SetLevel, got %d entries", len(handler.Entries))
	}
	if !logger.Enabled(LevelWarn) || logger.Enabled(LevelDebug) {
		t.Error("Enabled does not follow the active level")
	}
}

func TestLevelLoggerFields(t *testing.T) {
	handler := memory.New()
	logger := NewLevelLogger(LevelDebug, handler)

	logger.Warn("with fields", "requestID", "abc", "statusCode", 404, 7, "seven", "dangling")

	entry := handler.Entries[0]
	if entry.Fields["requestID"] != "abc" {
		t.Errorf("Expected requestID field, got %v", entry.Fields["requestID"])
	}
	if entry.Fields["statusCode"] != 404 {
		t.Errorf("Expected statusCode field, got %v", entry.Fields["statusCode"])
	}
	if entry.Fields["7"] != "seven" {
		t.Errorf("Expected non-string key to be stringified, got %v", entry.Fields)
	}
	if entry.Fields["!BADKEY"] != "dangling" {
		t.Errorf("Expected dangling key under !BADKEY, got %v", entry.Fields)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"error", LevelError},
		{"WARN", LevelWarn},
		{"warning", LevelWarn},
		{" info ", LevelInfo},
		{"Debug", LevelDebug},
	}

	for _, tc := range tests {
		got, err := ParseLevel(tc.in)
		if err != nil {
			t.Errorf("ParseLevel(%q) returned error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}

	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("Expected error for unknown level")
	}
	if s := Level(9).String(); s != "level(9)" {
		t.Errorf("Unexpected string for unknown level: %q", s)
	}
}

func TestClientDebugLogging(t *testing.T) {
	server := newBlockingServer(t, 200, "ok")
	server.Release()

	handler := memory.New()
	client := New(WithDebug(), WithLogger(NewLevelLogger(LevelDebug, handler)), WithRequestIDGenerator(func() string { return "req-42" }))

	if _, err := client.GetString(context.Background(), server.URL); err != nil {
		t.Fatalf("GetString() returned error: %v", err)
	}

	messages := map[string]bool{}
	for _, entry := range handler.Entries {
		messages[entry.Message] = true
		if id, ok := entry.Fields["requestID"]; ok && id != "req-42" {
			t.Errorf("Unexpected request ID %v", id)
		}
	}
	for _, want := range []string{"Starting request", "Deduplication miss - proceeding with request", "Request completed", "Deduplication slot settled"} {
		if !messages[want] {
			t.Errorf("Expected %q to be logged", want)
		}
	}
}

func TestZeroLevelLoggerUsesPackageLogger(t *testing.T) {
	handler := memory.New()
	prev := log.Log
	log.Log = &log.Logger{Handler: handler, Level: log.DebugLevel}
	t.Cleanup(func() { log.Log = prev })

	var logger LevelLogger
	logger.Warn("dropped")
	logger.Error("kept", "key", "value")

	if len(handler.Entries) != 1 || handler.Entries[0].Message != "kept" {
		t.Fatalf("Expected only the error entry, got %d entries", len(handler.Entries))
	}
	if handler.Entries[0].Fields["key"] != "value" {
		t.Errorf("Unexpected fields %v", handler.Entries[0].Fields)
	}
}

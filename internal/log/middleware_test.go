package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAccessLog(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"ok is info", http.StatusOK, "level=INFO"},
		{"client error is warn", http.StatusNotFound, "level=WARN"},
		{"server error is error", http.StatusInternalServerError, "level=ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(Config{Level: slog.LevelDebug, Component: ComponentHTTP, Output: &buf})

			handler := Middleware(logger)(
				RequestIDMiddleware(func(context.Context) string { return "req-1" })(
					AccessLog(func(*http.Request) string { return "203.0.113.1" })(
						http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
							w.WriteHeader(tt.status)
						}))))

			req := httptest.NewRequest(http.MethodGet, "/transactions?type=income", nil)
			handler.ServeHTTP(httptest.NewRecorder(), req)

			out := buf.String()
			for _, want := range []string{
				tt.wantLevel,
				"component=http",
				"request_id=req-1",
				"path=/transactions",
				"client_ip=203.0.113.1",
			} {
				if !strings.Contains(out, want) {
					t.Errorf("log line %q missing %q", out, want)
				}
			}
		})
	}
}

func TestFromContext_Default(t *testing.T) {
	if got := FromContext(context.Background()); got.Component() != "unknown" {
		t.Errorf("Component() = %q, want unknown", got.Component())
	}
}

func TestStructuredLogger_LogTransaction(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Component: ComponentLedger, Output: &buf}))
	sl.LogTransaction(context.Background(), OpCreate, "abc", 1250, "EUR", "Visa", "Food")

	for _, want := range []string{"transaction_id=abc", "amount_cents=1250", "operation=create", "component=ledger"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log line %q missing %q", buf.String(), want)
		}
	}
}

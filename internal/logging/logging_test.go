package logging

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
		{"", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Fatalf("ParseLevel(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatal("ParseLevel(verbose) error = nil")
	}
}

func TestComponentTagsRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(New(&buf, slog.LevelInfo), ComponentStore)
	logger.Info("saved", FieldRevision, 3)

	out := buf.String()
	if !strings.Contains(out, "component=store") || !strings.Contains(out, "revision=3") {
		t.Fatalf("log line = %q", out)
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Fatal("FromContext without logger should return slog.Default")
	}
	logger := Discard()
	if FromContext(WithContext(context.Background(), logger)) != logger {
		t.Fatal("FromContext did not return stored logger")
	}
}

func TestMiddlewareLogsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelDebug)

	h := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()) != logger {
			t.Error("handler did not receive request logger")
		}
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/status", nil))

	out := buf.String()
	if !strings.Contains(out, "status=418") || !strings.Contains(out, "path=/v1/status") {
		t.Fatalf("log line = %q", out)
	}
}

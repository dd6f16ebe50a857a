package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("warn", &buf)

	l.Info("hidden")
	l.Debug("hidden", slog.Int("n", 1))
	l.Warn("shown", slog.Int("n", 2))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Expected info/debug to be filtered, got %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"n":2`) {
		t.Errorf("Expected warning record, got %s", out)
	}
}

func TestLogger_NilSafety(t *testing.T) {
	var l *Logger
	l.Debug("x")
	l.Info("x")
	l.Error("x")
	if l.With("k", "v") != nil {
		t.Error("Expected With on nil logger to return nil")
	}
}

func TestLogger_New(t *testing.T) {
	dir := t.TempDir()
	l := New("info", dir, nil)
	defer l.Close()
	if !strings.HasPrefix(l.LogFile, dir) {
		t.Errorf("Expected log file under %s, got %s", dir, l.LogFile)
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	l := NewWithWriter("debug", &buf)

	r := gin.New()
	r.Use(l.Middleware())
	r.GET("/missing/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing/7", nil))

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("Expected a single JSON record, got %q: %v", buf.String(), err)
	}
	if rec["level"] != "WARN" || rec["path"] != "/missing/:id" || rec["status"] != float64(404) {
		t.Errorf("unexpected record %v", rec)
	}
}

package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"dialoghub/internal/requestid"
)

func TestAccessLogEmitsRequestMetadata(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf})

	router := gin.New()
	router.Use(requestid.MiddlewareWithGenerator(logger, func() string { return "generated-id" }), AccessLog(logger))
	router.POST("/user/register", func(c *gin.Context) {
		c.Status(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodPost, "/user/register?x=1", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("failed to unmarshal log line %q: %v", buf.String(), err)
	}
	if payload["request_id"] != "generated-id" {
		t.Fatalf("expected request_id to be logged, got %v", payload["request_id"])
	}
	if payload["method"] != http.MethodPost {
		t.Fatalf("expected method POST, got %v", payload["method"])
	}
	if payload["path"] != "/user/register?x=1" {
		t.Fatalf("unexpected path %v", payload["path"])
	}
	if status, _ := payload["status"].(float64); int(status) != http.StatusTeapot {
		t.Fatalf("expected status 418, got %v", payload["status"])
	}
	if _, ok := payload["latency"]; !ok {
		t.Fatalf("expected latency field")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFromContextCarriesRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf})

	router := gin.New()
	router.Use(requestid.MiddlewareWithGenerator(logger, func() string { return "ctx-id" }))
	router.GET("/x", func(c *gin.Context) {
		FromContext(c.Request.Context()).Warn().Msg("from handler")
		c.Status(http.StatusNoContent)
	})
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("failed to unmarshal log line %q: %v", buf.String(), err)
	}
	if payload["request_id"] != "ctx-id" || payload["message"] != "from handler" {
		t.Fatalf("unexpected log line %v", payload)
	}

	if FromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()).GetLevel() != zerolog.Disabled {
		t.Fatalf("expected a disabled logger without request scope")
	}
}

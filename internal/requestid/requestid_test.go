package requestid

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func newTestRouter(logger zerolog.Logger, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(MiddlewareWithGenerator(logger, func() string { return "generated" }))
	router.GET("/probe", handler)
	return router
}

func TestMiddlewarePreservesIncomingID(t *testing.T) {
	router := newTestRouter(zerolog.Nop(), func(c *gin.Context) {
		id, ok := FromContext(c.Request.Context())
		if !ok || id != "incoming" {
			t.Fatalf("expected request id to be preserved, got %q", id)
		}
		if FromGin(c) != "incoming" {
			t.Fatalf("expected gin context to carry request id, got %q", FromGin(c))
		}
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("x-request-id", "incoming")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get(Header); got != "incoming" {
		t.Fatalf("expected response header to carry request id, got %q", got)
	}
}

func TestMiddlewareGeneratesMissingID(t *testing.T) {
	router := newTestRouter(zerolog.Nop(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, incoming := range []string{"", "   "} {
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		if incoming != "" {
			req.Header.Set(Header, incoming)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if got := rec.Header().Get(Header); got != "generated" {
			t.Fatalf("expected generated id for %q, got %q", incoming, got)
		}
	}
}

func TestDefaultGeneratorIsUnique(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware(zerolog.Nop()))
	router.GET("/probe", func(c *gin.Context) { c.Status(http.StatusOK) })

	seen := make(map[string]struct{})
	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/probe", nil))
		id := rec.Header().Get(Header)
		if id == "" {
			t.Fatalf("expected generated request id")
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate request id %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestRequestLoggerCarriesID(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	router := newTestRouter(logger, func(c *gin.Context) {
		zerolog.Ctx(c.Request.Context()).Info().Msg("inside handler")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(Header, "trace-me")
	router.ServeHTTP(httptest.NewRecorder(), req)

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("failed to unmarshal log line: %v", err)
	}
	if payload["request_id"] != "trace-me" {
		t.Fatalf("expected request_id in handler log, got %v", payload["request_id"])
	}
}

package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestGenerate(t *testing.T) {
	a, b := Generate(), Generate()
	if len(a) != 32 {
		t.Fatalf("expected 32 chars, got %d", len(a))
	}
	if a == b {
		t.Fatalf("expected distinct ids, got %s twice", a)
	}
}

func TestContextRoundTrip(t *testing.T) {
	if got := FromContext(context.Background()); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
	ctx := NewContext(context.Background(), "abc")
	if got := FromContext(ctx); got != "abc" {
		t.Fatalf("expected abc, got %q", got)
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = FromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(Header, "caller-id")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if seen != "caller-id" || w.Header().Get(Header) != "caller-id" {
		t.Fatalf("expected caller id to be kept, got context %q header %q", seen, w.Header().Get(Header))
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(seen) != 32 || w.Header().Get(Header) != seen {
		t.Fatalf("expected generated id echoed back, got context %q header %q", seen, w.Header().Get(Header))
	}
}

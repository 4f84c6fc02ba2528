package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newCORSEngine(origins ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(CORS(origins))
	engine.DELETE("/api/notes/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return engine
}

func serve(engine *gin.Engine, method, origin string, preflight bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/notes/n1", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if preflight {
		req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	}
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	return recorder
}

func TestCORSPreflightAllowedOrigin(t *testing.T) {
	engine := newCORSEngine(" http://localhost:5173/ ")

	recorder := serve(engine, http.MethodOptions, "http://localhost:5173", true)
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", recorder.Code)
	}
	if got := recorder.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
	if got := recorder.Header().Get("Access-Control-Allow-Methods"); got != corsMethods {
		t.Fatalf("unexpected allow-methods %q", got)
	}
	if recorder.Header().Get("Vary") != "Origin" {
		t.Fatalf("expected Vary: Origin")
	}
}

func TestCORSPreflightRejectsUnknownOrigin(t *testing.T) {
	engine := newCORSEngine("http://localhost:5173")

	recorder := serve(engine, http.MethodOptions, "https://evil.example", true)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unknown origin must not be echoed")
	}
}

func TestCORSWildcardAndSimpleRequests(t *testing.T) {
	engine := newCORSEngine("*")

	recorder := serve(engine, http.MethodDelete, "https://any.example", false)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected handler to run, got %d", recorder.Code)
	}
	if got := recorder.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
	if recorder.Header().Get("Access-Control-Allow-Methods") != "" {
		t.Fatalf("simple requests should not carry preflight headers")
	}

	recorder = serve(engine, http.MethodDelete, "", false)
	if recorder.Code != http.StatusOK || recorder.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("same-origin request got %d %q", recorder.Code, recorder.Header().Get("Access-Control-Allow-Origin"))
	}
}

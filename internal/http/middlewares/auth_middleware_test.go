package middlewares_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/funapp/internal/auth"
	"github.com/geocoder89/funapp/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type protectedRoute struct {
	engine *gin.Engine
	calls  int
	userID string
	email  string
}

func newProtectedRoute(v middlewares.TokenVerifier) *protectedRoute {
	p := &protectedRoute{engine: gin.New()}

	p.engine.Use(middlewares.RequestID())
	p.engine.GET("/user/:user_id", middlewares.NewAuthMiddleware(v).RequireAuth(), func(c *gin.Context) {
		p.calls++
		p.userID, _ = middlewares.UserIDFromContext(c)
		p.email = c.GetString(middlewares.CtxEmail)
		c.Status(http.StatusOK)
	})

	return p
}

func TestRequireAuth(t *testing.T) {
	tokens := auth.NewManager("test-secret", 0)
	valid, err := tokens.Issue("42", "john@example.com")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	foreign, err := auth.NewManager("another-secret", 0).Issue("42", "john@example.com")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCalls  int
	}{
		{name: "missing_header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong_scheme", header: "Basic " + valid, wantStatus: http.StatusUnauthorized},
		{name: "bearer_without_token", header: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "garbage_token", header: "Bearer not-a-jwt", wantStatus: http.StatusUnauthorized},
		{name: "foreign_secret", header: "Bearer " + foreign, wantStatus: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + valid, wantStatus: http.StatusOK, wantCalls: 1},
		{name: "scheme_is_case_insensitive", header: "bearer " + valid, wantStatus: http.StatusOK, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProtectedRoute(tokens)

			req := httptest.NewRequest(http.MethodGet, "/user/42", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			p.engine.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
			if p.calls != tt.wantCalls {
				t.Fatalf("handler ran %d times, want %d", p.calls, tt.wantCalls)
			}

			if tt.wantStatus == http.StatusUnauthorized {
				var env struct {
					Error struct {
						Code      string `json:"code"`
						RequestID string `json:"requestId"`
					} `json:"error"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				if env.Error.Code != "unauthorized" {
					t.Fatalf("got code %q, want unauthorized", env.Error.Code)
				}
				if env.Error.RequestID == "" || env.Error.RequestID != w.Header().Get("X-Request-Id") {
					t.Fatalf("requestId %q should echo X-Request-Id %q", env.Error.RequestID, w.Header().Get("X-Request-Id"))
				}
				return
			}

			if p.userID != "42" || p.email != "john@example.com" {
				t.Fatalf("claims not stashed on context: user=%q email=%q", p.userID, p.email)
			}
		})
	}
}

package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/funapp/internal/domain/user"
	"github.com/geocoder89/funapp/internal/http/handlers"
	"github.com/geocoder89/funapp/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type bindErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			JSON   string                `json:"json"`
			Field  string                `json:"field"`
			Fields []handlers.FieldError `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func bindSignup(t *testing.T, body string) (*httptest.ResponseRecorder, bindErrorResponse) {
	t.Helper()

	r := gin.New()
	r.POST("/user/signup", func(ctx *gin.Context) {
		var req user.SignupRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/user/signup", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp bindErrorResponse
	if w.Code != http.StatusCreated {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
		}
	}

	return w, resp
}

func TestBindJSON_ValidSignup(t *testing.T) {
	w, _ := bindSignup(t, `{"name":"John","email":"john@example.com","latitude":0,"longitude":0}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("explicit zero coordinates must bind, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	w, resp := bindSignup(t, `{"name":"John","email":"not-an-email","latitude":123}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	if resp.Error.Code != "invalid_request" {
		t.Fatalf("unexpected code: %s", resp.Error.Code)
	}

	wantRules := map[string]string{
		"email":     "email",
		"latitude":  "latitude",
		"longitude": "required",
	}

	found := map[string]handlers.FieldError{}
	for _, fieldErr := range resp.Error.Details.Fields {
		found[fieldErr.Field] = fieldErr
	}

	for field, rule := range wantRules {
		fieldErr, ok := found[field]
		if !ok {
			t.Fatalf("missing field error for %q: %+v", field, resp.Error.Details.Fields)
		}
		if fieldErr.Rule != rule {
			t.Fatalf("field %q rule mismatch: got %q want %q", field, fieldErr.Rule, rule)
		}
		if fieldErr.Message == "" {
			t.Fatalf("field %q should include a non-empty message", field)
		}
	}
}

func TestBindJSON_RejectsUnknownFields(t *testing.T) {
	w, resp := bindSignup(t, `{"name":"John","email":"john@example.com","latitude":30,"longitude":31,"role":"admin"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusBadRequest)
	}
	if resp.Error.Details.JSON != "unknown_field" || resp.Error.Details.Field != "role" {
		t.Fatalf("expected unknown_field role, got %+v", resp.Error.Details)
	}
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	w, resp := bindSignup(t, `{"name":"John","email":"john@example.com","latitude":"north","longitude":31}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	if resp.Error.Details.JSON != "invalid_json_type" {
		t.Fatalf("expected invalid_json_type, got %q", resp.Error.Details.JSON)
	}
	if resp.Error.Details.Field != "latitude" {
		t.Fatalf("expected detail field to be latitude, got %q", resp.Error.Details.Field)
	}
	if len(resp.Error.Details.Fields) == 0 || resp.Error.Details.Fields[0].Rule != "type" {
		t.Fatalf("expected a type rule in details.fields, got %+v", resp.Error.Details.Fields)
	}
}

func TestBindJSON_MalformedBodies(t *testing.T) {
	tests := map[string]string{
		"":                          "empty_body",
		`{"name":`:                  "invalid_json_syntax",
		`{"name":"a"} {"name":"b"}`: "trailing_data",
		`{"name":"a",}`:             "invalid_json_syntax",
	}

	for body, want := range tests {
		w, resp := bindSignup(t, body)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: got status %d", body, w.Code)
		}
		if resp.Error.Details.JSON != want {
			t.Fatalf("body %q: got %q want %q", body, resp.Error.Details.JSON, want)
		}
	}
}

func TestBindJSON_TrimsBeforeValidating(t *testing.T) {
	w, resp := bindSignup(t, `{"name":"   ","email":"john@example.com","latitude":30,"longitude":31}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank name must be rejected, got %d body=%s", w.Code, w.Body.String())
	}
	if len(resp.Error.Details.Fields) != 1 || resp.Error.Details.Fields[0].Field != "name" || resp.Error.Details.Fields[0].Rule != "required" {
		t.Fatalf("expected name/required, got %+v", resp.Error.Details.Fields)
	}

	w, _ = bindSignup(t, `{"name":" John ","email":" john@example.com ","latitude":30,"longitude":31}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("padded fields should bind once trimmed, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestBindJSON_UndeclaredOversizeBodyIs413(t *testing.T) {
	r := gin.New()
	r.POST("/user/signup", middlewares.MaxBodyBytes(64), func(ctx *gin.Context) {
		var req user.SignupRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})

	body := `{"name":"` + strings.Repeat("a", 256) + `","email":"john@example.com","latitude":30,"longitude":31}`
	req := httptest.NewRequest(http.MethodPost, "/user/signup", io.NopCloser(strings.NewReader(body)))
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = -1

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusRequestEntityTooLarge, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Error.Code != "payload_too_large" {
		t.Fatalf("got code %q, want payload_too_large", resp.Error.Code)
	}
}

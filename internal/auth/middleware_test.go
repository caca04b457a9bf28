package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func newMiddlewareApp(secret string) *fiber.App {
	app := fiber.New()
	app.Get("/protected", JWTMiddleware(secret), func(c *fiber.Ctx) error {
		id, _ := c.Locals("user_id").(string)
		return c.JSON(fiber.Map{"user_id": id})
	})
	return app
}

func TestJWTMiddlewareAllowsValidToken(t *testing.T) {
	app := newMiddlewareApp("test-secret")

	svc := NewService("test-secret", nil)
	token, err := svc.signToken("user-1", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestJWTMiddlewareRejectsMissingHeader(t *testing.T) {
	app := newMiddlewareApp("test-secret")

	resp, err := app.Test(httptest.NewRequest("GET", "/protected", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestJWTMiddlewareRejectsWrongSecret(t *testing.T) {
	app := newMiddlewareApp("test-secret")

	svc := NewService("other-secret", nil)
	token, err := svc.signToken("user-1", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestJWTMiddlewareRejectsExpiredToken(t *testing.T) {
	app := newMiddlewareApp("test-secret")

	svc := NewService("test-secret", nil)
	token, err := svc.signToken("user-1", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestBearerFromHeader(t *testing.T) {
	cases := map[string]string{
		"Bearer abc": "abc",
		"bearer abc": "abc",
		"Basic abc":  "",
		"Bearerabc":  "",
		"":           "",
		"Bearer a b": "a b",
	}
	for header, want := range cases {
		if got := bearerFromHeader(header); got != want {
			t.Fatalf("header %q: expected %q, got %q", header, want, got)
		}
	}
}

package profile

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func testAuth(c *fiber.Ctx) error {
	c.Locals("user_id", "user-1")
	return c.Next()
}

func TestGetProfileEndpoint(t *testing.T) {
	svc, _, mock := newTestService(t)
	app := fiber.New()
	RegisterRoutes(app.Group("/profile"), svc, testAuth)

	now := time.Now()
	mock.ExpectQuery(`SELECT id, username, full_name, created_at`).
		WithArgs("user-2").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "full_name", "created_at"}).
			AddRow("user-2", "ece", "Ece Demir", now))
	mock.ExpectQuery(`SELECT avatar_url FROM users`).
		WithArgs("user-2").
		WillReturnRows(pgxmock.NewRows([]string{"avatar_url"}).AddRow("https://img.example/ece.jpg"))

	resp, err := app.Test(httptest.NewRequest("GET", "/profile/user-2", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Username != "ece" || p.AvatarURL != "https://img.example/ece.jpg" {
		t.Fatalf("unexpected profile: %+v", p)
	}
}

func TestGetProfileEndpointNotFound(t *testing.T) {
	svc, _, mock := newTestService(t)
	app := fiber.New()
	RegisterRoutes(app.Group("/profile"), svc, testAuth)

	mock.ExpectQuery(`SELECT id, username, full_name, created_at`).
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "full_name", "created_at"}))

	resp, err := app.Test(httptest.NewRequest("GET", "/profile/ghost", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestUpdateProfileEndpoint(t *testing.T) {
	svc, _, mock := newTestService(t)
	app := fiber.New()
	RegisterRoutes(app.Group("/profile"), svc, testAuth)

	now := time.Now()
	mock.ExpectExec(`UPDATE users SET full_name`).
		WithArgs("user-1", "Deniz K.").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`SELECT id, username, full_name, created_at`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "full_name", "created_at"}).
			AddRow("user-1", "deniz", "Deniz K.", now))
	mock.ExpectQuery(`SELECT avatar_url FROM users`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"avatar_url"}).AddRow(""))

	body, _ := json.Marshal(map[string]string{"full_name": "Deniz K."})
	req := httptest.NewRequest("PUT", "/profile/me", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

package auth

import (
	"net/http/httptest"
	"testing"

	"stocktier-backend/internal/config"
	"stocktier-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testApp(cfg *config.Config) *fiber.App {
	app := fiber.New()
	protected := app.Group("", JWTMiddleware(cfg))
	protected.Get("/me", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"actor": Actor(c)})
	})
	admin := protected.Group("", RequireRole(models.RoleAdmin))
	admin.Get("/admin-only", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestJWTMiddleware(t *testing.T) {
	cfg := &config.Config{JWTSecret: testSecret}
	app := testApp(cfg)

	opsToken, err := GenerateToken(testSecret, &models.User{ID: 2, Email: "ops@example.com", Role: models.RoleOps})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	adminToken, err := GenerateToken(testSecret, &models.User{ID: 1, Email: "admin@example.com", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	forgedToken, err := GenerateToken("another-secret-that-is-long-enough", &models.User{ID: 3, Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	tests := []struct {
		name       string
		path       string
		authHeader string
		wantStatus int
	}{
		{"missing header", "/me", "", fiber.StatusUnauthorized},
		{"malformed header", "/me", "Token abc", fiber.StatusUnauthorized},
		{"wrong signature", "/me", "Bearer " + forgedToken, fiber.StatusUnauthorized},
		{"valid token", "/me", "Bearer " + opsToken, fiber.StatusOK},
		{"ops blocked from admin route", "/admin-only", "Bearer " + opsToken, fiber.StatusForbidden},
		{"admin allowed", "/admin-only", "Bearer " + adminToken, fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

package availability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"stocktier-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

func handlerApp() (*fiber.App, *Evaluator) {
	ev, store := testFixture()
	store.Seed(models.StockRecord{ProductID: 7, WarehouseID: 10, StockQuantity: 3, IsActive: true})

	app := fiber.New()
	app.Get("/availability/check", CheckHandler(ev))
	app.Post("/availability/check-cart", CheckCartHandler(ev))
	return app, ev
}

func TestCheckHandler(t *testing.T) {
	app, _ := handlerApp()

	tests := []struct {
		name       string
		url        string
		wantStatus int
	}{
		{"missing product", "/availability/check?pincode=226001", fiber.StatusBadRequest},
		{"missing pincode", "/availability/check?product_id=7", fiber.StatusBadRequest},
		{"short pincode", "/availability/check?product_id=7&pincode=2260", fiber.StatusBadRequest},
		{"non-numeric pincode", "/availability/check?product_id=7&pincode=22600a", fiber.StatusBadRequest},
		{"unknown product", "/availability/check?product_id=999&pincode=226001", fiber.StatusNotFound},
		{"available", "/availability/check?product_id=7&pincode=226001", fiber.StatusOK},
		{"unmapped pincode still 200", "/availability/check?product_id=7&pincode=110001", fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.url, nil))
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestCheckHandlerResponseShape(t *testing.T) {
	app, _ := handlerApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/availability/check?product_id=7&pincode=226001", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	var body struct {
		Success bool    `json:"success"`
		Data    Verdict `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Success {
		t.Error("success flag must be true")
	}
	if !body.Data.Available || body.Data.DeliveryDays != 1 {
		t.Errorf("verdict = available %v in %d days, want division tier", body.Data.Available, body.Data.DeliveryDays)
	}
}

func TestCheckCartHandlerValidation(t *testing.T) {
	app, _ := handlerApp()

	tests := []struct {
		name       string
		payload    string
		wantStatus int
	}{
		{"bad pincode", `{"pincode":"12","items":[{"product_id":7,"quantity":1}]}`, fiber.StatusBadRequest},
		{"empty items", `{"pincode":"226001","items":[]}`, fiber.StatusBadRequest},
		{"zero quantity item", `{"pincode":"226001","items":[{"product_id":7,"quantity":0}]}`, fiber.StatusBadRequest},
		{"valid cart", `{"pincode":"226001","items":[{"product_id":7,"quantity":2}]}`, fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/availability/check-cart", bytes.NewReader([]byte(tt.payload)))
			req.Header.Set("Content-Type", "application/json")
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

func TestValidPincode(t *testing.T) {
	tests := []struct {
		pincode string
		want    bool
	}{
		{"226001", true},
		{"000000", true},
		{"22600", false},
		{"2260011", false},
		{"22600a", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.pincode), func(t *testing.T) {
			if got := validPincode(tt.pincode); got != tt.want {
				t.Errorf("validPincode(%q) = %v, want %v", tt.pincode, got, tt.want)
			}
		})
	}
}

package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"oakline/internal/config"
	"oakline/internal/http/handlers"
	"oakline/internal/repos"
	"oakline/internal/services"
)

// newApp wires the API surface the way main does, against a seeded
// in-memory database.
func newApp(t *testing.T) (*fiber.App, *sqlx.DB) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	auth := &services.AuthService{Users: repos.NewUserRepo(db)}
	deps := handlers.NewDeps(db, config.Config{}, auth)

	app := fiber.New()
	api := app.Group("/api/v1")
	api.Post("/transactions", handlers.RequireUser(auth), deps.OrderHandler.PlacePOS)
	api.Post("/orders", deps.OrderHandler.PlaceEcommerce)
	api.Get("/orders/:id", deps.OrderHandler.Get)
	api.Post("/orders/:id/refund", handlers.RequireAdmin(auth), deps.OrderHandler.Refund)
	api.Post("/coupons/validate", deps.CouponHandler.Validate)
	api.Get("/availability", deps.InventoryHandler.Check)
	api.Get("/products", deps.CatalogHandler.ListProducts)
	api.Get("/products/:id", deps.CatalogHandler.GetProduct)
	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, cookie string) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: cookie})
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func orderBody(items ...map[string]any) map[string]any {
	return map[string]any{
		"customer":       map[string]any{"name": "Ada Lovelace", "email": "ada@example.test"},
		"items":          items,
		"deliveryZoneId": "zone-city",
		"paymentMethod":  "card",
	}
}

func TestPlaceOrder_Created(t *testing.T) {
	app, db := newApp(t)

	resp, out := doJSON(t, app, "POST", "/api/v1/orders", orderBody(
		map[string]any{"itemKind": "product", "itemId": "chr-std-01", "quantity": 2},
	), "")
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, body %v", resp.StatusCode, out)
	}
	if out["status"] != "PLACED" || out["orderId"] == "" {
		t.Fatalf("body = %v", out)
	}
	// 179 + 10% VAT on (179+40) + 40 delivery
	if out["total"] != "240.9" {
		t.Fatalf("total = %v", out["total"])
	}

	var n int
	if err := db.Get(&n, `SELECT stock FROM products WHERE id='chr-std-01'`); err != nil {
		t.Fatal(err)
	}
	if n != 22 {
		t.Fatalf("stock = %d", n)
	}

	// the order is readable back
	resp, out = doJSON(t, app, "GET", "/api/v1/orders/"+out["orderId"].(string), nil, "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	if out["order"] == nil {
		t.Fatalf("body = %v", out)
	}
}

func TestPlaceOrder_ValidationFailures(t *testing.T) {
	app, _ := newApp(t)

	cases := []struct {
		name string
		body map[string]any
	}{
		{"no items", orderBody()},
		{"bad payment", func() map[string]any {
			b := orderBody(map[string]any{"itemKind": "product", "itemId": "chr-std-01", "quantity": 1})
			b["paymentMethod"] = "barter"
			return b
		}()},
		{"bad kind", orderBody(map[string]any{"itemKind": "widget", "itemId": "chr-std-01", "quantity": 1})},
		{"zero quantity", orderBody(map[string]any{"itemKind": "product", "itemId": "chr-std-01", "quantity": 0})},
		{"no customer name", func() map[string]any {
			b := orderBody(map[string]any{"itemKind": "product", "itemId": "chr-std-01", "quantity": 1})
			b["customer"] = map[string]any{}
			return b
		}()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, out := doJSON(t, app, "POST", "/api/v1/orders", tc.body, "")
			if resp.StatusCode != fiber.StatusBadRequest {
				t.Fatalf("status = %d, body %v", resp.StatusCode, out)
			}
		})
	}
}

func TestPlaceOrder_ErrorStatuses(t *testing.T) {
	app, _ := newApp(t)

	// more than the variant has -> 409 with the variant named
	resp, out := doJSON(t, app, "POST", "/api/v1/orders", orderBody(
		map[string]any{"itemKind": "product", "itemId": "tbl-oak-01", "colorId": "col-walnut", "size": "8-seat", "quantity": 3},
	), "")
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("status = %d, body %v", resp.StatusCode, out)
	}
	errObj := out["error"].(map[string]any)
	if errObj["kind"] != "INSUFFICIENT_STOCK" {
		t.Fatalf("kind = %v", errObj["kind"])
	}
	details := errObj["details"].(map[string]any)
	if details["size"] != "8-seat" || details["available"] != float64(2) {
		t.Fatalf("details = %v", details)
	}

	// unknown product -> 404
	resp, _ = doJSON(t, app, "POST", "/api/v1/orders", orderBody(
		map[string]any{"itemKind": "product", "itemId": "ghost", "quantity": 1},
	), "")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	// variant product without a selection -> 400
	resp, _ = doJSON(t, app, "POST", "/api/v1/orders", orderBody(
		map[string]any{"itemKind": "product", "itemId": "tbl-oak-01", "quantity": 1},
	), "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	// unknown delivery zone -> 404
	body := orderBody(map[string]any{"itemKind": "product", "itemId": "chr-std-01", "quantity": 1})
	body["deliveryZoneId"] = "zone-moon"
	resp, _ = doJSON(t, app, "POST", "/api/v1/orders", body, "")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestValidateCoupon_Endpoint(t *testing.T) {
	app, _ := newApp(t)

	resp, out := doJSON(t, app, "POST", "/api/v1/coupons/validate",
		map[string]any{"code": "WELCOME10", "amount": "600"}, "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, body %v", resp.StatusCode, out)
	}
	if out["discount"] != "60" {
		t.Fatalf("discount = %v", out["discount"])
	}

	// unlike checkout this path rejects
	resp, _ = doJSON(t, app, "POST", "/api/v1/coupons/validate",
		map[string]any{"code": "NO-SUCH", "amount": "600"}, "")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("unknown coupon status = %d", resp.StatusCode)
	}

	resp, out = doJSON(t, app, "POST", "/api/v1/coupons/validate",
		map[string]any{"code": "FLAT50", "amount": "50"}, "")
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("ineligible coupon status = %d, body %v", resp.StatusCode, out)
	}
}

func TestAvailability_Endpoint(t *testing.T) {
	app, _ := newApp(t)

	resp, out := doJSON(t, app, "GET", "/api/v1/availability?itemId=chr-std-01", nil, "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if out["status"] != "IN_STOCK" || out["qty"] != float64(24) {
		t.Fatalf("body = %v", out)
	}

	resp, out = doJSON(t, app, "GET",
		"/api/v1/availability?itemId=tbl-oak-01&colorId=col-walnut&size=8-seat", nil, "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if out["status"] != "LOW_STOCK" {
		t.Fatalf("body = %v", out)
	}

	resp, _ = doJSON(t, app, "GET", "/api/v1/availability", nil, "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("missing itemId status = %d", resp.StatusCode)
	}
}

func TestGetProduct_WithVariantTree(t *testing.T) {
	app, _ := newApp(t)

	resp, out := doJSON(t, app, "GET", "/api/v1/products/tbl-oak-01", nil, "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	colors := out["colors"].([]any)
	if len(colors) != 2 {
		t.Fatalf("colors = %d", len(colors))
	}
	addons := out["addons"].([]any)
	if len(addons) != 1 {
		t.Fatalf("addons = %d", len(addons))
	}

	resp, _ = doJSON(t, app, "GET", "/api/v1/products/ghost", nil, "")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("unknown product status = %d", resp.StatusCode)
	}
}

func TestAuthz_GatesByRole(t *testing.T) {
	app, db := newApp(t)

	users := repos.NewUserRepo(db)
	if err := users.BindSession("sid-staff", "u-clerk"); err != nil {
		t.Fatal(err)
	}
	if err := users.BindSession("sid-admin", "u-admin"); err != nil {
		t.Fatal(err)
	}

	posBody := orderBody(map[string]any{"itemKind": "product", "itemId": "chr-std-01", "quantity": 1})

	// staff endpoint: no session, then a staff session
	resp, _ := doJSON(t, app, "POST", "/api/v1/transactions", posBody, "")
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("anonymous status = %d", resp.StatusCode)
	}
	resp, out := doJSON(t, app, "POST", "/api/v1/transactions", posBody, "sid-staff")
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("staff status = %d, body %v", resp.StatusCode, out)
	}
	orderID := out["orderId"].(string)

	// admin endpoint: staff is forbidden, admin passes
	resp, _ = doJSON(t, app, "POST", "/api/v1/orders/"+orderID+"/refund", nil, "sid-staff")
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("staff refund status = %d", resp.StatusCode)
	}
	resp, out = doJSON(t, app, "POST", "/api/v1/orders/"+orderID+"/refund", nil, "sid-admin")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("admin refund status = %d, body %v", resp.StatusCode, out)
	}

	// refunding again fails the PLACED -> REFUNDED transition
	resp, _ = doJSON(t, app, "POST", "/api/v1/orders/"+orderID+"/refund", nil, "sid-admin")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("second refund status = %d", resp.StatusCode)
	}
}

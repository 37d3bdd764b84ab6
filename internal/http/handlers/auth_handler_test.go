package handlers_test

import (
	"testing"

	"github.com/gofiber/fiber/v2"

	"oakline/internal/http/handlers"
	"oakline/internal/repos"
	"oakline/internal/services"
)

func TestLoginLogout(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	auth := &services.AuthService{Users: repos.NewUserRepo(db)}
	h := &handlers.AuthHandler{Auth: auth}

	app := fiber.New()
	app.Post("/auth/login", h.Login)
	app.Post("/auth/logout", h.Logout)

	resp, out := doJSON(t, app, "POST", "/auth/login",
		map[string]any{"email": "clerk@oakline.test", "password": "Passw0rd!"}, "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, body %v", resp.StatusCode, out)
	}
	if out["role"] != "STAFF" {
		t.Fatalf("role = %v", out["role"])
	}

	var sid string
	for _, c := range resp.Cookies() {
		if c.Name == "sid" {
			sid = c.Value
		}
	}
	if sid == "" {
		t.Fatal("no sid cookie issued")
	}
	if u, err := auth.CurrentUser(sid); err != nil || u.ID != "u-clerk" {
		t.Fatalf("session not bound: %v %v", u, err)
	}

	resp, _ = doJSON(t, app, "POST", "/auth/logout", nil, sid)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("logout status = %d", resp.StatusCode)
	}
	if _, err := auth.CurrentUser(sid); err == nil {
		t.Fatal("session survived logout")
	}

	resp, _ = doJSON(t, app, "POST", "/auth/login",
		map[string]any{"email": "clerk@oakline.test", "password": "wrong"}, "")
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("bad password status = %d", resp.StatusCode)
	}
}

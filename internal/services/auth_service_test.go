package services_test

import (
	"testing"

	"oakline/internal/repos"
	"oakline/internal/services"
)

func TestAuthService_LoginBindsSession(t *testing.T) {
	db, _ := newEngine(t)
	auth := &services.AuthService{Users: repos.NewUserRepo(db)}

	// the stored address is lowercase; login accepts any casing
	u, err := auth.Login("sid-1", "  Clerk@Oakline.Test ", "Passw0rd!")
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != "u-clerk" || u.IsAdmin() {
		t.Fatalf("unexpected user %+v", u)
	}

	cur, err := auth.CurrentUser("sid-1")
	if err != nil {
		t.Fatal(err)
	}
	if cur.ID != "u-clerk" {
		t.Fatalf("session bound to %s", cur.ID)
	}

	if err := auth.Logout("sid-1"); err != nil {
		t.Fatal(err)
	}
	if cur, _ := auth.CurrentUser("sid-1"); cur != nil {
		t.Fatalf("session still bound after logout: %+v", cur)
	}
}

func TestAuthService_RejectsBadCredentials(t *testing.T) {
	db, _ := newEngine(t)
	auth := &services.AuthService{Users: repos.NewUserRepo(db)}

	// unknown email and wrong password fail identically
	if _, err := auth.Login("sid-x", "nobody@oakline.test", "Passw0rd!"); err != services.ErrBadCreds {
		t.Fatalf("unknown email: got %v", err)
	}
	if _, err := auth.Login("sid-x", "clerk@oakline.test", "wrong"); err != services.ErrBadCreds {
		t.Fatalf("wrong password: got %v", err)
	}
	if cur, _ := auth.CurrentUser("sid-x"); cur != nil {
		t.Fatalf("failed login bound a session: %+v", cur)
	}

	if cur, err := auth.CurrentUser(""); cur != nil || err != nil {
		t.Fatalf("empty sid: got %+v, %v", cur, err)
	}
}

func TestAuthService_AdminRole(t *testing.T) {
	db, _ := newEngine(t)
	auth := &services.AuthService{Users: repos.NewUserRepo(db)}

	u, err := auth.Login("sid-a", "admin@oakline.test", "Passw0rd!")
	if err != nil {
		t.Fatal(err)
	}
	if !u.IsAdmin() {
		t.Fatalf("admin role not recognized: %+v", u)
	}
}

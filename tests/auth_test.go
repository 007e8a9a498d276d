package tests

import (
	"net/http/httptest"
	"testing"
	"time"

	"localify/internal/auth"
	"localify/internal/config"
)

func newEnabledAuthService(t *testing.T, password string) *auth.Service {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	service, err := auth.NewService(&config.AuthConfig{
		Enabled:           true,
		PasswordHash:      hash,
		SessionTTLMinutes: 60,
	})
	if err != nil {
		t.Fatalf("Failed to create auth service: %v", err)
	}
	return service
}

func TestAuthServiceLogin(t *testing.T) {
	service := newEnabledAuthService(t, "correct horse")

	t.Run("ValidPassword", func(t *testing.T) {
		session, err := service.Login("correct horse")
		if err != nil {
			t.Fatalf("Expected successful login, got: %v", err)
		}
		if session.ID == "" {
			t.Error("Expected non-empty session ID")
		}
		if !session.ExpiresAt.After(time.Now()) {
			t.Error("Expected session to expire in the future")
		}

		if _, valid := service.ValidateSession(session.ID); !valid {
			t.Error("Freshly created session must validate")
		}
	})

	t.Run("InvalidPassword", func(t *testing.T) {
		if _, err := service.Login("wrong"); err == nil {
			t.Error("Expected login failure with wrong password")
		}
	})

	t.Run("Logout", func(t *testing.T) {
		session, err := service.Login("correct horse")
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}

		service.Logout(session.ID)
		if _, valid := service.ValidateSession(session.ID); valid {
			t.Error("Session must be invalid after logout")
		}
	})
}

func TestAuthServiceRequiresPasswordHash(t *testing.T) {
	_, err := auth.NewService(&config.AuthConfig{
		Enabled:           true,
		PasswordHash:      "",
		SessionTTLMinutes: 60,
	})
	if err == nil {
		t.Error("Expected error when auth is enabled without a password hash")
	}
}

func TestAuthServiceDisabled(t *testing.T) {
	service, err := auth.NewService(&config.AuthConfig{Enabled: false})
	if err != nil {
		t.Fatalf("Failed to create disabled auth service: %v", err)
	}

	if service.IsEnabled() {
		t.Error("Expected auth to be disabled")
	}

	// With auth disabled every session is valid and login is rejected.
	if _, valid := service.ValidateSession("anything"); !valid {
		t.Error("Disabled auth must treat any session as valid")
	}
	if _, err := service.Login("whatever"); err == nil {
		t.Error("Login must fail when auth is disabled")
	}
	if !service.RefreshSession("anything") {
		t.Error("Refresh must succeed when auth is disabled")
	}
}

func TestSessionManagerExpiry(t *testing.T) {
	sm := auth.NewSessionManager(10 * time.Millisecond)

	session, err := sm.CreateSession()
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	if _, ok := sm.GetSession(session.ID); !ok {
		t.Fatal("Expected fresh session to be valid")
	}

	time.Sleep(20 * time.Millisecond)

	if _, ok := sm.GetSession(session.ID); ok {
		t.Error("Expected session to expire")
	}
	if sm.RefreshSession(session.ID) {
		t.Error("Refresh of an expired session must fail")
	}
}

func TestSessionManagerRefresh(t *testing.T) {
	sm := auth.NewSessionManager(50 * time.Millisecond)

	session, err := sm.CreateSession()
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	// Keep refreshing past the original TTL.
	for i := 0; i < 3; i++ {
		time.Sleep(30 * time.Millisecond)
		if !sm.RefreshSession(session.ID) {
			t.Fatalf("Refresh %d failed", i)
		}
	}

	if _, ok := sm.GetSession(session.ID); !ok {
		t.Error("Refreshed session must still be valid")
	}
}

func TestSessionCookieRoundTrip(t *testing.T) {
	sm := auth.NewSessionManager(time.Hour)

	session, err := sm.CreateSession()
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	rec := httptest.NewRecorder()
	sm.SetSessionCookie(rec, session)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("Expected 1 cookie, got %d", len(cookies))
	}
	cookie := cookies[0]
	if cookie.Name != "localify_session" || cookie.Value != session.ID {
		t.Errorf("Unexpected cookie: %+v", cookie)
	}
	if !cookie.HttpOnly {
		t.Error("Session cookie must be HttpOnly")
	}

	req := httptest.NewRequest("GET", "/api/songs", nil)
	req.AddCookie(cookie)

	got, ok := sm.GetSessionFromRequest(req)
	if !ok {
		t.Fatal("Expected session from request cookie")
	}
	if got.ID != session.ID {
		t.Errorf("Expected session %s, got %s", session.ID, got.ID)
	}
}

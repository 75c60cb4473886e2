package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

const testSecret = "test-secret"

func issueToken(t *testing.T, userID string, isAdmin bool, secret string, ttl time.Duration) string {
	t.Helper()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   userID,
			ExpiresAt: time.Now().Add(ttl).Unix(),
		},
		IsAdmin: isAdmin,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func protectedHandler(t *testing.T, gotUserID *string, gotAdmin *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*gotUserID = UserID(r.Context())
		*gotAdmin = IsAdmin(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddlewareInjectsIdentity(t *testing.T) {
	userID := uuid.NewString()
	var gotUserID string
	var gotAdmin bool
	h := Middleware(testSecret)(protectedHandler(t, &gotUserID, &gotAdmin))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, userID, true, testSecret, time.Hour))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotUserID != userID {
		t.Errorf("user id = %q, want %q", gotUserID, userID)
	}
	if !gotAdmin {
		t.Error("admin flag not carried through")
	}
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	var id string
	var admin bool
	h := Middleware(testSecret)(protectedHandler(t, &id, &admin))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestMiddlewareRejectsWrongSecret(t *testing.T) {
	var id string
	var admin bool
	h := Middleware(testSecret)(protectedHandler(t, &id, &admin))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, uuid.NewString(), false, "other-secret", time.Hour))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestMiddlewareRejectsExpiredToken(t *testing.T) {
	var id string
	var admin bool
	h := Middleware(testSecret)(protectedHandler(t, &id, &admin))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, uuid.NewString(), false, testSecret, -time.Hour))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRequireAdminForbidsNonAdmins(t *testing.T) {
	var id string
	var admin bool
	h := Middleware(testSecret)(RequireAdmin(protectedHandler(t, &id, &admin)))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, uuid.NewString(), false, testSecret, time.Hour))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestRequireAdminAllowsAdmins(t *testing.T) {
	var id string
	var admin bool
	h := Middleware(testSecret)(RequireAdmin(protectedHandler(t, &id, &admin)))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, uuid.NewString(), true, testSecret, time.Hour))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/unklstewy/ads-bsim/pkg/config"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	return NewService(Config{
		JWTSecret:     "test-secret",
		TokenDuration: time.Hour,
		BCryptCost:    bcrypt.MinCost,
		Operators: map[string]string{
			"alice": string(hash),
			"root":  string(hash),
		},
		Admins: []string{"root"},
	})
}

// TestPasswordHashing tests bcrypt round trips.
func TestPasswordHashing(t *testing.T) {
	s := newTestService(t)
	hash, err := s.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if err := s.ComparePassword(hash, "correct horse"); err != nil {
		t.Errorf("Expected password to match: %v", err)
	}
	if err := s.ComparePassword(hash, "wrong"); err == nil {
		t.Error("Expected mismatch for wrong password")
	}
}

// TestAuthenticate tests operator login.
func TestAuthenticate(t *testing.T) {
	s := newTestService(t)

	tests := []struct {
		name     string
		user     string
		password string
		wantRole string
		wantErr  error
	}{
		{"operator", "alice", "hunter2", RoleOperator, nil},
		{"admin", "root", "hunter2", RoleAdmin, nil},
		{"wrong password", "alice", "hunter3", "", ErrInvalidCredentials},
		{"unknown user", "mallory", "hunter2", "", ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, claims, err := s.Authenticate(tt.user, tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate failed: %v", err)
			}
			if token == "" || claims.Role != tt.wantRole || claims.Username != tt.user {
				t.Errorf("Unexpected token %q claims %+v", token, claims)
			}
		})
	}
}

// TestValidateToken tests signature, issuer and expiry checks.
func TestValidateToken(t *testing.T) {
	s := newTestService(t)
	token, err := s.GenerateToken("alice", RoleOperator)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	t.Run("Valid", func(t *testing.T) {
		claims, err := s.ValidateToken(token)
		if err != nil || claims.Username != "alice" {
			t.Errorf("Expected valid claims, got %+v, %v", claims, err)
		}
	})

	t.Run("Wrong secret", func(t *testing.T) {
		other := NewService(Config{JWTSecret: "other"})
		if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("Expired", func(t *testing.T) {
		late := newTestService(t)
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		if _, err := late.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken for an expired token, got %v", err)
		}
	})

	t.Run("Garbage", func(t *testing.T) {
		if _, err := s.ValidateToken("not.a.token"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, got %v", err)
		}
	})
}

// TestHasRole tests the role hierarchy.
func TestHasRole(t *testing.T) {
	tests := []struct {
		user, required string
		want           bool
	}{
		{RoleAdmin, RoleOperator, true},
		{RoleOperator, RoleOperator, true},
		{RoleViewer, RoleOperator, false},
		{RoleOperator, RoleAdmin, false},
		{"pilot", RoleViewer, false},
	}

	for _, tt := range tests {
		if got := HasRole(tt.user, tt.required); got != tt.want {
			t.Errorf("HasRole(%q, %q) = %v, want %v", tt.user, tt.required, got, tt.want)
		}
	}
	if !CanReset(RoleOperator) || CanReset(RoleViewer) {
		t.Error("Only operators and above may reset")
	}
}

// TestMiddleware tests the HTTP guard.
func TestMiddleware(t *testing.T) {
	s := newTestService(t)
	operator, _ := s.GenerateToken("alice", RoleOperator)
	viewer, _ := s.GenerateToken("bob", RoleViewer)

	handler := s.Middleware(RoleOperator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			t.Error("Claims missing from context")
		}
		w.Write([]byte(claims.Username))
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"No header", "", http.StatusUnauthorized},
		{"Wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"Bad token", "Bearer nope", http.StatusUnauthorized},
		{"Viewer", "Bearer " + viewer, http.StatusForbidden},
		{"Operator", "Bearer " + operator, http.StatusOK},
		{"Lowercase scheme", "bearer " + operator, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/reset", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, rec.Code)
			}
			if tt.want == http.StatusOK && rec.Body.String() != "alice" {
				t.Errorf("Expected handler to see alice, got %q", rec.Body.String())
			}
		})
	}
}

// TestFromConfig tests building the service from the config file section.
func TestFromConfig(t *testing.T) {
	if FromConfig(config.AuthConfig{Enabled: false, JWTSecret: "x"}) != nil {
		t.Error("Expected nil service when auth is disabled")
	}

	s := FromConfig(config.AuthConfig{
		Enabled:    true,
		JWTSecret:  "x",
		TokenHours: 2,
		Admins:     []string{"root"},
	})
	if s == nil {
		t.Fatal("Expected a service when auth is enabled")
	}
	if s.config.TokenDuration != 2*time.Hour || !s.admins["root"] {
		t.Errorf("Unexpected config %+v", s.config)
	}
}

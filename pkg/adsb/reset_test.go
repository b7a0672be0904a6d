package adsb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestResetClient tests POST /reset handling.
func TestResetClient(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("Expected POST, got %s", r.Method)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
				t.Errorf("Expected bearer token, got %q", got)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"message":"Host aircraft position reset"}`))
		}))
		defer server.Close()

		msg, err := NewResetClient(server.URL, "secret-token").Reset(context.Background())
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if msg != "Host aircraft position reset" {
			t.Errorf("Unexpected message %q", msg)
		}
	})

	t.Run("Rate limited", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		_, err := NewResetClient(server.URL, "").Reset(context.Background())
		rle, ok := IsRateLimitError(err)
		if !ok {
			t.Fatalf("Expected RateLimitError, got %v", err)
		}
		if rle.RetryAfter != 2*time.Second {
			t.Errorf("Expected 2s retry-after, got %v", rle.RetryAfter)
		}
	})

	t.Run("Unauthorized", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}))
		defer server.Close()

		_, err := NewResetClient(server.URL, "").Reset(context.Background())
		if err == nil {
			t.Fatal("Expected error for 401")
		}
		if _, ok := IsRateLimitError(err); ok {
			t.Error("401 should not be a rate limit error")
		}
	})
}

// TestParseRetryAfter tests Retry-After header parsing.
func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   time.Duration
	}{
		{"absent", "", 0},
		{"seconds", "30", 30 * time.Second},
		{"zero", "0", 0},
		{"garbage", "soon", 0},
		{"past date", "Wed, 21 Oct 2015 07:28:00 GMT", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.header != "" {
				h.Set("Retry-After", tt.header)
			}
			if got := parseRetryAfter(h); got != tt.want {
				t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}

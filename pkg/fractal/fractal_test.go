package fractal

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newTestClient starts a test server with the given handler and returns
// a client pointed at it, with retries disabled so failure tests don't
// sleep through backoff.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewWithBaseURL(srv.URL, WithoutRetry())
	if err != nil {
		t.Fatalf("NewWithBaseURL() error = %v", err)
	}
	return client
}

func testToken(t *testing.T, scopes ...Scope) *AccessToken {
	t.Helper()
	return TokenFromData(TokenData{
		AppID:      "test-app",
		Token:      "test-token",
		Scopes:     scopes,
		Expiration: time.Now().Add(time.Hour),
	})
}

func expiredToken(t *testing.T, scopes ...Scope) *AccessToken {
	t.Helper()
	return TokenFromData(TokenData{
		AppID:      "test-app",
		Token:      "test-token",
		Scopes:     scopes,
		Expiration: time.Now().Add(-time.Minute),
	})
}

func TestNewWithBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"trailing slash", "https://api.example.com/", "https://api.example.com/v1/", false},
		{"no trailing slash", "https://api.example.com", "https://api.example.com/v1/", false},
		{"missing scheme", "api.example.com", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewWithBaseURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewWithBaseURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if err == nil && client.BaseURL() != tt.want {
				t.Errorf("BaseURL() = %q, want %q", client.BaseURL(), tt.want)
			}
		})
	}
}

func TestNewDefaultServers(t *testing.T) {
	if got := New().BaseURL(); got != ProductionServer+"v1/" {
		t.Errorf("New().BaseURL() = %q", got)
	}
	if got := NewDev().BaseURL(); got != DevelopmentServer+"v1/" {
		t.Errorf("NewDev().BaseURL() = %q", got)
	}
}

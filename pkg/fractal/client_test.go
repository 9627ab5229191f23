package fractal

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	apierrors "github.com/fractal-global/fractal-go/pkg/errors"
	"github.com/fractal-global/fractal-go/pkg/httputil"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode apierrors.Code
		wantMsg  string
	}{
		{"rejected with message", http.StatusAccepted, `{"message":"username already taken"}`, apierrors.ErrCodeRejected, "username already taken"},
		{"rejected without body", http.StatusAccepted, ``, apierrors.ErrCodeRejected, "request rejected"},
		{"bad request", http.StatusBadRequest, `{"message":"malformed body"}`, apierrors.ErrCodeBadRequest, "malformed body"},
		{"unauthorized", http.StatusUnauthorized, ``, apierrors.ErrCodeUnauthorized, ""},
		{"forbidden", http.StatusForbidden, ``, apierrors.ErrCodeForbidden, ""},
		{"forbidden with message", http.StatusForbidden, `{"message":"account disabled by admin"}`, apierrors.ErrCodeForbidden, "account disabled by admin"},
		{"not found", http.StatusNotFound, ``, apierrors.ErrCodeNotFound, ""},
		{"not found with message", http.StatusNotFound, `{"message":"no user with id 42"}`, apierrors.ErrCodeNotFound, "no user with id 42"},
		{"rate limited", http.StatusTooManyRequests, ``, apierrors.ErrCodeRateLimited, ""},
		{"server error", http.StatusInternalServerError, ``, apierrors.ErrCodeServer, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			err := client.getJSON(context.Background(), "user/1", noAuth, nil)
			if err == nil {
				t.Fatalf("getJSON() = nil, want %s", tt.wantCode)
			}
			if got := apierrors.GetCode(err); got != tt.wantCode {
				t.Errorf("error code = %s, want %s", got, tt.wantCode)
			}
			if tt.wantMsg != "" && apierrors.UserMessage(err) != tt.wantMsg {
				t.Errorf("message = %q, want %q", apierrors.UserMessage(err), tt.wantMsg)
			}
		})
	}
}

func TestRateLimitedRetryAfter(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "42")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	err := client.getJSON(context.Background(), "all_users", noAuth, nil)
	if err == nil {
		t.Fatal("getJSON() = nil, want rate limit error")
	}

	var rle *apierrors.RateLimitedError
	if !errors.As(err, &rle) {
		t.Fatalf("error %v does not wrap RateLimitedError", err)
	}
	if rle.RetryAfter != 42 {
		t.Errorf("RetryAfter = %d, want 42", rle.RetryAfter)
	}
}

func TestGetRetriesServerErrors(t *testing.T) {
	if testing.Short() {
		t.Skip("retry backoff sleeps between attempts")
	}

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	})
	client.retries = true

	var msg responseMessage
	if err := client.getJSON(context.Background(), "resend_email_confirmation", noAuth, &msg); err != nil {
		t.Fatalf("getJSON() error = %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server called %d times, want 3", got)
	}
	if msg.Message != "ok" {
		t.Errorf("message = %q, want %q", msg.Message, "ok")
	}
}

func TestPostNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	client.retries = true

	err := client.postJSON(context.Background(), "new_transaction", noAuth, struct{}{}, nil)
	if apierrors.GetCode(err) != apierrors.ErrCodeServer {
		t.Fatalf("error = %v, want SERVER_ERROR", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server called %d times, want 1 (no retry on POST)", got)
	}
}

func TestRequestHeaders(t *testing.T) {
	var gotAccept, gotRequestID, gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotRequestID = r.Header.Get("X-Request-ID")
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	})

	token := testToken(t, ScopePublic)
	if err := client.getJSON(context.Background(), "user/1", bearerAuth(token), nil); err != nil {
		t.Fatalf("getJSON() error = %v", err)
	}

	if gotAccept != "application/json" {
		t.Errorf("Accept = %q", gotAccept)
	}
	if gotRequestID == "" {
		t.Error("X-Request-ID header not set")
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestAuthorize(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be sent for local authorization failures")
	})
	ctx := context.Background()

	t.Run("nil token", func(t *testing.T) {
		err := client.authorize(ctx, "op", nil, ScopePublic)
		if apierrors.GetCode(err) != apierrors.ErrCodeUnauthorized {
			t.Errorf("error = %v, want UNAUTHORIZED", err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		err := client.authorize(ctx, "op", expiredToken(t, ScopePublic), ScopePublic)
		if apierrors.GetCode(err) != apierrors.ErrCodeTokenExpired {
			t.Errorf("error = %v, want TOKEN_EXPIRED", err)
		}
	})

	t.Run("missing scope", func(t *testing.T) {
		err := client.authorize(ctx, "op", testToken(t, ScopePublic), ScopeUser(7))
		if apierrors.GetCode(err) != apierrors.ErrCodeForbidden {
			t.Errorf("error = %v, want FORBIDDEN", err)
		}
	})

	t.Run("admin satisfies any scope", func(t *testing.T) {
		if err := client.authorize(ctx, "op", testToken(t, ScopeAdmin), ScopeUser(7)); err != nil {
			t.Errorf("authorize() error = %v", err)
		}
	})

	t.Run("matching user scope", func(t *testing.T) {
		if err := client.authorize(ctx, "op", testToken(t, ScopeUser(7)), ScopeUser(7)); err != nil {
			t.Errorf("authorize() error = %v", err)
		}
	})
}

func TestCachedGet(t *testing.T) {
	cache, err := httputil.NewCache(t.TempDir(), time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"message":"fresh"}`))
	})
	client.cache = cache

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		var msg responseMessage
		if err := client.cachedGet(ctx, "msg", "k", "user/1", noAuth, &msg); err != nil {
			t.Fatalf("cachedGet() error = %v", err)
		}
		if msg.Message != "fresh" {
			t.Errorf("message = %q", msg.Message)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Errorf("server called %d times, want 1 (cache should serve repeats)", got)
	}
}

package fractal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	apierrors "github.com/fractal-global/fractal-go/pkg/errors"
	"github.com/fractal-global/fractal-go/pkg/httputil"
)

const userBody = `{
	"id": 7,
	"username": "alice",
	"email": "alice@example.com",
	"email_confirmed": true,
	"first": "Alice",
	"first_confirmed": true,
	"last": "Doe",
	"last_confirmed": false,
	"device_count": 2,
	"wallet_addresses": ["fr1234566"],
	"checking_balance": 15750,
	"cold_balance": 1000000,
	"bonds": {"2026-01-02T15:04:05Z": 3},
	"birthday": "1990-06-15",
	"birthday_confirmed": true,
	"phone": null,
	"phone_confirmed": false,
	"image": null,
	"address": null,
	"address_confirmed": false,
	"sybil_score": 10,
	"trust_score": -5,
	"enabled": true,
	"registered": "2025-01-02T15:04:05Z",
	"last_activty": "2026-08-01T10:00:00Z",
	"banned": null
}`

func TestGetUser(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/user/7" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprint(w, userBody)
	})

	user, err := client.GetUser(context.Background(), testToken(t, ScopeUser(7)), 7)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}

	if user.ID != 7 || user.Username != "alice" {
		t.Errorf("user = %+v", user)
	}
	if !user.EmailConfirmed || !user.FirstConfirmed || user.LastConfirmed {
		t.Error("confirmation flags decoded wrong")
	}
	if user.Name() != "Alice Doe" {
		t.Errorf("Name() = %q", user.Name())
	}
	if user.CheckingBalance.String() != "15.750" {
		t.Errorf("CheckingBalance = %s", user.CheckingBalance)
	}
	if user.Birthday == nil || user.Birthday.String() != "1990-06-15" {
		t.Errorf("Birthday = %v", user.Birthday)
	}
	if user.PhoneConfirmed {
		t.Error("nil phone cannot be confirmed")
	}
	if user.LastActivity.IsZero() {
		t.Error("last activity not decoded")
	}
	if user.TrustScore != -5 {
		t.Errorf("TrustScore = %d", user.TrustScore)
	}
}

func TestGetUserScopeGating(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, userBody)
	})
	ctx := context.Background()

	// Another user's token is refused locally.
	if _, err := client.GetUser(ctx, testToken(t, ScopeUser(8)), 7); apierrors.GetCode(err) != apierrors.ErrCodeForbidden {
		t.Errorf("GetUser() with wrong user scope error = %v, want FORBIDDEN", err)
	}

	// Admin tokens can read anyone.
	if _, err := client.GetUser(ctx, testToken(t, ScopeAdmin), 7); err != nil {
		t.Errorf("GetUser() with admin scope error = %v", err)
	}
}

func TestGetMe(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/user/7" {
			t.Errorf("path = %q, want the token's user", r.URL.Path)
		}
		fmt.Fprint(w, userBody)
	})

	user, err := client.GetMe(context.Background(), testToken(t, ScopeUser(7)))
	if err != nil {
		t.Fatalf("GetMe() error = %v", err)
	}
	if user.ID != 7 {
		t.Errorf("user.ID = %d", user.ID)
	}

	if _, err := client.GetMe(context.Background(), testToken(t, ScopeAdmin)); apierrors.GetCode(err) != apierrors.ErrCodeForbidden {
		t.Errorf("GetMe() without user scope error = %v, want FORBIDDEN", err)
	}
}

func TestGetUserCached(t *testing.T) {
	cache, err := httputil.NewCache(t.TempDir(), time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, userBody)
	})
	client.cache = cache

	ctx := context.Background()
	token := testToken(t, ScopeUser(7))

	for i := 0; i < 2; i++ {
		if _, err := client.GetUser(ctx, token, 7); err != nil {
			t.Fatalf("GetUser() error = %v", err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("server called %d times, want 1", calls.Load())
	}

	// Updating the profile evicts the cached copy.
	if err := client.UpdateUser(ctx, token, 7, SetPhone("+34600000000")); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
	if _, err := client.GetUser(ctx, token, 7); err != nil {
		t.Fatalf("GetUser() after update error = %v", err)
	}
	if calls.Load() != 3 { // update + refetch
		t.Errorf("server called %d times, want 3", calls.Load())
	}
}

func TestGetAllUsers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/all_users" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprintf(w, "[%s]", userBody)
	})

	users, err := client.GetAllUsers(context.Background(), testToken(t, ScopeAdmin))
	if err != nil {
		t.Fatalf("GetAllUsers() error = %v", err)
	}
	if len(users) != 1 || users[0].Username != "alice" {
		t.Errorf("users = %+v", users)
	}

	if _, err := client.GetAllUsers(context.Background(), testToken(t, ScopeUser(7))); apierrors.GetCode(err) != apierrors.ErrCodeForbidden {
		t.Errorf("non-admin GetAllUsers() error = %v, want FORBIDDEN", err)
	}
}

func TestDeleteUser(t *testing.T) {
	var method, path string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		fmt.Fprint(w, `{"message":"deleted"}`)
	})

	if err := client.DeleteUser(context.Background(), testToken(t, ScopeAdmin), 9); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if method != http.MethodDelete || path != "/v1/user/9" {
		t.Errorf("%s %s", method, path)
	}

	if err := client.DeleteUser(context.Background(), testToken(t, ScopeUser(9)), 9); apierrors.GetCode(err) != apierrors.ErrCodeForbidden {
		t.Errorf("non-admin DeleteUser() error = %v, want FORBIDDEN", err)
	}
}

func TestUpdateUser(t *testing.T) {
	var body map[string]json.RawMessage
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/update_user/7" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, `{"message":"ok"}`)
	})

	token := testToken(t, ScopeUser(7))
	err := client.UpdateUser(context.Background(), token, 7,
		SetUsername("alice2"),
		SetEmail("alice2@example.com"),
		SetBirthday(NewDate(1990, time.June, 15)),
		ConfirmedBy("s3cret-password"),
	)
	if err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}

	for _, key := range []string{"new_username", "new_email", "new_birthday", "old_password"} {
		if _, ok := body[key]; !ok {
			t.Errorf("request body missing %q: %v", key, body)
		}
	}
	for _, key := range []string{"new_phone", "new_password", "new_image", "new_address"} {
		if _, ok := body[key]; ok {
			t.Errorf("request body carries unset field %q", key)
		}
	}
}

func TestUpdateUserValidation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be sent when validation fails")
	})
	token := testToken(t, ScopeUser(7))
	ctx := context.Background()

	if err := client.UpdateUser(ctx, token, 7); apierrors.GetCode(err) != apierrors.ErrCodeInvalidInput {
		t.Errorf("UpdateUser() without changes error = %v, want INVALID_INPUT", err)
	}
	if err := client.UpdateUser(ctx, token, 7, SetUsername("A!")); apierrors.GetCode(err) != apierrors.ErrCodeInvalidUsername {
		t.Errorf("UpdateUser(bad username) error = %v", err)
	}
	if err := client.UpdateUser(ctx, token, 7, SetPassword("old", "pw")); apierrors.GetCode(err) != apierrors.ErrCodeInvalidPassword {
		t.Errorf("UpdateUser(short password) error = %v", err)
	}
	if err := client.UpdateUser(ctx, token, 8, SetPhone("+34600000000")); apierrors.GetCode(err) != apierrors.ErrCodeForbidden {
		t.Errorf("UpdateUser() for another user error = %v, want FORBIDDEN", err)
	}
}

func TestAuthenticatorQR(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/authenticator/7" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"message":"otpauth://totp/fractal:alice"}`)
	})

	qr, err := client.AuthenticatorQR(context.Background(), testToken(t, ScopeUser(7)), 7)
	if err != nil {
		t.Fatalf("AuthenticatorQR() error = %v", err)
	}
	if qr != "otpauth://totp/fractal:alice" {
		t.Errorf("qr = %q", qr)
	}
}

func TestAuthenticate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/authenticate/7" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req struct {
			Code      uint32    `json:"code"`
			Timestamp time.Time `json:"timestamp"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Code != 123456 || req.Timestamp.IsZero() {
			t.Errorf("request = %+v", req)
		}
		fmt.Fprint(w, `{"message":"ok"}`)
	})

	if err := client.Authenticate(context.Background(), testToken(t, ScopeUser(7)), 7, 123456); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
}

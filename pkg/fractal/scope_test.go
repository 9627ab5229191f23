package fractal

import (
	"encoding/json"
	"testing"

	apierrors "github.com/fractal-global/fractal-go/pkg/errors"
)

func TestParseScope(t *testing.T) {
	tests := []struct {
		input   string
		want    Scope
		wantErr bool
	}{
		{"admin", ScopeAdmin, false},
		{"public", ScopePublic, false},
		{"developer", ScopeDeveloper, false},
		{"user:42", ScopeUser(42), false},
		{"user:0", ScopeUser(0), false},
		{"user:", Scope{}, true},
		{"user:abc", Scope{}, true},
		{"user:-1", Scope{}, true},
		{"root", Scope{}, true},
		{"", Scope{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseScope(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseScope(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				if !apierrors.Is(err, apierrors.ErrCodeInvalidScope) {
					t.Errorf("error code = %s, want INVALID_SCOPE", apierrors.GetCode(err))
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseScope(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestScopeString(t *testing.T) {
	tests := []struct {
		scope Scope
		want  string
	}{
		{ScopeAdmin, "admin"},
		{ScopePublic, "public"},
		{ScopeDeveloper, "developer"},
		{ScopeUser(17), "user:17"},
	}

	for _, tt := range tests {
		if got := tt.scope.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestScopeJSONRoundTrip(t *testing.T) {
	for _, scope := range []Scope{ScopeAdmin, ScopePublic, ScopeDeveloper, ScopeUser(99)} {
		data, err := json.Marshal(scope)
		if err != nil {
			t.Fatalf("Marshal(%v) error = %v", scope, err)
		}

		var got Scope
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", data, err)
		}
		if got != scope {
			t.Errorf("round trip of %v = %v", scope, got)
		}
	}
}

func TestScopeIsUser(t *testing.T) {
	if id, ok := ScopeUser(8).IsUser(); !ok || id != 8 {
		t.Errorf("ScopeUser(8).IsUser() = %d, %v", id, ok)
	}
	if _, ok := ScopeAdmin.IsUser(); ok {
		t.Error("ScopeAdmin.IsUser() = true")
	}
}

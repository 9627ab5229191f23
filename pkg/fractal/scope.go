package fractal

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	apierrors "github.com/fractal-global/fractal-go/pkg/errors"
)

// Scope is an access token permission.
//
// The API issues four kinds of scope: admin, public, developer, and
// user scopes bound to a single user ID. The wire form is a string:
// "admin", "public", "developer", or "user:<id>".
type Scope struct {
	kind   scopeKind
	userID uint64
}

type scopeKind uint8

const (
	scopeKindAdmin scopeKind = iota
	scopeKindPublic
	scopeKindDeveloper
	scopeKindUser
)

// Predefined scopes without a bound user.
var (
	ScopeAdmin     = Scope{kind: scopeKindAdmin}
	ScopePublic    = Scope{kind: scopeKindPublic}
	ScopeDeveloper = Scope{kind: scopeKindDeveloper}
)

// ScopeUser returns the scope bound to the given user ID.
func ScopeUser(id uint64) Scope {
	return Scope{kind: scopeKindUser, userID: id}
}

// IsUser reports whether s is a user scope, and if so for which user.
func (s Scope) IsUser() (uint64, bool) {
	if s.kind == scopeKindUser {
		return s.userID, true
	}
	return 0, false
}

// String returns the wire form of the scope.
func (s Scope) String() string {
	switch s.kind {
	case scopeKindAdmin:
		return "admin"
	case scopeKindPublic:
		return "public"
	case scopeKindDeveloper:
		return "developer"
	default:
		return "user:" + strconv.FormatUint(s.userID, 10)
	}
}

// ParseScope parses the wire form of a scope.
func ParseScope(s string) (Scope, error) {
	switch s {
	case "admin":
		return ScopeAdmin, nil
	case "public":
		return ScopePublic, nil
	case "developer":
		return ScopeDeveloper, nil
	}
	if rest, ok := strings.CutPrefix(s, "user:"); ok {
		id, err := strconv.ParseUint(rest, 10, 64)
		if err != nil {
			return Scope{}, apierrors.New(apierrors.ErrCodeInvalidScope, "invalid user scope: %q", s)
		}
		return ScopeUser(id), nil
	}
	return Scope{}, apierrors.New(apierrors.ErrCodeInvalidScope, "unknown scope: %q", s)
}

// MarshalJSON encodes the scope in its wire form.
func (s Scope) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes the scope from its wire form.
func (s *Scope) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("scope must be a string: %w", err)
	}
	parsed, err := ParseScope(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

package fractal

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"time"

	apierrors "github.com/fractal-global/fractal-go/pkg/errors"
	"github.com/fractal-global/fractal-go/pkg/observability"
)

// AccessToken is an OAuth bearer token issued by the API.
//
// Tokens carry the scopes they were granted and an absolute expiration
// time. All fields are immutable after issue; methods never mutate the
// token, so it is safe to share across goroutines.
type AccessToken struct {
	appID      string
	token      string
	scopes     []Scope
	expiration time.Time
}

// AppID returns the application ID the token was issued to.
func (t *AccessToken) AppID() string { return t.appID }

// Scopes returns a copy of the scopes granted to the token.
func (t *AccessToken) Scopes() []Scope {
	out := make([]Scope, len(t.scopes))
	copy(out, t.scopes)
	return out
}

// ExpiresAt returns the token's absolute expiration time.
func (t *AccessToken) ExpiresAt() time.Time { return t.expiration }

// Expired reports whether the token has passed its expiration time.
func (t *AccessToken) Expired() bool {
	return !time.Now().Before(t.expiration)
}

// HasScope reports whether the token was granted the given scope.
// The admin scope satisfies every check.
func (t *AccessToken) HasScope(scope Scope) bool {
	for _, s := range t.scopes {
		if s == scope || s == ScopeAdmin {
			return true
		}
	}
	return false
}

// UserID returns the user bound to the token's user scope, if any.
func (t *AccessToken) UserID() (uint64, bool) {
	for _, s := range t.scopes {
		if id, ok := s.IsUser(); ok {
			return id, true
		}
	}
	return 0, false
}

// Bearer returns the Authorization header value for the token.
func (t *AccessToken) Bearer() string { return "Bearer " + t.token }

// TokenData is the serializable form of an access token, used to
// persist tokens across processes (see the session package).
type TokenData struct {
	AppID      string    `json:"app_id"`
	Token      string    `json:"token"`
	Scopes     []Scope   `json:"scopes"`
	Expiration time.Time `json:"expiration"`
}

// Data returns the serializable form of the token.
func (t *AccessToken) Data() TokenData {
	return TokenData{
		AppID:      t.appID,
		Token:      t.token,
		Scopes:     t.Scopes(),
		Expiration: t.expiration,
	}
}

// TokenFromData rebuilds an access token from its serialized form.
func TokenFromData(d TokenData) *AccessToken {
	return &AccessToken{
		appID:      d.AppID,
		token:      d.Token,
		scopes:     d.Scopes,
		expiration: d.Expiration,
	}
}

// accessTokenDTO is the wire form of a token grant. The scopes field is
// a JSON array encoded again as a string, so it is decoded in two steps.
type accessTokenDTO struct {
	AppID     string `json:"app_id"`
	Scopes    string `json:"scopes"`
	Token     string `json:"access_token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

func (dto *accessTokenDTO) accessToken(issued time.Time) (*AccessToken, error) {
	if dto.TokenType != "bearer" {
		return nil, apierrors.New(apierrors.ErrCodeInvalidTokenType, "unsupported token type %q", dto.TokenType)
	}

	var raw []string
	if err := json.Unmarshal([]byte(dto.Scopes), &raw); err != nil {
		return nil, apierrors.Wrap(apierrors.ErrCodeInvalidScope, err, "decode token scopes")
	}
	if len(raw) == 0 {
		return nil, apierrors.New(apierrors.ErrCodeInvalidScope, "token carries no scopes")
	}

	scopes := make([]Scope, 0, len(raw))
	for _, s := range raw {
		scope, err := ParseScope(s)
		if err != nil {
			return nil, err
		}
		scopes = append(scopes, scope)
	}

	return &AccessToken{
		appID:      dto.AppID,
		token:      dto.Token,
		scopes:     scopes,
		expiration: issued.Add(time.Duration(dto.ExpiresIn) * time.Second),
	}, nil
}

// Token requests an access token for the application using the OAuth
// client-credentials grant. The secret must be standard base64 decoding
// to exactly [SecretLen] bytes; malformed secrets are rejected locally.
func (c *Client) Token(ctx context.Context, appID, secret string) (*AccessToken, error) {
	if appID == "" {
		return nil, apierrors.New(apierrors.ErrCodeInvalidInput, "application ID cannot be empty")
	}
	raw, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.ErrCodeInvalidSecret, err, "secret is not valid base64")
	}
	if len(raw) != SecretLen {
		return nil, apierrors.New(apierrors.ErrCodeInvalidSecret, "secret must decode to %d bytes, got %d", SecretLen, len(raw))
	}

	issued := time.Now()
	form := url.Values{"grant_type": {"client_credentials"}}

	var dto accessTokenDTO
	if err := c.postForm(ctx, "token", basicAuth(appID, secret), form, &dto); err != nil {
		return nil, err
	}

	token, err := dto.accessToken(issued)
	if err != nil {
		return nil, err
	}

	scopes := make([]string, len(token.scopes))
	for i, s := range token.scopes {
		scopes[i] = s.String()
	}
	observability.Auth().OnTokenIssued(ctx, token.appID, scopes, token.expiration)

	return token, nil
}

// CreateClient registers a new API client application. Requires the
// admin scope.
func (c *Client) CreateClient(ctx context.Context, token *AccessToken, name string, scopes []Scope, requestLimit int) (*ClientInfo, error) {
	if err := c.authorize(ctx, "create client", token, ScopeAdmin); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, apierrors.New(apierrors.ErrCodeInvalidInput, "client name cannot be empty")
	}

	req := struct {
		Name         string  `json:"name"`
		Scopes       []Scope `json:"scopes"`
		RequestLimit int     `json:"request_limit"`
	}{Name: name, Scopes: scopes, RequestLimit: requestLimit}

	var info ClientInfo
	if err := c.postJSON(ctx, "create_client", bearerAuth(token), req, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

package fractal

import (
	"context"
	"net/http"
	"time"

	apierrors "github.com/fractal-global/fractal-go/pkg/errors"
	"github.com/fractal-global/fractal-go/pkg/observability"
)

// Register creates a new user account. Requires the public scope.
// Username, email, and password are validated locally before the
// request is sent; a taken username or email surfaces as REJECTED.
func (c *Client) Register(ctx context.Context, token *AccessToken, username, password, email string) error {
	if err := c.authorize(ctx, "register", token, ScopePublic); err != nil {
		return err
	}
	if err := apierrors.ValidateUsername(username); err != nil {
		return err
	}
	if err := apierrors.ValidateEmail(email); err != nil {
		return err
	}
	if err := apierrors.ValidatePassword(password); err != nil {
		return err
	}

	req := struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
	}{Username: username, Password: password, Email: email}

	return c.postJSON(ctx, "register", bearerAuth(token), req, nil)
}

// Login exchanges user credentials for a user-scoped access token.
// Requires the public scope. userEmail accepts either the username or
// the email address. With rememberMe the issued token lives longer.
func (c *Client) Login(ctx context.Context, token *AccessToken, userEmail, password string, rememberMe bool) (*AccessToken, error) {
	if err := c.authorize(ctx, "login", token, ScopePublic); err != nil {
		return nil, err
	}
	if userEmail == "" || password == "" {
		return nil, apierrors.New(apierrors.ErrCodeInvalidInput, "username and password cannot be empty")
	}

	req := struct {
		UserEmail  string `json:"user_email"`
		Password   string `json:"password"`
		RememberMe bool   `json:"remember_me"`
	}{UserEmail: userEmail, Password: password, RememberMe: rememberMe}

	issued := time.Now()
	var dto accessTokenDTO
	if err := c.postJSON(ctx, "login", bearerAuth(token), req, &dto); err != nil {
		return nil, err
	}

	userToken, err := dto.accessToken(issued)
	if err != nil {
		return nil, err
	}

	scopes := make([]string, len(userToken.scopes))
	for i, s := range userToken.scopes {
		scopes[i] = s.String()
	}
	observability.Auth().OnTokenIssued(ctx, userToken.appID, scopes, userToken.expiration)

	return userToken, nil
}

// ConfirmEmail confirms a user's email address with the key sent to it.
// Requires the public scope.
func (c *Client) ConfirmEmail(ctx context.Context, token *AccessToken, emailKey string) error {
	if err := c.authorize(ctx, "confirm email", token, ScopePublic); err != nil {
		return err
	}
	if emailKey == "" {
		return apierrors.New(apierrors.ErrCodeInvalidInput, "email confirmation key cannot be empty")
	}
	_, err := c.send(ctx, http.MethodPost, "confirm_email/"+emailKey, bearerAuth(token), "", nil)
	return err
}

// ResendEmailConfirmation asks the API to send the confirmation email
// again. Requires a user scope; the address is taken from the account.
func (c *Client) ResendEmailConfirmation(ctx context.Context, token *AccessToken) error {
	userID, err := tokenUser(ctx, token)
	if err != nil {
		return err
	}
	if err := c.authorize(ctx, "resend email confirmation", token, ScopeUser(userID)); err != nil {
		return err
	}
	return c.getJSON(ctx, "resend_email_confirmation", bearerAuth(token), nil)
}

// StartResetPassword begins the password reset flow for the account
// matching the given username and email. Requires the public scope.
func (c *Client) StartResetPassword(ctx context.Context, token *AccessToken, username, email string) error {
	if err := c.authorize(ctx, "start password reset", token, ScopePublic); err != nil {
		return err
	}
	if err := apierrors.ValidateUsername(username); err != nil {
		return err
	}
	if err := apierrors.ValidateEmail(email); err != nil {
		return err
	}

	req := struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}{Username: username, Email: email}

	return c.postJSON(ctx, "start_reset_password", bearerAuth(token), req, nil)
}

// ResetPassword completes the password reset flow using the key from
// the reset email. Requires the public scope.
func (c *Client) ResetPassword(ctx context.Context, token *AccessToken, passwordKey, newPassword string) error {
	if err := c.authorize(ctx, "reset password", token, ScopePublic); err != nil {
		return err
	}
	if passwordKey == "" {
		return apierrors.New(apierrors.ErrCodeInvalidInput, "password reset key cannot be empty")
	}
	if err := apierrors.ValidatePassword(newPassword); err != nil {
		return err
	}

	req := struct {
		NewPassword string `json:"new_password"`
	}{NewPassword: newPassword}

	return c.postJSON(ctx, "reset_password/"+passwordKey, bearerAuth(token), req, nil)
}

// tokenUser extracts the user ID bound to the token's user scope.
func tokenUser(ctx context.Context, token *AccessToken) (uint64, error) {
	if token == nil {
		return 0, apierrors.New(apierrors.ErrCodeUnauthorized, "operation requires an access token")
	}
	id, ok := token.UserID()
	if !ok {
		observability.Auth().OnAuthRefused(ctx, "user scope lookup")
		return 0, apierrors.New(apierrors.ErrCodeForbidden, "operation requires a user-scoped token")
	}
	return id, nil
}

package fractal

import (
	"context"
	"strconv"
	"time"

	apierrors "github.com/fractal-global/fractal-go/pkg/errors"
)

// GetUser fetches a user's profile. Requires the matching user scope or
// the admin scope. Responses are served from the cache when configured.
func (c *Client) GetUser(ctx context.Context, token *AccessToken, userID uint64) (*User, error) {
	if err := c.authorize(ctx, "get user", token, ScopeUser(userID), ScopeAdmin); err != nil {
		return nil, err
	}

	key := strconv.FormatUint(userID, 10)
	var user User
	if err := c.cachedGet(ctx, "user", key, "user/"+key, bearerAuth(token), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetMe fetches the profile of the user the token is scoped to.
func (c *Client) GetMe(ctx context.Context, token *AccessToken) (*User, error) {
	userID, err := tokenUser(ctx, token)
	if err != nil {
		return nil, err
	}
	return c.GetUser(ctx, token, userID)
}

// GetAllUsers fetches every user account. Requires the admin scope.
// The listing is never cached.
func (c *Client) GetAllUsers(ctx context.Context, token *AccessToken) ([]User, error) {
	if err := c.authorize(ctx, "list users", token, ScopeAdmin); err != nil {
		return nil, err
	}

	var users []User
	if err := c.getJSON(ctx, "all_users", bearerAuth(token), &users); err != nil {
		return nil, err
	}
	return users, nil
}

// DeleteUser removes a user account. Requires the admin scope. Any
// cached profile for the user is evicted.
func (c *Client) DeleteUser(ctx context.Context, token *AccessToken, userID uint64) error {
	if err := c.authorize(ctx, "delete user", token, ScopeAdmin); err != nil {
		return err
	}

	key := strconv.FormatUint(userID, 10)
	if err := c.delete(ctx, "user/"+key, bearerAuth(token)); err != nil {
		return err
	}
	if c.cache != nil {
		_ = c.cache.Namespace("user:").Delete(key)
	}
	return nil
}

// updateUserRequest is the wire form of a profile update. Unset fields
// are omitted and leave the corresponding attribute untouched.
type updateUserRequest struct {
	NewUsername *string  `json:"new_username,omitempty"`
	NewEmail    *string  `json:"new_email,omitempty"`
	NewFirst    *string  `json:"new_first,omitempty"`
	NewLast     *string  `json:"new_last,omitempty"`
	OldPassword *string  `json:"old_password,omitempty"`
	NewPassword *string  `json:"new_password,omitempty"`
	NewPhone    *string  `json:"new_phone,omitempty"`
	NewBirthday *Date    `json:"new_birthday,omitempty"`
	NewImage    *string  `json:"new_image,omitempty"`
	NewAddress  *Address `json:"new_address,omitempty"`
}

// UserUpdate describes one change applied by [Client.UpdateUser].
type UserUpdate func(*updateUserRequest) error

// SetUsername changes the account's username.
func SetUsername(username string) UserUpdate {
	return func(r *updateUserRequest) error {
		if err := apierrors.ValidateUsername(username); err != nil {
			return err
		}
		r.NewUsername = &username
		return nil
	}
}

// SetEmail changes the account's email address. The new address must be
// confirmed again before it counts as verified.
func SetEmail(email string) UserUpdate {
	return func(r *updateUserRequest) error {
		if err := apierrors.ValidateEmail(email); err != nil {
			return err
		}
		r.NewEmail = &email
		return nil
	}
}

// SetName changes the account's first and last name.
func SetName(first, last string) UserUpdate {
	return func(r *updateUserRequest) error {
		if first == "" || last == "" {
			return apierrors.New(apierrors.ErrCodeInvalidInput, "first and last name cannot be empty")
		}
		r.NewFirst, r.NewLast = &first, &last
		return nil
	}
}

// SetPhone changes the account's phone number.
func SetPhone(phone string) UserUpdate {
	return func(r *updateUserRequest) error {
		if phone == "" {
			return apierrors.New(apierrors.ErrCodeInvalidInput, "phone cannot be empty")
		}
		r.NewPhone = &phone
		return nil
	}
}

// SetBirthday changes the account's birthday.
func SetBirthday(d Date) UserUpdate {
	return func(r *updateUserRequest) error {
		r.NewBirthday = &d
		return nil
	}
}

// SetImage changes the account's profile image URL.
func SetImage(imageURL string) UserUpdate {
	return func(r *updateUserRequest) error {
		if imageURL == "" {
			return apierrors.New(apierrors.ErrCodeInvalidInput, "image URL cannot be empty")
		}
		r.NewImage = &imageURL
		return nil
	}
}

// SetAddress changes the account's postal address.
func SetAddress(a Address) UserUpdate {
	return func(r *updateUserRequest) error {
		r.NewAddress = &a
		return nil
	}
}

// SetPassword changes the account's password. The current password must
// be supplied.
func SetPassword(oldPassword, newPassword string) UserUpdate {
	return func(r *updateUserRequest) error {
		if err := apierrors.ValidatePassword(newPassword); err != nil {
			return err
		}
		r.OldPassword, r.NewPassword = &oldPassword, &newPassword
		return nil
	}
}

// ConfirmedBy attaches the current password to an update. Some account
// settings require password confirmation when the token is not an admin
// token.
func ConfirmedBy(password string) UserUpdate {
	return func(r *updateUserRequest) error {
		r.OldPassword = &password
		return nil
	}
}

// UpdateUser applies one or more profile changes to a user account.
// Requires the matching user scope or the admin scope. The cached
// profile for the user, if any, is evicted on success.
func (c *Client) UpdateUser(ctx context.Context, token *AccessToken, userID uint64, updates ...UserUpdate) error {
	if err := c.authorize(ctx, "update user", token, ScopeUser(userID), ScopeAdmin); err != nil {
		return err
	}
	if len(updates) == 0 {
		return apierrors.New(apierrors.ErrCodeInvalidInput, "no profile changes given")
	}

	var req updateUserRequest
	for _, update := range updates {
		if err := update(&req); err != nil {
			return err
		}
	}

	key := strconv.FormatUint(userID, 10)
	if err := c.postJSON(ctx, "update_user/"+key, bearerAuth(token), req, nil); err != nil {
		return err
	}
	if c.cache != nil {
		_ = c.cache.Namespace("user:").Delete(key)
	}
	return nil
}

// AuthenticatorQR returns the QR code payload for enrolling the user's
// two-factor authenticator. Requires a user scope.
func (c *Client) AuthenticatorQR(ctx context.Context, token *AccessToken, userID uint64) (string, error) {
	if err := c.authorize(ctx, "authenticator enrollment", token, ScopeUser(userID)); err != nil {
		return "", err
	}

	var msg responseMessage
	path := "authenticator/" + strconv.FormatUint(userID, 10)
	if err := c.getJSON(ctx, path, bearerAuth(token), &msg); err != nil {
		return "", err
	}
	return msg.Message, nil
}

// Authenticate submits a two-factor authentication code for the user.
// Requires a user scope. A wrong code surfaces as REJECTED.
func (c *Client) Authenticate(ctx context.Context, token *AccessToken, userID uint64, code uint32) error {
	if err := c.authorize(ctx, "two-factor authentication", token, ScopeUser(userID)); err != nil {
		return err
	}

	req := struct {
		Code      uint32    `json:"code"`
		Timestamp time.Time `json:"timestamp"`
	}{Code: code, Timestamp: time.Now().UTC()}

	path := "authenticate/" + strconv.FormatUint(userID, 10)
	return c.postJSON(ctx, path, bearerAuth(token), req, nil)
}

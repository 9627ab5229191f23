package fractal

import (
	"context"
	"strconv"

	apierrors "github.com/fractal-global/fractal-go/pkg/errors"
)

// SendFriendRequest asks another user for a connection of the given
// relationship kind, with an optional message. Requires a user scope;
// the origin of the request is the token's user.
func (c *Client) SendFriendRequest(ctx context.Context, token *AccessToken, destinationID uint64, relationship Relationship, message string) error {
	originID, err := tokenUser(ctx, token)
	if err != nil {
		return err
	}
	if err := c.authorize(ctx, "send friend request", token, ScopeUser(originID)); err != nil {
		return err
	}
	if !relationship.Valid() {
		return apierrors.New(apierrors.ErrCodeInvalidInput, "unknown relationship %q", string(relationship))
	}
	if destinationID == originID {
		return apierrors.New(apierrors.ErrCodeInvalidInput, "cannot send a friend request to yourself")
	}

	req := struct {
		OriginID      uint64       `json:"origin_id"`
		DestinationID uint64       `json:"destination_id"`
		Relationship  Relationship `json:"relationship"`
		Message       *string      `json:"message"`
	}{OriginID: originID, DestinationID: destinationID, Relationship: relationship}
	if message != "" {
		req.Message = &message
	}

	return c.postJSON(ctx, "create_friend_request", bearerAuth(token), req, nil)
}

// ConfirmFriendRequest accepts a pending connection. Requires a user
// scope; the token's user must be the request's destination.
func (c *Client) ConfirmFriendRequest(ctx context.Context, token *AccessToken, connectionID, originID uint64) error {
	destinationID, err := tokenUser(ctx, token)
	if err != nil {
		return err
	}
	if err := c.authorize(ctx, "confirm friend request", token, ScopeUser(destinationID)); err != nil {
		return err
	}

	req := struct {
		Origin      uint64 `json:"origin"`
		Destination uint64 `json:"destination"`
		ID          uint64 `json:"id"`
	}{Origin: originID, Destination: destinationID, ID: connectionID}

	return c.postJSON(ctx, "confirm_friend_request", bearerAuth(token), req, nil)
}

// FriendRequests lists the pending connection requests addressed to the
// given user. Requires the matching user scope or the admin scope.
func (c *Client) FriendRequests(ctx context.Context, token *AccessToken, userID uint64) ([]PendingFriendRequest, error) {
	if err := c.authorize(ctx, "list friend requests", token, ScopeUser(userID), ScopeAdmin); err != nil {
		return nil, err
	}

	var requests []PendingFriendRequest
	path := "friend_requests/" + strconv.FormatUint(userID, 10)
	if err := c.getJSON(ctx, path, bearerAuth(token), &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

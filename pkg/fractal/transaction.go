package fractal

import (
	"context"
	"strconv"

	apierrors "github.com/fractal-global/fractal-go/pkg/errors"
)

// GetTransaction fetches a single transaction by ID. Requires a user or
// admin scope. Transactions are immutable, so responses are served from
// the cache when one is configured.
func (c *Client) GetTransaction(ctx context.Context, token *AccessToken, transactionID uint64) (*Transaction, error) {
	required := ScopeAdmin
	if token != nil {
		if id, ok := token.UserID(); ok {
			required = ScopeUser(id)
		}
	}
	if err := c.authorize(ctx, "get transaction", token, required); err != nil {
		return nil, err
	}

	key := strconv.FormatUint(transactionID, 10)
	var tx Transaction
	if err := c.cachedGet(ctx, "tx", key, "transaction/"+key, bearerAuth(token), &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// SendTransaction transfers credits from the token's user to the given
// receiver. Requires a user scope. The wallet address and amount are
// validated locally before the request is sent; an insufficient balance
// surfaces as REJECTED. Transfers are never retried automatically.
func (c *Client) SendTransaction(ctx context.Context, token *AccessToken, receiverWallet WalletAddress, receiverID uint64, amount Amount) error {
	originID, err := tokenUser(ctx, token)
	if err != nil {
		return err
	}
	if err := c.authorize(ctx, "send transaction", token, ScopeUser(originID)); err != nil {
		return err
	}
	if _, err := ParseWalletAddress(string(receiverWallet)); err != nil {
		return err
	}
	if amount == 0 {
		return apierrors.New(apierrors.ErrCodeInvalidAmount, "transaction amount cannot be zero")
	}

	req := struct {
		OriginID           uint64        `json:"origin_id"`
		DestinationAddress WalletAddress `json:"destination_address"`
		DestinationID      uint64        `json:"destination_id"`
		Amount             Amount        `json:"amount"`
	}{
		OriginID:           originID,
		DestinationAddress: receiverWallet,
		DestinationID:      receiverID,
		Amount:             amount,
	}

	return c.postJSON(ctx, "new_transaction", bearerAuth(token), req, nil)
}

// TransactionsSince fetches every transaction with an ID at or after
// firstTransaction. Requires the admin scope.
func (c *Client) TransactionsSince(ctx context.Context, token *AccessToken, firstTransaction uint64) ([]Transaction, error) {
	if err := c.authorize(ctx, "list transactions", token, ScopeAdmin); err != nil {
		return nil, err
	}

	var txs []Transaction
	path := "all_transactions/" + strconv.FormatUint(firstTransaction, 10)
	if err := c.getJSON(ctx, path, bearerAuth(token), &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

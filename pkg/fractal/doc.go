// Package fractal is a client for the Fractal Global Credits REST API.
//
// The client covers the v1 API surface: OAuth client-credentials tokens,
// account registration and login, user profile management, wallet
// transactions, and friend requests.
//
// # Usage
//
//	client := fractal.New()
//
//	token, err := client.Token(ctx, appID, appSecret)
//	if err != nil {
//	    return err
//	}
//
//	userToken, err := client.Login(ctx, token, "alice", "password", false)
//	if err != nil {
//	    return err
//	}
//
//	me, err := client.GetMe(ctx, userToken)
//
// Every authorized call verifies locally that the token carries a
// satisfying scope and has not expired before any request is sent.
// Errors carry machine-readable codes from the errors package; the
// message of API-level rejections (HTTP 202) is preserved verbatim.
package fractal

/*
Package authsdk is the Go client for the SmartLegal authentication API and
holds the JSON types shared by the server and its clients.

# Client vs Session

  - Client: public endpoints (registration, login, refresh, token
    validation, password recovery, health)
  - Session: endpoints that need an access token (me, change password,
    logout). A Session refreshes its access token before it expires.

Typical use:

	client := authsdk.NewClient("https://api.example.com")

	session, err := client.Login(ctx, "ana@example.com", "senha123")
	if err != nil {
		var apiErr *authsdk.APIError
		if errors.As(err, &apiErr) && apiErr.Code == authsdk.ErrorCodeInvalidCredentials {
			// wrong email or password
		}
	}

	me, err := session.Me(ctx)

# Errors

Every non-2xx response is returned as *APIError carrying the HTTP status,
a stable error code and a human readable description.
*/
package authsdk

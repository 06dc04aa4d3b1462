/*
Package authsdk is the client SDK and wire contract of the PharmHub auth
service.

# Login

Every call to POST /login is answered with exactly one LoginStatus:

	client := authsdk.NewSDKClient("https://auth.pharmhub.example")

	resp, err := client.Login(ctx, authsdk.LoginRequest{
		EmailAddress: email,
		Password:     password,
		DeviceID:     deviceID,
	})

	switch {
	case err != nil:
		// *authsdk.Error for 4xx/5xx, ErrMalformedResponse for bad bodies,
		// anything else is transport.
	case resp.Status == authsdk.StatusOK:
		// resp.Token is the session token.
	case resp.Status.NeedsStepUp():
		// Resubmit with ChallengeID and the code the user received.
	case resp.Status == authsdk.StatusTooManyDevices:
		// resp.ResolutionToken may end the user's other sessions.
	}

Responses are checked before they are returned: a token appears only with
StatusOK and a challenge only with a step-up status. User-facing wording for
every status comes from Details.

# Authenticated calls

WithBearer wraps a token:

	auth := client.WithBearer(resp.ResolutionToken)
	res, err := auth.TerminateOtherSessions(ctx, resp.UserID, "")

Admin tokens (scope sessions:admin) can also list and terminate any session
and flag users for step-up with ListSessions, TerminateSession and
RequireOTP.
*/
package authsdk

// Package httpclient is the outbound HTTP client used for identity-provider
// token and profile calls.
//
// Every request carries the client deadline and passes through a circuit
// breaker. Failures are classified into Error values so callers can tell
// an upstream outage from a rejected request.
//
//	client, err := httpclient.New(httpclient.Config{Name: "google", Timeout: 10 * time.Second})
//	var profile googleProfile
//	err = client.GetJSON(ctx, userinfoURL, accessToken, &profile)
package httpclient

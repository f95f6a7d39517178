// Package rest provides typed JSON helpers on top of httpclient.
//
// Requests default to Content-Type and Accept of application/json, so
// bodies go through the JSON codec:
//
//	client, err := rest.New(httpclient.Config{BaseURL: "https://api.example.com"},
//	    httpclient.WithInjector(httpclient.BearerInjector{Token: "token"}))
//
//	user, err := rest.Get[User](ctx, client, "/users/123")
//	created, err := rest.Post[User](ctx, client, "/users", CreateUserRequest{Name: "Alice"})
package rest

// Package httpclient sends HTTP requests through a fixed pipeline.
//
// Execute clones the request and runs the injectors in registration order.
// It resolves the path against the Environment and adds a default
// user-agent. The body is encoded once by the codec matching its
// content-type, and the transport makes a single round trip. A 2xx
// response is decoded with the codec matching the response content-type.
// Any other status becomes a protocol error carrying the raw body.
//
// Built-in codecs handle application/json, text/*, multipart/* and
// application/x-www-form-urlencoded. Custom media types are added with
// Registry.Register and CodecFunc.
//
// # Basic Usage
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL: "https://api.example.com",
//	}, httpclient.WithInjector(httpclient.BearerInjector{Token: "my-token"}))
//
//	req := httpclient.NewRequest(http.MethodPost, "/users").
//	    SetHeader("Content-Type", "application/json")
//	req.Body = httpclient.StructBody(map[string]any{"name": "ada"})
//	resp, err := client.Execute(ctx, req)
//
// # Errors
//
// Failures other than injector errors are *Error values classified by
// Kind. Use IsTransport, IsProtocol, IsEncoding, IsDecoding and
// IsUnsupported to branch on them.
package httpclient

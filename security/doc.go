// Package security builds *tls.Config values for outbound connections.
//
// A TLSConfig describes certificate verification, an optional CA bundle and
// an optional client certificate for mTLS:
//
//	cfg := security.TLSConfig{CAFile: "/etc/ssl/internal-ca.pem"}
//	tlsConfig, err := cfg.Build()
//
// WithPeerVerification derives a copy that forces verification on, which is
// what the HTTP client does for https:// base URLs.
package security

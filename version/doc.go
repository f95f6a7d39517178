// Package version exposes build version information.
//
// Values are injected at build time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/pipehttp/version.Version=1.2.0"
//
// The HTTP client uses Version in its default User-Agent.
package version

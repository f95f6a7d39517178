package rest

import (
	"net/http"

	"github.com/kbukum/pipehttp/httpclient"
)

// IsNotFound checks if the error is a 404 Not Found.
func IsNotFound(err error) bool { return hasStatus(err, http.StatusNotFound) }

// IsAuth checks if the error is a 401 or 403 response.
func IsAuth(err error) bool {
	return hasStatus(err, http.StatusUnauthorized) || hasStatus(err, http.StatusForbidden)
}

// IsRateLimit checks if the error is a 429 Too Many Requests.
func IsRateLimit(err error) bool { return hasStatus(err, http.StatusTooManyRequests) }

// IsServerError checks if the error is a 5xx response.
func IsServerError(err error) bool {
	e, ok := httpclient.AsError(err)
	return ok && e.Kind == httpclient.KindProtocol && e.StatusCode >= 500
}

// IsTimeout checks if the error is a transport timeout.
func IsTimeout(err error) bool {
	e, ok := httpclient.AsError(err)
	return ok && e.Kind == httpclient.KindTransport && e.Code == httpclient.CodeTimeout
}

func hasStatus(err error, status int) bool {
	e, ok := httpclient.AsError(err)
	return ok && e.Kind == httpclient.KindProtocol && e.StatusCode == status
}

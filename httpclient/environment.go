package httpclient

// Environment supplies the base URL requests are resolved against.
type Environment interface {
	BaseURL() string
}

// StaticEnvironment is an Environment with a fixed base URL.
type StaticEnvironment string

// BaseURL implements Environment.
func (e StaticEnvironment) BaseURL() string { return string(e) }

package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/kbukum/pipehttp/httpclient"
)

type flags struct {
	configFile string
	envFile    string

	baseURL   string
	method    string
	headers   []string
	data      string
	dataFile  string
	form      []string
	timeout   time.Duration
	caFile    string
	userAgent string

	bearer     string
	apiKey     string
	jwtSecret  string
	jwtSubject string
	requestID  bool

	include bool
	verbose bool
	version bool

	path string
}

func parseFlags(args []string) (*flags, error) {
	f := &flags{}
	fs := pflag.NewFlagSet("httpcall", pflag.ContinueOnError)
	fs.StringVarP(&f.configFile, "config", "c", "", "config file (default: resolved from ./config.yml and friends)")
	fs.StringVar(&f.envFile, "env-file", "", ".env file to load")
	fs.StringVarP(&f.baseURL, "base-url", "u", "", "base URL prepended to the path")
	fs.StringVarP(&f.method, "request", "X", "", "HTTP method (default GET, POST with a body)")
	fs.StringArrayVarP(&f.headers, "header", "H", nil, `request header "Name: value" (repeatable)`)
	fs.StringVarP(&f.data, "data", "d", "", "raw request body")
	fs.StringVar(&f.dataFile, "data-file", "", "read the raw request body from a file")
	fs.StringArrayVarP(&f.form, "form", "F", nil, `form field "name=value" or file "name=@path" (repeatable)`)
	fs.DurationVar(&f.timeout, "timeout", 0, "round trip timeout")
	fs.StringVar(&f.caFile, "cacert", "", "PEM CA bundle for https peers")
	fs.StringVarP(&f.userAgent, "user-agent", "A", "", "user agent sent when no header sets one")
	fs.StringVar(&f.bearer, "bearer", "", "bearer token")
	fs.StringVar(&f.apiKey, "api-key", "", "API key sent as X-API-Key")
	fs.StringVar(&f.jwtSecret, "jwt-secret", "", "sign an HS256 token per request with this secret")
	fs.StringVar(&f.jwtSubject, "jwt-subject", "", "subject claim of signed tokens")
	fs.BoolVar(&f.requestID, "request-id", false, "add an X-Request-ID header")
	fs.BoolVarP(&f.include, "include", "i", false, "print response headers")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")
	fs.BoolVar(&f.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if f.version {
		return f, nil
	}
	if fs.NArg() != 1 {
		return nil, fmt.Errorf("expected exactly one path argument, got %d", fs.NArg())
	}
	f.path = fs.Arg(0)
	if f.data != "" && f.dataFile != "" {
		return nil, fmt.Errorf("--data and --data-file are mutually exclusive")
	}
	if (f.data != "" || f.dataFile != "") && len(f.form) > 0 {
		return nil, fmt.Errorf("--form cannot be combined with a raw body")
	}
	return f, nil
}

// applyTo overrides loaded configuration with explicit flags.
func (f *flags) applyTo(cfg *AppConfig) {
	if f.baseURL != "" {
		cfg.Client.BaseURL = f.baseURL
	}
	if f.timeout > 0 {
		cfg.Client.Timeout = f.timeout
	}
	if f.caFile != "" {
		cfg.Client.CACertPath = f.caFile
	}
	if f.userAgent != "" {
		cfg.Client.UserAgent = f.userAgent
	}
	if f.verbose {
		cfg.Logging.Level = "debug"
	}
}

// injectors returns the auth and tracing injectors selected by flags.
func (f *flags) injectors() []httpclient.Injector {
	injectors := []httpclient.Injector{httpclient.TraceInjector{}}
	if f.bearer != "" {
		injectors = append(injectors, httpclient.BearerInjector{Token: f.bearer})
	}
	if f.apiKey != "" {
		injectors = append(injectors, httpclient.APIKeyInjector{Key: f.apiKey})
	}
	if f.jwtSecret != "" {
		injectors = append(injectors, httpclient.JWTInjector{
			Secret:  []byte(f.jwtSecret),
			Issuer:  "httpcall",
			Subject: f.jwtSubject,
		})
	}
	if f.requestID {
		injectors = append(injectors, httpclient.RequestIDInjector{})
	}
	return injectors
}

// request builds the request described by flags.
func (f *flags) request() (*httpclient.Request, error) {
	req := httpclient.NewRequest(f.method, f.path)
	for _, h := range f.headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q", h)
		}
		req.SetHeader(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	switch {
	case f.dataFile != "":
		data, err := os.ReadFile(f.dataFile)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		req.Body = httpclient.RawBody(string(data))
	case f.data != "":
		req.Body = httpclient.RawBody(f.data)
	case len(f.form) > 0:
		body, err := formBody(f.form)
		if err != nil {
			return nil, err
		}
		req.Body = body
		if !req.Headers.Has("Content-Type") {
			req.SetHeader("Content-Type", "multipart/form-data")
		}
	}

	if req.Method == "" {
		req.Method = http.MethodGet
		if req.Body != nil {
			req.Method = http.MethodPost
		}
	}
	return req, nil
}

func formBody(entries []string) (*httpclient.Body, error) {
	body := httpclient.FieldsBody()
	for _, e := range entries {
		name, value, ok := strings.Cut(e, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid form field %q", e)
		}
		path, isFile := strings.CutPrefix(value, "@")
		if !isFile {
			body.Add(httpclient.TextField(name, value))
			continue
		}
		file, err := httpclient.OpenFile(path)
		if err != nil {
			return nil, err
		}
		body.Add(httpclient.FileField(name, file))
	}
	return body, nil
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func emptyConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("name: httpcall-test\nlogging:\n  level: error\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_JSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/1" || r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("unexpected request %s %q", r.URL.Path, r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":1}`)
	}))
	defer srv.Close()

	code, out, errOut := runCLI(t, "-c", emptyConfig(t), "-u", srv.URL, "--bearer", "tok", "-i", "/users/1")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.HasPrefix(out, "HTTP 200\n") || !strings.Contains(out, "Content-Type: application/json") {
		t.Errorf("expected headers in output, got %q", out)
	}
	if !strings.Contains(out, "\"id\": 1") {
		t.Errorf("expected indented JSON, got %q", out)
	}
}

func TestRun_PostsBodyAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		var got map[string]string
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil || got["name"] != "ada" {
			t.Errorf("unexpected body %v %v", got, err)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected request id")
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	code, out, errOut := runCLI(t, "-c", emptyConfig(t), "-u", srv.URL, "--request-id",
		"-H", "Content-Type: application/json", "-d", `{"name":"ada"}`, "/users")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if out != "" {
		t.Errorf("expected no output for an empty body, got %q", out)
	}
}

func TestRun_ProtocolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "no such user")
	}))
	defer srv.Close()

	code, out, errOut := runCLI(t, "-c", emptyConfig(t), "-u", srv.URL, "/users/9")
	if code != 22 {
		t.Fatalf("expected exit 22, got %d: %s", code, errOut)
	}
	if out != "no such user\n" || !strings.Contains(errOut, "HTTP 404") {
		t.Errorf("unexpected output %q / %q", out, errOut)
	}
}

func TestRun_TransportErrorExitCode(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	code, _, _ := runCLI(t, "-c", emptyConfig(t), "-u", "http://"+addr, "/")
	if code != 7 {
		t.Errorf("expected connect failure exit code 7, got %d", code)
	}
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no path", []string{}},
		{"two paths", []string{"/a", "/b"}},
		{"data and form", []string{"-d", "x", "-F", "a=b", "/"}},
		{"unknown flag", []string{"--nope", "/"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if code, _, _ := runCLI(t, tc.args...); code != 2 {
				t.Errorf("expected exit 2, got %d", code)
			}
		})
	}
}

func TestRun_MissingBaseURL(t *testing.T) {
	code, _, errOut := runCLI(t, "-c", emptyConfig(t), "/")
	if code != 2 || !strings.Contains(errOut, "base_url") {
		t.Errorf("expected config error, got %d %q", code, errOut)
	}
}

func TestRun_Version(t *testing.T) {
	code, out, _ := runCLI(t, "--version")
	if code != 0 || !strings.HasPrefix(out, "httpcall ") {
		t.Errorf("unexpected version output %d %q", code, out)
	}
}

func TestFlags_Request(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "avatar.png")
	if err := os.WriteFile(file, []byte("png"), 0o600); err != nil {
		t.Fatal(err)
	}

	f, err := parseFlags([]string{"-F", "name=ada", "-F", "avatar=@" + file, "-H", "X-A: 1", "/upload"})
	if err != nil {
		t.Fatal(err)
	}
	req, err := f.request()
	if err != nil {
		t.Fatal(err)
	}
	if req.Method != http.MethodPost || req.Path != "/upload" {
		t.Errorf("unexpected request %s %s", req.Method, req.Path)
	}
	if req.Headers["Content-Type"] != "multipart/form-data" || req.Headers["X-A"] != "1" {
		t.Errorf("unexpected headers %v", req.Headers)
	}
	fields := req.Body.Fields()
	if len(fields) != 2 || fields[0].Value != "ada" || fields[1].File == nil || fields[1].File.Filename != "avatar.png" {
		t.Errorf("unexpected fields %+v", fields)
	}

	f, _ = parseFlags([]string{"-H", "bad header", "/"})
	if _, err := f.request(); err == nil {
		t.Error("expected error for header without colon")
	}
}

func TestFlags_Injectors(t *testing.T) {
	f, err := parseFlags([]string{"--bearer", "t", "--api-key", "k", "--jwt-secret", "s", "--request-id", "/"})
	if err != nil {
		t.Fatal(err)
	}
	// trace context is always propagated
	if got := len(f.injectors()); got != 5 {
		t.Errorf("expected 5 injectors, got %d", got)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("HTTPCALL_CLIENT_BASE_URL", "http://env.test")
	t.Setenv("HTTPCALL_CLIENT_TIMEOUT", "5s")

	f, err := parseFlags([]string{"-c", emptyConfig(t), "/"})
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Client.BaseURL != "http://env.test" || cfg.Client.Timeout.String() != "5s" {
		t.Errorf("expected env overrides, got %+v", cfg.Client)
	}
	if cfg.Client.Name != "httpcall-test" || cfg.Observability.ServiceName != "httpcall-test" {
		t.Errorf("expected names derived from service name, got %+v", cfg)
	}
}

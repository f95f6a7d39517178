package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/pipehttp/security/tlstest"
)

func failureCode(t *testing.T, err error) int {
	t.Helper()
	if e, ok := AsError(err); ok && e.Kind == KindTransport {
		return e.Code
	}
	f, ok := err.(*TransportFailure)
	if !ok {
		t.Fatalf("expected transport failure, got %T: %v", err, err)
	}
	return f.Code
}

func TestHTTPTransport_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		if got := r.Header.Get("X-Token"); got != "abc" {
			t.Errorf("expected X-Token, got %q", got)
		}
		if r.Host != "virtual.test" {
			t.Errorf("expected Host override, got %q", r.Host)
		}
		body, _ := io.ReadAll(r.Body)
		w.Header().Add("X-Multi", "one")
		w.Header().Add("X-Multi", "two")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	tr := NewHTTPTransport(5*time.Second, nil)
	var lines []string
	reply, err := tr.RoundTrip(context.Background(), &Call{
		URL:     srv.URL + "/echo",
		Method:  http.MethodPut,
		Header:  []string{"X-Token: abc", "Host: virtual.test", "Content-Length: 999"},
		Body:    []byte("payload"),
		HasBody: true,
	}, func(l string) { lines = append(lines, l) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.StatusCode != http.StatusAccepted || string(reply.Body) != "payload" {
		t.Errorf("unexpected reply %d %q", reply.StatusCode, reply.Body)
	}
	if len(lines) < 2 || !strings.HasPrefix(lines[0], "HTTP/1.1 202") || lines[len(lines)-1] != "" {
		t.Errorf("unexpected header lines %q", lines)
	}
	if !hasLine(lines, "X-Multi: one") || !hasLine(lines, "X-Multi: two") {
		t.Errorf("expected repeated header lines, got %q", lines)
	}
}

func TestHTTPTransport_DoesNotFollowRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	defer srv.Close()

	reply, err := NewHTTPTransport(time.Second, nil).RoundTrip(context.Background(),
		&Call{URL: srv.URL, Method: http.MethodGet}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.StatusCode != http.StatusFound {
		t.Errorf("expected 302, got %d", reply.StatusCode)
	}
}

func TestHTTPTransport_FailureCodes(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	closedAddr := ln.Addr().String()
	_ = ln.Close()

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		call *Call
		want int
	}{
		{"connect refused", context.Background(), &Call{URL: "http://" + closedAddr, Method: http.MethodGet}, CodeConnect},
		{"malformed url", context.Background(), &Call{URL: "://nope", Method: http.MethodGet}, CodeMalformedURL},
		{"bad header line", context.Background(), &Call{URL: "http://" + closedAddr, Method: http.MethodGet, Header: []string{"no colon"}}, CodeBadArgument},
		{"invalid header name", context.Background(), &Call{URL: "http://" + closedAddr, Method: http.MethodGet, Header: []string{"Bad Name: x"}}, CodeBadArgument},
		{"canceled", canceled, &Call{URL: "http://" + closedAddr, Method: http.MethodGet}, CodeAborted},
	}
	tr := NewHTTPTransport(2*time.Second, nil)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tr.RoundTrip(tc.ctx, tc.call, nil)
			if got := failureCode(t, err); got != tc.want {
				t.Errorf("expected code %d, got %d (%v)", tc.want, got, err)
			}
		})
	}
}

func TestHTTPTransport_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewHTTPTransport(50*time.Millisecond, nil).RoundTrip(context.Background(),
		&Call{URL: srv.URL, Method: http.MethodGet}, nil)
	if got := failureCode(t, err); got != CodeTimeout {
		t.Errorf("expected timeout code, got %d (%v)", got, err)
	}
}

func TestHTTPTransport_HTTPSWithCABundle(t *testing.T) {
	certs := tlstest.GenerateTLSCerts(t)
	srv := tlstest.NewTLSServer(t, certs, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"ua": r.Header.Get("User-Agent")})
	}))

	c, err := New(Config{BaseURL: srv.URL, CACertPath: certs.CAFile, UserAgent: "tls-test/1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Close()

	resp, err := c.Execute(context.Background(), NewRequest(http.MethodGet, "/"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, ok := resp.Result.(map[string]any)
	if !ok || result["ua"] != "tls-test/1" {
		t.Errorf("unexpected result %#v", resp.Result)
	}
}

func TestHTTPTransport_HTTPSUnknownAuthority(t *testing.T) {
	certs := tlstest.GenerateTLSCerts(t)
	srv := tlstest.NewTLSServer(t, certs, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	c, err := New(Config{BaseURL: srv.URL, TLS: &TLSConfig{SkipVerify: true}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = c.Execute(context.Background(), NewRequest(http.MethodGet, "/"))
	if !IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if got := failureCode(t, err); got != CodePeerCertificate {
		t.Errorf("expected peer certificate code, got %d (%v)", got, err)
	}
}

func TestHTTPTransport_InvalidCABundle(t *testing.T) {
	bad := tlstest.WriteInvalidPEM(t, "bad.pem")
	_, err := NewHTTPTransport(time.Second, nil).RoundTrip(context.Background(),
		&Call{URL: "https://127.0.0.1:1", Method: http.MethodGet, VerifyPeer: true, CAFile: bad}, nil)
	if got := failureCode(t, err); got != CodeCACertFile {
		t.Errorf("expected CA file code, got %d (%v)", got, err)
	}
}

func TestClient_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostForm.Get("user[name]"); got != "ada" {
			t.Errorf("expected flattened form field, got %q", got)
		}
		if got := r.Header.Get("X-Request-ID"); got == "" {
			t.Error("expected request id")
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL}, WithInjector(RequestIDInjector{}))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	req := NewRequest(http.MethodPost, "/form").SetHeader("Content-Type", "application/x-www-form-urlencoded")
	req.Body = StructBody(map[string]any{"user": map[string]string{"name": "ada"}})
	resp, err := c.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Result != "ok" {
		t.Errorf("expected text result, got %#v", resp.Result)
	}
}

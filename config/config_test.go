package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

type clientSection struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Client        clientSection `yaml:"client" mapstructure:"client"`
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	cfg := ServiceConfig{Name: "svc"}
	cfg.ApplyDefaults()
	if cfg.Environment != "development" {
		t.Errorf("expected 'development', got %q", cfg.Environment)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected logging defaults, got level %q", cfg.Logging.Level)
	}
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr bool
		errMsg  string
	}{
		{"valid", ServiceConfig{Name: "svc", Environment: "production"}, false, ""},
		{"missing name", ServiceConfig{Environment: "production"}, true, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "invalid"}, true, "config.environment must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	yamlContent := `
name: httpcall
environment: staging
client:
  base_url: https://api.example.com
  timeout: 5s
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg testConfig
	if err := LoadConfig("httpcall", &cfg, WithConfigFile(configPath), WithEnvPrefix("PIPEHTTP_TEST_NONE")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "httpcall" || cfg.Environment != "staging" {
		t.Errorf("unexpected service config %+v", cfg.ServiceConfig)
	}
	if cfg.Client.BaseURL != "https://api.example.com" {
		t.Errorf("expected base url, got %q", cfg.Client.BaseURL)
	}
	if cfg.Client.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.Client.Timeout)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("client:\n  base_url: http://file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PIPEHTTPTEST_CLIENT_BASE_URL", "http://env")

	var cfg testConfig
	if err := LoadConfig("httpcall", &cfg, WithConfigFile(configPath), WithEnvPrefix("pipehttptest")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Client.BaseURL != "http://env" {
		t.Errorf("expected env override, got %q", cfg.Client.BaseURL)
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("PIPEHTTPENV_NAME=from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("PIPEHTTPENV_NAME") })

	var cfg testConfig
	err := LoadConfig("httpcall", &cfg,
		WithConfigFile(filepath.Join(dir, "missing.yml")),
		WithEnvFile(envPath),
		WithEnvPrefix("PIPEHTTPENV"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "from-dotenv" {
		t.Errorf("expected name from .env, got %q", cfg.Name)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("nonexistent", &cfg, WithConfigFile("/nonexistent/path.yml"), WithEnvPrefix("PIPEHTTP_TEST_NONE"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

func TestResolverWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/my-svc/config.yml": true,
		".env":                    true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("my-svc", LoaderConfig{})
	if files.ConfigFile != "./cmd/my-svc/config.yml" {
		t.Errorf("expected config file at ./cmd/my-svc/config.yml, got %q", files.ConfigFile)
	}
	if files.EnvFile != ".env" {
		t.Errorf("expected .env, got %q", files.EnvFile)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }
func (m *mockFS) LoadEnv(string) error    { return nil }

func TestGenerateEnvKeyVariants(t *testing.T) {
	got := generateEnvKeyVariants("CLIENT_BASE_URL")
	want := []string{"client_base_url", "client.base.url", "client.base_url", "client_base.url"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got := generateEnvKeyVariants("NAME"); !reflect.DeepEqual(got, []string{"name"}) {
		t.Errorf("got %v", got)
	}
}

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	WithConfigFile("/path/to/config.yml")(&lc)
	WithEnvFile("/path/to/.env")(&lc)
	WithEnvPrefix("app")(&lc)
	WithFileSystem(&mockFS{})(&lc)
	if lc.ConfigFile != "/path/to/config.yml" || lc.EnvFile != "/path/to/.env" {
		t.Errorf("unexpected paths %+v", lc)
	}
	if lc.EnvPrefix != "APP" {
		t.Errorf("expected upper-cased prefix, got %q", lc.EnvPrefix)
	}
	if lc.FileSystem == nil {
		t.Error("expected FileSystem to be set")
	}
}

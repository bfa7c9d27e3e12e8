package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "authd"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.Level != "info" {
			t.Errorf("expected logging defaults to be applied, got level %q", cfg.Logging.Level)
		}
	})

	t.Run("production environment keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "authd", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
		if !cfg.IsProduction() {
			t.Error("expected IsProduction to be true")
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr string
	}{
		{"valid", ServiceConfig{Name: "authd", Environment: "staging"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "authd", Environment: "qa"}, "config.environment must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

type jwtSection struct {
	AccessTokenExpiry  int64 `mapstructure:"access_token_expiry"`
	RefreshTokenExpiry int64 `mapstructure:"refresh_token_expiry"`
}

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	JWT           jwtSection `mapstructure:"jwt"`
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	yamlContent := `
name: authd
environment: staging
jwt:
  access_token_expiry: 900
  refresh_token_expiry: 604800
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg testConfig
	if err := LoadConfig("authd", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "authd" || cfg.Environment != "staging" {
		t.Errorf("unexpected service config %+v", cfg.ServiceConfig)
	}
	if cfg.JWT.AccessTokenExpiry != 900 {
		t.Errorf("expected access expiry 900, got %d", cfg.JWT.AccessTokenExpiry)
	}
}

func TestLoadConfigEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("jwt:\n  access_token_expiry: 900\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("JWT_ACCESS_TOKEN_EXPIRY", "60")

	var cfg testConfig
	if err := LoadConfig("authd", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.JWT.AccessTokenExpiry != 60 {
		t.Errorf("expected env override 60, got %d", cfg.JWT.AccessTokenExpiry)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg testConfig
	if err := LoadConfig("authd", &cfg, WithConfigFile("/nonexistent/path.yml")); err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

func TestLoadConfigMalformedFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("jwt: [unclosed"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	var cfg testConfig
	if err := LoadConfig("authd", &cfg, WithConfigFile(configPath)); err == nil {
		t.Fatal("expected error for malformed config file")
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestResolverWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/authd/config.yml": true,
		".env":                   true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("authd", LoaderConfig{})
	if files.ConfigFile != "./cmd/authd/config.yml" {
		t.Errorf("expected config file at ./cmd/authd/config.yml, got %q", files.ConfigFile)
	}
	if files.EnvFile != ".env" {
		t.Errorf("expected env file .env, got %q", files.EnvFile)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	variants := envKeyVariants("OAUTH2_GOOGLE_CLIENT_ID")
	for _, want := range []string{"oauth2_google_client_id", "oauth2.google.client_id", "oauth2.google_client_id"} {
		if !slices.Contains(variants, want) {
			t.Errorf("expected variant %q in %v", want, variants)
		}
	}
	if got := envKeyVariants("PORT"); len(got) != 1 || got[0] != "port" {
		t.Errorf("expected single variant for PORT, got %v", got)
	}
}

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	WithFileSystem(&mockFS{})(&lc)
	WithConfigFile("/path/to/config.yml")(&lc)
	WithEnvFile("/path/to/.env")(&lc)
	if lc.FileSystem == nil || lc.ConfigFile != "/path/to/config.yml" || lc.EnvFile != "/path/to/.env" {
		t.Errorf("unexpected loader config %+v", lc)
	}
}

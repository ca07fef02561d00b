package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("server defaults", func(t *testing.T) {
		if cfg.Server.Address != ":389" {
			t.Errorf("expected address ':389', got %q", cfg.Server.Address)
		}
		if cfg.Server.TLSAddress != ":636" {
			t.Errorf("expected TLS address ':636', got %q", cfg.Server.TLSAddress)
		}
		if cfg.Server.ReadTimeout != 30*time.Second {
			t.Errorf("expected read timeout 30s, got %v", cfg.Server.ReadTimeout)
		}
	})

	t.Run("directory defaults", func(t *testing.T) {
		if cfg.Directory.BaseDN != "dc=example,dc=com" {
			t.Errorf("expected baseDN 'dc=example,dc=com', got %q", cfg.Directory.BaseDN)
		}
		if cfg.Directory.RootDN == "" {
			t.Error("expected a non-empty default rootDN")
		}
	})

	t.Run("logging defaults", func(t *testing.T) {
		if cfg.Logging.Level != "info" {
			t.Errorf("expected log level 'info', got %q", cfg.Logging.Level)
		}
		if cfg.Logging.Format != "json" {
			t.Errorf("expected log format 'json', got %q", cfg.Logging.Format)
		}
	})

	t.Run("default config validates clean", func(t *testing.T) {
		if errs := Validate(cfg); len(errs) != 0 {
			t.Errorf("expected no validation errors, got %v", errs)
		}
	})
}

func TestParse(t *testing.T) {
	t.Run("empty config uses defaults", func(t *testing.T) {
		cfg, err := Parse([]byte(""))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Server.Address != ":389" {
			t.Errorf("expected default address ':389', got %q", cfg.Server.Address)
		}
	})

	t.Run("partial config merges with defaults", func(t *testing.T) {
		yaml := `
server:
  address: ":1389"
`
		cfg, err := Parse([]byte(yaml))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Server.Address != ":1389" {
			t.Errorf("expected address ':1389', got %q", cfg.Server.Address)
		}
		if cfg.Server.TLSAddress != ":636" {
			t.Errorf("expected default TLS address ':636' to survive, got %q", cfg.Server.TLSAddress)
		}
	})

	t.Run("parse directory config", func(t *testing.T) {
		yaml := `
directory:
  baseDN: "dc=test,dc=com"
  rootDN: "cn=admin,dc=test,dc=com"
  rootPassword: "secret"
`
		cfg, err := Parse([]byte(yaml))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Directory.BaseDN != "dc=test,dc=com" {
			t.Errorf("expected baseDN 'dc=test,dc=com', got %q", cfg.Directory.BaseDN)
		}
		if cfg.Directory.RootPassword != "secret" {
			t.Errorf("expected rootPassword 'secret', got %q", cfg.Directory.RootPassword)
		}
	})

	t.Run("rejects empty baseDN", func(t *testing.T) {
		yaml := `
directory:
  baseDN: ""
`
		if _, err := Parse([]byte(yaml)); err == nil {
			t.Error("expected an error for empty baseDN")
		}
	})

	t.Run("rejects invalid logging format", func(t *testing.T) {
		yaml := `
logging:
  format: "xml"
`
		if _, err := Parse([]byte(yaml)); err == nil {
			t.Error("expected an error for invalid logging format")
		}
	})
}

func TestEnvironmentVariableSubstitution(t *testing.T) {
	t.Run("simple substitution", func(t *testing.T) {
		os.Setenv("TEST_OBAD_ADDRESS", ":2389")
		defer os.Unsetenv("TEST_OBAD_ADDRESS")

		yaml := `
server:
  address: "${TEST_OBAD_ADDRESS}"
`
		cfg, err := Parse([]byte(yaml))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Server.Address != ":2389" {
			t.Errorf("expected address ':2389', got %q", cfg.Server.Address)
		}
	})

	t.Run("substitution with default value", func(t *testing.T) {
		os.Unsetenv("TEST_OBAD_MISSING")

		yaml := `
server:
  address: "${TEST_OBAD_MISSING:-:3389}"
`
		cfg, err := Parse([]byte(yaml))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Server.Address != ":3389" {
			t.Errorf("expected address ':3389', got %q", cfg.Server.Address)
		}
	})

	t.Run("substitution prefers set value over default", func(t *testing.T) {
		os.Setenv("TEST_OBAD_SET", ":4389")
		defer os.Unsetenv("TEST_OBAD_SET")

		yaml := `
server:
  address: "${TEST_OBAD_SET:-:5389}"
`
		cfg, err := Parse([]byte(yaml))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Server.Address != ":4389" {
			t.Errorf("expected address ':4389', got %q", cfg.Server.Address)
		}
	})
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Run("substitute single var", func(t *testing.T) {
		os.Setenv("TEST_VAR", "value")
		defer os.Unsetenv("TEST_VAR")

		result := substituteEnvVars([]byte("key: ${TEST_VAR}"))
		if string(result) != "key: value" {
			t.Errorf("expected %q, got %q", "key: value", string(result))
		}
	})

	t.Run("substitute with default", func(t *testing.T) {
		os.Unsetenv("TEST_MISSING")

		result := substituteEnvVars([]byte("key: ${TEST_MISSING:-default}"))
		if string(result) != "key: default" {
			t.Errorf("expected %q, got %q", "key: default", string(result))
		}
	})

	t.Run("no substitution needed", func(t *testing.T) {
		input := []byte("key: value")
		result := substituteEnvVars(input)
		if string(result) != string(input) {
			t.Errorf("expected %q, got %q", string(input), string(result))
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("load from file", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "obad.yaml")

		yaml := `
server:
  address: ":7389"
logging:
  level: "warn"
`
		if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Server.Address != ":7389" {
			t.Errorf("expected address ':7389', got %q", cfg.Server.Address)
		}
		if cfg.Logging.Level != "warn" {
			t.Errorf("expected log level 'warn', got %q", cfg.Logging.Level)
		}
	})

	t.Run("file not found", func(t *testing.T) {
		if _, err := Load("/nonexistent/path/obad.yaml"); err == nil {
			t.Error("expected an error for a missing file")
		}
	})
}

func TestValidate(t *testing.T) {
	t.Run("catches multiple problems at once", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Directory.BaseDN = ""
		cfg.Storage.DataDir = ""
		cfg.Security.PasswordPolicy.MinLength = 0

		errs := Validate(cfg)
		if len(errs) != 3 {
			t.Fatalf("expected 3 validation errors, got %d: %v", len(errs), errs)
		}
	})

	t.Run("maxLength below minLength is rejected", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Security.PasswordPolicy.MinLength = 10
		cfg.Security.PasswordPolicy.MaxLength = 5

		if errs := Validate(cfg); len(errs) == 0 {
			t.Error("expected a validation error for maxLength < minLength")
		}
	})

	t.Run("password policy fields ignored when disabled", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Security.PasswordPolicy.Enabled = false
		cfg.Security.PasswordPolicy.MinLength = 0

		if errs := Validate(cfg); len(errs) != 0 {
			t.Errorf("expected no validation errors, got %v", errs)
		}
	})
}

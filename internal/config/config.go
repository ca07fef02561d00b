// Package config loads the server/partition/policy configuration file:
// bind address, TLS key material, partition suffix and backing store,
// initial admin password, and password-policy defaults, parsed with
// gopkg.in/yaml.v3 and overridable through ${VAR} substitution.
package config

import "time"

// Config holds the complete server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Directory DirectoryConfig `yaml:"directory"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LogConfig       `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
	ACL       ACLConfig       `yaml:"acl"`
}

// ServerConfig holds the listener-adjacent settings the core still owns
// even though the TCP/TLS acceptor itself lives outside this module:
// cmd/obad consults PIDFile; no code in this module reads the timeouts.
type ServerConfig struct {
	Address        string        `yaml:"address"`
	TLSAddress     string        `yaml:"tlsAddress"`
	TLSCert        string        `yaml:"tlsCert"`
	TLSKey         string        `yaml:"tlsKey"`
	MaxConnections int           `yaml:"maxConnections"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
	PIDFile        string        `yaml:"pidFile"`
}

// DirectoryConfig names the partition suffix and seeds the initial admin
// principal.
type DirectoryConfig struct {
	BaseDN       string `yaml:"baseDN"`
	RootDN       string `yaml:"rootDN"`
	RootPassword string `yaml:"rootPassword"`
}

// StorageConfig selects the partition's backing store and WAL/changelog
// location.
type StorageConfig struct {
	DataDir          string `yaml:"dataDir"`
	WALPath          string `yaml:"walPath"`
	SchemaLDIFPath   string `yaml:"schemaLDIFPath"`
	ChangelogEnabled bool   `yaml:"changelogEnabled"`
}

// LogConfig configures internal/obalog's zap core.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig groups the authentication-adjacent policy knobs.
type SecurityConfig struct {
	PasswordPolicy PasswordPolicyConfig `yaml:"passwordPolicy"`
	AllowAnonymous bool                 `yaml:"allowAnonymous"`
}

// PasswordPolicyConfig maps onto internal/auth.Policy.
type PasswordPolicyConfig struct {
	Enabled           bool          `yaml:"enabled"`
	MinLength         int           `yaml:"minLength"`
	MaxLength         int           `yaml:"maxLength"`
	RequireUppercase  bool          `yaml:"requireUppercase"`
	RequireLowercase  bool          `yaml:"requireLowercase"`
	RequireDigit      bool          `yaml:"requireDigit"`
	RequireSpecial    bool          `yaml:"requireSpecial"`
	MaxAge            time.Duration `yaml:"maxAge"`
	MinAge            time.Duration `yaml:"minAge"`
	HistoryCount      int           `yaml:"historyCount"`
	MaxFailures       int           `yaml:"maxFailures"`
	LockoutDuration   time.Duration `yaml:"lockoutDuration"`
	FailureWindow     time.Duration `yaml:"failureWindow"`
	GraceLogins       int           `yaml:"graceLogins"`
	MustChangeOnReset bool          `yaml:"mustChangeOnReset"`
}

// ACLConfig selects between ACI evaluation and the admin/self fallback
// policy (AciAuthorization vs. DefaultAuthorization).
type ACLConfig struct {
	Enabled bool `yaml:"enabled"`
}

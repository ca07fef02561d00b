package config

import "time"

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:        ":389",
			TLSAddress:     ":636",
			MaxConnections: 1024,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
		},
		Directory: DirectoryConfig{
			BaseDN: "dc=example,dc=com",
			RootDN: "cn=admin,dc=example,dc=com",
		},
		Storage: StorageConfig{
			DataDir:          "/var/lib/obad",
			WALPath:          "/var/lib/obad/obad.wal",
			ChangelogEnabled: false,
		},
		Logging: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			PasswordPolicy: PasswordPolicyConfig{
				Enabled:           true,
				MinLength:         8,
				MaxLength:         128,
				RequireUppercase:  true,
				RequireLowercase:  true,
				RequireDigit:      true,
				MaxAge:            90 * 24 * time.Hour,
				HistoryCount:      5,
				MaxFailures:       5,
				LockoutDuration:   15 * time.Minute,
				GraceLogins:       0,
				MustChangeOnReset: true,
			},
			AllowAnonymous: true,
		},
		ACL: ACLConfig{
			Enabled: true,
		},
	}
}

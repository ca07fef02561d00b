// Package directory assembles the schema registry, entry store and
// interceptor chain behind a single handle, replacing what would
// otherwise be process-wide singletons (schema registry, running-operations
// table, password-reset set) with explicit fields on one handle passed by
// reference to every interceptor. cmd/obad is the only caller.
package directory

import (
	"fmt"

	"github.com/oba-directory/obad/internal/auth"
	"github.com/oba-directory/obad/internal/config"
	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/interceptor"
	"github.com/oba-directory/obad/internal/obalog"
	"github.com/oba-directory/obad/internal/schema"
	"github.com/oba-directory/obad/internal/store"
)

// Service is the running directory: the assembled chain plus the
// collaborators cmd/obad needs direct access to (for bootstrap, for the
// reload subcommand's config swap).
type Service struct {
	Config *config.Config
	Log    obalog.Logger

	Registry      *schema.Registry
	Store         *store.Store
	Authenticator *auth.Authenticator
	ResetSet      *interceptor.ResetSet
	Chain         *interceptor.Chain
}

// Open builds a Service from cfg: loads the core schema, opens the store
// (recovering from its WAL if present), and wires the canonical
// interceptor chain in order. On a store with no entries yet it also
// bootstraps the partition suffix and an initial admin principal from
// cfg.Directory.
func Open(cfg *config.Config, log obalog.Logger) (*Service, error) {
	reg := schema.NewRegistry()
	if err := schema.LoadDefaults(reg); err != nil {
		return nil, fmt.Errorf("directory: load schema defaults: %w", err)
	}

	baseDN, err := dn.Parse(cfg.Directory.BaseDN)
	if err != nil {
		return nil, fmt.Errorf("directory: parse baseDN: %w", err)
	}

	st, err := store.Open(reg, baseDN, cfg.Storage.WALPath)
	if err != nil {
		return nil, fmt.Errorf("directory: open store: %w", err)
	}

	policy := passwordPolicyFromConfig(cfg.Security.PasswordPolicy)
	authenticator := auth.NewAuthenticator(policy)
	authenticator.Log = log
	resetSet := interceptor.NewResetSet()

	svc := &Service{
		Config:        cfg,
		Log:           log,
		Registry:      reg,
		Store:         st,
		Authenticator: authenticator,
		ResetSet:      resetSet,
	}

	if err := svc.bootstrap(); err != nil {
		st.Close()
		return nil, fmt.Errorf("directory: bootstrap: %w", err)
	}

	adminDN, err := dn.Parse(cfg.Directory.RootDN)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("directory: parse rootDN: %w", err)
	}

	adminPoint := interceptor.NewAdministrativePoint(st)
	svc.Chain = interceptor.New(
		interceptor.NewNormalization(reg),
		interceptor.NewAuthentication(authenticator, st, resetSet, cfg.Security.AllowAnonymous),
		interceptor.NewReferral(st),
		interceptor.NewAciAuthorization(st, cfg.ACL.Enabled),
		interceptor.NewDefaultAuthorization(adminDN, cfg.ACL.Enabled),
		adminPoint,
		interceptor.NewException(),
		interceptor.NewSchema(reg, st),
		interceptor.NewOperationalAttribute(reg, st),
		interceptor.NewSubentry(),
		interceptor.NewCollective(reg, st, adminPoint),
		interceptor.NewEvent(),
		interceptor.NewTrigger(),
		interceptor.NewStoreAdapter(reg, st),
	)

	return svc, nil
}

// Close releases the store's WAL handle.
func (s *Service) Close() error { return s.Store.Close() }

func passwordPolicyFromConfig(c config.PasswordPolicyConfig) *auth.Policy {
	if !c.Enabled {
		return auth.DisabledPolicy()
	}
	return &auth.Policy{
		Enabled:           true,
		MinLength:         c.MinLength,
		MaxLength:         c.MaxLength,
		RequireUpper:      c.RequireUppercase,
		RequireLower:      c.RequireLowercase,
		RequireDigit:      c.RequireDigit,
		RequireSpecial:    c.RequireSpecial,
		MaxAge:            c.MaxAge,
		MinAge:            c.MinAge,
		HistoryCount:      c.HistoryCount,
		MaxFailures:       c.MaxFailures,
		LockoutDuration:   c.LockoutDuration,
		FailureWindow:     c.FailureWindow,
		GraceLogins:       c.GraceLogins,
		MustChangeOnReset: c.MustChangeOnReset,
	}
}

package directory

import (
	"fmt"

	"github.com/oba-directory/obad/internal/auth"
	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/store"
)

// bootstrap seeds the partition suffix and an initial admin principal the
// first time a Service opens an empty store. A store already holding the
// suffix entry is left untouched.
func (s *Service) bootstrap() error {
	baseDN, err := dn.Parse(s.Config.Directory.BaseDN)
	if err != nil {
		return err
	}
	if _, err := s.Store.Lookup(baseDN); err == nil {
		return nil // already seeded
	}

	leaf := baseDN.RDN()
	if len(leaf.ATVs) == 0 {
		return fmt.Errorf("baseDN %q has no RDN to seed a suffix entry from", s.Config.Directory.BaseDN)
	}
	atv := leaf.ATVs[0]

	suffixAttrs, err := s.attrMap(map[string][]string{
		"objectClass": {"top", "domain"},
		atv.Type:      {atv.Value},
	})
	if err != nil {
		return fmt.Errorf("suffix entry: %w", err)
	}
	if _, err := s.Store.Add(baseDN, suffixAttrs, ""); err != nil {
		return fmt.Errorf("add suffix entry: %w", err)
	}

	if s.Config.Directory.RootDN == "" {
		return nil
	}
	rootDN, err := dn.Parse(s.Config.Directory.RootDN)
	if err != nil {
		return fmt.Errorf("parse rootDN: %w", err)
	}
	if _, err := s.Store.Lookup(rootDN); err == nil {
		return nil
	}
	adminLeaf := rootDN.RDN()
	if len(adminLeaf.ATVs) == 0 {
		return fmt.Errorf("rootDN %q has no RDN to seed an admin entry from", s.Config.Directory.RootDN)
	}
	adminATV := adminLeaf.ATVs[0]

	hashed, err := auth.HashPassword(auth.SchemeSSHA256, s.Config.Directory.RootPassword)
	if err != nil {
		return fmt.Errorf("hash root password: %w", err)
	}
	adminAttrs, err := s.attrMap(map[string][]string{
		"objectClass": {"top", "person", "organizationalPerson", "inetOrgPerson"},
		adminATV.Type: {adminATV.Value},
		"cn":          {adminATV.Value}, // person requires cn regardless of the RDN attribute
		"sn":          {adminATV.Value}, // person requires sn; no surname concept for a service principal
	})
	if err != nil {
		return fmt.Errorf("admin entry: %w", err)
	}
	adminAttrs[auth.AttrUserPassword] = &store.Attribute{
		OID: auth.AttrUserPassword, UserName: "userPassword", Values: [][]byte{hashed},
	}
	if _, err := s.Store.Add(rootDN, adminAttrs, ""); err != nil {
		return fmt.Errorf("add admin entry: %w", err)
	}
	return nil
}

// attrMap resolves each user-supplied attribute name against the schema
// registry and builds the OID-keyed map store.Add expects.
func (s *Service) attrMap(byName map[string][]string) (map[string]*store.Attribute, error) {
	out := make(map[string]*store.Attribute, len(byName))
	for name, values := range byName {
		at, err := s.Registry.LookupAttributeType(name)
		if err != nil {
			return nil, fmt.Errorf("lookup attribute %q: %w", name, err)
		}
		raw := make([][]byte, len(values))
		for i, v := range values {
			raw[i] = []byte(v)
		}
		if existing, ok := out[at.OID]; ok {
			existing.Values = append(existing.Values, raw...)
			continue
		}
		out[at.OID] = &store.Attribute{OID: at.OID, UserName: name, Values: raw, SingleValue: at.SingleValue}
	}
	return out, nil
}

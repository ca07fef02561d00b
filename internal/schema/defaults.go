package schema

// Well-known syntax OIDs (RFC 4517), kept as constants so other packages
// (matching, store) can refer to them without a registry round-trip.
const (
	SyntaxDirectoryString = "1.3.6.1.4.1.1466.115.121.1.15"
	SyntaxIA5String       = "1.3.6.1.4.1.1466.115.121.1.26"
	SyntaxBoolean         = "1.3.6.1.4.1.1466.115.121.1.7"
	SyntaxInteger         = "1.3.6.1.4.1.1466.115.121.1.27"
	SyntaxOID             = "1.3.6.1.4.1.1466.115.121.1.38"
	SyntaxDN              = "1.3.6.1.4.1.1466.115.121.1.12"
	SyntaxGeneralizedTime = "1.3.6.1.4.1.1466.115.121.1.24"
	SyntaxOctetString     = "1.3.6.1.4.1.1466.115.121.1.40"
)

// Well-known matching rule OIDs (RFC 4517 §4.2).
const (
	MatchCaseIgnoreMatch        = "2.5.13.2"
	MatchCaseIgnoreOrderingMatch = "2.5.13.3"
	MatchCaseIgnoreSubstrMatch  = "2.5.13.4"
	MatchDistinguishedNameMatch = "2.5.13.1"
	MatchIntegerMatch           = "2.5.13.14"
	MatchBooleanMatch           = "2.5.13.13"
	MatchOctetStringMatch       = "2.5.13.17"
	MatchGeneralizedTimeMatch   = "2.5.13.27"
	MatchNumericStringMatch     = "2.5.13.8"
)

// Attribute type OIDs the store and interceptor packages need to refer to
// by identity rather than by name lookup.
const (
	AttrObjectClass        = "2.5.4.0"
	AttrAliasedObjectName  = "2.5.6.1.1"
	AttrEntryUUID          = "1.3.6.1.1.16.4"
	AttrCreatorsName       = "2.5.18.3"
	AttrCreateTimestamp    = "2.5.18.1"
	AttrModifiersName      = "2.5.18.4"
	AttrModifyTimestamp    = "2.5.18.2"
	AttrStructuralOC       = "2.5.21.9"
	AttrSubtreeSpec        = "2.5.18.6"
	AttrACI                = "1.3.6.1.4.1.42.2.27.8.1.14"
	AttrMember             = "2.5.4.31"
)

// LoadDefaults registers the minimal RFC 4519/4512/2256-derived core
// schema needed by the rest of the package: the attribute types the data
// model references (the password-policy state attributes among them),
// the structural/auxiliary classes for aliasing and subentries, and their
// supporting syntaxes/matching rules. No password-policy object class is
// registered.
func LoadDefaults(r *Registry) error {
	syntaxes := []*Syntax{
		{OID: SyntaxDirectoryString, HumanReadable: true},
		{OID: SyntaxIA5String, HumanReadable: true},
		{OID: SyntaxBoolean, HumanReadable: true},
		{OID: SyntaxInteger, HumanReadable: true},
		{OID: SyntaxOID, HumanReadable: true},
		{OID: SyntaxDN, HumanReadable: true},
		{OID: SyntaxGeneralizedTime, HumanReadable: true},
		{OID: SyntaxOctetString, HumanReadable: false},
	}
	for _, s := range syntaxes {
		if err := r.RegisterSyntax(s); err != nil {
			return err
		}
	}

	rules := []*MatchingRule{
		{OID: MatchCaseIgnoreMatch, Names: []string{"caseIgnoreMatch"}, Syntax: SyntaxDirectoryString},
		{OID: MatchCaseIgnoreOrderingMatch, Names: []string{"caseIgnoreOrderingMatch"}, Syntax: SyntaxDirectoryString},
		{OID: MatchCaseIgnoreSubstrMatch, Names: []string{"caseIgnoreSubstringsMatch"}, Syntax: SyntaxDirectoryString},
		{OID: MatchDistinguishedNameMatch, Names: []string{"distinguishedNameMatch"}, Syntax: SyntaxDN},
		{OID: MatchIntegerMatch, Names: []string{"integerMatch"}, Syntax: SyntaxInteger},
		{OID: MatchBooleanMatch, Names: []string{"booleanMatch"}, Syntax: SyntaxBoolean},
		{OID: MatchOctetStringMatch, Names: []string{"octetStringMatch"}, Syntax: SyntaxOctetString},
		{OID: MatchGeneralizedTimeMatch, Names: []string{"generalizedTimeMatch"}, Syntax: SyntaxGeneralizedTime},
		{OID: MatchNumericStringMatch, Names: []string{"numericStringMatch"}, Syntax: SyntaxIA5String},
	}
	for _, m := range rules {
		if err := r.RegisterMatchingRule(m); err != nil {
			return err
		}
	}

	type attrSpec struct {
		oid, name, syntax, equality, substr string
		single, operational, noUserMod      bool
		collective                          bool
		usage                               AttributeUsage
	}
	attrs := []attrSpec{
		{oid: "2.5.4.0", name: "objectClass", syntax: SyntaxOID, equality: MatchCaseIgnoreMatch},
		{oid: "2.5.4.3", name: "cn", syntax: SyntaxDirectoryString, equality: MatchCaseIgnoreMatch, substr: MatchCaseIgnoreSubstrMatch},
		{oid: "2.5.4.4", name: "sn", syntax: SyntaxDirectoryString, equality: MatchCaseIgnoreMatch, substr: MatchCaseIgnoreSubstrMatch},
		{oid: "0.9.2342.19200300.100.1.1", name: "uid", syntax: SyntaxDirectoryString, equality: MatchCaseIgnoreMatch},
		{oid: "2.5.4.35", name: "userPassword", syntax: SyntaxOctetString, equality: MatchOctetStringMatch},
		{oid: "0.9.2342.19200300.100.1.25", name: "dc", syntax: SyntaxIA5String, equality: MatchCaseIgnoreMatch, single: true},
		{oid: "2.5.4.11", name: "ou", syntax: SyntaxDirectoryString, equality: MatchCaseIgnoreMatch, substr: MatchCaseIgnoreSubstrMatch},
		{oid: "2.5.4.10", name: "o", syntax: SyntaxDirectoryString, equality: MatchCaseIgnoreMatch},
		{oid: "2.5.4.7", name: "l", syntax: SyntaxDirectoryString, equality: MatchCaseIgnoreMatch},
		{oid: "2.5.6.1.1", name: "aliasedObjectName", syntax: SyntaxDN, equality: MatchDistinguishedNameMatch, single: true},
		{oid: "2.16.840.1.113730.3.1.34", name: "ref", syntax: SyntaxIA5String},
		{oid: "2.5.18.6", name: "subtreeSpecification", syntax: SyntaxDirectoryString, single: true, operational: true, usage: DirectoryOperation},
		{oid: "2.5.18.3", name: "creatorsName", syntax: SyntaxDN, equality: MatchDistinguishedNameMatch, single: true, operational: true, noUserMod: true, usage: DirectoryOperation},
		{oid: "2.5.18.1", name: "createTimestamp", syntax: SyntaxGeneralizedTime, single: true, operational: true, noUserMod: true, usage: DirectoryOperation},
		{oid: "2.5.18.4", name: "modifiersName", syntax: SyntaxDN, equality: MatchDistinguishedNameMatch, single: true, operational: true, noUserMod: true, usage: DirectoryOperation},
		{oid: "2.5.18.2", name: "modifyTimestamp", syntax: SyntaxGeneralizedTime, single: true, operational: true, noUserMod: true, usage: DirectoryOperation},
		{oid: "1.3.6.1.1.16.4", name: "entryUUID", syntax: SyntaxDirectoryString, equality: MatchCaseIgnoreMatch, single: true, operational: true, noUserMod: true, usage: DirectoryOperation},
		{oid: "1.3.6.1.4.1.4203.666.1.7", name: "entryCSN", syntax: SyntaxDirectoryString, single: true, operational: true, noUserMod: true, usage: DirectoryOperation},
		{oid: "2.5.21.9", name: "structuralObjectClass", syntax: SyntaxOID, single: true, operational: true, noUserMod: true, usage: DirectoryOperation},
		{oid: "2.5.4.52", name: "pwdChangedTime", syntax: SyntaxGeneralizedTime, single: true, operational: true, usage: DirectoryOperation},
		{oid: "1.3.6.1.4.1.42.2.27.8.1.16", name: "pwdHistory", syntax: SyntaxOctetString, usage: DirectoryOperation},
		{oid: "1.3.6.1.4.1.42.2.27.8.1.19", name: "pwdFailureTime", syntax: SyntaxGeneralizedTime, usage: DirectoryOperation},
		{oid: "1.3.6.1.4.1.42.2.27.8.1.17", name: "pwdAccountLockedTime", syntax: SyntaxGeneralizedTime, single: true, usage: DirectoryOperation},
		{oid: "1.3.6.1.4.1.42.2.27.8.1.26", name: "pwdLastSuccess", syntax: SyntaxGeneralizedTime, single: true, usage: DirectoryOperation},
		{oid: "1.3.6.1.4.1.42.2.27.8.1.21", name: "pwdGraceUseTime", syntax: SyntaxGeneralizedTime, usage: DirectoryOperation},
		{oid: "1.3.6.1.4.1.42.2.27.8.1.20", name: "pwdReset", syntax: SyntaxBoolean, equality: MatchBooleanMatch, single: true, usage: DirectoryOperation},
		{oid: "2.5.4.51", name: "collectiveAttributes", syntax: SyntaxDirectoryString, usage: DirectoryOperation},
		{oid: "2.5.4.7.1", name: "c-l", syntax: SyntaxDirectoryString, equality: MatchCaseIgnoreMatch, collective: true},
		{oid: "2.5.4.10.1", name: "c-o", syntax: SyntaxDirectoryString, equality: MatchCaseIgnoreMatch, collective: true},
		{oid: "2.5.4.11.1", name: "c-ou", syntax: SyntaxDirectoryString, equality: MatchCaseIgnoreMatch, collective: true},
		{oid: "1.3.6.1.4.1.42.2.27.8.1.14", name: "aci", syntax: SyntaxDirectoryString, usage: DirectoryOperation},
		{oid: "2.5.4.31", name: "member", syntax: SyntaxDN, equality: MatchDistinguishedNameMatch},
		{oid: "2.5.4.13", name: "description", syntax: SyntaxDirectoryString, equality: MatchCaseIgnoreMatch},
	}
	for _, a := range attrs {
		if err := r.RegisterAttributeType(&AttributeType{
			OID: a.oid, Names: []string{a.name}, Syntax: a.syntax,
			Equality: a.equality, Substr: a.substr,
			SingleValue: a.single, NoUserMod: a.noUserMod, Usage: a.usage, Collective: a.collective,
		}); err != nil {
			return err
		}
	}

	classes := []*ObjectClass{
		{OID: "2.5.6.0", Names: []string{"top"}, Kind: KindAbstract, Must: []string{"objectClass"}},
		{OID: "2.5.6.6", Names: []string{"person"}, Kind: KindStructural, Superiors: []string{"top"}, Must: []string{"cn", "sn"}, May: []string{"userPassword", "description"}},
		{OID: "2.5.6.7", Names: []string{"organizationalPerson"}, Kind: KindStructural, Superiors: []string{"person"}, May: []string{"ou", "l"}},
		{OID: "2.16.840.1.113730.3.2.2", Names: []string{"inetOrgPerson"}, Kind: KindStructural, Superiors: []string{"organizationalPerson"}, May: []string{"uid"}},
		{OID: "1.3.6.1.4.1.1466.344", Names: []string{"dcObject"}, Kind: KindAuxiliary, Must: []string{"dc"}},
		{OID: "2.5.6.5", Names: []string{"organizationalUnit"}, Kind: KindStructural, Superiors: []string{"top"}, Must: []string{"ou"}},
		{OID: "2.5.6.4", Names: []string{"organization"}, Kind: KindStructural, Superiors: []string{"top"}, Must: []string{"o"}},
		{OID: "1.3.6.1.4.1.1466.101.120.111", Names: []string{"domain"}, Kind: KindStructural, Superiors: []string{"top"}, Must: []string{"dc"}},
		{OID: "2.5.6.1", Names: []string{"alias"}, Kind: KindStructural, Superiors: []string{"top"}, Must: []string{"aliasedObjectName"}},
		{OID: "2.16.840.1.113730.3.2.6", Names: []string{"referral"}, Kind: KindStructural, Superiors: []string{"top"}, Must: []string{"ref"}},
		{OID: "2.5.17.0", Names: []string{"subentry"}, Kind: KindStructural, Superiors: []string{"top"}, Must: []string{"cn", "subtreeSpecification"}},
		{OID: "2.5.17.2", Names: []string{"collectiveAttributeSubentry"}, Kind: KindAuxiliary},
		{OID: "2.5.6.9", Names: []string{"groupOfNames"}, Kind: KindStructural, Superiors: []string{"top"}, Must: []string{"cn", "member"}},
	}
	for _, c := range classes {
		if err := r.RegisterObjectClass(c); err != nil {
			return err
		}
	}
	return nil
}

// Package obaerr implements the directory's single error taxonomy.
//
// Every interceptor and storage operation returns an *Error instead of a
// bare sentinel; the Exception interceptor wraps any other error that
// reaches it into an *Error. ResultCode maps an error's Kind to its LDAP
// result code; no code in this module calls it, so the chain hands back
// *Error values, not result codes, and lower layers never synthesize a
// result code themselves.
package obaerr

import (
	"errors"
	"fmt"
)

// Kind identifies a failure category, each mapped to an LDAP result code.
type Kind int

const (
	KindUnknown Kind = iota
	KindNoSuchEntry
	KindAlreadyExists
	KindNoSuchAttribute
	KindAttributeOrValueExists
	KindInvalidAttributeSyntax
	KindUndefinedAttributeType
	KindObjectClassViolation
	KindNotAllowedOnRDN
	KindNotAllowedOnNonLeaf
	KindInvalidDNSyntax
	KindAliasProblem
	KindAliasDereferencingProblem
	KindInsufficientAccessRights
	KindInvalidCredentials
	KindBusy
	KindUnwillingToPerform
	KindConstraintViolation
	KindSizeLimitExceeded
	KindTimeLimitExceeded
	KindLoopDetect
	KindUnavailableCriticalExtension
)

// resultCode is the LDAP result code (RFC 4511 §4.1.9) for each Kind.
var resultCode = map[Kind]int{
	KindNoSuchEntry:                  32,
	KindAlreadyExists:                68,
	KindNoSuchAttribute:              16,
	KindAttributeOrValueExists:       20,
	KindInvalidAttributeSyntax:       21,
	KindUndefinedAttributeType:       17,
	KindObjectClassViolation:         65,
	KindNotAllowedOnRDN:              67,
	KindNotAllowedOnNonLeaf:          66,
	KindInvalidDNSyntax:              34,
	KindAliasProblem:                 33,
	KindAliasDereferencingProblem:    36,
	KindInsufficientAccessRights:     50,
	KindInvalidCredentials:           49,
	KindBusy:                         51,
	KindUnwillingToPerform:           53,
	KindConstraintViolation:          19,
	KindSizeLimitExceeded:            4,
	KindTimeLimitExceeded:            3,
	KindLoopDetect:                   54,
	KindUnavailableCriticalExtension: 12,
}

var kindName = map[Kind]string{
	KindNoSuchEntry:                  "NoSuchEntry",
	KindAlreadyExists:                "AlreadyExists",
	KindNoSuchAttribute:              "NoSuchAttribute",
	KindAttributeOrValueExists:       "AttributeOrValueExists",
	KindInvalidAttributeSyntax:       "InvalidAttributeSyntax",
	KindUndefinedAttributeType:       "UndefinedAttributeType",
	KindObjectClassViolation:         "ObjectClassViolation",
	KindNotAllowedOnRDN:              "NotAllowedOnRDN",
	KindNotAllowedOnNonLeaf:          "NotAllowedOnNonLeaf",
	KindInvalidDNSyntax:              "InvalidDNSyntax",
	KindAliasProblem:                 "AliasProblem",
	KindAliasDereferencingProblem:    "AliasDereferencingProblem",
	KindInsufficientAccessRights:     "InsufficientAccessRights",
	KindInvalidCredentials:           "InvalidCredentials",
	KindBusy:                         "Busy",
	KindUnwillingToPerform:           "UnwillingToPerform",
	KindConstraintViolation:          "ConstraintViolation",
	KindSizeLimitExceeded:            "SizeLimitExceeded",
	KindTimeLimitExceeded:            "TimeLimitExceeded",
	KindLoopDetect:                   "LoopDetect",
	KindUnavailableCriticalExtension: "UnavailableCriticalExtension",
}

// Error is the directory-wide error type. It carries a Kind (for
// programmatic matching via Is), an optional policy code for password
// policy responses, and a wrapped cause.
type Error struct {
	Kind       Kind
	Op         string // operation the error occurred in, e.g. "store.Add"
	DN         string // DN involved, if any
	PolicyCode string // e.g. "OBJECT_CLASS_MODS_PROHIBITED", optional
	Err        error  // wrapped cause, optional
}

func New(kind Kind, op, dn string) *Error {
	return &Error{Kind: kind, Op: op, DN: dn}
}

func Wrap(kind Kind, op, dn string, err error) *Error {
	return &Error{Kind: kind, Op: op, DN: dn, Err: err}
}

func (e *Error) Error() string {
	name := kindName[e.Kind]
	if name == "" {
		name = "Unknown"
	}
	if e.DN != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s (dn=%q): %v", e.Op, name, e.DN, e.Err)
		}
		return fmt.Sprintf("%s: %s (dn=%q)", e.Op, name, e.DN)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, name, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, name)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, obaerr.New(obaerr.KindNoSuchEntry, "", "")).
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

// ResultCode returns the RFC 4511 result code for err, or the generic
// "operationsError" code (1) if err is not an *Error.
func ResultCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		if code, ok := resultCode[e.Kind]; ok {
			return code
		}
	}
	return 1
}

// KindOf extracts the Kind from err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

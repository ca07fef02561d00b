// Package auth implements bind authentication and the password-policy
// state machine, operating over an entry's userPassword and pwd*
// operational attributes rather than a free-standing in-memory manager.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Scheme names the supported userPassword storage schemes, RFC 2307-style
// `{SCHEME}digest` prefixes.
type Scheme string

const (
	SchemeSSHA256 Scheme = "SSHA256"
	SchemeSSHA512 Scheme = "SSHA512"
	SchemeBcrypt  Scheme = "BCRYPT"
)

const saltLen = 16

// HashPassword encodes plaintext under scheme, producing the exact byte
// string to store in userPassword. {BCRYPT} uses golang.org/x/crypto/bcrypt;
// {SSHA256}/{SSHA512} are salted digests with the salt appended after the hash.
func HashPassword(scheme Scheme, plaintext string) ([]byte, error) {
	switch scheme {
	case SchemeSSHA256:
		return saltedHash(sha256.New, "{SSHA256}", plaintext)
	case SchemeSSHA512:
		return saltedHash(sha512.New, "{SSHA512}", plaintext)
	case SchemeBcrypt:
		h, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("auth: bcrypt hash: %w", err)
		}
		return append([]byte("{BCRYPT}"), h...), nil
	default:
		return nil, fmt.Errorf("auth: unknown password scheme %q", scheme)
	}
}

func saltedHash(newHash func() hash.Hash, prefix string, plaintext string) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("auth: salt: %w", err)
	}
	h := newHash()
	h.Write([]byte(plaintext))
	h.Write(salt)
	digest := h.Sum(nil)
	encoded := base64.StdEncoding.EncodeToString(append(digest, salt...))
	return []byte(prefix + encoded), nil
}

// VerifyPassword reports whether plaintext matches stored, a userPassword
// value that may or may not carry a {SCHEME} prefix (an unprefixed value
// is treated as clear text, matching RFC 4517's userPassword syntax).
func VerifyPassword(stored []byte, plaintext string) (bool, error) {
	s := string(stored)
	switch {
	case strings.HasPrefix(s, "{SSHA256}"):
		return verifySaltedHash(sha256.New, s[len("{SSHA256}"):], plaintext)
	case strings.HasPrefix(s, "{SSHA512}"):
		return verifySaltedHash(sha512.New, s[len("{SSHA512}"):], plaintext)
	case strings.HasPrefix(s, "{BCRYPT}"):
		err := bcrypt.CompareHashAndPassword([]byte(s[len("{BCRYPT}"):]), []byte(plaintext))
		return err == nil, nil
	default:
		return subtle.ConstantTimeCompare(stored, []byte(plaintext)) == 1, nil
	}
}

func verifySaltedHash(newHash func() hash.Hash, encoded string, plaintext string) (bool, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return false, fmt.Errorf("auth: decode salted hash: %w", err)
	}
	size := newHash().Sum(nil)
	digestLen := len(size)
	if len(raw) < digestLen {
		return false, fmt.Errorf("auth: truncated salted hash")
	}
	digest, salt := raw[:digestLen], raw[digestLen:]
	h := newHash()
	h.Write([]byte(plaintext))
	h.Write(salt)
	candidate := h.Sum(nil)
	return subtle.ConstantTimeCompare(digest, candidate) == 1, nil
}

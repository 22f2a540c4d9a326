// Package credential hashes and verifies passwords. Stored values are one of three encodings:
// bcrypt (what Hash produces), argon2id (imported records) and legacy plaintext (pre-migration rows).
package credential

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

type Encoding string

const (
	EncodingBcrypt          Encoding = "bcrypt"
	EncodingArgon2id        Encoding = "argon2id"
	EncodingLegacyPlaintext Encoding = "legacy_plaintext"
)

var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// DetectEncoding classifies a stored credential. Anything that is not a recognised hash is legacy plaintext.
func DetectEncoding(stored string) Encoding {
	for _, prefix := range bcryptPrefixes {
		if strings.HasPrefix(stored, prefix) {
			return EncodingBcrypt
		}
	}
	if strings.HasPrefix(stored, "$argon2id$") {
		return EncodingArgon2id
	}
	return EncodingLegacyPlaintext
}

// Result of checking a plaintext against a stored credential.
type Result struct {
	Match    bool
	Encoding Encoding
	// NeedsUpgrade is set on a match whose stored form should be replaced with a fresh bcrypt hash.
	NeedsUpgrade bool
}

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
}

func verifyArgon2id(plaintext, encoded string) bool {
	salt, key, params, err := parseArgon2id(encoded)
	if err != nil {
		return false
	}
	candidate := argon2.IDKey([]byte(plaintext), salt, params.time, params.memory, params.threads, uint32(len(key))) //nolint:gosec // key length is small
	return subtle.ConstantTimeCompare(key, candidate) == 1
}

// parseArgon2id reads $argon2id$v=19$m=65536,t=3,p=1$<salt>$<key>.
func parseArgon2id(encoded string) ([]byte, []byte, argonParams, error) {
	var params argonParams

	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[1] != "argon2id" {
		return nil, nil, params, errors.New("not an argon2id hash")
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil {
		return nil, nil, params, fmt.Errorf("argon2id version: %w", err)
	}
	if version != argon2.Version {
		return nil, nil, params, fmt.Errorf("unsupported argon2 version %d", version)
	}
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &params.memory, &params.time, &params.threads); err != nil {
		return nil, nil, params, fmt.Errorf("argon2id parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(fields[4])
	if err != nil {
		return nil, nil, params, fmt.Errorf("argon2id salt: %w", err)
	}
	key, err := base64.RawStdEncoding.DecodeString(fields[5])
	if err != nil || len(key) == 0 {
		return nil, nil, params, errors.New("argon2id key")
	}
	return salt, key, params, nil
}

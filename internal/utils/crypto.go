// internal/utils/crypto.go
package utils

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

const (
	legacyPBKDF2Iterations = 600000
	legacyScryptN          = 1 << 15
	legacyScryptR          = 8
	legacyScryptP          = 1
	legacyScryptKeyLen     = 64
)

// HashPassword returns a salted bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPasswordHash verifies password against a stored hash. Besides bcrypt it
// understands the "method$salt$hex" layout used by the accounts imported from
// the legacy users file:
//
//	pbkdf2:<hash>:<iterations>$salt$hex
//	scrypt:<n>:<r>:<p>$salt$hex
func CheckPasswordHash(stored, password string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}

	parts := strings.SplitN(stored, "$", 3)
	if len(parts) != 3 {
		return false
	}
	method, salt, want := parts[0], parts[1], parts[2]

	got, ok := legacyDigest(method, salt, password)
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func legacyDigest(method, salt, password string) (string, bool) {
	args := strings.Split(method, ":")

	switch args[0] {
	case "pbkdf2":
		hashName := "sha256"
		iterations := legacyPBKDF2Iterations
		if len(args) > 1 {
			hashName = args[1]
		}
		if len(args) > 2 {
			n, err := strconv.Atoi(args[2])
			if err != nil || n <= 0 {
				return "", false
			}
			iterations = n
		}

		newHash, size := hashByName(hashName)
		if newHash == nil {
			return "", false
		}
		key := pbkdf2.Key([]byte(password), []byte(salt), iterations, size, newHash)
		return hex.EncodeToString(key), true

	case "scrypt":
		n, r, p := legacyScryptN, legacyScryptR, legacyScryptP
		if len(args) == 4 {
			var err error
			if n, err = strconv.Atoi(args[1]); err != nil {
				return "", false
			}
			if r, err = strconv.Atoi(args[2]); err != nil {
				return "", false
			}
			if p, err = strconv.Atoi(args[3]); err != nil {
				return "", false
			}
		} else if len(args) != 1 {
			return "", false
		}

		key, err := scrypt.Key([]byte(password), []byte(salt), n, r, p, legacyScryptKeyLen)
		if err != nil {
			return "", false
		}
		return hex.EncodeToString(key), true
	}

	return "", false
}

func hashByName(name string) (func() hash.Hash, int) {
	switch name {
	case "sha1":
		return sha1.New, sha1.Size
	case "sha256":
		return sha256.New, sha256.Size
	case "sha512":
		return sha512.New, sha512.Size
	}
	return nil, 0
}

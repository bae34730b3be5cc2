package account

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

const defaultPBKDF2Iterations = 600000

// HashPassword hashes new passwords with bcrypt.
func HashPassword(pwd string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// IsHashed reports whether `stored` looks like a password hash rather than a plaintext password.
func IsHashed(stored string) bool {
	return strings.HasPrefix(stored, "$2") ||
		strings.HasPrefix(stored, "pbkdf2:") ||
		strings.HasPrefix(stored, "scrypt:") ||
		strings.HasPrefix(stored, "bcrypt")
}

// CheckPassword verifies `pwd` against `stored`: bcrypt hashes, the werkzeug pbkdf2/scrypt hashes
// the sheets were first filled with, and (when allowPlain) legacy plaintext passwords.
func CheckPassword(stored, pwd string, allowPlain bool) bool {
	if stored == "" {
		return false
	}
	switch {
	case strings.HasPrefix(stored, "$2"):
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(pwd)) == nil
	case strings.HasPrefix(stored, "pbkdf2:"), strings.HasPrefix(stored, "scrypt:"):
		return checkWerkzeugHash(stored, pwd)
	case IsHashed(stored):
		return false
	case allowPlain:
		return subtle.ConstantTimeCompare([]byte(stored), []byte(pwd)) == 1
	}
	return false
}

// checkWerkzeugHash verifies "method$salt$hexdigest" hashes.
func checkWerkzeugHash(stored, pwd string) bool {
	parts := strings.SplitN(stored, "$", 3)
	if len(parts) != 3 {
		return false
	}
	method, salt, want := parts[0], parts[1], parts[2]
	args := strings.Split(method, ":")

	var got []byte
	switch args[0] {
	case "pbkdf2":
		var hf func() hash.Hash
		hashName := "sha256"
		if len(args) > 1 {
			hashName = args[1]
		}
		switch hashName {
		case "sha256":
			hf = sha256.New
		case "sha512":
			hf = sha512.New
		case "sha1":
			hf = sha1.New
		default:
			return false
		}
		iter := defaultPBKDF2Iterations
		if len(args) > 2 {
			n, err := strconv.Atoi(args[2])
			if err != nil {
				return false
			}
			iter = n
		}
		got = pbkdf2.Key([]byte(pwd), []byte(salt), iter, hf().Size(), hf)
	case "scrypt":
		n, r, p := 32768, 8, 1
		if len(args) == 4 {
			var err error
			if n, err = strconv.Atoi(args[1]); err != nil {
				return false
			}
			if r, err = strconv.Atoi(args[2]); err != nil {
				return false
			}
			if p, err = strconv.Atoi(args[3]); err != nil {
				return false
			}
		}
		key, err := scrypt.Key([]byte(pwd), []byte(salt), n, r, p, 64)
		if err != nil {
			return false
		}
		got = key
	default:
		return false
	}
	return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(got)), []byte(want)) == 1
}

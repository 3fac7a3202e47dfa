// Package cryptox derives and checks password verifiers with argon2id.
package cryptox

import (
	"crypto/subtle"

	"github.com/dmitrijs2005/bankledger/internal/common"
	"golang.org/x/crypto/argon2"
)

// SaltSize is the length of a freshly generated salt, in bytes.
const SaltSize = 16

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// DeriveKey stretches password with salt using argon2id.
func DeriveKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// HashPassword returns a random salt and the verifier derived from it.
func HashPassword(password string) (salt, verifier []byte) {
	salt = common.GenerateRandByteArray(SaltSize)
	verifier = DeriveKey([]byte(password), salt)
	return salt, verifier
}

// VerifyPassword reports whether password matches the stored salt/verifier
// pair. The comparison runs in constant time.
func VerifyPassword(password string, salt, verifier []byte) bool {
	candidate := DeriveKey([]byte(password), salt)
	defer common.WipeByteArray(candidate)
	return subtle.ConstantTimeCompare(verifier, candidate) == 1
}

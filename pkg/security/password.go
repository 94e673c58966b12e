package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/clinica-salud/pacientes-api/pkg/config"
	"golang.org/x/crypto/argon2"
)

// ErrInvalidHash signals a stored credential that is not a PHC-encoded
// Argon2id hash.
var ErrInvalidHash = errors.New("invalid argon2id hash")

var b64 = base64.RawStdEncoding

// argonHash is one stored credential:
//
//	$argon2id$v=19$m=<KiB>,t=<passes>,p=<lanes>$<salt>$<key>
type argonHash struct {
	memory  uint32
	passes  uint32
	lanes   uint8
	salt    []byte
	key     []byte
	saltLen uint32
	keyLen  uint32
}

// costFromConfig clamps the configured cost so a bad env value can neither
// disable hashing nor exhaust memory.
func costFromConfig(cfg config.PasswordConfig) argonHash {
	return argonHash{
		memory:  uint32(clamp(cfg.ArgonMemoryKB, 8, 512*1024)),
		passes:  uint32(clamp(cfg.ArgonTime, 1, 10)),
		lanes:   uint8(clamp(cfg.ArgonParallelism, 1, 255)),
		saltLen: uint32(clamp(cfg.ArgonSaltLen, 8, 64)),
		keyLen:  uint32(clamp(cfg.ArgonKeyLen, 16, 64)),
	}
}

func (h argonHash) derive(password string) []byte {
	return argon2.IDKey([]byte(password), h.salt, h.passes, h.memory, h.lanes, h.keyLen)
}

func (h argonHash) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.memory, h.passes, h.lanes, b64.EncodeToString(h.salt), b64.EncodeToString(h.key))
}

func (h argonHash) sameCost(o argonHash) bool {
	return h.memory == o.memory && h.passes == o.passes && h.lanes == o.lanes &&
		h.saltLen == o.saltLen && h.keyLen == o.keyLen
}

func parseArgonHash(encoded string) (argonHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return argonHash{}, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return argonHash{}, ErrInvalidHash
	}

	var h argonHash
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.memory, &h.passes, &h.lanes); err != nil {
		return argonHash{}, ErrInvalidHash
	}
	if h.memory == 0 || h.passes == 0 || h.lanes == 0 {
		return argonHash{}, ErrInvalidHash
	}

	var err error
	if h.salt, err = b64.DecodeString(parts[4]); err != nil || len(h.salt) == 0 {
		return argonHash{}, ErrInvalidHash
	}
	if h.key, err = b64.DecodeString(parts[5]); err != nil || len(h.key) == 0 {
		return argonHash{}, ErrInvalidHash
	}
	h.saltLen = uint32(len(h.salt))
	h.keyLen = uint32(len(h.key))
	return h, nil
}

// HashPassword derives an Argon2id credential with a fresh random salt. Two
// hashes of the same password differ; VerifyPassword against a stored hash is
// deterministic.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}

	h := costFromConfig(cfg)
	h.salt = make([]byte, h.saltLen)
	if _, err := rand.Read(h.salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	h.key = h.derive(password)
	return h.String(), nil
}

// VerifyPassword reports whether password matches the stored credential. A
// malformed credential is an error, a wrong password is not.
func VerifyPassword(password, encoded string) (bool, error) {
	h, err := parseArgonHash(encoded)
	if err != nil {
		return false, err
	}
	if password == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare(h.key, h.derive(password)) == 1, nil
}

// NeedsRehash reports whether encoded was produced with a cost other than the
// configured one, so a successful login can upgrade it.
func NeedsRehash(encoded string, cfg config.PasswordConfig) bool {
	h, err := parseArgonHash(encoded)
	if err != nil {
		return true
	}
	return !h.sameCost(costFromConfig(cfg))
}

func clamp(value, lo, hi int) int {
	return min(max(value, lo), hi)
}

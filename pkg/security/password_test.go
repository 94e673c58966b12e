package security_test

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/clinica-salud/pacientes-api/pkg/config"
	"github.com/clinica-salud/pacientes-api/pkg/security"
)

var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    32768,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := security.HashPassword("clave-segura", testPasswordConfig)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "" {
		t.Fatal("HashPassword returned empty string")
	}

	ok, err := security.VerifyPassword("clave-segura", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("VerifyPassword failed for the correct password")
	}

	ok, err = security.VerifyPassword("otra-clave", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for invalid password: %v", err)
	}
	if ok {
		t.Fatal("VerifyPassword returned true for incorrect password")
	}
}

func TestVerifyPasswordIsRepeatable(t *testing.T) {
	hash, err := security.HashPassword("repetible", testPasswordConfig)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	for i := 0; i < 3; i++ {
		ok, err := security.VerifyPassword("repetible", hash)
		if err != nil || !ok {
			t.Fatalf("attempt %d: expected match, got ok=%v err=%v", i, ok, err)
		}
	}

	other, err := security.HashPassword("repetible", testPasswordConfig)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if other == hash {
		t.Fatal("expected per-hash salt to produce distinct encodings")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	if _, err := security.VerifyPassword("irrelevant", "not-a-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
	if _, err := security.HashPassword("", testPasswordConfig); err == nil {
		t.Fatal("expected empty password to be rejected")
	}
}

func TestNeedsRehash(t *testing.T) {
	hash, err := security.HashPassword("rotar", testPasswordConfig)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if security.NeedsRehash(hash, testPasswordConfig) {
		t.Fatal("hash with current params should not need rehash")
	}
	stronger := testPasswordConfig
	stronger.ArgonTime = 2
	if !security.NeedsRehash(hash, stronger) {
		t.Fatal("changed time cost should require rehash")
	}
	if !security.NeedsRehash("garbage", testPasswordConfig) {
		t.Fatal("malformed hash should require rehash")
	}
}

func TestGenerateVerificationCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := security.GenerateVerificationCode()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("expected numeric code, got %q", code)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("code %d out of range", n)
		}
	}
}

func TestCodesMatch(t *testing.T) {
	stored := "123456"
	if !security.CodesMatch(&stored, "123456") {
		t.Fatal("expected match")
	}
	if security.CodesMatch(&stored, "654321") {
		t.Fatal("unexpected match")
	}
	if security.CodesMatch(nil, "123456") {
		t.Fatal("nil stored code must never match")
	}
	empty := ""
	if security.CodesMatch(&empty, "") {
		t.Fatal("empty codes must never match")
	}
}

func TestVerifyPasswordRejectsForeignEncodings(t *testing.T) {
	hash, err := security.HashPassword("clave", testPasswordConfig)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	tampered := []string{
		strings.Replace(hash, "$argon2id$", "$argon2i$", 1),
		strings.Replace(hash, "v=19", "v=16", 1),
		strings.Replace(hash, "t=1", "t=0", 1),
		hash[:strings.LastIndex(hash, "$")+1],
	}
	for _, encoded := range tampered {
		if _, err := security.VerifyPassword("clave", encoded); !errors.Is(err, security.ErrInvalidHash) {
			t.Fatalf("expected ErrInvalidHash for %q, got %v", encoded, err)
		}
	}
}

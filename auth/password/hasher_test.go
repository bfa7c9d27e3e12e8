package password

import (
	"strings"
	"sync"
	"testing"

	"github.com/kbukum/authkit/errors"
)

func fastArgon2() *Argon2Hasher {
	return NewArgon2Hasher(WithArgon2Memory(1024), WithArgon2Time(1))
}

func TestArgon2Hasher_HashAndVerify(t *testing.T) {
	h := fastArgon2()
	hash, err := h.Hash("password123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Errorf("unexpected encoding %q", hash)
	}
	if !h.Verify("password123", hash) {
		t.Error("expected correct password to verify")
	}
	if h.Verify("password124", hash) {
		t.Error("expected wrong password to fail")
	}
}

func TestArgon2Hasher_FreshSaltPerCall(t *testing.T) {
	h := fastArgon2()
	a, _ := h.Hash("password123")
	b, _ := h.Hash("password123")
	if a == b {
		t.Error("expected distinct hashes for the same password")
	}
}

func TestArgon2Hasher_MalformedHashes(t *testing.T) {
	h := fastArgon2()
	valid, _ := h.Hash("password123")
	parts := strings.Split(valid, "$")

	malformed := map[string]string{
		"empty":          "",
		"plaintext":      "password123",
		"wrong scheme":   strings.Replace(valid, "argon2id", "argon2i", 1),
		"wrong version":  strings.Replace(valid, "v=19", "v=16", 1),
		"zero threads":   strings.Replace(valid, "p=1", "p=0", 1),
		"zero time":      strings.Replace(valid, "t=1", "t=0", 1),
		"huge memory":    strings.Replace(valid, "m=1024", "m=4294967295", 1),
		"bad params":     strings.Replace(valid, "m=1024,t=1,p=1", "garbage", 1),
		"bad salt":       "$" + strings.Join([]string{parts[1], parts[2], parts[3], "!!!", parts[5]}, "$"),
		"bad hash":       "$" + strings.Join([]string{parts[1], parts[2], parts[3], parts[4], "!!!"}, "$"),
		"empty hash":     "$" + strings.Join([]string{parts[1], parts[2], parts[3], parts[4], ""}, "$"),
		"too many parts": valid + "$extra",
	}
	for name, encoded := range malformed {
		t.Run(name, func(t *testing.T) {
			if h.Verify("password123", encoded) {
				t.Errorf("expected %q to fail verification", encoded)
			}
		})
	}
}

func TestBcryptHasher_HashAndVerify(t *testing.T) {
	h := NewBcryptHasher(WithCost(4))
	hash, err := h.Hash("password123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !h.Verify("password123", hash) || h.Verify("nope", hash) {
		t.Error("bcrypt verify mismatch")
	}
	if _, err := h.Hash(strings.Repeat("x", 73)); err == nil {
		t.Error("expected error for password over 72 bytes")
	}
}

func TestService_VerifiesAnySupportedEncoding(t *testing.T) {
	svc, err := NewService(Config{Argon2Memory: 1024, Argon2Time: 1, BcryptCost: 4})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	argonHash, err := svc.Hash("password123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	bcryptHash, err := NewBcryptHasher(WithCost(4)).Hash("password123")
	if err != nil {
		t.Fatalf("bcrypt Hash: %v", err)
	}

	if !svc.Verify("password123", argonHash) {
		t.Error("expected argon2id hash to verify")
	}
	if !svc.Verify("password123", bcryptHash) {
		t.Error("expected bcrypt hash to verify")
	}
	if svc.Verify("password123", "$scrypt$whatever") {
		t.Error("expected unknown scheme to fail")
	}
}

func TestService_BcryptAlgorithm(t *testing.T) {
	svc, err := NewService(Config{Algorithm: AlgorithmBcrypt, BcryptCost: 4, MaxLength: 72})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	hash, err := svc.Hash("password123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$") {
		t.Errorf("expected bcrypt encoding, got %q", hash)
	}
}

func TestService_CheckPolicy(t *testing.T) {
	svc, err := NewService(Config{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if err := svc.CheckPolicy("password123"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := svc.CheckPolicy("short"); !errors.HasCode(err, errors.ErrCodeValidation) {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
	if err := svc.CheckPolicy(strings.Repeat("x", 129)); !errors.HasCode(err, errors.ErrCodeValidation) {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestService_ConcurrentUse(t *testing.T) {
	svc, _ := NewService(Config{Argon2Memory: 1024, Argon2Time: 1})
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hash, err := svc.Hash("password123")
			if err != nil || !svc.Verify("password123", hash) {
				t.Errorf("concurrent hash/verify failed: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{}, false},
		{"unknown algorithm", Config{Algorithm: "md5"}, true},
		{"bcrypt with long max", Config{Algorithm: AlgorithmBcrypt, MaxLength: 100}, true},
		{"bcrypt default max", Config{Algorithm: AlgorithmBcrypt}, false},
		{"bcrypt with 72 max", Config{Algorithm: AlgorithmBcrypt, MaxLength: 72}, false},
		{"inverted bounds", Config{MinLength: 20, MaxLength: 10}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			cfg.ApplyDefaults()
			if err := cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

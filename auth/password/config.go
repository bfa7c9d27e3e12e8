package password

import (
	"fmt"
	"strings"

	"github.com/kbukum/authkit/validation"
)

// Algorithm represents supported password hashing algorithms.
type Algorithm string

const (
	AlgorithmArgon2id Algorithm = "argon2id"
	AlgorithmBcrypt   Algorithm = "bcrypt"
)

// Config configures password hashing behavior.
type Config struct {
	// Algorithm selects the algorithm for new hashes (default: "argon2id").
	Algorithm Algorithm `yaml:"algorithm" mapstructure:"algorithm"`

	// BcryptCost is the bcrypt cost parameter (default: 12).
	BcryptCost int `yaml:"bcrypt_cost" mapstructure:"bcrypt_cost"`

	Argon2Time    uint32 `yaml:"argon2_time" mapstructure:"argon2_time"`
	Argon2Memory  uint32 `yaml:"argon2_memory" mapstructure:"argon2_memory"`
	Argon2Threads uint8  `yaml:"argon2_threads" mapstructure:"argon2_threads"`

	// MinLength and MaxLength bound accepted passwords (default: 8 and 128).
	MinLength int `yaml:"min_length" mapstructure:"min_length"`
	MaxLength int `yaml:"max_length" mapstructure:"max_length"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = AlgorithmArgon2id
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = 12
	}
	if c.Argon2Time == 0 {
		c.Argon2Time = 2
	}
	if c.Argon2Memory == 0 {
		c.Argon2Memory = 19 * 1024
	}
	if c.Argon2Threads == 0 {
		c.Argon2Threads = 1
	}
	if c.MinLength == 0 {
		c.MinLength = 8
	}
	if c.MaxLength == 0 {
		c.MaxLength = 128
		if c.Algorithm == AlgorithmBcrypt {
			c.MaxLength = 72
		}
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Algorithm {
	case AlgorithmArgon2id:
	case AlgorithmBcrypt:
		if c.MaxLength > 72 {
			return fmt.Errorf("password.max_length must be <= 72 for bcrypt (got: %d)", c.MaxLength)
		}
	default:
		return fmt.Errorf("password.algorithm %q is not supported (use argon2id or bcrypt)", c.Algorithm)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("password.bcrypt_cost must be between 4 and 31 (got: %d)", c.BcryptCost)
	}
	if c.MinLength < 1 || c.MaxLength < c.MinLength {
		return fmt.Errorf("password length bounds are invalid (min: %d, max: %d)", c.MinLength, c.MaxLength)
	}
	return nil
}

// Service is the credential service used by sign-up and sign-in. It hashes
// with the configured algorithm and verifies any supported encoding.
type Service struct {
	cfg     Config
	primary Hasher
	argon2  *Argon2Hasher
	bcrypt  *BcryptHasher
}

// NewService creates a Service from configuration.
func NewService(cfg Config) (*Service, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		cfg: cfg,
		argon2: NewArgon2Hasher(
			WithArgon2Time(cfg.Argon2Time),
			WithArgon2Memory(cfg.Argon2Memory),
			WithArgon2Threads(cfg.Argon2Threads),
		),
		bcrypt: NewBcryptHasher(WithCost(cfg.BcryptCost)),
	}
	s.primary = s.argon2
	if cfg.Algorithm == AlgorithmBcrypt {
		s.primary = s.bcrypt
	}
	return s, nil
}

// CheckPolicy returns a VALIDATION_ERROR if password violates the length bounds.
func (s *Service) CheckPolicy(password string) error {
	return validation.New().
		Length("password", password, s.cfg.MinLength, s.cfg.MaxLength).
		Err()
}

// Hash hashes password with the configured algorithm.
func (s *Service) Hash(password string) (string, error) {
	return s.primary.Hash(password)
}

// Verify reports whether password matches encoded.
func (s *Service) Verify(password, encoded string) bool {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return s.argon2.Verify(password, encoded)
	case strings.HasPrefix(encoded, "$2a$"), strings.HasPrefix(encoded, "$2b$"), strings.HasPrefix(encoded, "$2y$"):
		return s.bcrypt.Verify(password, encoded)
	default:
		return false
	}
}

package keys

import (
	"crypto/elliptic"
	"fmt"
	"strings"
)

// Family selects symmetric (HMAC) or asymmetric (RSA/EC) key material.
type Family string

const (
	Symmetric  Family = "SYMMETRIC"
	Asymmetric Family = "ASYMMETRIC"
)

// Algorithm is a JWS algorithm name.
type Algorithm string

const (
	HS256 Algorithm = "HS256"
	HS384 Algorithm = "HS384"
	HS512 Algorithm = "HS512"
	RS256 Algorithm = "RS256"
	RS384 Algorithm = "RS384"
	RS512 Algorithm = "RS512"
	ES256 Algorithm = "ES256"
	ES384 Algorithm = "ES384"
	ES512 Algorithm = "ES512"
)

// Config configures where key material lives and how it is generated.
type Config struct {
	// AlgorithmType is SYMMETRIC or ASYMMETRIC (default: SYMMETRIC).
	AlgorithmType Family `yaml:"algorithm_type" mapstructure:"algorithm_type"`
	// Algorithm is the JWS algorithm (default: HS256 or RS256 by family).
	Algorithm Algorithm `yaml:"algorithm" mapstructure:"algorithm"`
	// KeySize is the RSA modulus size in bits (default: 2048).
	KeySize int `yaml:"key_size" mapstructure:"key_size"`
	// Curve is the EC curve name. Defaults to the curve the algorithm requires.
	Curve string `yaml:"curve" mapstructure:"curve"`
	// Dir is the directory holding key files (default: "keys").
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	c.AlgorithmType = Family(strings.ToUpper(string(c.AlgorithmType)))
	c.Algorithm = Algorithm(strings.ToUpper(string(c.Algorithm)))
	if c.AlgorithmType == "" {
		c.AlgorithmType = Symmetric
	}
	if c.Algorithm == "" {
		if c.AlgorithmType == Asymmetric {
			c.Algorithm = RS256
		} else {
			c.Algorithm = HS256
		}
	}
	if c.KeySize == 0 {
		c.KeySize = 2048
	}
	if c.Curve == "" && c.isEC() {
		c.Curve = requiredCurve[c.Algorithm].Params().Name
	}
	if c.Dir == "" {
		c.Dir = "keys"
	}
}

// Validate checks that family, algorithm, key size and curve agree.
func (c *Config) Validate() error {
	switch c.AlgorithmType {
	case Symmetric:
		if !c.isHMAC() {
			return fmt.Errorf("keys.algorithm %s is not a symmetric algorithm", c.Algorithm)
		}
	case Asymmetric:
		if !c.isRSA() && !c.isEC() {
			return fmt.Errorf("keys.algorithm %s is not an asymmetric algorithm", c.Algorithm)
		}
	default:
		return fmt.Errorf("keys.algorithm_type must be SYMMETRIC or ASYMMETRIC (got: %s)", c.AlgorithmType)
	}
	if c.isRSA() && c.KeySize < 2048 {
		return fmt.Errorf("keys.key_size must be at least 2048 bits (got: %d)", c.KeySize)
	}
	if c.isEC() {
		curve, err := ParseCurve(c.Curve)
		if err != nil {
			return err
		}
		if curve != requiredCurve[c.Algorithm] {
			return fmt.Errorf("keys.curve %s cannot be used with %s (requires %s)",
				c.Curve, c.Algorithm, requiredCurve[c.Algorithm].Params().Name)
		}
	}
	if c.Dir == "" {
		return fmt.Errorf("keys.dir is required")
	}
	return nil
}

func (c *Config) isHMAC() bool {
	return c.Algorithm == HS256 || c.Algorithm == HS384 || c.Algorithm == HS512
}

func (c *Config) isRSA() bool {
	return c.Algorithm == RS256 || c.Algorithm == RS384 || c.Algorithm == RS512
}

func (c *Config) isEC() bool {
	_, ok := requiredCurve[c.Algorithm]
	return ok
}

var requiredCurve = map[Algorithm]elliptic.Curve{
	ES256: elliptic.P256(),
	ES384: elliptic.P384(),
	ES512: elliptic.P521(),
}

// ParseCurve resolves a NIST or SEC curve name.
func ParseCurve(name string) (elliptic.Curve, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "p-256", "p256", "prime256v1", "secp256r1":
		return elliptic.P256(), nil
	case "p-384", "p384", "secp384r1":
		return elliptic.P384(), nil
	case "p-521", "p521", "secp521r1":
		return elliptic.P521(), nil
	default:
		return nil, fmt.Errorf("keys.curve %q is not supported (use P-256, P-384 or P-521)", name)
	}
}

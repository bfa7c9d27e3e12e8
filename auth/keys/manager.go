// Package keys owns the signing and verification key material for access
// and refresh credentials.
//
// A Manager loads key files from its configured directory on first use and
// generates and persists any that are missing, so a restarted process reuses
// the same material. Access and refresh keys are always distinct.
package keys

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/kbukum/authkit/logger"
)

// Purpose names one of the two independent key sets.
type Purpose string

const (
	Access  Purpose = "access"
	Refresh Purpose = "refresh"
)

// Bundle is the key material for one purpose.
type Bundle struct {
	Algorithm Algorithm
	Method    gojwt.SigningMethod
	// SignKey is []byte, *rsa.PrivateKey or *ecdsa.PrivateKey.
	SignKey any
	// VerifyKey is []byte, *rsa.PublicKey or *ecdsa.PublicKey.
	VerifyKey any
}

// Manager loads or generates key material exactly once per process.
type Manager struct {
	cfg Config
	log *logger.Logger

	once    sync.Once
	access  *Bundle
	refresh *Bundle
	err     error
}

// NewManager validates cfg and returns a Manager. No files are touched
// until Load (or Access/Refresh) is first called.
func NewManager(cfg Config, log *logger.Logger) (*Manager, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Manager{cfg: cfg, log: log.WithComponent("keys")}, nil
}

// Load reads or creates both key sets. Concurrent callers block until the
// first call completes and all observe its result.
func (m *Manager) Load() error {
	m.once.Do(func() {
		if err := os.MkdirAll(m.cfg.Dir, 0o700); err != nil {
			m.err = fmt.Errorf("keys: create directory %s: %w", m.cfg.Dir, err)
			return
		}
		if m.access, m.err = m.load(Access); m.err != nil {
			return
		}
		m.refresh, m.err = m.load(Refresh)
	})
	return m.err
}

// Access returns the access-credential key bundle.
func (m *Manager) Access() (*Bundle, error) {
	if err := m.Load(); err != nil {
		return nil, err
	}
	return m.access, nil
}

// Refresh returns the refresh-credential key bundle.
func (m *Manager) Refresh() (*Bundle, error) {
	if err := m.Load(); err != nil {
		return nil, err
	}
	return m.refresh, nil
}

// Algorithm returns the configured signing algorithm.
func (m *Manager) Algorithm() Algorithm { return m.cfg.Algorithm }

// Files returns the key file paths used for purpose.
func (m *Manager) Files(p Purpose) []string {
	switch {
	case m.cfg.isHMAC():
		return []string{m.path(p, "secret.key")}
	case m.cfg.isEC():
		return []string{m.path(p, "ec_private.pem"), m.path(p, "ec_public.pem")}
	default:
		return []string{m.path(p, "private.pem"), m.path(p, "public.pem")}
	}
}

func (m *Manager) path(p Purpose, suffix string) string {
	return filepath.Join(m.cfg.Dir, string(p)+"_"+suffix)
}

func (m *Manager) load(p Purpose) (*Bundle, error) {
	b := &Bundle{
		Algorithm: m.cfg.Algorithm,
		Method:    gojwt.GetSigningMethod(string(m.cfg.Algorithm)),
	}
	if b.Method == nil {
		return nil, fmt.Errorf("keys: unsupported algorithm %s", m.cfg.Algorithm)
	}

	if m.cfg.isHMAC() {
		secret, err := m.loadSecret(p)
		if err != nil {
			return nil, err
		}
		b.SignKey, b.VerifyKey = secret, secret
		return b, nil
	}

	priv, pub, err := m.loadKeyPair(p)
	if err != nil {
		return nil, err
	}
	b.SignKey, b.VerifyKey = priv, pub
	return b, nil
}

func (m *Manager) loadSecret(p Purpose) ([]byte, error) {
	path := m.Files(p)[0]
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return nil, fmt.Errorf("keys: %s is empty", path)
		}
		return []byte(secret), nil
	case errors.Is(err, fs.ErrNotExist):
		secret, err := generateSecret(secretLength)
		if err != nil {
			return nil, fmt.Errorf("keys: generate %s secret: %w", p, err)
		}
		if err := writeFileAtomic(path, []byte(secret), 0o600); err != nil {
			return nil, err
		}
		m.log.Info("generated secret", logger.Fields("purpose", string(p), "path", path))
		return []byte(secret), nil
	default:
		return nil, fmt.Errorf("keys: read %s: %w", path, err)
	}
}

func (m *Manager) loadKeyPair(p Purpose) (crypto.Signer, crypto.PublicKey, error) {
	files := m.Files(p)
	privPath, pubPath := files[0], files[1]

	privPEM, privErr := os.ReadFile(privPath)
	if privErr != nil && !errors.Is(privErr, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("keys: read %s: %w", privPath, privErr)
	}
	pubPEM, pubErr := os.ReadFile(pubPath)
	if pubErr != nil && !errors.Is(pubErr, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("keys: read %s: %w", pubPath, pubErr)
	}

	if privErr != nil {
		if pubErr == nil {
			return nil, nil, fmt.Errorf("keys: %s exists without its private key %s", pubPath, privPath)
		}
		return m.generateKeyPair(p, privPath, pubPath)
	}

	priv, err := m.parsePrivate(privPEM)
	if err != nil {
		return nil, nil, fmt.Errorf("keys: parse %s: %w", privPath, err)
	}
	derived := priv.Public()

	if pubErr != nil {
		if err := writePublic(pubPath, derived); err != nil {
			return nil, nil, err
		}
		m.log.Warn("public key was missing and has been rewritten", logger.Fields("path", pubPath))
		return priv, derived, nil
	}

	pub, err := m.parsePublic(pubPEM)
	if err != nil {
		return nil, nil, fmt.Errorf("keys: parse %s: %w", pubPath, err)
	}
	if eq, ok := pub.(interface{ Equal(crypto.PublicKey) bool }); !ok || !eq.Equal(derived) {
		return nil, nil, fmt.Errorf("keys: %s does not match %s", pubPath, privPath)
	}
	return priv, pub, nil
}

func (m *Manager) parsePrivate(data []byte) (crypto.Signer, error) {
	if m.cfg.isRSA() {
		key, err := gojwt.ParseRSAPrivateKeyFromPEM(data)
		if err != nil {
			return nil, err
		}
		if bits := key.N.BitLen(); bits != m.cfg.KeySize {
			m.log.Warn("persisted RSA key size differs from configuration",
				logger.Fields("persisted_bits", bits, "configured_bits", m.cfg.KeySize))
		}
		return key, nil
	}
	key, err := gojwt.ParseECPrivateKeyFromPEM(data)
	if err != nil {
		return nil, err
	}
	if key.Curve != requiredCurve[m.cfg.Algorithm] {
		return nil, fmt.Errorf("curve %s cannot sign %s", key.Curve.Params().Name, m.cfg.Algorithm)
	}
	return key, nil
}

func (m *Manager) parsePublic(data []byte) (crypto.PublicKey, error) {
	if m.cfg.isRSA() {
		return gojwt.ParseRSAPublicKeyFromPEM(data)
	}
	return gojwt.ParseECPublicKeyFromPEM(data)
}

func (m *Manager) generateKeyPair(p Purpose, privPath, pubPath string) (crypto.Signer, crypto.PublicKey, error) {
	var (
		priv crypto.Signer
		err  error
	)
	if m.cfg.isRSA() {
		priv, err = rsa.GenerateKey(rand.Reader, m.cfg.KeySize)
	} else {
		priv, err = ecdsa.GenerateKey(requiredCurve[m.cfg.Algorithm], rand.Reader)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("keys: generate %s key pair: %w", p, err)
	}

	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, nil, fmt.Errorf("keys: encode %s private key: %w", p, err)
	}
	if err := writeFileAtomic(privPath, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), 0o600); err != nil {
		return nil, nil, err
	}
	if err := writePublic(pubPath, priv.Public()); err != nil {
		return nil, nil, err
	}

	m.log.Info("generated key pair", logger.Fields(
		"purpose", string(p), "algorithm", string(m.cfg.Algorithm), "path", privPath))
	return priv, priv.Public(), nil
}

func writePublic(path string, pub crypto.PublicKey) error {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return fmt.Errorf("keys: encode public key: %w", err)
	}
	return writeFileAtomic(path, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0o644)
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place so readers never observe a partial key.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("keys: write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("keys: write %s: %w", path, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("keys: chmod %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("keys: write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("keys: write %s: %w", path, err)
	}
	return nil
}

const (
	secretLength  = 64
	secretCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*"
)

func generateSecret(n int) (string, error) {
	var sb strings.Builder
	sb.Grow(n)
	limit := big.NewInt(int64(len(secretCharset)))
	for range n {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		sb.WriteByte(secretCharset[idx.Int64()])
	}
	return sb.String(), nil
}

package security

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// TLSConfig holds file-based TLS settings.
type TLSConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// CertFile and KeyFile are the local certificate: the serving certificate
	// on a listener, the client certificate (mTLS) on a dialer.
	CertFile string `yaml:"cert_file" mapstructure:"cert_file"`
	KeyFile  string `yaml:"key_file" mapstructure:"key_file"`

	// CAFile verifies the peer. On a listener it turns on client
	// certificate verification.
	CAFile string `yaml:"ca_file" mapstructure:"ca_file"`

	// ServerName overrides the name checked against the server certificate.
	ServerName string `yaml:"server_name" mapstructure:"server_name"`
	// SkipVerify disables server certificate verification. Development only.
	SkipVerify bool `yaml:"skip_verify" mapstructure:"skip_verify"`

	// MinVersion is "1.2" (default) or "1.3".
	MinVersion string `yaml:"min_version" mapstructure:"min_version"`
}

// Validate checks that the configuration is consistent.
func (c *TLSConfig) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}
	if (c.CertFile != "") != (c.KeyFile != "") {
		return fmt.Errorf("tls: cert_file and key_file must be provided together")
	}
	if _, err := c.minVersion(); err != nil {
		return err
	}
	return nil
}

// ClientConfig returns the dialer configuration, or nil when TLS is disabled.
func (c *TLSConfig) ClientConfig() (*tls.Config, error) {
	if c == nil || !c.Enabled {
		return nil, nil
	}
	cfg, err := c.base()
	if err != nil {
		return nil, err
	}
	cfg.ServerName = c.ServerName
	cfg.InsecureSkipVerify = c.SkipVerify //nolint:gosec // opt-in for development

	if c.CAFile != "" {
		pool, err := loadPool(c.CAFile)
		if err != nil {
			return nil, err
		}
		cfg.RootCAs = pool
	}
	return cfg, nil
}

// ServerConfig returns the listener configuration, or nil when TLS is
// disabled. A serving certificate is required.
func (c *TLSConfig) ServerConfig() (*tls.Config, error) {
	if c == nil || !c.Enabled {
		return nil, nil
	}
	if c.CertFile == "" {
		return nil, fmt.Errorf("tls: cert_file and key_file are required to serve TLS")
	}
	cfg, err := c.base()
	if err != nil {
		return nil, err
	}
	if c.CAFile != "" {
		pool, err := loadPool(c.CAFile)
		if err != nil {
			return nil, err
		}
		cfg.ClientCAs = pool
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return cfg, nil
}

func (c *TLSConfig) base() (*tls.Config, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	v, _ := c.minVersion()
	cfg := &tls.Config{MinVersion: v}
	if c.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("tls: loading key pair: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}

func (c *TLSConfig) minVersion() (uint16, error) {
	switch c.MinVersion {
	case "", "1.2":
		return tls.VersionTLS12, nil
	case "1.3":
		return tls.VersionTLS13, nil
	default:
		return 0, fmt.Errorf("tls: unsupported min_version %q", c.MinVersion)
	}
}

func loadPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tls: reading CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("tls: no certificates in %s", path)
	}
	return pool, nil
}

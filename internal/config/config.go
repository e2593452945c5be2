package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/pharmacart/backend/pkg/config"
	"github.com/pharmacart/backend/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	HTTPServer config.HTTPConfig     `koanf:"server"`
	Database   config.DatabaseConfig `koanf:"database"`
	Log        config.LogConfig      `koanf:"log"`
	PProf      config.PProfConfig    `koanf:"pprof"`
	Shutdown   config.ShutdownConfig `koanf:"shutdown"`
	Braintree  BraintreeConfig       `koanf:"braintree"`
}

// BraintreeConfig carries the payment gateway credentials. They are
// injected here and never read from ambient process state elsewhere.
type BraintreeConfig struct {
	Environment string        `koanf:"environment"`
	MerchantID  string        `koanf:"merchantId"`
	PublicKey   string        `koanf:"publicKey"`
	PrivateKey  string        `koanf:"privateKey"`
	Timeout     time.Duration `koanf:"timeout"`
}

func (c *BraintreeConfig) Validate() error {
	if c.Environment != "sandbox" && c.Environment != "production" {
		return fmt.Errorf("braintree environment must be 'sandbox' or 'production': %s", c.Environment)
	}
	if c.MerchantID == "" || c.PublicKey == "" || c.PrivateKey == "" {
		return fmt.Errorf("braintree credentials are not fully configured")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("braintree timeout is not configured")
	}
	return nil
}

func (c *Config) String() string {
	var b strings.Builder

	b.WriteString("\n--- Server Configuration ---\n")
	b.WriteString(fmt.Sprintf("  server.port: %d\n", c.HTTPServer.Port))
	b.WriteString(fmt.Sprintf("  server.maxHeaderBytes: %d\n", c.HTTPServer.MaxHeaderBytes))
	b.WriteString(fmt.Sprintf("  server.timeout.read: %v\n", c.HTTPServer.Timeout.Read))
	b.WriteString(fmt.Sprintf("  server.timeout.write: %v\n", c.HTTPServer.Timeout.Write))
	b.WriteString(fmt.Sprintf("  server.timeout.idle: %v\n", c.HTTPServer.Timeout.Idle))
	b.WriteString(fmt.Sprintf("  server.timeout.readHeader: %v\n", c.HTTPServer.Timeout.ReadHeader))

	b.WriteString("\n--- Database Configuration ---\n")
	b.WriteString(fmt.Sprintf("  database.url: %s\n", maskURL(c.Database.URL)))
	b.WriteString(fmt.Sprintf("  database.timeout: %s\n", c.Database.Timeout))

	b.WriteString("\n--- Payment Gateway ---\n")
	b.WriteString(fmt.Sprintf("  braintree.environment: %s\n", c.Braintree.Environment))
	b.WriteString(fmt.Sprintf("  braintree.merchantId: %s\n", c.Braintree.MerchantID))
	b.WriteString("  braintree.publicKey: ****\n")
	b.WriteString("  braintree.privateKey: ****\n")
	b.WriteString(fmt.Sprintf("  braintree.timeout: %s\n", c.Braintree.Timeout))

	b.WriteString("\n--- Observability & Logging ---\n")
	b.WriteString(fmt.Sprintf("  log.level: %s\n", c.Log.Level))
	b.WriteString(fmt.Sprintf("  pprof.enabled: %t\n", c.PProf.Enabled))
	b.WriteString(fmt.Sprintf("  pprof.address: %s\n", c.PProf.Addr))

	b.WriteString("\n--- Application Behavior ---\n")
	b.WriteString(fmt.Sprintf("  shutdown.timeout: %s\n", c.Shutdown.Timeout))

	return b.String()
}

func maskURL(url string) string {
	if url == "" {
		return "<not configured>"
	}
	parts := strings.Split(url, "@")
	if len(parts) == 2 {
		return "****@" + parts[1]
	}
	return "****"
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	if err := c.HTTPServer.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	if err := c.Shutdown.Validate(); err != nil {
		return err
	}
	if err := c.Braintree.Validate(); err != nil {
		return err
	}
	return nil
}

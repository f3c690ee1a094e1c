package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jmehdipour/domain-offers/internal/model"
)

//go:embed defaults.yaml
var defaults []byte

// envPrefix namespaces every overridable key, e.g. DOMAINSALE_HTTP_ADDR.
const envPrefix = "DOMAINSALE"

// dotenvFiles are loaded in order; values already present in the environment win.
var dotenvFiles = []string{".env.local", ".env"}

// ---- Root ----

type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Site      SiteConfig      `mapstructure:"site"`
	Challenge ChallengeConfig `mapstructure:"challenge"`
	Delivery  DeliveryConfig  `mapstructure:"delivery"`
	Providers ProvidersConfig `mapstructure:"providers"`
}

// ---- Leaf structs ----

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Encoding   string `mapstructure:"encoding"` // json | console
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type TracingConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
	Insecure     bool   `mapstructure:"insecure"`
}

// SiteConfig is the public, read-only description of the listing.
type SiteConfig struct {
	DomainName     string   `mapstructure:"domain_name"`
	Price          string   `mapstructure:"price"`
	Currency       string   `mapstructure:"currency"`
	PaymentOptions []string `mapstructure:"payment_options"`
	ContactEmail   string   `mapstructure:"contact_email"`
	SiteURL        string   `mapstructure:"site_url"`
	CompanyName    string   `mapstructure:"company_name"`
	DefaultLocale  string   `mapstructure:"default_locale"`
}

type ChallengeConfig struct {
	SiteKey   string        `mapstructure:"site_key"`
	SecretKey string        `mapstructure:"secret_key"`
	VerifyURL string        `mapstructure:"verify_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type DeliveryConfig struct {
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
	SenderName     string        `mapstructure:"sender_name"`
	SenderEmail    string        `mapstructure:"sender_email"`
}

// ProvidersConfig holds one entry per supported email provider. A provider
// is enabled when its API key is set.
type ProvidersConfig struct {
	SendGrid ProviderConfig `mapstructure:"sendgrid"`
	Brevo    ProviderConfig `mapstructure:"brevo"`
	Resend   ProviderConfig `mapstructure:"resend"`
}

type ProviderConfig struct {
	APIKey      string `mapstructure:"api_key"`
	BaseURL     string `mapstructure:"base_url"`
	SenderEmail string `mapstructure:"sender_email"`
	SenderName  string `mapstructure:"sender_name"`
}

func (p ProviderConfig) Enabled() bool { return strings.TrimSpace(p.APIKey) != "" }

// envAliases maps config keys to the plain variable names used by existing
// deployments, on top of the prefixed name.
var envAliases = map[string][]string{
	"site.domain_name":                {"DOMAIN_NAME"},
	"site.price":                      {"DOMAIN_PRICE"},
	"site.currency":                   {"CURRENCY"},
	"site.payment_options":            {"PAYMENT_OPTIONS"},
	"site.contact_email":              {"CONTACT_EMAIL"},
	"site.site_url":                   {"SITE_URL"},
	"site.company_name":               {"COMPANY_NAME"},
	"challenge.site_key":              {"TURNSTILE_SITE_KEY"},
	"challenge.secret_key":            {"TURNSTILE_SECRET_KEY"},
	"providers.sendgrid.api_key":      {"SENDGRID_API_KEY"},
	"providers.sendgrid.sender_email": {"SENDGRID_SENDER_EMAIL"},
	"providers.sendgrid.sender_name":  {"SENDGRID_SENDER_NAME"},
	"providers.brevo.api_key":         {"BREVO_API_KEY"},
	"providers.brevo.sender_email":    {"BREVO_SENDER_EMAIL"},
	"providers.brevo.sender_name":     {"BREVO_SENDER_NAME"},
	"providers.resend.api_key":        {"RESEND_API_KEY"},
	"providers.resend.sender_email":   {"RESEND_SENDER_EMAIL"},
	"providers.resend.sender_name":    {"RESEND_SENDER_NAME"},
}

// Load reads embedded defaults, merges user YAML (if provided), loads .env
// files and applies env overrides (DOMAINSALE_* plus the plain aliases).
func Load(path string) (Config, error) {
	for _, f := range dotenvFiles {
		_ = godotenv.Load(f)
	}

	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("merge %s: %w", path, err)
			}
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, aliases := range envAliases {
		names := append([]string{envName(key)}, aliases...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func (c *Config) normalize() {
	opts := make([]string, 0, len(c.Site.PaymentOptions))
	for _, raw := range c.Site.PaymentOptions {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				opts = append(opts, o)
			}
		}
	}
	c.Site.PaymentOptions = opts

	c.Site.DomainName = strings.TrimSpace(c.Site.DomainName)
	c.Site.ContactEmail = strings.TrimSpace(c.Site.ContactEmail)
	c.Site.Currency = strings.ToUpper(strings.TrimSpace(c.Site.Currency))
	if c.Site.DefaultLocale == "" {
		c.Site.DefaultLocale = string(model.DefaultLocale)
	}
}

// Validate rejects configurations the relay cannot run with.
func (c Config) Validate() error {
	if c.Site.DomainName == "" {
		return errors.New("config: site.domain_name is required")
	}
	if c.Site.ContactEmail == "" {
		return errors.New("config: site.contact_email is required")
	}
	if _, ok := model.ParseLocale(c.Site.DefaultLocale); !ok {
		return fmt.Errorf("config: unsupported site.default_locale %q", c.Site.DefaultLocale)
	}
	if c.Delivery.AttemptTimeout <= 0 {
		return fmt.Errorf("config: delivery.attempt_timeout must be positive, got %s", c.Delivery.AttemptTimeout)
	}
	return nil
}

package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds every runtime setting. It is built once in main and handed to
// the components that need it.
type Config struct {
	Port      string `mapstructure:"PORT"`
	Env       string `mapstructure:"APP_ENV"`
	DBURL     string `mapstructure:"DB_URL"`
	JWTSecret string `mapstructure:"JWT_SECRET"`

	CORSOrigin string `mapstructure:"CORS_ORIGIN"`
	AppURL     string `mapstructure:"APP_URL"`
	AdminEmail string `mapstructure:"ADMIN_EMAIL"`
	StudioName string `mapstructure:"STUDIO_NAME"`

	GoogleClientID         string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret     string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL      string `mapstructure:"GOOGLE_REDIRECT_URL"`
	GoogleFrontendRedirect string `mapstructure:"GOOGLE_FRONTEND_REDIRECT"`

	StripeSecretKey     string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	StripeCurrency      string `mapstructure:"STRIPE_CURRENCY"`

	GCSBucket          string `mapstructure:"GCS_BUCKET"`
	GCSCredentialsFile string `mapstructure:"GCS_CREDENTIALS_FILE"`
	MediaCDNDomain     string `mapstructure:"MEDIA_CDN_DOMAIN"`

	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int           `mapstructure:"REDIS_DB"`
	CatalogCacheTTL time.Duration `mapstructure:"CATALOG_CACHE_TTL"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     string `mapstructure:"SMTP_PORT"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`

	GalleryRatePerMinute int `mapstructure:"GALLERY_RATE_PER_MINUTE"`
	GalleryRateBurst     int `mapstructure:"GALLERY_RATE_BURST"`

	DepositRate      string `mapstructure:"DEPOSIT_RATE"`
	ShopTaxRate      string `mapstructure:"SHOP_TAX_RATE"`
	ShopShippingFlat string `mapstructure:"SHOP_SHIPPING_FLAT"`

	MetricsEnabled bool `mapstructure:"METRICS_ENABLED"`
}

var defaults = map[string]any{
	"PORT":                     "8080",
	"APP_ENV":                  "development",
	"DB_URL":                   "",
	"JWT_SECRET":               "",
	"CORS_ORIGIN":              "http://localhost:3000",
	"APP_URL":                  "http://localhost:3000",
	"ADMIN_EMAIL":              "",
	"STUDIO_NAME":              "Photo Studio",
	"GOOGLE_CLIENT_ID":         "",
	"GOOGLE_CLIENT_SECRET":     "",
	"GOOGLE_REDIRECT_URL":      "",
	"GOOGLE_FRONTEND_REDIRECT": "",
	"STRIPE_SECRET_KEY":        "",
	"STRIPE_WEBHOOK_SECRET":    "",
	"STRIPE_CURRENCY":          "usd",
	"GCS_BUCKET":               "",
	"GCS_CREDENTIALS_FILE":     "",
	"MEDIA_CDN_DOMAIN":         "",
	"REDIS_ADDR":               "",
	"REDIS_PASSWORD":           "",
	"REDIS_DB":                 0,
	"CATALOG_CACHE_TTL":        "5m",
	"SMTP_HOST":                "",
	"SMTP_PORT":                "587",
	"SMTP_FROM":                "",
	"SMTP_PASSWORD":            "",
	"GALLERY_RATE_PER_MINUTE":  10,
	"GALLERY_RATE_BURST":       5,
	"DEPOSIT_RATE":             "0.30",
	"SHOP_TAX_RATE":            "0.08",
	"SHOP_SHIPPING_FLAT":       "9.99",
	"METRICS_ENABLED":          true,
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Env = normalizeEnv(cfg.Env)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if strings.TrimSpace(c.DBURL) == "" {
		missing = append(missing, "DB_URL")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	for key, raw := range map[string]string{
		"DEPOSIT_RATE":       c.DepositRate,
		"SHOP_TAX_RATE":      c.ShopTaxRate,
		"SHOP_SHIPPING_FLAT": c.ShopShippingFlat,
	} {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("%s must be a decimal: %w", key, err)
		}
		if d.IsNegative() {
			return fmt.Errorf("%s must not be negative", key)
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

func (c *Config) Deposit() decimal.Decimal {
	return decimal.RequireFromString(c.DepositRate)
}

func (c *Config) TaxRate() decimal.Decimal {
	return decimal.RequireFromString(c.ShopTaxRate)
}

func (c *Config) ShippingFlat() decimal.Decimal {
	return decimal.RequireFromString(c.ShopShippingFlat)
}

func normalizeEnv(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "prod", "production":
		return "production"
	case "test", "testing":
		return "test"
	case "":
		return "development"
	default:
		return strings.ToLower(strings.TrimSpace(env))
	}
}

package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-orders/internal/domain/order"
	"github.com/xenking/kart-orders/internal/domain/payment"
)

// Config holds the complete application configuration, loadable from
// environment variables (KART_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (KART_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Fees        FeesConfig
	Payment     PaymentConfig
	Kafka       KafkaConfig
	Graceful    GracefulConfig
}

// FeesConfig sets the flat per-parcel rates charged on physical orders.
type FeesConfig struct {
	Shipping string `default:"10.00" usage:"Shipping and handling cost per parcel"`
	Import   string `default:"0.00"  usage:"Importation taxes per non tax-free parcel"`
}

// PaymentConfig selects the payment gateway and its retry policy.
type PaymentConfig struct {
	Gateway         string        `default:"sandbox" usage:"Payment gateway: sandbox or none"`
	DeclinedCards   []string      `usage:"Card numbers the sandbox gateway declines" flag:"declined-cards"`
	MaxRetries      uint64        `default:"3"     usage:"Retries for transient gateway failures" flag:"payment-max-retries"`
	InitialInterval time.Duration `default:"100ms" usage:"First retry delay" flag:"payment-initial-interval"`
	MaxInterval     time.Duration `default:"2s"    usage:"Maximum retry delay" flag:"payment-max-interval"`
}

// KafkaConfig controls order event publishing. Events are only logged when
// no brokers are set.
type KafkaConfig struct {
	Brokers []string `usage:"Kafka seed brokers" flag:"kafka-brokers"`
	Topic   string   `default:"kart.order-events" usage:"Kafka topic for order events" flag:"kafka-topic"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix:         "KART",
		AllowUnknownFlags: true,
		Files:             []string{"config.yaml", "/etc/kart/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields that have no usable default.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database URL is required: set KART_DATABASE_URL or DATABASE_URL")
	}
	if _, err := c.Fees.Rates(); err != nil {
		return err
	}
	switch c.Payment.Gateway {
	case "sandbox", "none":
	default:
		return errors.Errorf("unknown payment gateway %q", c.Payment.Gateway)
	}
	return nil
}

// Rates parses the configured amounts into a fee calculator.
func (f FeesConfig) Rates() (order.FlatRate, error) {
	shipping, err := decimal.NewFromString(f.Shipping)
	if err != nil {
		return order.FlatRate{}, errors.Wrap(err, "parse shipping fee")
	}
	imp, err := decimal.NewFromString(f.Import)
	if err != nil {
		return order.FlatRate{}, errors.Wrap(err, "parse import fee")
	}
	if shipping.IsNegative() || imp.IsNegative() {
		return order.FlatRate{}, errors.New("fees must not be negative")
	}
	return order.FlatRate{Shipping: shipping, Import: imp}, nil
}

// NewGateway builds the configured gateway wrapped with retries.
func (p PaymentConfig) NewGateway() payment.Gateway {
	var gw payment.Gateway = payment.Unavailable{}
	if p.Gateway == "sandbox" {
		gw = payment.NewSandbox(p.DeclinedCards...)
	}
	return payment.NewRetrying(gw, payment.RetryConfig{
		MaxRetries:      p.MaxRetries,
		InitialInterval: p.InitialInterval,
		MaxInterval:     p.MaxInterval,
	})
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's KART_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}

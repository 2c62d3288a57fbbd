package app

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-orders/internal/domain/payment"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("KART_DATABASE_URL", "postgres://kart@localhost/kart")
	t.Setenv("KART_FEES_SHIPPING", "15.00")
	t.Setenv("KART_PAYMENT_DECLINED_CARDS", "4000,5000")
	t.Setenv("KART_KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres://kart@localhost/kart", cfg.DatabaseURL)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
	assert.Equal(t, "sandbox", cfg.Payment.Gateway)
	assert.Equal(t, []string{"4000", "5000"}, cfg.Payment.DeclinedCards)
	assert.Equal(t, uint64(3), cfg.Payment.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.Payment.InitialInterval)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "kart.order-events", cfg.Kafka.Topic)
	assert.Equal(t, 3*time.Second, cfg.Graceful.ReadinessDelay)

	rates, err := cfg.Fees.Rates()
	require.NoError(t, err)
	assert.True(t, rates.Shipping.Equal(decimal.RequireFromString("15")))
	assert.True(t, rates.Import.IsZero())
}

func TestLoadConfig_PlatformDefaults(t *testing.T) {
	t.Setenv("KART_DATABASE_URL", "")
	t.Setenv("DATABASE_URL", "postgres://platform/db")
	t.Setenv("PORT", "9000")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "postgres://platform/db", cfg.DatabaseURL)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			DatabaseURL: "postgres://x",
			Fees:        FeesConfig{Shipping: "10.00", Import: "0.00"},
			Payment:     PaymentConfig{Gateway: "sandbox"},
		}
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "Valid", mutate: func(*Config) {}},
		{name: "NoDatabase", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: "database URL is required"},
		{name: "BadShipping", mutate: func(c *Config) { c.Fees.Shipping = "ten" }, wantErr: "parse shipping fee"},
		{name: "NegativeImport", mutate: func(c *Config) { c.Fees.Import = "-1" }, wantErr: "must not be negative"},
		{name: "UnknownGateway", mutate: func(c *Config) { c.Payment.Gateway = "stripe" }, wantErr: `unknown payment gateway "stripe"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestPaymentConfigNewGateway(t *testing.T) {
	gw := PaymentConfig{Gateway: "none"}.NewGateway()
	_, err := gw.Charge(t.Context(), payment.Stored{MethodKind: "credit_card"}, decimal.NewFromInt(1))
	require.ErrorIs(t, err, payment.ErrGatewayUnavailable)

	gw = PaymentConfig{Gateway: "sandbox"}.NewGateway()
	rc, err := gw.Charge(t.Context(), payment.Stored{MethodKind: "credit_card"}, decimal.RequireFromString("12.345"))
	require.NoError(t, err)
	assert.Equal(t, "12.35", rc.Amount.StringFixed(2))
}

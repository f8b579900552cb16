package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/giovaniif/fundraising/domain/center"
)

const (
	ProviderPaypal = "paypal"
	ProviderStripe = "stripe"
)

type Config struct {
	Port int

	GatewayProvider    string
	PaypalClientId     string
	PaypalClientSecret string
	PaypalMode         string
	PaypalApiBase      string
	StripeSecretKey    string
	GatewayTimeout     time.Duration

	CatalogFile    string
	CenterCurrency string
	CenterGoal     decimal.Decimal

	CorsAllowedOrigins []string

	RedisAddr     string
	RedisChannel  string
	KafkaBrokers  []string
	KafkaTopic    string
	MongoUri      string
	MongoDatabase string

	LogLevel  string
	LogFormat string
	LogFile   string
	LokiUrl   string
}

// Load reads .env when present, then the environment. The result is not
// validated; call Validate.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	port, err := intEnv("PORT", 5000)
	if err != nil {
		return nil, err
	}
	timeoutSeconds, err := intEnv("GATEWAY_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	goal, err := decimal.NewFromString(env("CENTER_GOAL", strconv.Itoa(center.DefaultGoal)))
	if err != nil {
		return nil, fmt.Errorf("CENTER_GOAL: %w", err)
	}

	return &Config{
		Port:               port,
		GatewayProvider:    strings.ToLower(env("GATEWAY_PROVIDER", ProviderPaypal)),
		PaypalClientId:     os.Getenv("PAYPAL_CLIENT_ID"),
		PaypalClientSecret: os.Getenv("PAYPAL_CLIENT_SECRET"),
		PaypalMode:         strings.ToLower(env("PAYPAL_MODE", "sandbox")),
		PaypalApiBase:      os.Getenv("PAYPAL_API_BASE"),
		StripeSecretKey:    os.Getenv("STRIPE_SECRET_KEY"),
		GatewayTimeout:     time.Duration(timeoutSeconds) * time.Second,
		CatalogFile:        os.Getenv("CENTER_CATALOG_FILE"),
		CenterCurrency:     strings.ToUpper(env("CENTER_CURRENCY", center.DefaultCurrency)),
		CenterGoal:         goal,
		CorsAllowedOrigins: listEnv("CORS_ALLOWED_ORIGINS", "*"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisChannel:       env("REDIS_CHANNEL", "donations"),
		KafkaBrokers:       listEnv("KAFKA_BROKERS", ""),
		KafkaTopic:         env("KAFKA_TOPIC", "donations"),
		MongoUri:           os.Getenv("MONGO_URI"),
		MongoDatabase:      env("MONGO_DATABASE", "fundraising"),
		LogLevel:           env("LOG_LEVEL", "info"),
		LogFormat:          env("LOG_FORMAT", "text"),
		LogFile:            os.Getenv("LOG_FILE"),
		LokiUrl:            os.Getenv("LOKI_URL"),
	}, nil
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.GatewayProvider, validation.Required, validation.In(ProviderPaypal, ProviderStripe)),
		validation.Field(&c.PaypalMode, validation.In("sandbox", "live")),
		validation.Field(&c.PaypalClientId, validation.When(c.GatewayProvider == ProviderPaypal, validation.Required)),
		validation.Field(&c.PaypalClientSecret, validation.When(c.GatewayProvider == ProviderPaypal, validation.Required)),
		validation.Field(&c.PaypalApiBase, is.URL),
		validation.Field(&c.StripeSecretKey, validation.When(c.GatewayProvider == ProviderStripe, validation.Required)),
		validation.Field(&c.GatewayTimeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.CenterCurrency, validation.Required, validation.Length(3, 3), is.CurrencyCode),
		validation.Field(&c.CenterGoal, validation.By(positiveDecimal)),
		validation.Field(&c.LogFormat, validation.In("text", "json")),
		validation.Field(&c.LokiUrl, is.URL),
	)
}

func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func (c Config) PaypalBaseUrl(fallback func(mode string) string) string {
	if c.PaypalApiBase != "" {
		return c.PaypalApiBase
	}
	return fallback(c.PaypalMode)
}

func positiveDecimal(value interface{}) error {
	d, ok := value.(decimal.Decimal)
	if !ok || !d.IsPositive() {
		return errors.New("must be a positive number")
	}
	return nil
}

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	raw := env(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func listEnv(key, fallback string) []string {
	var out []string
	for _, part := range strings.Split(env(key, fallback), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

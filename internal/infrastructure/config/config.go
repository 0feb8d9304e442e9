package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	StoreDynamoDB = "dynamodb"
	StoreMemory   = "memory"
)

// defaultGatewayTimeout is what the gateway adapters use when Timeout is 0.
const defaultGatewayTimeout = 30 * time.Second

// minLockTimeoutRatio is how many worst-case gateway calls the charge lock
// TTL must cover.
const minLockTimeoutRatio = 2

var defaultAcceptedCurrencies = []string{"USD", "CAD", "GBP", "DKK", "NOK", "PLN", "SEK", "EUR", "AUD", "NZD"}

type Config struct {
	Port     string         `yaml:"port" validate:"required,numeric"`
	Debug    bool           `yaml:"debug"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Payment  PaymentConfig  `yaml:"payment"`
	Store    StoreConfig    `yaml:"store"`
	Database DatabaseConfig `yaml:"database"`
}

type GatewayConfig struct {
	Provider      string             `yaml:"provider" validate:"oneof=authorizenet mercadopago"`
	Mock          bool               `yaml:"mock"`
	Timeout       time.Duration      `yaml:"timeout" validate:"gte=0"`
	ReferenceSalt string             `yaml:"reference_salt"`
	AuthorizeNet  AuthorizeNetConfig `yaml:"authorize_net"`
	MercadoPago   MercadoPagoConfig  `yaml:"mercado_pago"`
}

type AuthorizeNetConfig struct {
	APILoginID     string `yaml:"api_login_id"`
	TransactionKey string `yaml:"transaction_key"`
	Environment    string `yaml:"environment" validate:"oneof=sandbox production"`
}

// MercadoPagoConfig describes one Mercado Pago account. Currency is the
// account's settlement currency; the account cannot charge any other.
type MercadoPagoConfig struct {
	AccessToken string `yaml:"access_token"`
	PublicKey   string `yaml:"public_key"`
	PayerEmail  string `yaml:"payer_email" validate:"omitempty,email"`
	Currency    string `yaml:"currency" validate:"omitempty,iso4217"`
}

type PaymentConfig struct {
	AcceptedCurrencies []string          `yaml:"accepted_currencies" validate:"min=1,dive,iso4217"`
	ConvertTo          string            `yaml:"convert_to" validate:"omitempty,iso4217"`
	PaymentPageURL     string            `yaml:"payment_page_url" validate:"required,url"`
	LogInfoMessages    bool              `yaml:"log_info_messages"`
	HashSecret         string            `yaml:"hash_secret" validate:"required"`
	ChargeLockTTL      time.Duration     `yaml:"charge_lock_ttl" validate:"gt=0"`
	RatesBase          string            `yaml:"rates_base" validate:"omitempty,iso4217"`
	Rates              map[string]string `yaml:"rates"`
}

type StoreConfig struct {
	Kind             string `yaml:"kind" validate:"oneof=dynamodb memory"`
	PaymentsTable    string `yaml:"payments_table"`
	AWSRegion        string `yaml:"aws_region"`
	DynamoDBEndpoint string `yaml:"dynamodb_endpoint" validate:"omitempty,url"`
}

type DatabaseConfig struct {
	URL         string `yaml:"url" validate:"required"`
	MaxConns    int32  `yaml:"max_conns" validate:"gt=0"`
	MaxIdleTime string `yaml:"max_idle_time"`
}

// Default returns the configuration used when neither a file nor the
// environment says otherwise.
func Default() Config {
	return Config{
		Port: "8080",
		Gateway: GatewayConfig{
			Provider:     "authorizenet",
			Timeout:      30 * time.Second,
			AuthorizeNet: AuthorizeNetConfig{Environment: "sandbox"},
		},
		Payment: PaymentConfig{
			AcceptedCurrencies: append([]string(nil), defaultAcceptedCurrencies...),
			ChargeLockTTL:      2 * time.Minute,
			RatesBase:          "USD",
		},
		Store: StoreConfig{
			Kind:          StoreDynamoDB,
			PaymentsTable: "card_payments",
			AWSRegion:     "us-east-1",
		},
		Database: DatabaseConfig{
			MaxConns:    10,
			MaxIdleTime: "15m",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (or
// CONFIG_FILE), then environment overrides. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	normalize(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Port, "PORT")
	setBool(&cfg.Debug, "DEBUG")

	setString(&cfg.Gateway.Provider, "PAYMENT_GATEWAY")
	setBool(&cfg.Gateway.Mock, "PAYMENT_GATEWAY_MOCK")
	setString(&cfg.Gateway.ReferenceSalt, "PAYMENT_REFERENCE_SALT")
	setString(&cfg.Gateway.AuthorizeNet.APILoginID, "AUTHORIZE_NET_API_LOGIN_ID")
	setString(&cfg.Gateway.AuthorizeNet.TransactionKey, "AUTHORIZE_NET_TRANSACTION_KEY")
	setString(&cfg.Gateway.AuthorizeNet.Environment, "AUTHORIZE_NET_ENVIRONMENT")
	setString(&cfg.Gateway.MercadoPago.AccessToken, "MERCADOPAGO_ACCESS_TOKEN")
	setString(&cfg.Gateway.MercadoPago.PublicKey, "MERCADOPAGO_PUBLIC_KEY")
	setString(&cfg.Gateway.MercadoPago.PayerEmail, "MERCADOPAGO_PAYER_EMAIL")
	setString(&cfg.Gateway.MercadoPago.Currency, "MERCADOPAGO_CURRENCY")
	if err := setDuration(&cfg.Gateway.Timeout, "PAYMENT_GATEWAY_TIMEOUT"); err != nil {
		return err
	}

	setString(&cfg.Payment.ConvertTo, "PAYMENT_CONVERT_TO")
	setString(&cfg.Payment.PaymentPageURL, "PAYMENT_PAGE_URL")
	setBool(&cfg.Payment.LogInfoMessages, "PAYMENT_LOG_INFO_MESSAGES")
	setString(&cfg.Payment.HashSecret, "PAYMENT_HASH_SECRET")
	setString(&cfg.Payment.RatesBase, "CURRENCY_RATES_BASE")
	if v := strings.TrimSpace(os.Getenv("PAYMENT_ACCEPTED_CURRENCIES")); v != "" {
		cfg.Payment.AcceptedCurrencies = splitList(v)
	}
	if v := strings.TrimSpace(os.Getenv("CURRENCY_RATES")); v != "" {
		rates, err := parseRatePairs(v)
		if err != nil {
			return err
		}
		cfg.Payment.Rates = rates
	}
	if err := setDuration(&cfg.Payment.ChargeLockTTL, "PAYMENT_CHARGE_LOCK_TTL"); err != nil {
		return err
	}

	setString(&cfg.Store.Kind, "PAYMENT_STORE")
	setString(&cfg.Store.PaymentsTable, "PAYMENTS_TABLE")
	setString(&cfg.Store.AWSRegion, "AWS_REGION")
	setString(&cfg.Store.DynamoDBEndpoint, "DYNAMODB_ENDPOINT")

	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Database.MaxIdleTime, "DB_MAX_IDLE_TIME")
	if v := strings.TrimSpace(os.Getenv("DB_MAX_CONNS")); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("DB_MAX_CONNS: %w", err)
		}
		cfg.Database.MaxConns = int32(n)
	}
	return nil
}

func normalize(cfg *Config) {
	cfg.Gateway.Provider = strings.ToLower(strings.TrimSpace(cfg.Gateway.Provider))
	cfg.Gateway.AuthorizeNet.Environment = strings.ToLower(strings.TrimSpace(cfg.Gateway.AuthorizeNet.Environment))
	cfg.Store.Kind = strings.ToLower(strings.TrimSpace(cfg.Store.Kind))
	cfg.Gateway.MercadoPago.Currency = strings.ToUpper(strings.TrimSpace(cfg.Gateway.MercadoPago.Currency))
	cfg.Payment.ConvertTo = strings.ToUpper(strings.TrimSpace(cfg.Payment.ConvertTo))
	cfg.Payment.RatesBase = strings.ToUpper(strings.TrimSpace(cfg.Payment.RatesBase))
	for i, c := range cfg.Payment.AcceptedCurrencies {
		cfg.Payment.AcceptedCurrencies[i] = strings.ToUpper(strings.TrimSpace(c))
	}
}

// Validate checks field formats and the credentials the selected gateway
// needs.
func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if !c.Gateway.Mock {
		switch c.Gateway.Provider {
		case "authorizenet":
			if c.Gateway.AuthorizeNet.APILoginID == "" || c.Gateway.AuthorizeNet.TransactionKey == "" {
				return errors.New("invalid config: authorize.net requires api_login_id and transaction_key")
			}
		case "mercadopago":
			if c.Gateway.MercadoPago.AccessToken == "" || c.Gateway.MercadoPago.PublicKey == "" {
				return errors.New("invalid config: mercado pago requires access_token and public_key")
			}
			if err := c.validateMercadoPagoCurrency(); err != nil {
				return err
			}
		}
	}

	if floor := minLockTimeoutRatio * c.Gateway.EffectiveTimeout(); c.Payment.ChargeLockTTL < floor {
		return fmt.Errorf("invalid config: charge_lock_ttl %s must be at least %s (%dx the gateway timeout)",
			c.Payment.ChargeLockTTL, floor, minLockTimeoutRatio)
	}

	if c.Payment.ConvertTo != "" {
		rates, err := c.Payment.RateTable()
		if err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		if _, ok := rates[c.Payment.ConvertTo]; !ok && c.Payment.ConvertTo != c.Payment.RatesBase {
			return fmt.Errorf("invalid config: no rate for convert_to %s (rates_base %s)", c.Payment.ConvertTo, c.Payment.RatesBase)
		}
	}
	return nil
}

// A Mercado Pago account settles in a single currency, so every currency the
// service may send to it has to be that one.
func (c Config) validateMercadoPagoCurrency() error {
	currency := c.Gateway.MercadoPago.Currency
	if currency == "" {
		return errors.New("invalid config: mercado pago requires currency")
	}
	for _, accepted := range c.Payment.AcceptedCurrencies {
		if accepted != currency {
			return fmt.Errorf("invalid config: accepted currency %s differs from mercado pago currency %s", accepted, currency)
		}
	}
	if c.Payment.ConvertTo != "" && c.Payment.ConvertTo != currency {
		return fmt.Errorf("invalid config: convert_to %s differs from mercado pago currency %s", c.Payment.ConvertTo, currency)
	}
	return nil
}

// EffectiveTimeout is the per-charge timeout the gateway adapters apply.
func (g GatewayConfig) EffectiveTimeout() time.Duration {
	if g.Timeout > 0 {
		return g.Timeout
	}
	return defaultGatewayTimeout
}

// RateTable parses the configured exchange rates.
func (p PaymentConfig) RateTable() (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(p.Rates))
	for code, raw := range p.Rates {
		rate, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("rate for %s: %w", code, err)
		}
		if !rate.IsPositive() {
			return nil, fmt.Errorf("rate for %s must be positive", code)
		}
		out[strings.ToUpper(strings.TrimSpace(code))] = rate
	}
	return out, nil
}

// parseRatePairs reads "EUR=0.92,JPY=151.3".
func parseRatePairs(s string) (map[string]string, error) {
	out := map[string]string{}
	for _, pair := range splitList(s) {
		code, rate, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(code) == "" || strings.TrimSpace(rate) == "" {
			return nil, fmt.Errorf("CURRENCY_RATES: malformed pair %q", pair)
		}
		out[strings.ToUpper(strings.TrimSpace(code))] = strings.TrimSpace(rate)
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == ';' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on", "mock":
		*dst = true
	case "0", "false", "no", "off":
		*dst = false
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

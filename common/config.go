package common

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strings"
)

type Config struct {
	ListenAddr    string `json:"listen_addr"`
	DatabaseURL   string `json:"database_url"`
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`
	RedisPrefix   string `json:"redis_prefix"`

	// Gateway selects the payment gateway integration: "cashfree" or "razorpay".
	Gateway string `json:"gateway"`

	CashfreeAppID     string `json:"cashfree_app_id"`
	CashfreeSecretKey string `json:"cashfree_secret_key"`
	CashfreeAPIURL    string `json:"cashfree_api_url"`

	RazorpayKeyID     string `json:"razorpay_key_id"`
	RazorpayKeySecret string `json:"razorpay_key_secret"`
	RazorpayAPIURL    string `json:"razorpay_api_url"`

	SendgridAPIKey string `json:"sendgrid_api_key"`
	SenderEmail    string `json:"sender_email"`

	FrontendKey string `json:"frontend_key"`

	RequestTimeoutSeconds int `json:"request_timeout_seconds"`
}

func LoadConfig(dir string) (*Config, error) {
	cfg := DefaultConfig()

	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = DEFAULT_CONFIG_FILE
	}

	if !strings.HasPrefix(configPath, "/") && dir != "" {
		configPath = path.Join(dir, configPath)
	}

	if _, err := os.Stat(configPath); err == nil {
		fileCfg, err := LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		cfg.applyConfigOverrides(fileCfg)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

func LoadConfigFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		f, err := os.Open(path)
		if err == nil {
			defer f.Close()
			dec := json.NewDecoder(f)
			_ = dec.Decode(&cfg) // ignore error, fallback to env/defaults
		}
	}
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		ListenAddr:            DEFAULT_LISTEN_ADDR,
		RedisAddr:             DEFAULT_REDIS_ADDR,
		RedisPassword:         "",
		RedisPrefix:           DEFAULT_REDIS_PREFIX,
		Gateway:               DEFAULT_GATEWAY,
		CashfreeAPIURL:        CASHFREE_SANDBOX_API_URL,
		RazorpayAPIURL:        RAZORPAY_API_BASE_URL,
		SenderEmail:           DEFAULT_SENDER_EMAIL,
		RequestTimeoutSeconds: DEFAULT_REQUEST_TIMEOUT_SECONDS,
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("REDIS_PREFIX"); v != "" {
		c.RedisPrefix = v
	}
	if v := os.Getenv("PAYMENT_GATEWAY"); v != "" {
		c.Gateway = strings.ToLower(v)
	}
	if v := os.Getenv("CASHFREE_APP_ID"); v != "" {
		c.CashfreeAppID = v
	}
	if v := os.Getenv("CASHFREE_SECRET_KEY"); v != "" {
		c.CashfreeSecretKey = v
	}
	if v := os.Getenv("CASHFREE_API_URL"); v != "" {
		c.CashfreeAPIURL = v
	}
	if v := os.Getenv("RAZORPAY_KEY_ID"); v != "" {
		c.RazorpayKeyID = v
	}
	if v := os.Getenv("RAZORPAY_KEY_SECRET"); v != "" {
		c.RazorpayKeySecret = v
	}
	if v := os.Getenv("RAZORPAY_API_URL"); v != "" {
		c.RazorpayAPIURL = v
	}
	if v := os.Getenv("SENDGRID_API_KEY"); v != "" {
		c.SendgridAPIKey = v
	}
	if v := os.Getenv("SENDER_EMAIL"); v != "" {
		c.SenderEmail = v
	}
	if v := os.Getenv("FRONTEND_KEY"); v != "" {
		c.FrontendKey = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT_SECONDS"); v != "" {
		c.RequestTimeoutSeconds = atoiOrDefault(v, c.RequestTimeoutSeconds)
	}
}

func (c *Config) applyConfigOverrides(cfg *Config) {
	if cfg.ListenAddr != "" {
		c.ListenAddr = cfg.ListenAddr
	}
	if cfg.DatabaseURL != "" {
		c.DatabaseURL = cfg.DatabaseURL
	}
	if cfg.RedisAddr != "" {
		c.RedisAddr = cfg.RedisAddr
	}
	if cfg.RedisPassword != "" {
		c.RedisPassword = cfg.RedisPassword
	}
	if cfg.RedisPrefix != "" {
		c.RedisPrefix = cfg.RedisPrefix
	}
	if cfg.Gateway != "" {
		c.Gateway = cfg.Gateway
	}
	if cfg.CashfreeAppID != "" {
		c.CashfreeAppID = cfg.CashfreeAppID
	}
	if cfg.CashfreeSecretKey != "" {
		c.CashfreeSecretKey = cfg.CashfreeSecretKey
	}
	if cfg.CashfreeAPIURL != "" {
		c.CashfreeAPIURL = cfg.CashfreeAPIURL
	}
	if cfg.RazorpayKeyID != "" {
		c.RazorpayKeyID = cfg.RazorpayKeyID
	}
	if cfg.RazorpayKeySecret != "" {
		c.RazorpayKeySecret = cfg.RazorpayKeySecret
	}
	if cfg.RazorpayAPIURL != "" {
		c.RazorpayAPIURL = cfg.RazorpayAPIURL
	}
	if cfg.SendgridAPIKey != "" {
		c.SendgridAPIKey = cfg.SendgridAPIKey
	}
	if cfg.SenderEmail != "" {
		c.SenderEmail = cfg.SenderEmail
	}
	if cfg.FrontendKey != "" {
		c.FrontendKey = cfg.FrontendKey
	}
	if cfg.RequestTimeoutSeconds != 0 {
		c.RequestTimeoutSeconds = cfg.RequestTimeoutSeconds
	}
}

func atoiOrDefault(s string, def int) int {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	if err != nil {
		return def
	}
	return n
}

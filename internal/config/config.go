// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"
)

type Config struct {
	RPCList      []string `mapstructure:"rpc_list"`
	WebSocketURL string   `mapstructure:"websocket_url"`
	ProgramID    string   `mapstructure:"program_id"`
	Mint         string   `mapstructure:"mint"`
	Treasury     string   `mapstructure:"treasury"`
	PriceFeedURL string   `mapstructure:"price_feed_url"`
	PostgresURL  string   `mapstructure:"postgres_url"`
	MonitorDelay int      `mapstructure:"monitor_delay"`
	RPCDelay     int      `mapstructure:"rpc_delay"`
	PriceDelay   int      `mapstructure:"price_delay"`
	PageSize     int      `mapstructure:"page_size"`
	Retries      int      `mapstructure:"retries"`
	DebugLogging bool     `mapstructure:"debug_logging"`
}

const (
	DefaultMonitorDelay = 1000
	DefaultRPCDelay     = 100
	DefaultPriceDelay   = 500
	DefaultPageSize     = 5
	DefaultRetries      = 3
	DefaultPriceFeedURL = "https://api.dexscreener.com/latest/dex"
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"monitor_delay":  DefaultMonitorDelay,
		"rpc_delay":      DefaultRPCDelay,
		"price_delay":    DefaultPriceDelay,
		"page_size":      DefaultPageSize,
		"retries":        DefaultRetries,
		"price_feed_url": DefaultPriceFeedURL,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if len(cfg.RPCList) == 0 {
		return errors.New("rpc_list is empty")
	}
	for _, rpcURL := range cfg.RPCList {
		if err := validateURLWithCache(rpcURL, "http"); err != nil {
			return errors.New("invalid RPC URL: " + rpcURL)
		}
	}
	if cfg.WebSocketURL != "" {
		if err := validateURLWithCache(cfg.WebSocketURL, "ws"); err != nil {
			return errors.New("invalid WebSocket URL protocol")
		}
	}
	if cfg.ProgramID == "" {
		return errors.New("missing program_id in configuration")
	}
	if _, err := solana.PublicKeyFromBase58(cfg.ProgramID); err != nil {
		return errors.New("program_id is not a valid public key")
	}
	if cfg.Mint != "" {
		if _, err := solana.PublicKeyFromBase58(cfg.Mint); err != nil {
			return errors.New("mint is not a valid public key")
		}
	}
	if cfg.Treasury != "" {
		if _, err := solana.PublicKeyFromBase58(cfg.Treasury); err != nil {
			return errors.New("treasury is not a valid public key")
		}
	}
	if err := validateNumericParams(cfg); err != nil {
		return err
	}
	return nil
}

func validateNumericParams(cfg *Config) error {
	if cfg.MonitorDelay < 0 {
		return errors.New("monitor_delay must not be negative")
	}
	if cfg.RPCDelay < 0 {
		return errors.New("rpc_delay must not be negative")
	}
	if cfg.PriceDelay < 0 {
		return errors.New("price_delay must not be negative")
	}
	if cfg.PageSize <= 0 {
		return errors.New("page_size must be positive")
	}
	if cfg.Retries < 0 {
		return errors.New("retries must not be negative")
	}
	return nil
}

var urlValidationCache sync.Map

func validateURLWithCache(rawURL, expectedScheme string) error {
	cacheKey := rawURL + "|" + expectedScheme
	if cached, ok := urlValidationCache.Load(cacheKey); ok {
		if cached == nil {
			return nil
		}
		return cached.(error)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		urlValidationCache.Store(cacheKey, err)
		return err
	}
	if !strings.HasPrefix(parsed.Scheme, expectedScheme) {
		err = errors.New("unexpected URL scheme: " + parsed.Scheme)
		urlValidationCache.Store(cacheKey, err)
		return err
	}

	urlValidationCache.Store(cacheKey, nil)
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("LAUNCHPAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if rpcList := v.GetString("RPC_LIST"); rpcList != "" {
		cfg.RPCList = strings.Split(rpcList, ",")
	}
	if wsURL := v.GetString("WEBSOCKET_URL"); wsURL != "" {
		cfg.WebSocketURL = wsURL
	}
	if postgresURL := v.GetString("POSTGRES_URL"); postgresURL != "" {
		cfg.PostgresURL = postgresURL
	}

	return nil
}

// Package config loads the backend twin's YAML configuration: listen port,
// session signing, and the static coin-plan catalog offered for purchase.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CoinPlan is one fixed coin bundle a reader can buy.
type CoinPlan struct {
	Coins    int64   `yaml:"coins" json:"coinAmount"`
	PriceUSD float64 `yaml:"price_usd" json:"amountPaid"`
	Label    string  `yaml:"label" json:"label"`
}

// Config represents the twin's configuration file.
type Config struct {
	Port          int           `yaml:"port"`
	SessionSecret string        `yaml:"session_secret"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	WebhookURL    string        `yaml:"webhook_url"`
	WebhookSecret string        `yaml:"webhook_secret"`
	Plans         []CoinPlan    `yaml:"plans"`
}

// Default returns the configuration used when no file is given. The plan
// catalog mirrors the production storefront.
func Default() *Config {
	return &Config{
		Port:          9040,
		SessionSecret: "novel-twin-dev-secret",
		SessionTTL:    7 * 24 * time.Hour,
		WebhookSecret: "whsec_novel_twin",
		Plans: []CoinPlan{
			{Coins: 100, PriceUSD: 5, Label: "Let's Do this"},
			{Coins: 300, PriceUSD: 14, Label: "I'm Intrested."},
			{Coins: 500, PriceUSD: 22, Label: "This Novel Looks Nice~"},
			{Coins: 700, PriceUSD: 29, Label: "I'm hooked Up!"},
			{Coins: 1000, PriceUSD: 38, Label: "Spendin Goood!"},
		},
	}
}

// Load reads a config file, filling unset fields from Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks constraints the twin depends on.
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		return fmt.Errorf("session_secret must not be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}
	if len(c.Plans) == 0 {
		return fmt.Errorf("at least one coin plan is required")
	}
	for i, p := range c.Plans {
		if p.Coins <= 0 {
			return fmt.Errorf("plan %d: coins must be positive", i)
		}
		if p.PriceUSD <= 0 {
			return fmt.Errorf("plan %d: price_usd must be positive", i)
		}
	}
	return nil
}

// FindPlan returns the plan matching a coin amount and paid price exactly,
// or false if the bundle is not in the catalog.
func (c *Config) FindPlan(coins int64, priceUSD float64) (CoinPlan, bool) {
	for _, p := range c.Plans {
		if p.Coins == coins && p.PriceUSD == priceUSD {
			return p, true
		}
	}
	return CoinPlan{}, false
}

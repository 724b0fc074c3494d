package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Catalog struct {
		TTL string `yaml:"ttl"`
	} `yaml:"catalog"`
	Rewards struct {
		TTL string `yaml:"ttl"`
		// Fallback plan for games missing from the reward catalog. The games
		// historically hardcoded these per file; here they are configuration.
		DefaultCoinsPerStage int `yaml:"default_coins_per_stage"`
		DefaultTotalCoins    int `yaml:"default_total_coins"`
		DefaultTotalXP       int `yaml:"default_total_xp"`
	} `yaml:"rewards"`
	Timing struct {
		RevealDelay      string `yaml:"reveal_delay"`
		FinalSettleDelay string `yaml:"final_settle_delay"`
	} `yaml:"timing"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

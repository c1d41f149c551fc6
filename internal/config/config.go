package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadFromBytes loads configuration from YAML bytes with environment variable expansion.
func LoadFromBytes(data []byte) (Config, error) {
	var c Config
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &c); err != nil {
		return c, err
	}
	applyDefaults(&c)
	return c, nil
}

// Load reads a YAML config file from path and applies env expansion and defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return LoadFromBytes(data)
}

func applyDefaults(c *Config) {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8787
	}
	if c.Upstream.ClientVersion == "" {
		c.Upstream.ClientVersion = "1.0.0"
	}
	if c.Upstream.OSCategory == "" {
		c.Upstream.OSCategory = "linux"
	}
	if c.Upstream.OSVersion == "" {
		c.Upstream.OSVersion = "unknown"
	}
	if c.Upstream.SendPath == "" {
		c.Upstream.SendPath = "/v1/agent/send"
	}
	if c.Model.Default == "" {
		c.Model.Default = "gateway-default"
	}
	if c.Timeouts.ConnectSeconds == 0 {
		c.Timeouts.ConnectSeconds = 10
	}
	if c.Timeouts.ReadSeconds == 0 {
		c.Timeouts.ReadSeconds = 300
	}
	if c.Timeouts.WriteSeconds == 0 {
		c.Timeouts.WriteSeconds = 10
	}
	if c.Timeouts.PoolAcquireSeconds == 0 {
		c.Timeouts.PoolAcquireSeconds = 10
	}
	if c.Timeouts.IdleKeepaliveSeconds == 0 {
		c.Timeouts.IdleKeepaliveSeconds = 120
	}
	if c.Timeouts.DNSCacheTTLSeconds == 0 {
		c.Timeouts.DNSCacheTTLSeconds = 300
	}
	if c.Security.MaxRequestBodySize == 0 {
		c.Security.MaxRequestBodySize = 10485760
	}
	if c.Security.QuotaBackoffBaseSeconds == 0 {
		c.Security.QuotaBackoffBaseSeconds = 2
	}
	if c.Security.MaxUpstreamAttempts == 0 {
		c.Security.MaxUpstreamAttempts = 3
	}
	if c.Telemetry.SQLitePath == "" {
		c.Telemetry.SQLitePath = "relaygw.db"
	}
	if c.ModelCatalog.Path == "" {
		c.ModelCatalog.Path = "models.yaml"
	}
}

// parseBool parses a string as boolean with a default value.
// Accepts: "true", "1", "yes" as true; empty or other values return default.
func parseBool(s string, defaultVal bool) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return defaultVal
	}
	return s == "true" || s == "1" || s == "yes"
}

type Config struct {
	Name string `yaml:"Name"`
	Host string `yaml:"Host"`
	Port int    `yaml:"Port"`
	// APIKey gates every request via the X-API-Key / Bearer auth middleware.
	// Empty disables auth — only intended for local development.
	APIKey string `yaml:"APIKey"`

	Upstream struct {
		BaseURL       string `yaml:"BaseURL"`
		SendPath      string `yaml:"SendPath"`
		ClientVersion string `yaml:"ClientVersion"`
		OSCategory    string `yaml:"OSCategory"`
		OSVersion     string `yaml:"OSVersion"`
	} `yaml:"Upstream"`

	Model struct {
		Default string `yaml:"Default"`
	} `yaml:"Model"`

	Timeouts struct {
		ConnectSeconds       int `yaml:"ConnectSeconds"`
		ReadSeconds          int `yaml:"ReadSeconds"`
		WriteSeconds         int `yaml:"WriteSeconds"`
		PoolAcquireSeconds   int `yaml:"PoolAcquireSeconds"`
		IdleKeepaliveSeconds int `yaml:"IdleKeepaliveSeconds"`
		DNSCacheTTLSeconds   int `yaml:"DNSCacheTTLSeconds"`
	} `yaml:"Timeouts"`

	Security struct {
		MaxRequestBodySize      int64  `yaml:"MaxRequestBodySize"`
		QuotaBackoffBaseSeconds int    `yaml:"QuotaBackoffBaseSeconds"`
		MaxUpstreamAttempts     int    `yaml:"MaxUpstreamAttempts"`
		ObservabilityEnabled    string `yaml:"ObservabilityEnabled"`
	} `yaml:"Security"`

	Telemetry struct {
		SQLitePath string `yaml:"SQLitePath"`
	} `yaml:"Telemetry"`

	ModelCatalog struct {
		Path string `yaml:"Path"`
	} `yaml:"ModelCatalog"`

	Credential struct {
		KeyringDisabled        string `yaml:"KeyringDisabled"`
		RefreshIntervalSeconds int    `yaml:"RefreshIntervalSeconds"`
	} `yaml:"Credential"`
}

func (c Config) IsObservabilityEnabled() bool {
	return parseBool(c.Security.ObservabilityEnabled, true)
}

func (c Config) IsKeyringDisabled() bool {
	return parseBool(c.Credential.KeyringDisabled, false)
}

// CredentialRefreshInterval is how often the background Refresher proactively
// renews the bearer token. Defaults to 10 minutes when unset.
func (c Config) CredentialRefreshInterval() time.Duration {
	if c.Credential.RefreshIntervalSeconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.Credential.RefreshIntervalSeconds) * time.Second
}

package model

import "time"

// Config is the complete SaferStep configuration.
// Fields carry both yaml tags (config show/init) and mapstructure tags (viper).
type Config struct {
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Chat      ChatConfig      `yaml:"chat" mapstructure:"chat"`
	Emergency EmergencyConfig `yaml:"emergency" mapstructure:"emergency"`
	Location  LocationConfig  `yaml:"location" mapstructure:"location"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Proxy     ProxyConfig     `yaml:"proxy" mapstructure:"proxy"`
}

// LLMConfig configures optional remote response generation.
// An empty Provider disables delegation entirely.
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, ""
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ChatConfig configures per-session behavior.
type ChatConfig struct {
	Greeting        bool          `yaml:"greeting" mapstructure:"greeting"`
	SessionTTL      time.Duration `yaml:"session_ttl" mapstructure:"session_ttl"`
	LocateTimeout   time.Duration `yaml:"locate_timeout" mapstructure:"locate_timeout"`
	MaxUtteranceLen int           `yaml:"max_utterance_len" mapstructure:"max_utterance_len"`
}

// EmergencyConfig configures what happens after an SOS is acknowledged.
type EmergencyConfig struct {
	Delay      time.Duration `yaml:"delay" mapstructure:"delay"`
	WebhookURL string        `yaml:"webhook_url,omitempty" mapstructure:"webhook_url"`
	Contacts   []Contact     `yaml:"contacts" mapstructure:"contacts"`
}

// Contact is an emergency contact notified when an SOS fires.
type Contact struct {
	Name     string `yaml:"name" mapstructure:"name" json:"name"`
	Phone    string `yaml:"phone" mapstructure:"phone" json:"phone"`
	Relation string `yaml:"relation,omitempty" mapstructure:"relation" json:"relation,omitempty"`
}

// LocationConfig selects the geolocation provider.
type LocationConfig struct {
	Provider  string  `yaml:"provider" mapstructure:"provider"` // static, http, none
	Latitude  float64 `yaml:"latitude" mapstructure:"latitude"`
	Longitude float64 `yaml:"longitude" mapstructure:"longitude"`
	URL       string  `yaml:"url,omitempty" mapstructure:"url"`
}

// CacheConfig configures the remote reply cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Directory string        `yaml:"directory" mapstructure:"directory"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// RateLimitConfig bounds outbound remote generation calls per host.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// BatchConfig configures batch mode.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// LogConfig configures zerolog output.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Pretty bool   `yaml:"pretty" mapstructure:"pretty"`
}

// ProxyConfig holds outbound proxy settings for remote calls.
type ProxyConfig struct {
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:  "", // Disabled by default
			Timeout:   10,
			MaxTokens: 300,
		},
		Chat: ChatConfig{
			Greeting:        true,
			SessionTTL:      30 * time.Minute,
			LocateTimeout:   5 * time.Second,
			MaxUtteranceLen: 2000,
		},
		Emergency: EmergencyConfig{
			Delay: time.Second,
		},
		Location: LocationConfig{
			Provider: "none",
		},
		Cache: CacheConfig{
			Enabled:   true,
			Directory: "",
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Batch: BatchConfig{
			Concurrency: 4,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

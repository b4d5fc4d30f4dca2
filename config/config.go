package config

import (
	"github.com/jinzhu/configor"
)

// Config - Application configuration
type Config struct {
	Wayback struct {
		CDXEndpoint    string `yaml:"cdx_endpoint" default:"https://web.archive.org/cdx/search/cdx" env:"WAYBACK_CDX_ENDPOINT"`
		ReplayEndpoint string `yaml:"replay_endpoint" default:"https://web.archive.org/web" env:"WAYBACK_REPLAY_ENDPOINT"`
		Timeout        int    `yaml:"timeout" default:"30" env:"WAYBACK_TIMEOUT"` // Timeout in seconds, per request
		UserAgent      string `yaml:"user_agent" default:"mcp-wayback/1.0" env:"WAYBACK_USER_AGENT"`
		DefaultLimit   int    `yaml:"default_limit" default:"10" env:"WAYBACK_DEFAULT_LIMIT"`
		MaxBodyBytes   int64  `yaml:"max_body_bytes" default:"10485760" env:"WAYBACK_MAX_BODY_BYTES"`
	} `yaml:"wayback"`

	HTTP struct {
		Addr         string `yaml:"addr" default:":8080" env:"HTTP_ADDR"`
		ReadTimeout  int    `yaml:"read_timeout" default:"15" env:"HTTP_READ_TIMEOUT"`   // seconds
		WriteTimeout int    `yaml:"write_timeout" default:"90" env:"HTTP_WRITE_TIMEOUT"` // seconds, covers two upstream calls
	} `yaml:"http"`

	MCP struct {
		DefaultMaxLength int `yaml:"default_max_length" default:"5000" env:"MCP_DEFAULT_MAX_LENGTH"`
	} `yaml:"mcp"`
}

// LoadConfig - Load configuration file.
// An empty path loads defaults and environment overrides only.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	files := []string{}
	if path != "" {
		files = append(files, path)
	}
	err := configor.New(&configor.Config{
		Debug:      false,
		Verbose:    false,
		Silent:     true,
		AutoReload: false,
	}).Load(cfg, files...)
	return cfg, err
}

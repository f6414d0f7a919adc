package config

import "time"

// Config represents the main configuration structure
type Config struct {
	Patterns  PatternsConfig  `yaml:"patterns" mapstructure:"patterns"`
	OCR       OCRConfig       `yaml:"ocr" mapstructure:"ocr"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Detection DetectionConfig `yaml:"detection" mapstructure:"detection"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
}

// PatternsConfig selects what counts as sensitive
type PatternsConfig struct {
	Mail    bool     `yaml:"mail" mapstructure:"mail"`
	Phone   bool     `yaml:"phone" mapstructure:"phone"`
	IPv4    bool     `yaml:"ipv4" mapstructure:"ipv4"`
	IPv6    bool     `yaml:"ipv6" mapstructure:"ipv6"`
	All     bool     `yaml:"all" mapstructure:"all"`
	Strings []string `yaml:"strings" mapstructure:"strings"`
}

// OCRConfig contains text recognition settings
type OCRConfig struct {
	Engine      string        `yaml:"engine" mapstructure:"engine"` // cli or gosseract
	Binary      string        `yaml:"binary" mapstructure:"binary"`
	Language    string        `yaml:"language" mapstructure:"language"`
	PSM         int           `yaml:"psm" mapstructure:"psm"`
	TessdataDir string        `yaml:"tessdata_dir" mapstructure:"tessdata_dir"`
	Upscale     float64       `yaml:"upscale" mapstructure:"upscale"`
	Grayscale   bool          `yaml:"grayscale" mapstructure:"grayscale"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// OutputConfig controls where and how the redacted image is written
type OutputConfig struct {
	Dir         string `yaml:"dir" mapstructure:"dir"`
	JPEGQuality int    `yaml:"jpeg_quality" mapstructure:"jpeg_quality"`
	Report      string `yaml:"report" mapstructure:"report"`
}

// DetectionConfig tunes token classification
type DetectionConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
}

// ServerConfig contains MCP server settings
type ServerConfig struct {
	WatchConfig  bool `yaml:"watch_config" mapstructure:"watch_config"`
	PreviewWidth int  `yaml:"preview_width" mapstructure:"preview_width"`

	// RateLimit caps OCR-backed tool calls per second. Zero means no limit.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// Engine names
const (
	EngineCLI       = "cli"
	EngineGosseract = "gosseract"
)

// GetDefaults returns the default configuration
func GetDefaults() *Config {
	return &Config{
		OCR: OCRConfig{
			Engine:   EngineCLI,
			Language: "eng",
			Upscale:  1,
			Timeout:  2 * time.Minute,
		},
		Output: OutputConfig{
			JPEGQuality: 95,
		},
		Detection: DetectionConfig{
			Workers: 4,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
		Server: ServerConfig{
			PreviewWidth: 800,
		},
	}
}

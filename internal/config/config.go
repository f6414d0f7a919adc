package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ironsheep/image-redact/internal/patterns"
)

// ErrInvalid is returned for configuration values that cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// EnvPrefix prefixes every environment override, e.g. IMAGE_REDACT_OCR_BINARY.
const EnvPrefix = "IMAGE_REDACT"

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"mail":         "patterns.mail",
	"phone":        "patterns.phone",
	"ipv4":         "patterns.ipv4",
	"ipv6":         "patterns.ipv6",
	"all":          "patterns.all",
	"strings":      "patterns.strings",
	"engine":       "ocr.engine",
	"bin":          "ocr.binary",
	"lang":         "ocr.language",
	"psm":          "ocr.psm",
	"tessdata-dir": "ocr.tessdata_dir",
	"upscale":      "ocr.upscale",
	"grayscale":    "ocr.grayscale",
	"timeout":      "ocr.timeout",
	"output":       "output.dir",
	"jpeg-quality": "output.jpeg_quality",
	"report":       "output.report",
	"workers":      "detection.workers",
	"log-level":    "logging.level",
	"log-format":   "logging.format",
	"watch-config": "server.watch_config",
	"rate-limit":   "server.rate_limit",
}

// RegisterFlags defines the redaction flags on fs. Flag defaults are zero
// values; real defaults come from GetDefaults so that a config file or the
// environment can still override anything not given on the command line.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to configuration file")

	fs.BoolP("mail", "m", false, "Anonymize email addresses")
	fs.BoolP("phone", "p", false, "Anonymize phone numbers")
	fs.BoolP("ipv4", "4", false, "Anonymize IPv4 addresses")
	fs.BoolP("ipv6", "6", false, "Anonymize IPv6 addresses")
	fs.BoolP("all", "a", false, "Anonymize all information")
	fs.StringP("strings", "s", "", "Anonymize a comma-separated list of strings")

	fs.StringP("output", "o", "", "Output directory")
	fs.StringP("bin", "b", "", "Tesseract binary path")
	fs.String("engine", "", "OCR engine: cli or gosseract")
	fs.String("lang", "", "Tesseract language, e.g. eng or fra+eng")
	fs.Int("psm", 0, "Tesseract page segmentation mode")
	fs.String("tessdata-dir", "", "Tesseract language data directory")
	fs.Float64("upscale", 0, "Enlarge the image by this factor before OCR")
	fs.Bool("grayscale", false, "Convert the image to grayscale before OCR")
	fs.Duration("timeout", 0, "Abort OCR after this long")
	fs.Int("jpeg-quality", 0, "JPEG output quality (1-100)")
	fs.String("report", "", "Write a YAML report of blurred regions to this path")
	fs.Int("workers", 0, "Goroutines used to classify recognized words")
	fs.String("log-level", "", "Log level: debug, info, warn or error")
	fs.String("log-format", "", "Log format: json or console")
}

// Loader reads configuration from defaults, a config file, the environment
// and command-line flags, in increasing order of precedence.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a Loader. flags may be nil; otherwise every flag named
// in RegisterFlags that exists on it is bound.
func NewLoader(flags *pflag.FlagSet) (*Loader, error) {
	v := viper.New()
	setDefaults(v, GetDefaults())

	v.SetConfigName("image-redact")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/image-redact")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	return &Loader{v: v}, nil
}

// Load reads the configuration. An explicit configPath must exist; without
// one, image-redact.yaml is looked up in the working directory and in
// $HOME/.config/image-redact, and its absence is not an error.
func (l *Loader) Load(configPath string) (*Config, error) {
	if configPath != "" {
		l.v.SetConfigFile(configPath)
	}

	if err := l.v.ReadInConfig(); err != nil {
		// Config file not found is not an error - we'll use defaults
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return l.decode()
}

// ConfigFileUsed returns the config file that was read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Watch calls onChange with the new configuration each time the config file
// changes. Invalid edits are reported to onError and otherwise ignored.
func (l *Loader) Watch(onChange func(*Config), onError func(error)) error {
	if l.v.ConfigFileUsed() == "" {
		return fmt.Errorf("no config file to watch")
	}

	l.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := l.decode()
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("reload %s: %w", e.Name, err))
			}
			return
		}
		onChange(cfg)
	})
	l.v.WatchConfig()
	return nil
}

func (l *Loader) decode() (*Config, error) {
	config := GetDefaults()
	if err := l.v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal config: %v", ErrInvalid, err)
	}

	config.Patterns.Strings = normalizeStrings(config.Patterns.Strings)

	if err := Validate(config); err != nil {
		return nil, err
	}
	return config, nil
}

// normalizeStrings splits entries that still hold commas, as they do when
// the list comes from an environment variable.
func normalizeStrings(in []string) []string {
	var out []string
	for _, s := range in {
		out = append(out, patterns.ParseStrings(s)...)
	}
	return out
}

// Validate checks config and returns an error wrapping ErrInvalid.
func Validate(config *Config) error {
	switch config.OCR.Engine {
	case EngineCLI, EngineGosseract:
	default:
		return fmt.Errorf("%w: unknown OCR engine: %s (must be cli or gosseract)", ErrInvalid, config.OCR.Engine)
	}

	if config.OCR.PSM < 0 || config.OCR.PSM > 13 {
		return fmt.Errorf("%w: invalid page segmentation mode: %d (must be 0-13)", ErrInvalid, config.OCR.PSM)
	}

	if config.OCR.Upscale < 0 || config.OCR.Upscale > 8 {
		return fmt.Errorf("%w: invalid upscale factor: %g (must be 0-8)", ErrInvalid, config.OCR.Upscale)
	}

	if config.OCR.Timeout < 0 {
		return fmt.Errorf("%w: negative OCR timeout: %s", ErrInvalid, config.OCR.Timeout)
	}

	if config.Output.JPEGQuality < 1 || config.Output.JPEGQuality > 100 {
		return fmt.Errorf("%w: invalid JPEG quality: %d (must be 1-100)", ErrInvalid, config.Output.JPEGQuality)
	}

	if config.Detection.Workers < 0 {
		return fmt.Errorf("%w: negative worker count: %d", ErrInvalid, config.Detection.Workers)
	}

	if config.Server.RateLimit < 0 {
		return fmt.Errorf("%w: negative rate limit: %g", ErrInvalid, config.Server.RateLimit)
	}

	if config.Server.PreviewWidth < 0 {
		return fmt.Errorf("%w: negative preview width: %d", ErrInvalid, config.Server.PreviewWidth)
	}

	switch config.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: invalid log level: %s (must be debug, info, warn, or error)", ErrInvalid, config.Logging.Level)
	}

	if config.Logging.Format != "json" && config.Logging.Format != "console" {
		return fmt.Errorf("%w: invalid log format: %s (must be json or console)", ErrInvalid, config.Logging.Format)
	}

	return nil
}

// Options converts the pattern selection to catalog options.
func (p PatternsConfig) Options() patterns.Options {
	return patterns.Options{
		Mail:    p.Mail,
		Phone:   p.Phone,
		IPv4:    p.IPv4,
		IPv6:    p.IPv6,
		All:     p.All,
		Strings: p.Strings,
	}
}

// setDefaults registers every key with viper. Keys viper does not know are
// invisible to environment overrides.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("patterns.mail", d.Patterns.Mail)
	v.SetDefault("patterns.phone", d.Patterns.Phone)
	v.SetDefault("patterns.ipv4", d.Patterns.IPv4)
	v.SetDefault("patterns.ipv6", d.Patterns.IPv6)
	v.SetDefault("patterns.all", d.Patterns.All)
	v.SetDefault("patterns.strings", d.Patterns.Strings)

	v.SetDefault("ocr.engine", d.OCR.Engine)
	v.SetDefault("ocr.binary", d.OCR.Binary)
	v.SetDefault("ocr.language", d.OCR.Language)
	v.SetDefault("ocr.psm", d.OCR.PSM)
	v.SetDefault("ocr.tessdata_dir", d.OCR.TessdataDir)
	v.SetDefault("ocr.upscale", d.OCR.Upscale)
	v.SetDefault("ocr.grayscale", d.OCR.Grayscale)
	v.SetDefault("ocr.timeout", d.OCR.Timeout)

	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.jpeg_quality", d.Output.JPEGQuality)
	v.SetDefault("output.report", d.Output.Report)

	v.SetDefault("detection.workers", d.Detection.Workers)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetDefault("server.watch_config", d.Server.WatchConfig)
	v.SetDefault("server.preview_width", d.Server.PreviewWidth)
	v.SetDefault("server.rate_limit", d.Server.RateLimit)
}

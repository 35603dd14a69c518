// Package config loads questline settings from defaults, an optional YAML
// file and command-line flags, in that order of precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/nathoo/questline/engine/binding"
	"github.com/nathoo/questline/engine/inventory"
	"github.com/nathoo/questline/engine/save"
	"github.com/nathoo/questline/engine/ui"
	"github.com/nathoo/questline/loader"
)

// Error codes.
const (
	CodeRead    = "CONFIG_READ"
	CodeInvalid = "CONFIG_INVALID"
)

// Default values.
const (
	DefaultContentDir = "content/village"
	DefaultLogFormat  = "text"
	DefaultLogLevel   = "warn"
)

// Config holds every setting the binary reads.
type Config struct {
	ContentDir  string `koanf:"content_dir"`
	Include     string `koanf:"include"`
	SavePath    string `koanf:"save_path"`
	Seed        int64  `koanf:"seed"`
	Capacity    int    `koanf:"capacity"`
	ToastSteps  int    `koanf:"toast_steps"`
	MetricsAddr string `koanf:"metrics_addr"`
	Plain       bool   `koanf:"plain"`
	Script      string `koanf:"script"`
	Trace       bool   `koanf:"trace"`
	Log         Log    `koanf:"log"`

	// Interact overrides the interact/continue binding. File only.
	Interact binding.Action `koanf:"interact"`
}

// HasInteract reports whether the file configured an interact binding.
func (c *Config) HasInteract() bool {
	return c.Interact.Display != "" || len(c.Interact.Bindings) > 0
}

// Log configures the slog handler.
type Log struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// flagKeys maps flag names whose config key differs from the flag name.
var flagKeys = map[string]string{
	"content-dir":  "content_dir",
	"save-path":    "save_path",
	"toast-steps":  "toast_steps",
	"metrics-addr": "metrics_addr",
	"log-format":   "log.format",
	"log-level":    "log.level",
}

// RegisterFlags adds the config flags, with their defaults, to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("content-dir", DefaultContentDir, "directory holding game content")
	fs.String("include", loader.DefaultInclude, "glob selecting content files below the content directory")
	fs.String("save-path", save.DefaultFileName, "inventory save file")
	fs.Int64("seed", 0, "RNG seed (0 = random)")
	fs.Int("capacity", inventory.DefaultCapacity, "slots per inventory category")
	fs.Int("toast-steps", ui.DefaultToastSteps, "commands the collected toast stays visible")
	fs.String("metrics-addr", "", "metrics HTTP address (empty = disabled)")
	fs.Bool("plain", false, "use the line-mode interface instead of the TUI")
	fs.String("script", "", "file of commands to run non-interactively")
	fs.Bool("trace", false, "print engine events after each command")
	fs.String("log-format", DefaultLogFormat, "log format (json or text)")
	fs.String("log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
}

// Load reads path (if not empty) and then the flags in fs. Flags the user
// set win over the file; flag defaults only fill keys the file left out.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code(CodeRead).With("path", path).Wrapf(err, "loading config %s", path)
		}
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key := f.Name
			if mapped, ok := flagKeys[f.Name]; ok {
				key = mapped
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code(CodeRead).Wrapf(err, "loading flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code(CodeRead).Wrapf(err, "decoding config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var problems []string
	if c.ContentDir == "" {
		problems = append(problems, "content_dir is required")
	}
	if c.Capacity <= 0 {
		problems = append(problems, fmt.Sprintf("capacity must be positive, got %d", c.Capacity))
	}
	if c.ToastSteps <= 0 {
		problems = append(problems, fmt.Sprintf("toast_steps must be positive, got %d", c.ToastSteps))
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		problems = append(problems, fmt.Sprintf("log.format must be 'json' or 'text', got %q", c.Log.Format))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level %q is not a level", c.Log.Level))
	}
	if len(problems) > 0 {
		return oops.Code(CodeInvalid).With("problems", len(problems)).Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

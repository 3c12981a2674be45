package config

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the hook reads,
// e.g. GUARDRAILS_POLICY_PATH and GUARDRAILS_VERBOSE.
const EnvPrefix = "GUARDRAILS"

// Settings controls how the hook runs, as opposed to what it enforces.
type Settings struct {
	PolicyPath string `mapstructure:"policy_path"`
	Verbose    bool   `mapstructure:"verbose"`
	LogLevel   string `mapstructure:"log_level"`
	LogFile    string `mapstructure:"log_file"`
}

// settingsFlags maps settings keys to the persistent flag names of the root command.
var settingsFlags = map[string]string{
	"policy_path": "policy",
	"verbose":     "verbose",
	"log_level":   "log-level",
	"log_file":    "log-file",
}

// LoadSettings resolves settings from flags and GUARDRAILS_* environment
// variables. A flag set explicitly on the command line beats the environment.
// When a value is invalid the settings decoded so far are returned along with
// the error.
func LoadSettings(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("policy_path", "")
	v.SetDefault("verbose", false)
	v.SetDefault("log_level", "")
	v.SetDefault("log_file", "")

	for key, name := range settingsFlags {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
		if flags == nil {
			continue
		}
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	s := &Settings{}
	if err := v.Unmarshal(s, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return s, fmt.Errorf("decode settings: %w", err)
	}

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// Validate normalizes the log level and rejects unknown ones.
func (s *Settings) Validate() error {
	s.PolicyPath = strings.TrimSpace(s.PolicyPath)
	s.LogFile = strings.TrimSpace(s.LogFile)

	level := strings.ToLower(strings.TrimSpace(s.LogLevel))
	switch level {
	case "", "debug", "info", "warn", "error":
		s.LogLevel = level
	case "warning":
		s.LogLevel = "warn"
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", s.LogLevel)
	}
	return nil
}

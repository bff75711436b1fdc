// Package config resolves trackerdb settings from flags, TRACKERDB_*
// environment variables, an optional trackerdb.toml/.yaml file and defaults,
// in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Keys
const (
	KeyRecordsDir    = "records_dir"
	KeyDistDir       = "dist_dir"
	KeyExtensions    = "extensions"
	KeyLogFile       = "log_file"
	KeyVerbose       = "verbose"
	KeyWatchDebounce = "watch_debounce"
)

// EnvPrefix is prepended to every key, e.g. TRACKERDB_DIST_DIR.
const EnvPrefix = "TRACKERDB"

// Config is the resolved set of settings for one command run.
type Config struct {
	RecordsDir    string
	DistDir       string
	Extensions    []string
	LogFile       string
	Verbose       bool
	WatchDebounce time.Duration
}

// New returns a viper instance with defaults and env binding set up, and
// reads trackerdb.{toml,yaml,yml} from dir when present.
func New(dir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(KeyRecordsDir, "db")
	v.SetDefault(KeyDistDir, "dist")
	v.SetDefault(KeyExtensions, []string{".eno"})
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyWatchDebounce, 250*time.Millisecond)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("trackerdb")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

// Load extracts a Config from v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		RecordsDir:    v.GetString(KeyRecordsDir),
		DistDir:       v.GetString(KeyDistDir),
		Extensions:    splitList(v.GetStringSlice(KeyExtensions)),
		LogFile:       v.GetString(KeyLogFile),
		Verbose:       v.GetBool(KeyVerbose),
		WatchDebounce: v.GetDuration(KeyWatchDebounce),
	}

	if cfg.RecordsDir == "" {
		return nil, fmt.Errorf("%s cannot be empty", KeyRecordsDir)
	}
	if cfg.DistDir == "" {
		return nil, fmt.Errorf("%s cannot be empty", KeyDistDir)
	}
	if cfg.WatchDebounce < 0 {
		return nil, fmt.Errorf("%s cannot be negative", KeyWatchDebounce)
	}
	return cfg, nil
}

// splitList accepts both list values and comma separated strings, since
// environment variables only carry the latter.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

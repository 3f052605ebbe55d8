package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrConfigFile indicates an explicitly named config file could not be
// read or parsed. Callers map this to its own exit code so a bad config
// is distinguishable from a pipeline failure.
var ErrConfigFile = errors.New("config file error")

// Settings holds the resolved pipeline configuration.
type Settings struct {
	RepoURL      string `mapstructure:"repo_url"`
	RootRef      string `mapstructure:"root_ref"`
	CacheDir     string `mapstructure:"cache_dir"`
	OutputDir    string `mapstructure:"output_dir"`
	WindowLines  int    `mapstructure:"window_lines"`
	OverlapLines int    `mapstructure:"overlap_lines"`
	ForceRefresh bool   `mapstructure:"force_refresh"`
	LogLevel     string `mapstructure:"log_level"`
}

// LoadSettings resolves settings with priority:
// CLI flags > environment variables (CORPUSLEX_*) > config file > defaults.
// configFile, when non-empty, names an explicit config file; failure to
// read it returns ErrConfigFile.
func LoadSettings(flags *pflag.FlagSet, configFile string) (*Settings, error) {
	v := viper.New()

	v.SetDefault("repo_url", "")
	v.SetDefault("root_ref", "")
	v.SetDefault("cache_dir", filepath.Join(defaultBaseDir(), "corpora"))
	v.SetDefault("output_dir", filepath.Join(defaultBaseDir(), "data"))
	v.SetDefault("window_lines", 80)
	v.SetDefault("overlap_lines", 10)
	v.SetDefault("force_refresh", false)
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("CORPUSLEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrConfigFile, configFile, err)
		}
	}

	if flags != nil {
		_ = v.BindPFlag("repo_url", flags.Lookup("repo-url"))
		_ = v.BindPFlag("root_ref", flags.Lookup("root-ref"))
		_ = v.BindPFlag("cache_dir", flags.Lookup("cache-dir"))
		_ = v.BindPFlag("output_dir", flags.Lookup("output-dir"))
		_ = v.BindPFlag("window_lines", flags.Lookup("window-lines"))
		_ = v.BindPFlag("overlap_lines", flags.Lookup("overlap-lines"))
		_ = v.BindPFlag("force_refresh", flags.Lookup("force-refresh"))
		_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		if configFile != "" {
			return nil, fmt.Errorf("%w: %s: %v", ErrConfigFile, configFile, err)
		}
		return nil, err
	}

	settings.CacheDir = expandHomeDir(settings.CacheDir)
	settings.OutputDir = expandHomeDir(settings.OutputDir)

	return &settings, nil
}

// ValidateSettings checks for missing or out-of-range configuration.
func ValidateSettings(s *Settings) error {
	if s.RepoURL == "" {
		return errors.New("repo-url is required")
	}
	if s.RootRef == "" {
		return errors.New("root-ref is required")
	}
	if s.CacheDir == "" {
		return errors.New("cache-dir cannot be empty")
	}
	if s.OutputDir == "" {
		return errors.New("output-dir cannot be empty")
	}
	if s.WindowLines < 1 {
		return fmt.Errorf("window-lines must be >= 1, got %d", s.WindowLines)
	}
	if s.OverlapLines < 0 {
		return fmt.Errorf("overlap-lines must be >= 0, got %d", s.OverlapLines)
	}
	return nil
}

// defaultBaseDir returns the default working directory for corpuslex data.
func defaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".corpuslex"
	}
	return filepath.Join(home, ".corpuslex")
}

// expandHomeDir expands ~ to the user's home directory.
func expandHomeDir(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	return path
}

package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the top-level copilotwatch configuration.
type Config struct {
	Datasets    Datasets `mapstructure:"datasets"`
	MetricsFile string   `mapstructure:"metrics_file"`
	Output      Output   `mapstructure:"output"`
}

// Datasets locates the four CSV exports the engines load from.
type Datasets struct {
	UsageCSV           string `mapstructure:"usage_csv"`
	InteractionsCSV    string `mapstructure:"interactions_csv"`
	SegmentAdoptionCSV string `mapstructure:"segment_adoption_csv"`
	PremiumRequestsCSV string `mapstructure:"premium_requests_csv"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
	Width int  `mapstructure:"width"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location)
// and returns a Config with all defaults applied. A .env file in the
// working directory is folded into the environment first, matching how
// the data exports are usually deployed next to the binary.
func Load(cfgFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("datasets.usage_csv", DefaultDatasets.UsageCSV)
	v.SetDefault("datasets.interactions_csv", DefaultDatasets.InteractionsCSV)
	v.SetDefault("datasets.segment_adoption_csv", DefaultDatasets.SegmentAdoptionCSV)
	v.SetDefault("datasets.premium_requests_csv", DefaultDatasets.PremiumRequestsCSV)
	v.SetDefault("metrics_file", DefaultMetricsFile)
	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("output.width", DefaultOutput.Width)

	// Environment overrides use the same names the loaders mention in
	// their error messages.
	_ = v.BindEnv("datasets.usage_csv", "COPILOT_USAGE_CSV")
	_ = v.BindEnv("datasets.interactions_csv", "COPILOT_INTERACTIONS_CSV")
	_ = v.BindEnv("datasets.segment_adoption_csv", "COPILOT_SEGMENT_ADOPTION_CSV")
	_ = v.BindEnv("datasets.premium_requests_csv", "COPILOT_PREMIUM_REQUESTS_CSV")
	_ = v.BindEnv("metrics_file", "COPILOT_METRICS_FILE")

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		configDir := expandPath(DefaultConfigDir)
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Datasets.UsageCSV = expandPath(cfg.Datasets.UsageCSV)
	cfg.Datasets.InteractionsCSV = expandPath(cfg.Datasets.InteractionsCSV)
	cfg.Datasets.SegmentAdoptionCSV = expandPath(cfg.Datasets.SegmentAdoptionCSV)
	cfg.Datasets.PremiumRequestsCSV = expandPath(cfg.Datasets.PremiumRequestsCSV)
	cfg.MetricsFile = expandPath(cfg.MetricsFile)

	return &cfg, nil
}

// DBPath returns the full path to the snapshot database.
func DBPath() string {
	return filepath.Join(expandPath(DefaultConfigDir), DefaultDBName)
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}

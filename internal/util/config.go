// Package util provides common utilities for wifipilot.
package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/user/wifipilot/internal/model"
)

// Config holds all application configuration.
type Config struct {
	DataDir  string `mapstructure:"data_dir"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`

	// Radio observation
	Interface    string `mapstructure:"interface"`
	RadioSource  string `mapstructure:"radio_source"` // nmcli or file
	SnapshotFile string `mapstructure:"snapshot_file"`

	// Job intervals
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	ScanInterval      time.Duration `mapstructure:"scan_interval"`
	LivenessInterval  time.Duration `mapstructure:"liveness_interval"`

	// Internet liveness
	LivenessURL     string        `mapstructure:"liveness_url"`
	LivenessDNS     string        `mapstructure:"liveness_dns"`
	LivenessTimeout time.Duration `mapstructure:"liveness_timeout"`

	// Decision core
	ProbationDuration time.Duration `mapstructure:"probation_duration"`
	NotifyInterval    time.Duration `mapstructure:"notify_interval"`
	DecisionRetention time.Duration `mapstructure:"decision_retention"`

	// Notifications
	DiscordToken     string `mapstructure:"discord_token"`
	DiscordChannelID string `mapstructure:"discord_channel_id"`

	// Report settings
	ReportOutputDir string `mapstructure:"report_output_dir"`

	// Web server
	WebPort int `mapstructure:"web_port"`

	// Switching preferences
	Settings model.UserSettings `mapstructure:"settings"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".wifipilot")

	return &Config{
		DataDir:  dataDir,
		LogLevel: "info",
		LogFile:  filepath.Join(dataDir, "wifipilot.log"),

		Interface:   "wlan0",
		RadioSource: "nmcli",

		HeartbeatInterval: 3 * time.Second,
		ScanInterval:      30 * time.Second,
		LivenessInterval:  15 * time.Second,

		LivenessURL:     "http://connectivitycheck.gstatic.com/generate_204",
		LivenessDNS:     "1.1.1.1",
		LivenessTimeout: 3 * time.Second,

		ProbationDuration: 5 * time.Minute,
		NotifyInterval:    15 * time.Second,
		DecisionRetention: 30 * 24 * time.Hour,

		ReportOutputDir: filepath.Join(dataDir, "reports"),
		WebPort:         8080,

		Settings: model.DefaultSettings(),
	}
}

// settingKeys lists the viper keys for every UserSettings field.
var settingKeys = map[string]func(*model.UserSettings) interface{}{
	"settings.sensitivity":                func(s *model.UserSettings) interface{} { return s.Sensitivity },
	"settings.badge_sensitivity":          func(s *model.UserSettings) interface{} { return s.BadgeSensitivity },
	"settings.min_signal_diff":            func(s *model.UserSettings) interface{} { return s.MinSignalDiff },
	"settings.five_ghz_priority":          func(s *model.UserSettings) interface{} { return s.Is5GHzPriorityEnabled },
	"settings.five_ghz_threshold_dbm":     func(s *model.UserSettings) interface{} { return s.FiveGHzThresholdDbm },
	"settings.mobile_data_threshold_mbps": func(s *model.UserSettings) interface{} { return s.MobileDataThresholdMbps },
	"settings.hotspot_switching":          func(s *model.UserSettings) interface{} { return s.IsHotspotSwitchingEnabled },
	"settings.gaming_mode":                func(s *model.UserSettings) interface{} { return s.IsGamingMode },
	"settings.paused":                     func(s *model.UserSettings) interface{} { return s.IsPaused },
}

// SettingKeys returns the settable keys without the "settings." prefix.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, strings.TrimPrefix(k, "settings."))
	}
	return keys
}

// IsSettingKey reports whether key names a UserSettings field.
func IsSettingKey(key string) bool {
	_, ok := settingKeys["settings."+key]
	return ok
}

// LoadConfig loads configuration from .env, the config file and environment.
func LoadConfig() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(cfg.DataDir)
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("wifipilot")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults(cfg)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := EnsureDir(cfg.DataDir); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	viper.SetDefault("data_dir", cfg.DataDir)
	viper.SetDefault("log_level", cfg.LogLevel)
	viper.SetDefault("log_file", cfg.LogFile)
	viper.SetDefault("interface", cfg.Interface)
	viper.SetDefault("radio_source", cfg.RadioSource)
	viper.SetDefault("snapshot_file", cfg.SnapshotFile)
	viper.SetDefault("heartbeat_interval", cfg.HeartbeatInterval)
	viper.SetDefault("scan_interval", cfg.ScanInterval)
	viper.SetDefault("liveness_interval", cfg.LivenessInterval)
	viper.SetDefault("liveness_url", cfg.LivenessURL)
	viper.SetDefault("liveness_dns", cfg.LivenessDNS)
	viper.SetDefault("liveness_timeout", cfg.LivenessTimeout)
	viper.SetDefault("probation_duration", cfg.ProbationDuration)
	viper.SetDefault("notify_interval", cfg.NotifyInterval)
	viper.SetDefault("decision_retention", cfg.DecisionRetention)
	viper.SetDefault("discord_token", cfg.DiscordToken)
	viper.SetDefault("discord_channel_id", cfg.DiscordChannelID)
	viper.SetDefault("report_output_dir", cfg.ReportOutputDir)
	viper.SetDefault("web_port", cfg.WebPort)

	for key, get := range settingKeys {
		viper.SetDefault(key, get(&cfg.Settings))
	}
}

// ReloadSettings re-reads the switching preferences from viper.
func ReloadSettings() (model.UserSettings, error) {
	var s model.UserSettings
	if err := viper.UnmarshalKey("settings", &s); err != nil {
		return s, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return s, nil
}

// ParseSettingValue converts value to the type of the named setting.
func ParseSettingValue(key, value string) (interface{}, error) {
	get, ok := settingKeys["settings."+key]
	if !ok {
		return nil, fmt.Errorf("unknown setting %q", key)
	}

	var zero model.UserSettings
	switch get(&zero).(type) {
	case bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("setting %s expects true or false: %w", key, err)
		}
		return b, nil
	default:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("setting %s expects an integer: %w", key, err)
		}
		return n, nil
	}
}

// SaveSetting sets one switching preference and writes the config file.
func SaveSetting(dataDir, key, value string) error {
	v, err := ParseSettingValue(key, value)
	if err != nil {
		return err
	}

	viper.Set("settings."+key, v)

	if err := viper.WriteConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to write config: %w", err)
		}
		path := filepath.Join(dataDir, "config.yaml")
		if err := viper.WriteConfigAs(path); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

// EnsureDir ensures a directory exists.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return !info.IsDir()
}

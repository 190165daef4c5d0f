package util

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter(LevelWarn, &buf)

	l.Info("hidden %d", 1)
	l.Warn("shown %d", 2)
	l.WithPrefix("scan").Error("failed")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info line should be filtered at warn level")
	}
	if !strings.Contains(out, "WARN: shown 2") {
		t.Errorf("missing warn line in %q", out)
	}
	if !strings.Contains(out, "ERROR: [scan] failed") {
		t.Errorf("missing prefixed error line in %q", out)
	}

	buf.Reset()
	l.SetLevel(LevelDebug)
	l.Debug("now visible")
	if !strings.Contains(buf.String(), "DEBUG: now visible") {
		t.Errorf("debug line missing after SetLevel: %q", buf.String())
	}
}

func TestParseSettingValue(t *testing.T) {
	if v, err := ParseSettingValue("gaming_mode", "true"); err != nil || v != true {
		t.Errorf("gaming_mode = %v, %v", v, err)
	}
	if v, err := ParseSettingValue("sensitivity", "60"); err != nil || v != 60 {
		t.Errorf("sensitivity = %v, %v", v, err)
	}
	if _, err := ParseSettingValue("sensitivity", "high"); err == nil {
		t.Error("non-integer sensitivity should fail")
	}
	if _, err := ParseSettingValue("paused", "maybe"); err == nil {
		t.Error("non-boolean paused should fail")
	}
	if _, err := ParseSettingValue("volume", "1"); err == nil {
		t.Error("unknown key should fail")
	}
}

func TestSettingKeys(t *testing.T) {
	keys := SettingKeys()
	if len(keys) != 9 {
		t.Errorf("SettingKeys() has %d keys, want 9", len(keys))
	}
	for _, k := range keys {
		if strings.HasPrefix(k, "settings.") || !IsSettingKey(k) {
			t.Errorf("bad key %q", k)
		}
	}
	if IsSettingKey("data_dir") {
		t.Error("data_dir is not a switching setting")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Settings.SwitchThresholdDbm() != -65 {
		t.Errorf("default switch threshold = %d, want -65", cfg.Settings.SwitchThresholdDbm())
	}
	if cfg.ProbationDuration.Minutes() != 5 {
		t.Errorf("default probation = %v", cfg.ProbationDuration)
	}
	if cfg.NotifyInterval.Seconds() != 15 {
		t.Errorf("default notify interval = %v", cfg.NotifyInterval)
	}
	if !strings.HasPrefix(cfg.LogFile, cfg.DataDir) {
		t.Errorf("log file %q should live in %q", cfg.LogFile, cfg.DataDir)
	}
}

func TestSaveSettingUpdatesConfigFile(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("settings:\n  sensitivity: 50\n"), 0644); err != nil {
		t.Fatal(err)
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}

	if err := SaveSetting(dir, "gaming_mode", "true"); err != nil {
		t.Fatalf("SaveSetting: %v", err)
	}

	s, err := ReloadSettings()
	if err != nil {
		t.Fatalf("ReloadSettings: %v", err)
	}
	if !s.IsGamingMode || s.Sensitivity != 50 {
		t.Errorf("settings = %+v", s)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "gaming_mode: true") {
		t.Errorf("config file not updated:\n%s", data)
	}
}

func TestSaveSettingRejectsBadValue(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	dir := t.TempDir()
	if err := SaveSetting(dir, "sensitivity", "loud"); err == nil {
		t.Fatal("expected error")
	}
	if FileExists(filepath.Join(dir, "config.yaml")) {
		t.Error("no config should be written for a rejected value")
	}
}

package probes

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/user/wifipilot/internal/model"
)

// LoadSnapshot reads a captured radio state from a YAML file.
func LoadSnapshot(path string) (*model.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return ParseSnapshot(data)
}

// ParseSnapshot decodes a YAML snapshot. Setting keys missing from a
// settings block keep their defaults.
func ParseSnapshot(data []byte) (*model.Snapshot, error) {
	var snap model.Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if snap.Settings != nil {
		settings := model.DefaultSettings()
		overlay := struct {
			Settings *model.UserSettings `yaml:"settings"`
		}{Settings: &settings}
		if err := yaml.Unmarshal(data, &overlay); err != nil {
			return nil, fmt.Errorf("failed to parse snapshot settings: %w", err)
		}
		snap.Settings = &settings
	}
	if snap.Current != nil {
		for i := range snap.Networks {
			if snap.Networks[i].BSSID == snap.Current.BSSID {
				snap.Networks[i].IsConnected = true
			}
		}
	}
	return &snap, nil
}

// FileSource is a RadioSource backed by a YAML snapshot that is re-read on
// every call, so edits to the file show up on the next cycle.
type FileSource struct {
	path string
}

// NewFileSource creates a source reading path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Current returns the snapshot's connection.
func (f *FileSource) Current(ctx context.Context) (*model.ConnectionState, error) {
	snap, err := LoadSnapshot(f.path)
	if err != nil {
		return nil, err
	}
	return snap.Current, nil
}

// Scan returns the snapshot's networks.
func (f *FileSource) Scan(ctx context.Context) ([]model.NetworkObservation, error) {
	snap, err := LoadSnapshot(f.path)
	if err != nil {
		return nil, err
	}
	return snap.Networks, nil
}

// RequestScan is a no-op for file snapshots.
func (f *FileSource) RequestScan(ctx context.Context) error {
	return nil
}

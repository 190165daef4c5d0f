package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/user/wifipilot/internal/model"
	"github.com/user/wifipilot/internal/monitor"
)

// StatusFileName is the status snapshot inside the data dir.
const StatusFileName = "status.json"

// ErrNotRunning is returned when a signal is sent with no daemon running.
var ErrNotRunning = errors.New("daemon is not running")

// CheckRunning checks if the daemon is already running.
func CheckRunning(dataDir string) (bool, int) {
	data, err := os.ReadFile(filepath.Join(dataDir, PIDFileName))
	if err != nil {
		return false, 0
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return false, 0
	}

	// Signal 0 checks for existence without delivering anything
	if err := unix.Kill(pid, 0); err != nil && err != unix.EPERM {
		return false, 0
	}

	return true, pid
}

// SendStop sends a stop signal to the running daemon.
func SendStop(dataDir string) error {
	return signalDaemon(dataDir, unix.SIGTERM)
}

// SendReload asks the running daemon to reload its probation list.
func SendReload(dataDir string) error {
	return signalDaemon(dataDir, unix.SIGHUP)
}

func signalDaemon(dataDir string, sig unix.Signal) error {
	running, pid := CheckRunning(dataDir)
	if !running {
		return ErrNotRunning
	}
	if err := unix.Kill(pid, sig); err != nil {
		return fmt.Errorf("failed to send signal: %w", err)
	}
	return nil
}

// StatusFile holds serialized daemon status.
type StatusFile struct {
	Running      bool                    `json:"running"`
	PID          int                     `json:"pid"`
	StartTime    string                  `json:"start_time"`
	Uptime       string                  `json:"uptime"`
	UpdatedAt    time.Time               `json:"updated_at"`
	Current      *model.ConnectionState  `json:"current,omitempty"`
	LastDecision *model.DecisionResult   `json:"last_decision,omitempty"`
	Liveness     *monitor.LivenessResult `json:"liveness,omitempty"`
	Probation    map[string]time.Time    `json:"probation"`
	Jobs         []JobStatus             `json:"jobs"`
}

// WriteStatusFile writes the daemon status to a file.
func WriteStatusFile(dataDir string, status *DaemonStatus) error {
	sf := StatusFile{
		Running:      status.Running,
		PID:          status.PID,
		StartTime:    status.StartTime.Format("2006-01-02 15:04:05"),
		Uptime:       status.Uptime.Round(time.Second).String(),
		UpdatedAt:    time.Now(),
		Current:      status.Current,
		LastDecision: status.LastDecision,
		Liveness:     status.Liveness,
		Probation:    status.Probation,
		Jobs:         status.Jobs,
	}

	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return err
	}

	// write then rename so readers never see a partial file
	path := filepath.Join(dataDir, StatusFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ReadStatusFile reads the daemon status from a file.
func ReadStatusFile(dataDir string) (*StatusFile, error) {
	data, err := os.ReadFile(filepath.Join(dataDir, StatusFileName))
	if err != nil {
		return nil, err
	}

	var sf StatusFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, err
	}

	return &sf, nil
}

func (d *Daemon) writeStatus() error {
	return WriteStatusFile(d.config.DataDir, d.GetStatus())
}

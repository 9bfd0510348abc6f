// Package environment collects the run metadata written next to the test
// results: workspace, device and platform.
package environment

import (
	"errors"
	"io/fs"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// DefaultWorkspaceID is used whenever the settings file cannot supply one.
const DefaultWorkspaceID = "default-workspace-id"

// DefaultSettingsPath is where the automation settings live, relative to
// the working directory.
const DefaultSettingsPath = ".askui/Settings/AskuiEnvironmentSettings.json"

// TestRunner names the runner in the environment block.
const TestRunner = "go test"

// GetWorkspaceID reads credentials.workspaceId from the JSON settings file
// at path. A missing file, a missing field or malformed JSON are logged
// and yield DefaultWorkspaceID.
func GetWorkspaceID(path string, logger *zap.Logger) string {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		path = DefaultSettingsPath
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Error("Settings file not found", zap.String("path", path))
		} else {
			logger.Error("Error reading workspaceId", zap.String("path", path), zap.Error(err))
		}
		return DefaultWorkspaceID
	}

	id := strings.TrimSpace(v.GetString("credentials.workspaceId"))
	if id == "" {
		logger.Error("workspaceId not found in settings file", zap.String("path", path))
		return DefaultWorkspaceID
	}
	return id
}

// DevicePrefix guesses the kind of machine from its hostname.
func DevicePrefix(hostname, goos string) string {
	h := strings.ToUpper(hostname)
	switch {
	case strings.Contains(h, "LAPTOP"):
		return "LAPTOP"
	case strings.Contains(h, "DESKTOP"):
		return "DESKTOP"
	case strings.Contains(h, "WIN"):
		return "WIN"
	case goos == "windows":
		return "DESKTOP"
	}
	return "WIN"
}

// DeviceID is the device prefix plus a random six character suffix.
func DeviceID(prefix string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return prefix + "-" + strings.ToUpper(suffix)
}

// AppURL links the workspace's quick start page.
func AppURL(workspaceID string) string {
	return "https://app.askui.com/workspaces/" + workspaceID + "/quick-start"
}

// Info is the environment block of one run.
type Info struct {
	AppURL      string
	DeviceID    string
	WorkspaceID string
	TestRunner  string
	Platform    string
	OSVersion   string
	GoVersion   string
	Timestamp   time.Time
}

// Collect gathers the environment of the current process.
func Collect(settingsPath string, logger *zap.Logger) Info {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = ""
	}
	ws := GetWorkspaceID(settingsPath, logger)
	return Info{
		AppURL:      AppURL(ws),
		DeviceID:    DeviceID(DevicePrefix(hostname, runtime.GOOS)),
		WorkspaceID: ws,
		TestRunner:  TestRunner,
		Platform:    runtime.GOOS,
		OSVersion:   osVersion(),
		GoVersion:   runtime.Version(),
		Timestamp:   time.Now().UTC(),
	}
}

// Properties renders the block as environment.properties keys.
func (i Info) Properties() map[string]string {
	return map[string]string{
		"APP_URL":      i.AppURL,
		"Device_ID":    i.DeviceID,
		"Workspace_ID": i.WorkspaceID,
		"TEST_RUNNER":  i.TestRunner,
		"PLATFORM":     i.Platform,
		"OS_VERSION":   i.OSVersion,
		"GO_VERSION":   i.GoVersion,
		"TIMESTAMP":    i.Timestamp.Format(time.RFC3339Nano),
	}
}

// Keys returns the property names in sorted order.
func (i Info) Keys() []string {
	props := i.Properties()
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func osVersion() string {
	if b, err := os.ReadFile("/proc/sys/kernel/osrelease"); err == nil {
		return strings.TrimSpace(string(b))
	}
	return runtime.GOOS + "/" + runtime.GOARCH
}

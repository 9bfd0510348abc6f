package environment

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "AskuiEnvironmentSettings.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGetWorkspaceID(t *testing.T) {
	tests := []struct {
		name   string
		path   func(t *testing.T) string
		want   string
		logged string
	}{
		{
			name: "present",
			path: func(t *testing.T) string {
				return writeSettings(t, `{"credentials":{"workspaceId":"ws-123","token":"x"}}`)
			},
			want: "ws-123",
		},
		{
			name:   "missing file",
			path:   func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.json") },
			want:   DefaultWorkspaceID,
			logged: "Settings file not found",
		},
		{
			name:   "missing field",
			path:   func(t *testing.T) string { return writeSettings(t, `{"credentials":{}}`) },
			want:   DefaultWorkspaceID,
			logged: "workspaceId not found in settings file",
		},
		{
			name:   "malformed json",
			path:   func(t *testing.T) string { return writeSettings(t, `{"credentials":`) },
			want:   DefaultWorkspaceID,
			logged: "Error reading workspaceId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.ErrorLevel)
			got := GetWorkspaceID(tt.path(t), zap.New(core))
			assert.Equal(t, tt.want, got)
			if tt.logged == "" {
				assert.Zero(t, logs.Len())
			} else {
				require.Equal(t, 1, logs.Len())
				assert.Equal(t, tt.logged, logs.All()[0].Message)
			}
		})
	}
}

func TestGetWorkspaceIDNilLogger(t *testing.T) {
	assert.Equal(t, DefaultWorkspaceID, GetWorkspaceID(filepath.Join(t.TempDir(), "nope.json"), nil))
}

func TestDevicePrefix(t *testing.T) {
	assert.Equal(t, "LAPTOP", DevicePrefix("dev-laptop-7", "linux"))
	assert.Equal(t, "DESKTOP", DevicePrefix("DESKTOP-AB12", "windows"))
	assert.Equal(t, "WIN", DevicePrefix("win-builder", "linux"))
	assert.Equal(t, "DESKTOP", DevicePrefix("build-01", "windows"))
	assert.Equal(t, "WIN", DevicePrefix("ci-runner", "linux"))
}

func TestDeviceID(t *testing.T) {
	id := DeviceID("LAPTOP")
	assert.Regexp(t, regexp.MustCompile(`^LAPTOP-[0-9A-F]{6}$`), id)
	assert.NotEqual(t, id, DeviceID("LAPTOP"))
}

func TestCollectProperties(t *testing.T) {
	info := Collect(writeSettings(t, `{"credentials":{"workspaceId":"ws-9"}}`), zap.NewNop())
	props := info.Properties()

	assert.Equal(t, "https://app.askui.com/workspaces/ws-9/quick-start", props["APP_URL"])
	assert.Equal(t, "ws-9", props["Workspace_ID"])
	assert.Equal(t, TestRunner, props["TEST_RUNNER"])
	assert.NotEmpty(t, props["GO_VERSION"])
	assert.NotEmpty(t, props["OS_VERSION"])
	_, err := time.Parse(time.RFC3339Nano, props["TIMESTAMP"])
	assert.NoError(t, err)

	assert.Equal(t, []string{
		"APP_URL", "Device_ID", "GO_VERSION", "OS_VERSION",
		"PLATFORM", "TEST_RUNNER", "TIMESTAMP", "Workspace_ID",
	}, info.Keys())
}

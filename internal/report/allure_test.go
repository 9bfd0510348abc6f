package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readResults(t *testing.T, dir string) []AllureResult {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(dir, "*-result.json"))
	require.NoError(t, err)

	var out []AllureResult
	for _, f := range files {
		data, err := os.ReadFile(f)
		require.NoError(t, err)
		var r AllureResult
		require.NoError(t, json.Unmarshal(data, &r))
		out = append(out, r)
	}
	return out
}

func TestAllurePassedTest(t *testing.T) {
	dir := t.TempDir()
	a := NewAllure(dir)

	a.StartTest("standard-purchase", map[string]string{"persona": "standard", "suite": "purchase"})
	a.StartStep("login")
	a.Info("typing username")
	a.EndStep(nil)
	a.Success("purchase completed")
	require.NoError(t, a.EndTest(nil))

	results := readResults(t, dir)
	require.Len(t, results, 1)
	r := results[0]

	assert.Equal(t, "standard-purchase", r.Name)
	assert.Equal(t, StatusPassed, r.Status)
	assert.Equal(t, "finished", r.Stage)
	assert.Equal(t, []allureLabel{{Name: "persona", Value: "standard"}, {Name: "suite", Value: "purchase"}}, r.Labels)

	require.Len(t, r.Steps, 2)
	assert.Equal(t, "login", r.Steps[0].Name)
	require.Len(t, r.Steps[0].Steps, 1)
	assert.Equal(t, "INFO: typing username", r.Steps[0].Steps[0].Name)
	assert.Equal(t, "SUCCESS: purchase completed", r.Steps[1].Name)
}

func TestAllureFailedTestAttachesStack(t *testing.T) {
	dir := t.TempDir()
	a := NewAllure(dir)

	a.StartTest("locked-out", nil)
	a.StartStep("login")
	a.Error("lockout banner missing", errors.New("not found"))
	require.NoError(t, a.EndTest(errors.New("assertion failed")))

	results := readResults(t, dir)
	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, StatusFailed, r.Status)
	require.NotNil(t, r.StatusDetails)
	assert.Equal(t, "assertion failed", r.StatusDetails.Message)

	// the open step is closed with the test error
	require.Len(t, r.Steps, 1)
	assert.Equal(t, StatusFailed, r.Steps[0].Status)

	errStep := r.Steps[0].Steps[0]
	require.Len(t, errStep.Attachments, 1)
	body, err := os.ReadFile(filepath.Join(dir, errStep.Attachments[0].Source))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "lockout banner missing: not found"))
}

func TestAllureIgnoresMessagesOutsideTests(t *testing.T) {
	dir := t.TempDir()
	a := NewAllure(dir)
	a.Info("suite setup")
	a.EndStep(nil)
	require.NoError(t, a.EndTest(nil))
	assert.Empty(t, readResults(t, dir))
}

func TestAllureWriteEnvironment(t *testing.T) {
	dir := t.TempDir()
	a := NewAllure(dir)
	require.NoError(t, a.WriteEnvironment(map[string]string{
		"Workspace_ID": "default-workspace-id",
		"Device_ID":    "WIN-ABC123",
	}))

	data, err := os.ReadFile(filepath.Join(dir, "environment.properties"))
	require.NoError(t, err)
	assert.Equal(t, "Device_ID=WIN-ABC123\nWorkspace_ID=default-workspace-id", string(data))
}

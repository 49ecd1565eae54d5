package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// projectRoot is the base for the spec paths in testdata/scenarios.
const projectRoot = "../.."

var scenariosDir = filepath.Join(projectRoot, "testdata", "scenarios")

const passingScenario = `name: single_add
description: "One add, no handlers"
flow:
  - add: ["A"]
assertions:
  - type: items
    items: ["A"]
`

const failingScenario = `name: wrong_items
description: "Asserts items the flow never adds"
flow:
  - add: ["A"]
assertions:
  - type: items
    items: ["B"]
`

func writeScenario(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name+".yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func executeTest(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := executeTest(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := executeTest(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenarios directory not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, err := executeTest(t, "text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, err := executeTest(t, "json", t.TempDir())
	require.NoError(t, err)

	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
}

func TestTestHelpText(t *testing.T) {
	out, err := executeTest(t, "text", "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "conformance harness")
	assert.Contains(t, out, "--update")
	assert.Contains(t, out, "--filter")
	assert.Contains(t, out, "--base")
	assert.Contains(t, out, "scenarios-dir")
}

func TestTestCommandRepositoryScenarios(t *testing.T) {
	files, err := findScenarioFiles(scenariosDir, "")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	out, err := executeTest(t, "text", scenariosDir, "--base", projectRoot)
	require.NoError(t, err, out)

	assert.Contains(t, out, "✓ people_spec")
	assert.Contains(t, out, "✓ deferred_tail_resume")
	assert.Contains(t, out, "0 failed")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFilter(t *testing.T) {
	out, err := executeTest(t, "json", scenariosDir, "--base", projectRoot, "--filter", "flush_*")
	require.NoError(t, err)

	var response struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
	require.Len(t, response.Data.Scenarios, 1)
	assert.Equal(t, "flush_empty", response.Data.Scenarios[0].Name)
	assert.Equal(t, 1, response.Data.Total)
}

func TestTestCommandInvalidFilter(t *testing.T) {
	_, err := executeTest(t, "text", scenariosDir, "--filter", "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "pass", passingScenario)
	writeScenario(t, dir, "fail", failingScenario)

	out, err := executeTest(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "✓ single_add")
	assert.Contains(t, out, "✗ wrong_items")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandFailingScenarioJSON(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "fail", failingScenario)

	out, err := executeTest(t, "json", dir)
	require.Error(t, err)

	var response struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "error", response.Status)
	require.NotNil(t, response.Error)
	assert.Equal(t, "E_TEST_FAILED", response.Error.Code)
	require.Len(t, response.Data.Scenarios, 1)
	assert.NotEmpty(t, response.Data.Scenarios[0].Errors)
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "broken", "name: broken\n")

	out, err := executeTest(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandGoldenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	scenarioFile := writeScenario(t, dir, "single", passingScenario)
	goldenPath := goldenFilePath(scenarioFile)
	assert.Equal(t, filepath.Join(dir, "golden", "single.golden"), goldenPath)

	out, err := executeTest(t, "text", dir, "--update")
	require.NoError(t, err, out)

	data, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Equal(t, "1 items add-before op-1 \"A\"\n2 items add op-1 \"A\"\n3 items add-after op-1 \"A\"\n", string(data))

	_, err = executeTest(t, "text", dir)
	require.NoError(t, err, "trace matches the golden it just wrote")

	require.NoError(t, os.WriteFile(goldenPath, []byte("1 items empty\n"), 0644))
	out, err = executeTest(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dslh/cadscript-mcp/internal/clientsettings"
	"github.com/dslh/cadscript-mcp/internal/persistence"
)

func resetFlags() {
	cfgFile, logLevel, registryFile = "", "", ""
	serveHost, servePort = "", 0
	generateInput, generateOutput, generateSave, generateDescription = "-", "", "", ""
	settingsPath, settingsName, settingsCommand, settingsDisabled = "", "fusion360", "", false
	if f := rootCmd.Flags().Lookup("version"); f != nil {
		_ = f.Value.Set("false")
	}
}

// setupEnv points the data directory at a temp dir and returns it
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CADSCRIPT_DIR", dir)
	t.Setenv("CADSCRIPT_EXPORT_DIR", "/exports")
	t.Setenv("CADSCRIPT_LOG_LEVEL", "error")
	return dir
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()

	cmd := GetRootCmd()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

const blockCalls = `[
	{"tool_name": "CreateSketch", "parameters": {"plane": "xy"}},
	{"tool_name": "DrawRectangle", "parameters": {"width": 10, "depth": 10}},
	{"tool_name": "Extrude", "parameters": {"height": 5}}
]`

func TestRootCommand(t *testing.T) {
	t.Run("version flag", func(t *testing.T) {
		out, _, err := execute(t, "", "--version")
		require.NoError(t, err)
		assert.Contains(t, out, "cadscript version 0.1.0")
	})

	t.Run("subcommands", func(t *testing.T) {
		names := make([]string, 0)
		for _, c := range GetRootCmd().Commands() {
			names = append(names, c.Name())
		}
		for _, want := range []string{"serve", "mcp", "list", "generate", "settings"} {
			assert.Contains(t, names, want)
		}
	})
}

func TestListCommand(t *testing.T) {
	setupEnv(t)

	out, _, err := execute(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "CAD Tools:")
	assert.Contains(t, out, "  • Extrude(height, profile_index=0, operation=new) - ")
	assert.Contains(t, out, "  • generate_script - ")
	assert.Contains(t, out, "Saved Scripts")
	assert.Contains(t, out, "  (none)")
}

func TestGenerateFromStdin(t *testing.T) {
	setupEnv(t)

	out, _, err := execute(t, blockCalls, "generate")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "import adsk.core, adsk.fusion, traceback"))
	assert.Contains(t, out, "extrude = extrudes.add(extrudeInput)")
}

func TestGenerateToFileAndSave(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "calls.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"tool_calls": `+blockCalls+`}`), 0644))
	output := filepath.Join(dir, "out", "block.py")

	out, errOut, err := execute(t, "", "generate",
		"--input", input,
		"--output", output,
		"--save", "block",
		"--description", "A 10cm block")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "Wrote "+output)
	assert.Contains(t, errOut, "Saved script 'block'")

	written, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(written), "rectangle = sketch.sketchCurves.sketchLines.addTwoPointRectangle(")

	out, _, err = execute(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "  • block - A 10cm block")
}

func TestGenerateReportsRequestErrors(t *testing.T) {
	setupEnv(t)

	_, _, err := execute(t, `[{"tool_name": "Extrude", "parameters": {"height": 5}}]`, "generate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MissingContext: call 0 (Extrude)")

	_, _, err = execute(t, `[{"tool_name": `, "generate")
	assert.ErrorContains(t, err, "failed to parse tool calls")

	_, _, err = execute(t, "  ", "generate")
	assert.ErrorContains(t, err, "input is empty")

	_, _, err = execute(t, "", "generate", "--input", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to read input")
}

func TestGenerateWithRegistryFile(t *testing.T) {
	setupEnv(t)

	_, _, err := execute(t, blockCalls, "generate", "--registry", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDecodeToolCalls(t *testing.T) {
	calls, err := decodeToolCalls([]byte(`[{"tool_name": "Shell", "parameters": {"body_index": 9007199254740993}}]`))
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, json.Number("9007199254740993"), calls[0].Parameters["body_index"])

	calls, err = decodeToolCalls([]byte(`{"tool_calls": []}`))
	require.NoError(t, err)
	assert.Empty(t, calls)
}

func TestSettingsCommands(t *testing.T) {
	setupEnv(t)
	path := filepath.Join(t.TempDir(), "claude_desktop_config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"globalShortcut": "Ctrl+Space"}`), 0644))

	out, _, err := execute(t, "", "settings", "install", "--path", path, "--command", "/usr/local/bin/cadscript")
	require.NoError(t, err)
	assert.Contains(t, out, "Added 'fusion360' to MCP settings")

	out, _, err = execute(t, "", "settings", "list", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "  • fusion360 (enabled)")
	assert.Contains(t, out, "    command: /usr/local/bin/cadscript")
	assert.Contains(t, out, "    args: [mcp]")

	_, _, err = execute(t, "", "settings", "disable", "--path", path)
	require.NoError(t, err)
	out, _, err = execute(t, "", "settings", "list", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "  • fusion360 (disabled)")

	_, _, err = execute(t, "", "settings", "enable", "--path", path)
	require.NoError(t, err)

	_, _, err = execute(t, "", "settings", "remove", "--path", path)
	require.NoError(t, err)
	_, _, err = execute(t, "", "settings", "remove", "--path", path)
	assert.True(t, errors.Is(err, clientsettings.ErrServerNotFound))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "Ctrl+Space", doc["globalShortcut"])
}

func TestSettingsEditRequiresExistingFile(t *testing.T) {
	setupEnv(t)
	path := filepath.Join(t.TempDir(), "absent.json")

	_, _, err := execute(t, "", "settings", "enable", "--path", path, "--name", "other")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestListToolsWriter(t *testing.T) {
	setupEnv(t)
	resetFlags()
	a, err := newApp()
	require.NoError(t, err)
	defer a.close()

	store := persistence.NewStore(t.TempDir())
	require.NoError(t, store.Save(&persistence.SavedScript{Name: "bare", Source: "pass\n"}))

	var buf bytes.Buffer
	require.NoError(t, ListTools(&buf, a.generator.Registry(), store))
	assert.Contains(t, buf.String(), "  • bare\n")
	assert.Contains(t, buf.String(), "  • CreateSketch(plane=xy) - ")
}

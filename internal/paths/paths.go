package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// EnvDataDir overrides the data directory
const EnvDataDir = "CADSCRIPT_DIR"

// GetDataDir returns the directory where cadscript keeps its files.
// It checks CADSCRIPT_DIR first, then falls back to ~/.cadscript.
func GetDataDir() (string, error) {
	var dataDir string

	if envDir := os.Getenv(EnvDataDir); envDir != "" {
		dataDir = envDir
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".cadscript")
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return dataDir, nil
}

// GetScriptsDir returns the default saved script directory, creating it
func GetScriptsDir() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}

	scriptsDir := filepath.Join(dataDir, "scripts")
	if err := os.MkdirAll(scriptsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create scripts directory: %w", err)
	}

	return scriptsDir, nil
}

// GetConfigPath returns the full path to the default config.yaml
func GetConfigPath() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dataDir, "config.yaml"), nil
}

// GetExportDir returns the default directory for exported bodies: the
// user's desktop.
func GetExportDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, "Desktop"), nil
}

// GetClientSettingsPath returns the default location of the MCP client
// settings file for the current OS.
func GetClientSettingsPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return clientSettingsPath(runtime.GOOS, homeDir), nil
}

func clientSettingsPath(goos, homeDir string) string {
	switch goos {
	case "windows":
		return filepath.Join(homeDir, "AppData", "Roaming", "Code", "User", "globalStorage",
			"saoudrizwan.claude-dev", "settings", "cline_mcp_settings.json")
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", "Claude", "claude_desktop_config.json")
	default:
		return filepath.Join(homeDir, ".config", "Claude", "claude_desktop_config.json")
	}
}

package config

import (
	"os"
	"path/filepath"
)

// ProjectConfigDirName is the per-project configuration directory.
const ProjectConfigDirName = ".featurecheck"

// UserConfigPath returns the path to the user-level config file.
// This follows the XDG Base Directory Specification:
// - Linux: ~/.config/featurecheck/config.yml
// - macOS: ~/Library/Application Support/featurecheck/config.yml
// - Windows: %APPDATA%\featurecheck\config.yml
//
// If XDG_CONFIG_HOME is set, it will be respected on Linux.
func UserConfigPath() (string, error) {
	configDir, err := UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yml"), nil
}

// UserConfigDir returns the path to the user-level config directory.
func UserConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "featurecheck"), nil
}

// ProjectConfigPath returns the project-level YAML config file of projectDir.
func ProjectConfigPath(projectDir string) string {
	return filepath.Join(ProjectConfigDir(projectDir), "config.yml")
}

// ProjectJSONConfigPath returns the project-level JSON config file of projectDir.
func ProjectJSONConfigPath(projectDir string) string {
	return filepath.Join(ProjectConfigDir(projectDir), "config.json")
}

// ProjectConfigDir returns the project-level config directory of projectDir.
func ProjectConfigDir(projectDir string) string {
	return filepath.Join(projectDir, ProjectConfigDirName)
}

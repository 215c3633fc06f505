package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnvVar overrides the stripdemo home directory
const HomeEnvVar = "STRIPDEMO_HOME"

// GetHome returns the stripdemo home directory.
// STRIPDEMO_HOME wins; otherwise <user config dir>/stripdemo.
func GetHome() (string, error) {
	if home := os.Getenv(HomeEnvVar); home != "" {
		return home, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "stripdemo"), nil
}

// GetLogsDir returns <home>/logs
func GetLogsDir() (string, error) {
	home, err := GetHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "logs"), nil
}

// EnsureLogsDir creates <home>/logs if needed and returns it
func EnsureLogsDir() (string, error) {
	dir, err := GetLogsDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// GetLogPath returns the log file for a subsystem, e.g. <home>/logs/server.log,
// creating the logs directory if needed
func GetLogPath(subsystem string) (string, error) {
	dir, err := EnsureLogsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, subsystem+".log"), nil
}

// ResolveDir makes dir absolute and checks that it is an existing directory
func ResolveDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", abs)
	}
	return abs, nil
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"stripdemo/internal/config"
	apperrors "stripdemo/internal/errors"
	"stripdemo/internal/paths"
)

var (
	configFormat    string
	configInitPath  string
	configInitForce bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage stripdemo configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Display the configuration after defaults, config file, environment and
flags are applied.

Examples:
  stripdemo config show                # TOML
  stripdemo config show --format json  # JSON with source details`,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE:  runConfigInit,
}

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format (toml, json)")
	configInitCmd.Flags().StringVar(&configInitPath, "path", "", "Where to write (default: $STRIPDEMO_HOME/stripdemo.toml)")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

// ConfigShowResponse is the JSON form of config show
type ConfigShowResponse struct {
	ConfigPath   string         `json:"configPath,omitempty"`
	UsedDefaults bool           `json:"usedDefaults"`
	Warnings     []string       `json:"warnings,omitempty"`
	Config       *config.Config `json:"config"`
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	result, err := config.Load(config.LoadOptions{ConfigFile: configFile, Viper: v})
	if err != nil {
		return apperrors.Wrap(apperrors.InvalidConfig, "failed to load config", err)
	}
	return writeConfig(cmd.OutOrStdout(), result, configFormat)
}

func writeConfig(w io.Writer, result *config.LoadResult, format string) error {
	switch format {
	case "json":
		out, err := json.MarshalIndent(ConfigShowResponse{
			ConfigPath:   result.ConfigPath,
			UsedDefaults: result.UsedDefaults,
			Warnings:     result.Warnings,
			Config:       result.Config,
		}, "", "  ")
		if err != nil {
			return apperrors.Wrap(apperrors.EncodeFailed, "failed to encode config", err)
		}
		fmt.Fprintln(w, string(out))
	case "toml":
		out, err := result.Config.MarshalTOML()
		if err != nil {
			return apperrors.Wrap(apperrors.EncodeFailed, "failed to encode config", err)
		}
		if result.ConfigPath != "" {
			fmt.Fprintf(w, "# loaded from %s\n", result.ConfigPath)
		} else {
			fmt.Fprintln(w, "# no config file found, showing defaults with environment overrides")
		}
		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "# warning: %s\n", warning)
		}
		_, _ = w.Write(out)
	default:
		return apperrors.New(apperrors.InvalidConfig, fmt.Sprintf("unknown format %q, want toml or json", format))
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := initConfig(configInitPath, configInitForce)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
	return nil
}

// initConfig writes the default configuration and returns where it went
func initConfig(path string, force bool) (string, error) {
	if path == "" {
		home, err := paths.GetHome()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, "stripdemo.toml")
	}

	if _, err := os.Stat(path); err == nil && !force {
		return "", apperrors.New(apperrors.InvalidConfig,
			fmt.Sprintf("%s already exists, use --force to overwrite", path))
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}

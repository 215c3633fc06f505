package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"stripdemo/internal/config"
	"stripdemo/internal/version"
)

var (
	configFile string
	// logLevel is the --log-level flag; it beats every configured level
	logLevel string

	// v carries flag bindings into config.Load
	v = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "stripdemo",
	Short: "stripdemo - static front-end server and user submission client",
	Long: `stripdemo serves a directory of prebuilt front-end assets over HTTP and
submits user records to a backend service.`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("stripdemo version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"Config file (default: ./stripdemo.toml or $STRIPDEMO_HOME/stripdemo.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level for every subsystem: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: human or json")
	_ = v.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// loadConfig loads and validates configuration with flag bindings applied
func loadConfig() (*config.LoadResult, error) {
	result, err := config.Load(config.LoadOptions{
		ConfigFile: configFile,
		Viper:      v,
	})
	if err != nil {
		return nil, err
	}
	if err := result.Config.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

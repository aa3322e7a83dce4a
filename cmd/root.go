package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "chameleon",
	Short: "chameleon 🦎 - batch image format converter",
	Long: "chameleon 🦎 converts batches of images between formats, with\n" +
		"animation-aware handling of GIF, WebP, APNG and multi-page TIFF sources.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.chameleon.yaml)")
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
}

// initConfig layers defaults under an optional config file and CHAMELEON_*
// environment variables. Flags, when set, win over all of them.
func initConfig() {
	viper.SetDefault("format", "png")
	viper.SetDefault("quality", 85)
	viper.SetDefault("animation", "static")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigName(".chameleon")
			viper.SetConfigType("yaml")
		}
	}

	viper.SetEnvPrefix("chameleon")
	viper.AutomaticEnv()

	// A missing default config file is fine; a malformed or explicitly named
	// one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the neighborfit CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/neighborfit/internal/config"
	"github.com/pdiddy/neighborfit/internal/logging"
	"github.com/pdiddy/neighborfit/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg is the resolved configuration, available to every subcommand.
var cfg types.Config

// configErr holds a config file problem found during initialization so
// PersistentPreRunE can report it.
var configErr error

var rootCmd = &cobra.Command{
	Use:   "neighborfit",
	Short: "Match people to neighborhoods by lifestyle preferences",
	Long: `neighborfit ranks neighborhoods against a person's 1-5 ratings for safety,
walkability, healthcare, internet, affordability, restaurants, public transport
and green space.

Candidates come from a catalog file or are discovered from OpenStreetMap.
With --realtime, each candidate is enriched from Nominatim, Overpass,
Open-Meteo and REST Countries through a rate limited, cached client.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configErr != nil {
			return configErr
		}
		dir, _ := cmd.Flags().GetString("secrets-dir")
		secrets, err := config.LoadSecrets(dir)
		if err != nil {
			return err
		}
		cfg, err = config.Load(viper.GetViper(), secrets)
		if err != nil {
			return err
		}
		logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
		if used := viper.ConfigFileUsed(); used != "" {
			logging.Debug().Str("file", used).Msg("using config file")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./neighborfit.yaml or ~/.config/neighborfit/neighborfit.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", config.DefaultSecretsDir, "directory of secret files (nominatim-email)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("cache-path", "", "cache file (default cache/api-cache.json)")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("cache.path", rootCmd.PersistentFlags().Lookup("cache-path"))
}

func initConfig() {
	if err := config.LoadDotEnv(".env"); err != nil {
		configErr = err
		return
	}
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	config.Setup(viper.GetViper(), cfgFile)
	if _, err := config.Read(viper.GetViper()); err != nil {
		configErr = err
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

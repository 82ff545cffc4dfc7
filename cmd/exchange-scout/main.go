// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the exchange-scout CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/exchange-scout/internal/secrets"
	"github.com/pdiddy/exchange-scout/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ and .env at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the exchange-scout CLI.
var rootCmd = &cobra.Command{
	Use:   "exchange-scout",
	Short: "Research study-abroad options from the web",
	Long: `exchange-scout answers study-abroad planning questions by searching the
web, reading the pages it finds, and extracting structured facts with a
language model.

Each question type is a subcommand: courses matches home and foreign courses,
deadline finds the exchange application deadline, partners lists partner
universities, and insights summarizes campus life and research. The search
and fetch subcommands expose the underlying stages; serve runs the same
pipelines behind an HTTP API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.LoadAll(".secrets/", ".env")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./exchange-scout.yaml or ~/.config/exchange-scout/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("exchange-scout")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "exchange-scout"))
		}
	}

	viper.SetEnvPrefix("EXCHANGE_SCOUT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig seeds v with the defaults, decodes it, fills API keys from the
// loaded secrets and validates the result.
func loadConfig(v *viper.Viper) (types.Config, error) {
	if err := setDefaults(v, types.DefaultConfig()); err != nil {
		return types.Config{}, err
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}

	switch cfg.AI.Provider {
	case types.ProviderGemini:
		cfg.AI.APIKey = secretDefault(secrets.GeminiAPIKey, cfg.AI.APIKey)
	default:
		cfg.AI.APIKey = secretDefault(secrets.AnthropicAPIKey, cfg.AI.APIKey)
	}
	cfg.Search.GoogleAPIKey = secretDefault(secrets.GoogleAPIKey, cfg.Search.GoogleAPIKey)
	cfg.Search.GoogleCX = secretDefault(secrets.GoogleCX, cfg.Search.GoogleCX)

	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every field of cfg as a viper default so that
// environment variables can override keys that no config file mentions.
func setDefaults(v *viper.Viper, cfg types.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding default config: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("decoding default config: %w", err)
	}
	flattenDefaults(v, "", tree)

	// Optional keys are omitted from the encoding when empty.
	for _, key := range []string{"ai.api_key", "search.google_api_key", "search.google_cx", "fetch.cache_path"} {
		v.SetDefault(key, "")
	}
	return nil
}

func flattenDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			flattenDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

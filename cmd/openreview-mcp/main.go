// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the openreview-mcp CLI. The serve
// subcommand exposes the tool surface to an MCP host over stdio; search,
// export and papers run the same operations directly from the shell.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/openreview-mcp/internal/secrets"
	"github.com/pdiddy/openreview-mcp/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const defaultUserAgent = "openreview-mcp/0.1"

// loadedSecrets holds credentials loaded from the secrets directory at
// startup. Environment variables win over secret files.
var loadedSecrets map[string]string

func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the openreview-mcp CLI.
var rootCmd = &cobra.Command{
	Use:   "openreview-mcp",
	Short: "MCP bridge to the OpenReview paper repository",
	Long: `openreview-mcp bridges an MCP host to the OpenReview API: profile lookup,
conference listings, keyword search across venues, and paper export with
PDF text extraction.

Run "openreview-mcp serve" to expose the tools to an MCP client over stdio,
or use the search, papers and export subcommands directly.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir)
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

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./openreview-mcp.yaml or ~/.config/openreview-mcp/config.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets/", "directory holding openreview-username and openreview-password files")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("openreview-mcp")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "openreview-mcp"))
		}
	}

	viper.SetDefault("client.base_url", "https://api2.openreview.net")
	viper.SetDefault("client.legacy_base_url", "https://api.openreview.net")
	viper.SetDefault("client.site_url", "https://openreview.net")
	viper.SetDefault("client.timeout", 60*time.Second)
	viper.SetDefault("client.page_size", 1000)
	viper.SetDefault("client.max_retries", 4)
	viper.SetDefault("search.max_results", 20)
	viper.SetDefault("search.min_score", 0.0)
	viper.SetDefault("export.dir", "./openreview_exports")
	viper.SetDefault("export.max_papers", 10)
	viper.SetDefault("export.workers", 3)
	viper.SetDefault("export.timeout", 60*time.Second)
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.dir", "./openreview_cache")
	viper.SetDefault("cache.ttl", time.Hour)

	viper.SetEnvPrefix("OPENREVIEW")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// buildConfig assembles the server configuration from viper (config file
// and OPENREVIEW_* environment) with secret files as the credential
// fallback.
func buildConfig() types.ServerConfig {
	return types.ServerConfig{
		Client: types.ClientConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("client.timeout"),
				UserAgent: defaultUserAgent,
			},
			BaseURL:       viper.GetString("client.base_url"),
			LegacyBaseURL: viper.GetString("client.legacy_base_url"),
			SiteURL:       viper.GetString("client.site_url"),
			Username:      secretDefault(secrets.KeyUsername, viper.GetString("username")),
			Password:      secretDefault(secrets.KeyPassword, viper.GetString("password")),
			PageSize:      viper.GetInt("client.page_size"),
			MaxRetries:    viper.GetInt("client.max_retries"),
		},
		Search: types.SearchConfig{
			MaxResults: viper.GetInt("search.max_results"),
			MinScore:   viper.GetFloat64("search.min_score"),
		},
		Export: types.ExportConfig{
			ExportDir:       viper.GetString("export.dir"),
			MaxPapers:       viper.GetInt("export.max_papers"),
			DownloadWorkers: viper.GetInt("export.workers"),
			DownloadTimeout: viper.GetDuration("export.timeout"),
		},
		Cache: types.CacheConfig{
			Enabled: viper.GetBool("cache.enabled"),
			Dir:     viper.GetString("cache.dir"),
			TTL:     viper.GetDuration("cache.ttl"),
		},
	}
}

// parseVenueArgs parses "<venue>/<year>" strings, e.g. "ICLR.cc/2024".
func parseVenueArgs(args []string) ([]types.VenueSpec, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("provide at least one venue as <venue>/<year>, e.g. ICLR.cc/2024")
	}
	specs := make([]types.VenueSpec, len(args))
	for i, arg := range args {
		idx := strings.LastIndex(arg, "/")
		if idx < 1 || idx == len(arg)-1 {
			return nil, fmt.Errorf("venue %q: expected <venue>/<year>, e.g. ICLR.cc/2024", arg)
		}
		spec := types.VenueSpec{Venue: arg[:idx], Year: arg[idx+1:]}
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		specs[i] = spec
	}
	return specs, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

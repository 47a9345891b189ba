// Package main provides the cv_intake command: the WhatsApp intake server
// and offline extraction tools.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/cv-intake/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	configPath string
	verbose    bool

	// cfg is loaded before any subcommand runs.
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "cv_intake",
	Short: "Resume intake over WhatsApp",
	Long: "cv_intake receives resumes and candidate details over WhatsApp, extracts a structured " +
		"candidate record, replaces earlier submissions from the same person and stores the result.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a .json or .yaml config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print human-readable summaries")
}

func loadConfig(_ *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath, os.LookupEnv)
	if err != nil {
		return err
	}
	if verbose {
		loaded.Verbose = true
	}
	cfg = *loaded
	return nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

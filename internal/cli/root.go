// Package cli implements the leaf-diagnose command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	modelPath    string
	metadataPath string
	onnxLibPath  string
	formatFlag   string
	logLevel     string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "leaf-diagnose",
	Short: "Diagnose plant leaf diseases from photos",
	Long:  "Classify leaf photos with the trained disease model and print the plant, disease and recommended treatment.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

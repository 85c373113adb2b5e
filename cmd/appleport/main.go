package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JasonZhang1225/BJTUselfService-AppleDevice/internal/config"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "appleport",
		Short: "Port BJTU SelfService Android assets to the Apple app",
		Long: `appleport converts build artifacts from the Android release into the
assets the Apple app bundle needs.

Commands:
  convert-model   - Convert the trained captcha model into an on-device
                    inference package (validated with a real forward pass)
  generate-icons  - Render the full AppIcon set from the Android launcher icon`,
		// Errors are reported once from main, after any command diagnostics.
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./appleport.yaml)")
}

// loadConfig resolves configuration for a command run.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

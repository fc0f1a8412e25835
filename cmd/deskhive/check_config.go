package main

import (
	"fmt"
	"os"

	"github.com/deskhive/deskhive/internal/app"
	"github.com/deskhive/deskhive/internal/config"
	"github.com/spf13/cobra"
)

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Validate configuration file",
	Long:  `Validate the Deskhive configuration file and report any errors or warnings`,
	Run:   runCheckConfig,
}

func init() {
	checkConfigCmd.Flags().Bool("strict", false, "Fail on warnings (not just errors)")
}

func runCheckConfig(cmd *cobra.Command, args []string) {
	strict, _ := cmd.Flags().GetBool("strict")

	cfgPath := getConfigPath()

	cfg, err := config.LoadWithEnvExpansion(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration load failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Configuration is valid: %s\n", cfgPath)
	fmt.Printf("   Version: %s\n", cfg.Version)
	fmt.Printf("   Applications: %d\n", len(cfg.Applications))
	fmt.Printf("   Log Level: %s\n", cfg.Global.LogLevel)
	fmt.Printf("   Reconcile Interval: %ds\n", cfg.Global.ReconcileInterval)
	fmt.Printf("   Shutdown Timeout: %ds\n", cfg.Global.ShutdownTimeout)

	var warnings []string
	for id, a := range cfg.Applications {
		if a.Kind == app.KindWeb && len(cfg.Global.Browser) == 0 {
			warnings = append(warnings, fmt.Sprintf("application %q is a web app but global.browser is not set", id))
		}
	}

	if len(warnings) > 0 {
		fmt.Println("\n⚠️  Warnings:")
		for _, w := range warnings {
			fmt.Printf("   - %s\n", w)
		}

		if strict {
			fmt.Println("\n❌ Validation failed in strict mode (warnings present)")
			os.Exit(1)
		}
	}

	fmt.Println("\n✅ Configuration ready for use")
}

// getConfigPath determines configuration file path
func getConfigPath() string {
	// Try persistent flag (set by root command)
	if cfgFile != "" {
		return cfgFile
	}

	// Try environment variable
	if envPath := os.Getenv("DESKHIVE_CONFIG"); envPath != "" {
		return envPath
	}

	// Default paths
	defaultPath := "/etc/deskhive/deskhive.yaml"
	if _, err := os.Stat(defaultPath); err == nil {
		return defaultPath
	}

	// Fallback to local
	return "deskhive.yaml"
}

// softsell - offline console for the SoftSell assistant and contact form
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ashureev/softsell/internal/chat"
	"github.com/ashureev/softsell/internal/variant"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	verbose     bool
	variantName string
	variantFile string
)

// newRootCmd builds the base command with every subcommand attached.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "softsell",
		Short: "Talk to the SoftSell assistant and submit leads from the terminal",
		Long: `softsell runs the same scripted assistant and contact form checks as
the SoftSell landing page, without starting the web server.

Examples:
  softsell ask "How do I get paid?"
  softsell chat --no-delay
  softsell lead --name Ada --email ada@example.com --company Engines --license sap`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	root.PersistentFlags().StringVar(&variantName, "variant", envOr("VARIANT", "classic"), "Presentation preset (classic, polished)")
	root.PersistentFlags().StringVar(&variantFile, "variant-file", os.Getenv("VARIANT_FILE"), "YAML variant file, overrides --variant")

	root.AddCommand(newAskCmd())
	root.AddCommand(newChatCmd())
	root.AddCommand(newLeadCmd())
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func loadVariant() (variant.Variant, error) {
	if variantFile != "" {
		return variant.Load(variantFile)
	}
	return variant.Preset(variantName)
}

func newDispatcher() (*chat.Dispatcher, variant.Variant, error) {
	v, err := loadVariant()
	if err != nil {
		return nil, variant.Variant{}, err
	}
	return chat.NewDispatcher(v.Catalog()), v, nil
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

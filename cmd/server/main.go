// cmd/server/main.go
package main

import (
	"strings"

	"github.com/jason-s-yu/happyfamilies/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const releaseVersion = "0.1.0"

func main() {
	cfg, err := config.Load()
	cobra.CheckErr(err)
	cobra.CheckErr(newCmd(&cfg).Execute())
}

// newCmd builds the CLI. Flags default to the environment-derived config, so an explicit flag
// overrides the matching variable.
func newCmd(cfg *config.Config) *cobra.Command {
	serve := newServeCmd(cfg)

	cmd := &cobra.Command{
		Use:     "happyfamilies",
		Short:   "Multiplayer Happy Families card game server.",
		Args:    cobra.ExactArgs(0),
		Version: releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := logrus.ParseLevel(cfg.LogLevel)
			return err
		},
		RunE: serve.RunE,
	}

	fs := cmd.PersistentFlags()
	fs.StringVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on (env: PORT)")
	fs.StringVar(&cfg.PublicURL, "public-url", cfg.PublicURL, "externally visible base URL used in join links (env: PUBLIC_URL)")
	fs.StringVarP(&cfg.LogLevel, "log-level", "l", cfg.LogLevel, "log level: trace, debug, info, warn, error (env: LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: text or json (env: LOG_FORMAT)")

	cmd.AddCommand(serve, newFamiliesCmd(cfg), newHistorianCmd(cfg))
	cmd.SetGlobalNormalizationFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("happyfamilies v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lookup-bot/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "lookup-bot",
	Short: "Telegram bot that looks up phone numbers and IP addresses",
	Long:  "Classifies chat messages as phone numbers or IPv4 addresses, enriches them from numverify, a caller-name search and ip-api, and replies with a report.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/spf13/cobra"
)

func NewWppctlCommand() *cobra.Command {
	var opts globalOptions

	cmd := &cobra.Command{
		Use:   "wppctl",
		Short: "Query a running wpp daemon",
		Example: `  wppctl status
  wppctl chat find 5511999990000
  wppctl search invoice --count 20
  wppctl scan 0 -1 --stream`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.session, "session", "", "session name (overrides config default)")
	cmd.PersistentFlags().BoolVar(&opts.json, "json", false, "output in JSON format")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", defaultTimeout, "per-command deadline, 0 for none")

	cmd.AddCommand(
		newStatusCommand(&opts),
		newAuthCommand(&opts),
		newLogoutCommand(&opts),
		newChatCommand(&opts),
		newMessagesCommand(&opts),
		newSearchCommand(&opts),
		newScanCommand(&opts),
		newSessionsCommand(&opts),
	)

	return cmd
}

func main() {
	cmd := NewWppctlCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var gistSettings settingsFlags

var gistCmd = &cobra.Command{
	Use:   "gist URL...",
	Short: "Merge the files of one or more gists",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		if err := gistSettings.apply(cmd, s); err != nil {
			return err
		}
		for _, g := range args {
			n, errs := s.ImportGist(cmd.Context(), g)
			reportErrors("Gist import", errs)
			logger.Info("Queued gist files", zap.String("gist", g), zap.Int("count", n))
		}
		return mergeQueue(cmd, s, gistSettings.output)
	},
}

func init() {
	gistSettings.register(gistCmd)
	RootCmd.AddCommand(gistCmd)
}

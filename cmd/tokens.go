package cmd

import (
	"fmt"
	"io"
	"os"

	"docustream/pkg/tokens"

	"github.com/spf13/cobra"
)

var tokensOpts struct {
	model string
	list  bool
}

var tokensCmd = &cobra.Command{
	Use:   "tokens [file]",
	Short: "Estimate the token count of a text file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if tokensOpts.list {
			for _, m := range tokens.Models() {
				p := tokens.Lookup(m)
				fmt.Fprintf(out, "%-20s %8d  %s\n", p.Name, p.ContextLimit, p.Encoding)
			}
			return nil
		}

		var (
			b   []byte
			err error
		)
		if len(args) == 1 && args[0] != "-" {
			b, err = os.ReadFile(args[0])
		} else {
			b, err = io.ReadAll(cmd.InOrStdin())
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		est := tokens.NewEstimator(tokens.WithLogger(logger.Named("tokens")))
		fmt.Fprintln(out, est.Info(string(b), tokensOpts.model).String())
		return nil
	},
}

func init() {
	tokensCmd.Flags().StringVar(&tokensOpts.model, "model", tokens.DefaultModel, "Model profile to size against")
	tokensCmd.Flags().BoolVar(&tokensOpts.list, "list", false, "List known model profiles")
	RootCmd.AddCommand(tokensCmd)
}

package main

import (
	"fmt"

	"github.com/aretw0/gamemaster/pkg/dice"
	"github.com/spf13/cobra"
)

var rollCmd = &cobra.Command{
	Use:   "roll <expression>",
	Short: "Roll a dice expression such as 1d20 or 4d6kh3",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("advantage")
		adv, err := dice.ParseAdvantage(raw)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		out, err := a.engine.Roll(cmd.Context(), args[0], adv)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd.OutOrStdout(), out)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %v -> kept %v = %d\n", args[0], out.Raw, out.Kept, out.Total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rollCmd)
	rollCmd.Flags().String("advantage", "normal", "normal, advantage or disadvantage")
	rollCmd.Flags().Bool("json", false, "Print the outcome as JSON")
}

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "List and run engine tasks",
}

var taskLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List registered tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, t := range a.tasks.Tasks() {
			fmt.Fprintf(w, "%s\t%s\n", t.Name, t.Description)
		}
		return w.Flush()
	},
}

var taskRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Run a task with JSON arguments",
	Example: `  gamemaster task run dice.roll --args '{"expression":"2d6"}'
  gamemaster task run rules.resolve_check --args '{"expression":"1d20","dc":15,"modifiers":{"str":3}}'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("args")
		taskArgs, err := parseObject(raw)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		out, err := a.tasks.Execute(cmd.Context(), args[0], taskArgs)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	rootCmd.AddCommand(taskCmd)
	taskCmd.AddCommand(taskLsCmd)
	taskCmd.AddCommand(taskRunCmd)
	taskRunCmd.Flags().String("args", "", "Task arguments as a JSON object")
}

package main

import (
	"fmt"
	"os"

	"github.com/aretw0/gamemaster/internal/config"
	"github.com/aretw0/gamemaster/pkg/combat"
	"github.com/aretw0/gamemaster/pkg/domain"
	"github.com/aretw0/gamemaster/pkg/lifecycle"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persistent sessions",
	Long: `Create, advance and inspect sessions. The memory backend does not outlive
one command, so session commands use the file backend in its place.`,
}

// sessionApp wires the app with a store that persists between commands.
func sessionApp(cmd *cobra.Command) (*app, error) {
	c := cfg
	if c.Store.Backend == config.BackendMemory {
		logger.Debug("memory backend does not persist, using file store", "dir", c.Store.Dir)
		c.Store.Backend = config.BackendFile
	}
	return newApp(cmd.Context(), c, logger)
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create [session-id]",
	Short: "Create a session; the ID is generated when omitted",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := sessionApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		var id string
		if len(args) > 0 {
			id = args[0]
		}
		campaign, _ := cmd.Flags().GetString("campaign")
		state, err := a.engine.Sessions().Create(cmd.Context(), id, campaign)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), state)
	},
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := sessionApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ids, err := a.engine.Sessions().List(cmd.Context())
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No sessions found.")
			return nil
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), "- "+id)
		}
		return nil
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a session's state and the events it accepts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := sessionApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		mgr := a.engine.Sessions()
		state, err := mgr.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		events, err := mgr.AvailableEvents(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), struct {
			State  *domain.SessionState  `json:"state"`
			Events []domain.SessionEvent `json:"events"`
		}{state, events})
	},
}

var sessionEventCmd = &cobra.Command{
	Use:   "event <session-id> <event>",
	Short: "Apply a lifecycle event",
	Example: `  gamemaster session event s-1 start
  gamemaster session event s-1 combat_start --payload '{"participants":[{"name":"Hero"},{"name":"Orc","side":"monsters"}]}'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		event, err := domain.ParseEvent(args[1])
		if err != nil {
			return err
		}
		raw, _ := cmd.Flags().GetString("payload")
		data, err := parseObject(raw)
		if err != nil {
			return err
		}
		payload, err := lifecycle.DecodePayload(event, data)
		if err != nil {
			return err
		}

		a, err := sessionApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		out, err := a.engine.Transition(cmd.Context(), args[0], event, payload)
		if out != nil {
			if perr := printJSON(cmd.OutOrStdout(), out); perr != nil {
				return perr
			}
		}
		return err
	},
}

var sessionTurnCmd = &cobra.Command{
	Use:   "turn <session-id> <action>",
	Short: "Play a combat turn",
	Example: `  gamemaster session turn s-1 attack --actor '{"name":"Hero"}' \
    --data '{"attack_modifier":5,"damage_dice":"1d8"}' --targets '[{"name":"Orc","armor_class":13}]'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rawActor, _ := cmd.Flags().GetString("actor")
		actorData, err := parseObject(rawActor)
		if err != nil {
			return err
		}
		actor, err := combat.DecodeParticipant(actorData)
		if err != nil {
			return err
		}
		rawData, _ := cmd.Flags().GetString("data")
		actionData, err := parseObject(rawData)
		if err != nil {
			return err
		}
		action, err := combat.DecodeAction(args[1], actionData)
		if err != nil {
			return err
		}
		rawTargets, _ := cmd.Flags().GetString("targets")
		targets, err := parseTargets(rawTargets)
		if err != nil {
			return err
		}

		a, err := sessionApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.engine.PlayTurn(cmd.Context(), args[0], actor, action, targets)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), rec)
	},
}

var sessionTurnsCmd = &cobra.Command{
	Use:   "turns <session-id>",
	Short: "Print a session's combat log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := sessionApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		turns, err := a.engine.Sessions().Turns(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), turns)
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := sessionApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		hasError := false
		for _, sessionID := range args {
			if err := a.engine.Sessions().Delete(cmd.Context(), sessionID); err != nil {
				fmt.Fprintf(os.Stderr, "Error removing '%s': %v\n", sessionID, err)
				hasError = true
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", sessionID)
			}
		}
		if hasError {
			return fmt.Errorf("failed to remove some sessions")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionCreateCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionEventCmd)
	sessionCmd.AddCommand(sessionTurnCmd)
	sessionCmd.AddCommand(sessionTurnsCmd)
	sessionCmd.AddCommand(sessionRmCmd)

	sessionCreateCmd.Flags().String("campaign", "", "Campaign ID")
	sessionEventCmd.Flags().String("payload", "", "Event payload as a JSON object")
	sessionTurnCmd.Flags().String("actor", "", "Acting participant as a JSON object")
	sessionTurnCmd.Flags().String("data", "", "Action data as a JSON object")
	sessionTurnCmd.Flags().String("targets", "", "Targets as a JSON array of objects")
}

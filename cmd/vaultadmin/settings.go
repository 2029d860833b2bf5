package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/domino14/quizvault/internal/scheduler"
)

func settingsCmd() *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or replace a user's scheduler settings",
	}
	cmd.PersistentFlags().Int64Var(&userID, "user", 0, "user id")
	cmd.MarkPersistentFlagRequired("user")

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the user's settings, creating the defaults if needed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()
			settings, err := e.svc.GetSettings(commandContext(cmd), userID)
			if err != nil {
				return err
			}
			return printJSON(settings)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set JSON_FILE",
		Short: "Replace the user's settings; missing fields take their default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bts, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			settings := scheduler.DefaultSettings()
			if err := json.Unmarshal(bts, &settings); err != nil {
				return fmt.Errorf("parsing %s: %w", args[0], err)
			}
			e, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()
			saved, err := e.svc.UpdateSettings(commandContext(cmd), userID, settings)
			if err != nil {
				return err
			}
			return printJSON(saved)
		},
	})
	return cmd
}

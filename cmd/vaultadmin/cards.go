package main

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/domino14/quizvault/internal/stores/models"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func addQuestionCmd() *cobra.Command {
	var params models.InsertQuestionParams
	cmd := &cobra.Command{
		Use:   "add-question",
		Short: "Register a question in the bank",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if params.CorrectOption == "" {
				return fmt.Errorf("--correct is required")
			}
			e, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()
			id, err := e.store.Queries().InsertQuestion(cmd.Context(), params)
			if err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		},
	}
	cmd.Flags().Int64Var(&params.SubjectID, "subject", 0, "subject id")
	cmd.Flags().Int64Var(&params.SubtopicID, "subtopic", 0, "subtopic id")
	cmd.Flags().Int32Var(&params.Year, "year", 0, "exam year")
	cmd.Flags().StringVar(&params.CorrectOption, "correct", "", "correct option label")
	cmd.Flags().BoolVar(&params.IsActive, "active", true, "whether the question is shown")
	return cmd
}

func importCardboxCmd() *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "import-cardbox SQLITE_FILE",
		Short: "Convert a Leitner cardbox file into cards for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()
			res, err := e.svc.ImportCardbox(commandContext(cmd), userID, args[0])
			if err != nil {
				return err
			}
			slices.Sort(res.Skipped)
			return printJSON(res)
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "user id")
	cmd.MarkFlagRequired("user")
	return cmd
}

func resetCardCmd() *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "reset-card CARD_ID",
		Short: "Send a card back to the new state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cardID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("bad card id %q: %w", args[0], err)
			}
			e, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()
			card, err := e.svc.ResetCard(commandContext(cmd), userID, cardID)
			if err != nil {
				return err
			}
			return printJSON(card)
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "user id")
	cmd.MarkFlagRequired("user")
	return cmd
}

func forecastCmd() *cobra.Command {
	var (
		userID int64
		days   int
	)
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Count review cards due per day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()
			breakdown, err := e.svc.DueForecast(commandContext(cmd), userID, days)
			if err != nil {
				return err
			}
			return printJSON(breakdown)
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "user id")
	cmd.Flags().IntVar(&days, "days", 30, "days to look ahead")
	cmd.MarkFlagRequired("user")
	return cmd
}

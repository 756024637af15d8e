package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pagebuild/internal/db"
	"github.com/ziadkadry99/pagebuild/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history [build-id]",
	Short: "Show recent builds",
	Long: `Lists recent builds recorded in the local build history, newest first.
Given a build id, shows that build with the placeholders it left unresolved.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "number of builds to list")
	historyCmd.Flags().Bool("json", false, "print builds as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfg.History.Path); os.IsNotExist(err) {
		return fmt.Errorf("no build history at %s\nRun `pagebuild build` first", cfg.History.Path)
	}

	database, err := db.Open(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("opening build history: %w", err)
	}
	defer database.Close()

	ctx := context.Background()
	store := history.NewStore(database)
	out := cmd.OutOrStdout()
	asJSON, _ := cmd.Flags().GetBool("json")
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if len(args) == 1 {
		e, err := store.Get(ctx, args[0])
		if errors.Is(err, history.ErrNotFound) {
			return fmt.Errorf("no build with id %s", args[0])
		}
		if err != nil {
			return err
		}
		if asJSON {
			return enc.Encode(e)
		}
		fmt.Fprintf(out, "Build %s\n", e.ID)
		fmt.Fprintf(out, "  Started:   %s (%s)\n", e.StartedAt.Local().Format(time.DateTime), e.Trigger)
		fmt.Fprintf(out, "  Mode:      %s\n", e.Mode)
		fmt.Fprintf(out, "  Status:    %s\n", e.Status)
		if e.Error != "" {
			fmt.Fprintf(out, "  Error:     %s\n", e.Error)
			return nil
		}
		fmt.Fprintf(out, "  Output:    %s\n", e.OutputPath)
		fmt.Fprintf(out, "  Duration:  %s\n", e.Duration)
		fmt.Fprintf(out, "  Inputs:    %d data files, %d components, %d styles, %d scripts\n",
			e.DataFiles, e.Components, e.Styles, e.Scripts)
		fmt.Fprintf(out, "  Copied:    %d files\n", e.CopiedFiles)
		if len(e.Unresolved) > 0 {
			fmt.Fprintf(out, "  Unresolved placeholders:\n")
			for _, u := range e.Unresolved {
				fmt.Fprintf(out, "    %-9s %s\n", u.Kind, u.Token)
			}
		}
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if asJSON {
		return enc.Encode(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No builds recorded yet.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s  %s  %-7s %-9s %-6s %8s  %s\n",
			e.StartedAt.Local().Format(time.DateTime), e.ID, e.Trigger, e.Mode, e.Status,
			e.Duration, historySummary(e))
	}
	return nil
}

func historySummary(e history.Entry) string {
	if e.Status == history.StatusFailed {
		return e.Error
	}
	return fmt.Sprintf("%d copied, %d unresolved", e.CopiedFiles, e.UnresolvedCount)
}

package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/whitebeard-ai/pawn-installer/internal/config"
	"github.com/whitebeard-ai/pawn-installer/pkg/db"
	"github.com/whitebeard-ai/pawn-installer/pkg/errors"
)

var historyOutput string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded installation runs and their state",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVarP(&historyOutput, "output", "o", "table", "Output format: table or yaml")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "config load failed")
	}

	// Ensure database directory exists
	if err := ensureDirectories(cfg.StateDBPath, ""); err != nil {
		return err
	}

	repo, err := db.NewRepository(cfg.StateDBPath)
	if err != nil {
		return errors.Wrap(err, "db init failed")
	}
	defer repo.Close()

	runs, err := repo.List()
	if err != nil {
		return errors.Wrap(err, "list failed")
	}

	return writeHistory(cmd.OutOrStdout(), runs, historyOutput)
}

type historyEntry struct {
	RunID        string   `yaml:"run_id"`
	State        string   `yaml:"state"`
	FailedStage  string   `yaml:"failed_stage,omitempty"`
	FailureKind  string   `yaml:"failure_kind,omitempty"`
	Error        string   `yaml:"error,omitempty"`
	Organization string   `yaml:"organization,omitempty"`
	Email        string   `yaml:"email,omitempty"`
	TargetRoot   string   `yaml:"target_root,omitempty"`
	PluginPath   string   `yaml:"plugin_path,omitempty"`
	Warnings     []string `yaml:"warnings,omitempty"`
	CreatedAt    string   `yaml:"created_at"`
}

func writeHistory(w io.Writer, runs []*db.Run, format string) error {
	switch format {
	case "yaml":
		entries := make([]historyEntry, 0, len(runs))
		for _, r := range runs {
			entries = append(entries, historyEntry{
				RunID:        r.RunID,
				State:        r.State,
				FailedStage:  r.FailedStage,
				FailureKind:  r.FailureKind,
				Error:        r.ErrorMessage,
				Organization: r.OrganizationName,
				Email:        r.ContactEmail,
				TargetRoot:   r.TargetRoot,
				PluginPath:   r.PluginPath,
				Warnings:     r.Warnings,
				CreatedAt:    r.CreatedAt,
			})
		}
		return writeYAML(w, entries)
	case "table":
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No installation runs found")
		return nil
	}

	fmt.Fprintf(w, "%-36s %-22s %-10s %-24s %-20s\n", "RUN ID", "STATE", "STAGE", "ORGANIZATION", "CREATED")
	fmt.Fprintln(w, "------------------------------------------------------------------------------------------------------------------")

	for _, r := range runs {
		stage := r.FailedStage
		if stage == "" {
			stage = "-"
		}
		org := r.OrganizationName
		if org == "" {
			org = "-"
		}
		fmt.Fprintf(w, "%-36s %-22s %-10s %-24s %-20s\n", r.RunID, r.State, stage, org, r.CreatedAt)
	}

	return nil
}

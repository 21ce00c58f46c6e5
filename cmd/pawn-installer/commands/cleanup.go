package commands

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/whitebeard-ai/pawn-installer/internal/config"
	"github.com/whitebeard-ai/pawn-installer/pkg/db"
	"github.com/whitebeard-ai/pawn-installer/pkg/errors"
)

var (
	cleanupAll     bool
	cleanupRun     string
	cleanupAborted bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove recorded installation runs",
	Long: `Remove installation runs from the journal:
  --all          Remove every run and the FSM state directory
  --run <id>     Remove one run by id
  --aborted      Remove aborted runs`,
	Args: cobra.NoArgs,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
	cleanupCmd.Flags().BoolVar(&cleanupAll, "all", false, "Remove all runs")
	cleanupCmd.Flags().StringVar(&cleanupRun, "run", "", "Remove a specific run by id")
	cleanupCmd.Flags().BoolVar(&cleanupAborted, "aborted", false, "Remove aborted runs")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "config load failed")
	}

	if err := ensureDirectories(cfg.StateDBPath, ""); err != nil {
		return err
	}

	repo, err := db.NewRepository(cfg.StateDBPath)
	if err != nil {
		return errors.Wrap(err, "db init failed")
	}
	defer repo.Close()

	switch {
	case cleanupAll:
		return cleanupAllRuns(repo, cfg)
	case cleanupRun != "":
		if err := repo.Delete(cleanupRun); err != nil {
			return errors.Wrap(err, "cleanup failed")
		}
		fmt.Printf("Removed run %s\n", cleanupRun)
		return nil
	case cleanupAborted:
		n, err := repo.DeleteByState(db.StateAborted)
		if err != nil {
			return errors.Wrap(err, "cleanup failed")
		}
		fmt.Printf("Removed %d aborted runs\n", n)
		return nil
	default:
		return fmt.Errorf("must specify --all, --run, or --aborted")
	}
}

// cleanupAllRuns removes every run and keeps going past individual
// failures.
func cleanupAllRuns(repo *db.Repository, cfg *config.Config) error {
	runs, err := repo.List()
	if err != nil {
		return errors.Wrap(err, "list failed")
	}

	fmt.Printf("Removing %d runs...\n", len(runs))

	var result *multierror.Error
	for _, r := range runs {
		if err := repo.Delete(r.RunID); err != nil {
			result = multierror.Append(result, fmt.Errorf("run %s: %w", r.RunID, err))
		}
	}

	if cfg.FSMDBPath != "" {
		if err := os.RemoveAll(cfg.FSMDBPath); err != nil {
			result = multierror.Append(result, fmt.Errorf("fsm state %s: %w", cfg.FSMDBPath, err))
		}
	}

	return result.ErrorOrNil()
}

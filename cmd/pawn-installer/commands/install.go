package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/superfly/fsm"

	"github.com/whitebeard-ai/pawn-installer/internal/config"
	"github.com/whitebeard-ai/pawn-installer/pkg/db"
	"github.com/whitebeard-ai/pawn-installer/pkg/errors"
	appfsm "github.com/whitebeard-ai/pawn-installer/pkg/fsm"
	"github.com/whitebeard-ai/pawn-installer/pkg/pipeline"
	"github.com/whitebeard-ai/pawn-installer/pkg/prompt"
)

var installAnswers promptAnswers

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Verify the license and install the Pawn plugin into MetaTrader 5",
	Long: `Runs the installation pipeline:
  locate   find *_pawn_plugin.lic in the data directory or ask for it
  parse    read CompanyName and CompanyEmail from the license
  verify   submit the license to the WhiteBeard license server
  detect   find MetaTrader 5 (registry, default path, then ask)
  install  copy the plugin and license, backing up existing files`,
	Args: cobra.NoArgs,
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
	installCmd.Flags().Bool("journal", true, "Run through the durable FSM engine")
	installCmd.Flags().StringVar(&installAnswers.license, "prompt-license", "", "Answer the license file prompt with this path")
	installCmd.Flags().StringVar(&installAnswers.target, "prompt-target", "", "Answer the MetaTrader 5 folder prompt with this path")
	viper.BindPFlag("journal", installCmd.Flags().Lookup("journal"))
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, logCloser, err := loadConfig()
	if err != nil {
		return err
	}
	defer logCloser.Close()

	if err := ensureDirectories(cfg.StateDBPath, cfg.FSMDBPath); err != nil {
		return err
	}

	repo, err := db.NewRepository(cfg.StateDBPath)
	if err != nil {
		return errors.Wrap(err, "db init failed")
	}
	defer repo.Close()

	prompter, notifier := prompters(cfg, installAnswers)
	p := buildPipeline(ctx, cfg, prompter, pipeline.NewJournalRecorder(repo))

	var out *pipeline.Outcome
	if cfg.Journal {
		out, err = runMachine(ctx, cfg, p, repo)
		if err != nil {
			return err
		}
	} else {
		out = p.Run(ctx)
	}

	return report(cmd, out, notifier)
}

func runMachine(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, repo *db.Repository) (*pipeline.Outcome, error) {
	manager, err := fsm.New(fsm.Config{DBPath: cfg.FSMDBPath})
	if err != nil {
		return nil, errors.Wrap(err, "FSM manager failed")
	}
	defer manager.Shutdown(10 * time.Second)

	machine := appfsm.NewMachine(p, repo)
	start, _, err := machine.Register(ctx, manager)
	if err != nil {
		return nil, errors.Wrap(err, "FSM register failed")
	}

	return machine.Run(ctx, manager, start)
}

type installSummary struct {
	RunID        string                 `yaml:"run_id"`
	State        pipeline.State         `yaml:"state"`
	Context      pipeline.Snapshot      `yaml:"context"`
	PluginPath   string                 `yaml:"plugin_path,omitempty"`
	LicenseCopy  string                 `yaml:"license_copy,omitempty"`
	Warnings     []string               `yaml:"warnings,omitempty"`
	Registration *pipeline.Registration `yaml:"registration,omitempty"`
}

// report shows the failure dialog or prints the registration values.
func report(cmd *cobra.Command, out *pipeline.Outcome, notifier prompt.Notifier) error {
	if !out.Succeeded() {
		failure := out.Failure
		if failure == nil {
			failure = errors.Newf(errors.KindInternal, "install", "run ended in state %s", out.State)
		}
		title, text := errors.UserMessage(failure.Kind, string(out.FailedStage))
		if failure.Kind == errors.KindIOFailure {
			text += "\n\n" + failure.Error()
		}
		notifier.Alert(title, text)
		return fmt.Errorf("installation %s aborted at %s: %w", out.RunID, out.FailedStage, failure)
	}

	summary := installSummary{
		RunID:        out.RunID,
		State:        out.State,
		Context:      out.Context,
		PluginPath:   out.PluginPath,
		LicenseCopy:  out.LicenseCopyPath,
		Warnings:     out.Warnings,
		Registration: out.Registration,
	}

	if err := writeYAML(cmd.OutOrStdout(), summary); err != nil {
		return err
	}

	slog.Info("installation_succeeded", "run_id", out.RunID)
	return nil
}

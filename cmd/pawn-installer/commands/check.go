package commands

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/whitebeard-ai/pawn-installer/internal/config"
	"github.com/whitebeard-ai/pawn-installer/pkg/environment"
	"github.com/whitebeard-ai/pawn-installer/pkg/errors"
	"github.com/whitebeard-ai/pawn-installer/pkg/license"
)

var checkAnswers promptAnswers

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Locate and parse the license and find MetaTrader 5 without installing",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkAnswers.license, "prompt-license", "", "Answer the license file prompt with this path")
	checkCmd.Flags().StringVar(&checkAnswers.target, "prompt-target", "", "Answer the MetaTrader 5 folder prompt with this path")
}

type checkSummary struct {
	LicensePath  string `yaml:"license_path"`
	Organization string `yaml:"organization"`
	Email        string `yaml:"email"`
	Placeholder  bool   `yaml:"placeholder,omitempty"`
	TargetRoot   string `yaml:"target_root"`
	TargetSource string `yaml:"target_source"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, logCloser, err := loadConfig()
	if err != nil {
		return err
	}
	defer logCloser.Close()

	p, _ := prompters(cfg, checkAnswers)
	summary, err := check(ctx, cfg, newLocator(cfg, p), newDetector(cfg, p))
	if err != nil {
		return err
	}
	return writeYAML(cmd.OutOrStdout(), summary)
}

// check runs the read-only stages. Nothing is sent or written.
func check(ctx context.Context, cfg *config.Config, locator *license.Locator, detector *environment.Detector) (*checkSummary, error) {
	path, err := locator.Locate(ctx)
	if err != nil {
		return nil, err
	}

	artifact, err := license.Load(path, cfg.MaxLicenseSize)
	if err != nil {
		return nil, err
	}

	id, err := license.NewParser(cfg.PlaceholderIdentity).Parse(artifact)
	if err != nil {
		return nil, err
	}

	root, source, err := detector.Detect(ctx)
	if err != nil {
		return nil, err
	}

	return &checkSummary{
		LicensePath:  path,
		Organization: id.OrganizationName,
		Email:        id.ContactEmail,
		Placeholder:  id.IsPlaceholder(),
		TargetRoot:   root,
		TargetSource: string(source),
	}, nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "failed to write output")
	}
	return nil
}

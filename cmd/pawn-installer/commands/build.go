package commands

import (
	"context"
	"log/slog"

	"github.com/whitebeard-ai/pawn-installer/internal/config"
	"github.com/whitebeard-ai/pawn-installer/pkg/environment"
	"github.com/whitebeard-ai/pawn-installer/pkg/installer"
	"github.com/whitebeard-ai/pawn-installer/pkg/license"
	"github.com/whitebeard-ai/pawn-installer/pkg/pipeline"
	"github.com/whitebeard-ai/pawn-installer/pkg/privilege"
	"github.com/whitebeard-ai/pawn-installer/pkg/prompt"
	"github.com/whitebeard-ai/pawn-installer/pkg/security"
	"github.com/whitebeard-ai/pawn-installer/pkg/storage"
	"github.com/whitebeard-ai/pawn-installer/pkg/verify"
)

// promptAnswers preset the interactive prompts for unattended installs.
type promptAnswers struct {
	license string
	target  string
}

// prompters picks the prompt capability for this run.
func prompters(cfg *config.Config, answers promptAnswers) (prompt.Prompter, prompt.Notifier) {
	if answers.license != "" || answers.target != "" {
		return &prompt.Static{File: answers.license, Directory: answers.target}, prompt.LogNotifier{}
	}
	if !cfg.Interactive {
		return prompt.None{}, prompt.LogNotifier{}
	}
	term := prompt.NewTerminal()
	return term, term
}

func newLocator(cfg *config.Config, p prompt.Prompter) *license.Locator {
	return license.NewLocator(cfg.LicenseSearchDir, cfg.LicenseSuffix, cfg.MaxLicenseSize, p)
}

func newDetector(cfg *config.Config, p prompt.Prompter) *environment.Detector {
	return environment.NewDetector(environment.Options{
		RegistryKey:   cfg.RegistryKey,
		RegistryValue: cfg.RegistryValue,
		DefaultPath:   cfg.TargetDefaultPath,
	}, environment.SystemRegistry(), p)
}

// payloadFetcher returns the S3 payload source, or nil when none is
// configured or the client cannot be built.
func payloadFetcher(ctx context.Context, cfg *config.Config) installer.PayloadFetcher {
	if !cfg.S3Enabled() {
		return nil
	}
	client, err := storage.NewClient(ctx, cfg.PayloadS3Bucket, cfg.PayloadS3Region)
	if err != nil {
		slog.Warn("payload_source_unavailable", "bucket", cfg.PayloadS3Bucket, "error", err)
		return nil
	}
	return client
}

// buildPipeline wires every stage from configuration.
func buildPipeline(ctx context.Context, cfg *config.Config, p prompt.Prompter, recorder pipeline.Recorder) *pipeline.Pipeline {
	validator := security.NewValidator(cfg.MaxPayloadSize)

	inst := installer.New(installer.Options{
		SystemDataDir:  cfg.SystemDataDir,
		PluginsSubdir:  cfg.PluginsSubdir,
		PayloadName:    cfg.PayloadName,
		PayloadKey:     cfg.PayloadS3Key,
		MaxPayloadSize: cfg.MaxPayloadSize,
	}, privilege.System(), validator, payloadFetcher(ctx, cfg))

	return pipeline.New(pipeline.Options{
		SourceDir:      cfg.InstallSourceDir,
		PluginsSubdir:  cfg.PluginsSubdir,
		PayloadName:    cfg.PayloadName,
		MaxLicenseSize: cfg.MaxLicenseSize,
		ProductVersion: cfg.ProductVersion,
		PluginVersion:  cfg.PluginVersion,
	},
		newLocator(cfg, p),
		license.NewParser(cfg.PlaceholderIdentity),
		verify.NewVerifier(cfg.VerifyURL, cfg.VerifyTimeout),
		newDetector(cfg, p),
		inst,
		recorder,
	)
}

// Package pipeline runs the installation stages in order: locate the
// license, parse it, verify it remotely, detect MetaTrader 5 and install
// the files. The first failing stage aborts the run.
package pipeline

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/whitebeard-ai/pawn-installer/pkg/environment"
	"github.com/whitebeard-ai/pawn-installer/pkg/errors"
	"github.com/whitebeard-ai/pawn-installer/pkg/installer"
	"github.com/whitebeard-ai/pawn-installer/pkg/license"
	"github.com/whitebeard-ai/pawn-installer/pkg/verify"
)

type LicenseLocator interface {
	Locate(ctx context.Context) (string, error)
}

type LicenseParser interface {
	Parse(artifact *license.Artifact) (license.Identity, error)
}

type RemoteVerifier interface {
	Verify(ctx context.Context, artifact *license.Artifact, id license.Identity) verify.Result
}

type EnvironmentDetector interface {
	Detect(ctx context.Context) (string, environment.Source, error)
}

type FileInstaller interface {
	Install(ctx context.Context, req installer.Request) (*installer.Report, error)
}

// Options holds the values stages need beyond their collaborators.
type Options struct {
	SourceDir      string
	PluginsSubdir  string
	PayloadName    string
	MaxLicenseSize int64
	ProductVersion string
	PluginVersion  string
}

// Pipeline wires the five stages together.
type Pipeline struct {
	opts      Options
	locator   LicenseLocator
	parser    LicenseParser
	verifier  RemoteVerifier
	detector  EnvironmentDetector
	installer FileInstaller
	recorder  Recorder
}

// New creates a pipeline. A nil recorder records nothing.
func New(opts Options, locator LicenseLocator, parser LicenseParser, verifier RemoteVerifier,
	detector EnvironmentDetector, inst FileInstaller, recorder Recorder) *Pipeline {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Pipeline{
		opts:      opts,
		locator:   locator,
		parser:    parser,
		verifier:  verifier,
		detector:  detector,
		installer: inst,
		recorder:  recorder,
	}
}

// Options returns the pipeline's options.
func (p *Pipeline) Options() Options {
	return p.opts
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Run executes every stage in order on a fresh context and stops at the
// first failure.
func (p *Pipeline) Run(ctx context.Context) *Outcome {
	runID := NewRunID()
	ic := NewContext()

	p.Begin(runID, ic)

	var report *installer.Report
	for _, stage := range Stages {
		res := p.Step(ctx, runID, stage, ic)
		if !res.OK() {
			return p.Fail(runID, res, ic)
		}
		if res.Install != nil {
			report = res.Install
		}
	}

	return p.Complete(runID, ic, report)
}

// Begin journals a new run.
func (p *Pipeline) Begin(runID string, ic *InstallationContext) {
	slog.Info("pipeline_start", "run_id", runID)
	p.record(p.recorder.Begin(runID, ic.Snapshot()), runID)
}

// Step runs a single stage against ic and journals the state it reaches.
func (p *Pipeline) Step(ctx context.Context, runID string, stage Stage, ic *InstallationContext) StageResult {
	slog.Info("stage_start", "run_id", runID, "stage", stage)

	var res StageResult
	switch stage {
	case StageLocate:
		res = p.locate(ctx, ic)
	case StageParse:
		res = p.parse(ic)
	case StageVerify:
		res = p.verify(ctx, ic)
	case StageDetect:
		res = p.detect(ctx, ic)
	case StageInstall:
		res = p.install(ctx, ic)
	default:
		res = Failure(stage, errors.Newf(errors.KindInternal, "run stage", "unknown stage %q", stage))
	}

	if !res.OK() {
		slog.Error("stage_failed",
			"run_id", runID,
			"stage", stage,
			"kind", res.Err.Kind,
			"error", res.Err)
		return res
	}

	slog.Info("stage_complete", "run_id", runID, "stage", stage, "state", stage.Reached())
	if stage != StageInstall {
		p.record(p.recorder.Advance(runID, stage.Reached(), ic.Snapshot(), nil), runID)
	}
	return res
}

// Fail journals the abort and builds the outcome.
func (p *Pipeline) Fail(runID string, res StageResult, ic *InstallationContext) *Outcome {
	snap := ic.Snapshot()
	p.record(p.recorder.Abort(runID, res.Stage, res.Err, snap), runID)

	slog.Error("pipeline_aborted",
		"run_id", runID,
		"stage", res.Stage,
		"kind", res.Err.Kind)

	return &Outcome{
		RunID:       runID,
		State:       StateAborted,
		FailedStage: res.Stage,
		Failure:     res.Err,
		Context:     snap,
	}
}

// Complete journals success and computes the registration values.
func (p *Pipeline) Complete(runID string, ic *InstallationContext, report *installer.Report) *Outcome {
	snap := ic.Snapshot()
	p.record(p.recorder.Advance(runID, StateInstalled, snap, report), runID)

	out := &Outcome{
		RunID:        runID,
		State:        StateInstalled,
		Context:      snap,
		Registration: ComputeRegistration(snap, p.opts),
	}
	if report != nil {
		if report.Plugin != nil {
			out.PluginPath = report.Plugin.Dest
		}
		if report.License != nil {
			out.LicenseCopyPath = report.License.Dest
		}
		out.Warnings = report.Warnings
	}

	slog.Info("pipeline_installed",
		"run_id", runID,
		"company", snap.OrganizationName,
		"mt5_root", snap.TargetRoot,
		"plugin_path", out.PluginPath)
	return out
}

func (p *Pipeline) record(err error, runID string) {
	if err != nil {
		slog.Warn("journal_write_failed", "run_id", runID, "error", err)
	}
}

func (p *Pipeline) locate(ctx context.Context, ic *InstallationContext) StageResult {
	path, err := p.locator.Locate(ctx)
	if err != nil {
		return Failure(StageLocate, err)
	}
	if err := ic.SetLicensePath(path); err != nil {
		return Failure(StageLocate, err)
	}
	return Success(StageLocate)
}

func (p *Pipeline) parse(ic *InstallationContext) StageResult {
	artifact, err := license.Load(ic.LicensePath(), p.opts.MaxLicenseSize)
	if err != nil {
		return Failure(StageParse, err)
	}

	id, err := p.parser.Parse(artifact)
	if err != nil {
		return Failure(StageParse, err)
	}
	if err := id.Validate(); err != nil {
		return Failure(StageParse, errors.New(errors.KindParseDegraded, "parse license", err))
	}

	if err := ic.SetIdentity(id.OrganizationName, id.ContactEmail); err != nil {
		return Failure(StageParse, err)
	}
	return Success(StageParse)
}

func (p *Pipeline) verify(ctx context.Context, ic *InstallationContext) StageResult {
	path := ic.LicensePath()
	if _, err := os.Stat(path); err != nil {
		return Failure(StageVerify, errors.New(errors.KindNotFound, "verify license", err))
	}

	artifact, err := license.Load(path, p.opts.MaxLicenseSize)
	if err != nil {
		return Failure(StageVerify, err)
	}

	id := license.Identity{OrganizationName: ic.OrganizationName(), ContactEmail: ic.ContactEmail()}
	result := p.verifier.Verify(ctx, artifact, id)
	if !result.Accepted {
		return Failure(StageVerify, errors.New(errors.KindVerificationRejected, "verify license", result.Err))
	}
	return Success(StageVerify)
}

func (p *Pipeline) detect(ctx context.Context, ic *InstallationContext) StageResult {
	root, source, err := p.detector.Detect(ctx)
	if err != nil {
		return Failure(StageDetect, err)
	}
	slog.Info("target_root_resolved", "path", root, "source", source)

	if err := ic.SetTargetRoot(root); err != nil {
		return Failure(StageDetect, err)
	}
	return Success(StageDetect)
}

func (p *Pipeline) install(ctx context.Context, ic *InstallationContext) StageResult {
	if err := ic.SetInstallSourceDir(p.opts.SourceDir); err != nil {
		return Failure(StageInstall, err)
	}

	report, err := p.installer.Install(ctx, installer.Request{
		TargetRoot:  ic.TargetRoot(),
		SourceDir:   ic.InstallSourceDir(),
		LicensePath: ic.LicensePath(),
	})
	if report != nil {
		if serr := ic.SetElevatedRights(report.Elevated); serr != nil {
			return Failure(StageInstall, serr)
		}
	}
	if err != nil {
		return Failure(StageInstall, err)
	}

	res := Success(StageInstall)
	res.Install = report
	return res
}

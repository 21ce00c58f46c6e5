package pipeline

import (
	stderrors "errors"

	"github.com/whitebeard-ai/pawn-installer/pkg/db"
	"github.com/whitebeard-ai/pawn-installer/pkg/errors"
	"github.com/whitebeard-ai/pawn-installer/pkg/installer"
)

// Stage names one pipeline step.
type Stage string

const (
	StageLocate  Stage = "locate"
	StageParse   Stage = "parse"
	StageVerify  Stage = "verify"
	StageDetect  Stage = "detect"
	StageInstall Stage = "install"
)

// Stages is the fixed execution order.
var Stages = []Stage{StageLocate, StageParse, StageVerify, StageDetect, StageInstall}

// State is a run's position in the forward-only state machine.
type State string

const (
	StateStarted             State = db.StateStarted
	StateLicenseResolved     State = db.StateLicenseResolved
	StateIdentityExtracted   State = db.StateIdentityExtracted
	StateVerified            State = db.StateVerified
	StateEnvironmentResolved State = db.StateEnvironmentResolved
	StateInstalled           State = db.StateInstalled
	StateAborted             State = db.StateAborted
)

// Reached returns the state a run is in after stage s succeeds.
func (s Stage) Reached() State {
	switch s {
	case StageLocate:
		return StateLicenseResolved
	case StageParse:
		return StateIdentityExtracted
	case StageVerify:
		return StateVerified
	case StageDetect:
		return StateEnvironmentResolved
	case StageInstall:
		return StateInstalled
	}
	return StateAborted
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateInstalled || s == StateAborted
}

// StageResult is the tagged outcome of one stage. A nil Err is Success.
type StageResult struct {
	Stage Stage
	Err   *errors.StageError
	// Install is set by a successful install stage.
	Install *installer.Report
}

func Success(stage Stage) StageResult {
	return StageResult{Stage: stage}
}

// Failure wraps err as a stage failure. Untyped errors become KindInternal.
func Failure(stage Stage, err error) StageResult {
	se, ok := errors.As(err)
	if !ok {
		se = errors.New(errors.KindInternal, string(stage), err)
	}
	return StageResult{Stage: stage, Err: se}
}

func (r StageResult) OK() bool {
	return r.Err == nil
}

// Outcome is the final report of one installation attempt.
type Outcome struct {
	RunID           string
	State           State
	FailedStage     Stage
	Failure         *errors.StageError
	Context         Snapshot
	PluginPath      string
	LicenseCopyPath string
	Warnings        []string
	Registration    *Registration
}

func (o *Outcome) Succeeded() bool {
	return o.State == StateInstalled
}

// OutcomeFromRun rebuilds an outcome from its journal record.
func OutcomeFromRun(run *db.Run) *Outcome {
	out := &Outcome{
		RunID:           run.RunID,
		State:           State(run.State),
		FailedStage:     Stage(run.FailedStage),
		PluginPath:      run.PluginPath,
		LicenseCopyPath: run.LicenseCopyPath,
		Warnings:        run.Warnings,
		Context: Snapshot{
			LicensePath:       run.LicensePath,
			OrganizationName:  run.OrganizationName,
			ContactEmail:      run.ContactEmail,
			TargetRoot:        run.TargetRoot,
			InstallSourceDir:  run.InstallSourceDir,
			HasElevatedRights: run.Elevated,
			ElevatedChecked:   run.ElevatedChecked,
		},
	}
	if out.State == StateAborted {
		out.Failure = &errors.StageError{
			Kind: errors.Kind(run.FailureKind),
			Err:  stderrors.New(run.ErrorMessage),
		}
	}
	return out
}

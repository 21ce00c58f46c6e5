package pipeline

import (
	"fmt"
	"strings"

	"github.com/whitebeard-ai/pawn-installer/pkg/db"
	"github.com/whitebeard-ai/pawn-installer/pkg/errors"
	"github.com/whitebeard-ai/pawn-installer/pkg/installer"
)

// Recorder journals run progress. Journal failures never fail a run.
type Recorder interface {
	Begin(runID string, snap Snapshot) error
	Advance(runID string, state State, snap Snapshot, report *installer.Report) error
	Abort(runID string, stage Stage, failure *errors.StageError, snap Snapshot) error
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) Begin(string, Snapshot) error { return nil }
func (NopRecorder) Advance(string, State, Snapshot, *installer.Report) error { return nil }
func (NopRecorder) Abort(string, Stage, *errors.StageError, Snapshot) error { return nil }

// RunStore is the subset of *db.Repository the journal uses.
type RunStore interface {
	Create(run *db.Run) error
	GetByRunID(runID string) (*db.Run, error)
	Update(run *db.Run) error
}

// JournalRecorder writes run progress to the install_runs table.
type JournalRecorder struct {
	store RunStore
}

// NewJournalRecorder creates a recorder backed by store.
func NewJournalRecorder(store RunStore) *JournalRecorder {
	return &JournalRecorder{store: store}
}

// Begin inserts the run in the started state.
func (j *JournalRecorder) Begin(runID string, snap Snapshot) error {
	run := &db.Run{RunID: runID, State: string(StateStarted)}
	applySnapshot(run, snap)
	return j.store.Create(run)
}

// Advance stores the state reached, the context and, after install, the
// installed paths and warnings.
func (j *JournalRecorder) Advance(runID string, state State, snap Snapshot, report *installer.Report) error {
	run, err := j.load(runID)
	if err != nil {
		return err
	}
	run.State = string(state)
	applySnapshot(run, snap)
	if report != nil {
		if report.Plugin != nil {
			run.PluginPath = report.Plugin.Dest
		}
		if report.License != nil {
			run.LicenseCopyPath = report.License.Dest
		}
		run.Warnings = report.Warnings
	}
	return j.store.Update(run)
}

// Abort marks the run aborted at stage with the failure kind and message.
func (j *JournalRecorder) Abort(runID string, stage Stage, failure *errors.StageError, snap Snapshot) error {
	run, err := j.load(runID)
	if err != nil {
		return err
	}
	run.State = string(StateAborted)
	run.FailedStage = string(stage)
	if failure != nil {
		run.FailureKind = string(failure.Kind)
		run.ErrorMessage = strings.TrimPrefix(failure.Error(), string(failure.Kind)+": ")
	}
	applySnapshot(run, snap)
	return j.store.Update(run)
}

func (j *JournalRecorder) load(runID string) (*db.Run, error) {
	run, err := j.store.GetByRunID(runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("run not found: run_id=%s", runID)
	}
	return run, nil
}

func applySnapshot(run *db.Run, s Snapshot) {
	run.LicensePath = s.LicensePath
	run.OrganizationName = s.OrganizationName
	run.ContactEmail = s.ContactEmail
	run.TargetRoot = s.TargetRoot
	run.InstallSourceDir = s.InstallSourceDir
	run.Elevated = s.HasElevatedRights
	run.ElevatedChecked = s.ElevatedChecked
}

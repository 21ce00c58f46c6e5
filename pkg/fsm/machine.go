// Package fsm runs the installation pipeline as a durable finite state
// machine on top of the superfly/fsm library. Each pipeline stage is one
// transition and any failure aborts the run without retry.
package fsm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/superfly/fsm"

	"github.com/whitebeard-ai/pawn-installer/pkg/errors"
	"github.com/whitebeard-ai/pawn-installer/pkg/pipeline"
)

// Register registers the install FSM
func (m *Machine) Register(ctx context.Context, manager *fsm.Manager) (fsm.Start[InstallRequest, InstallResponse], fsm.Resume, error) {
	start, resume, err := fsm.Register[InstallRequest, InstallResponse](manager, "pawn-install").
		Start(StateLocate, m.handle(pipeline.StageLocate)).
		To(StateParse, m.handle(pipeline.StageParse)).
		To(StateVerify, m.handle(pipeline.StageVerify)).
		To(StateDetect, m.handle(pipeline.StageDetect)).
		To(StateInstall, m.handle(pipeline.StageInstall)).
		End(StateInstalled).
		Build(ctx)

	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to register FSM")
	}

	return start, resume, nil
}

// Run starts one installation, waits for the machine to finish and reads
// the outcome back from the journal.
func (m *Machine) Run(ctx context.Context, manager *fsm.Manager, start fsm.Start[InstallRequest, InstallResponse]) (*pipeline.Outcome, error) {
	runID := pipeline.NewRunID()
	m.pipeline.Begin(runID, pipeline.NewContext())

	req := &InstallRequest{RunID: runID}
	resp := &InstallResponse{}

	version, err := start(ctx, runID, fsm.NewRequest(req, resp))
	if err != nil {
		return nil, errors.Wrap(err, "FSM start failed")
	}
	slog.Info("fsm_started", "run_id", runID, "version", version)

	waitErr := manager.Wait(ctx, version)
	if waitErr != nil {
		slog.Warn("fsm_finished_with_error", "run_id", runID, "error", waitErr)
	}

	out, err := m.outcome(runID)
	if err != nil {
		return nil, errors.New(errors.KindInternal, "run install", err)
	}
	if !out.State.Terminal() {
		// The machine stopped outside any stage handler.
		slog.Error("fsm_incomplete", "run_id", runID, "state", out.State, "error", waitErr)
		if waitErr == nil {
			waitErr = errors.Newf(errors.KindInternal, "run install", "machine stopped in state %s", out.State)
		}
		out.State = pipeline.StateAborted
		out.Failure = errors.New(errors.KindInternal, "run install", waitErr)
		if err := m.repo.UpdateState(runID, string(pipeline.StateAborted), waitErr.Error()); err != nil {
			slog.Warn("journal_write_failed", "run_id", runID, "error", err)
		}
		return out, nil
	}

	if out.Succeeded() {
		out.Registration = pipeline.ComputeRegistration(out.Context, m.pipeline.Options())
	}
	return out, nil
}

// outcome reads the run from the journal. When the journal has no record of
// it, the machine's last response stands in.
func (m *Machine) outcome(runID string) (*pipeline.Outcome, error) {
	resp, hasResp := m.lastResponse(runID)

	run, err := m.repo.GetByRunID(runID)
	if err != nil {
		slog.Warn("journal_read_failed", "run_id", runID, "error", err)
	}
	if run != nil {
		out := pipeline.OutcomeFromRun(run)
		if len(out.Warnings) == 0 && hasResp {
			out.Warnings = resp.Warnings
		}
		return out, nil
	}

	if !hasResp {
		return nil, fmt.Errorf("run %s missing from journal", runID)
	}
	slog.Warn("journal_run_missing", "run_id", runID, "state", resp.State)
	return outcomeFromResponse(runID, &resp), nil
}

func outcomeFromResponse(runID string, resp *InstallResponse) *pipeline.Outcome {
	out := &pipeline.Outcome{
		RunID:           runID,
		State:           pipeline.State(resp.State),
		FailedStage:     pipeline.Stage(resp.FailedStage),
		Context:         resp.Context,
		PluginPath:      resp.PluginPath,
		LicenseCopyPath: resp.LicenseCopyPath,
		Warnings:        resp.Warnings,
	}
	if resp.FailureKind != "" {
		out.Failure = errors.Newf(errors.Kind(resp.FailureKind), "", "%s", resp.ErrorMessage)
	}
	return out
}

package fsm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/superfly/fsm"

	"github.com/whitebeard-ai/pawn-installer/pkg/db"
	"github.com/whitebeard-ai/pawn-installer/pkg/pipeline"
)

// Machine holds dependencies for FSM transitions
type Machine struct {
	pipeline *pipeline.Pipeline
	repo     *db.Repository

	// Last response per run, for runs the journal lost.
	mu   sync.Mutex
	last map[string]InstallResponse
}

// NewMachine creates a new FSM machine with dependencies
func NewMachine(p *pipeline.Pipeline, repo *db.Repository) *Machine {
	return &Machine{pipeline: p, repo: repo, last: make(map[string]InstallResponse)}
}

func (m *Machine) remember(runID string, resp *InstallResponse) {
	if resp == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last[runID] = *resp
}

// lastResponse returns and forgets the final response of runID.
func (m *Machine) lastResponse(runID string) (InstallResponse, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp, ok := m.last[runID]
	delete(m.last, runID)
	return resp, ok
}

// handle returns the transition that runs one pipeline stage.
func (m *Machine) handle(stage pipeline.Stage) func(context.Context, *fsm.Request[InstallRequest, InstallResponse]) (*fsm.Response[InstallResponse], error) {
	return func(ctx context.Context, req *fsm.Request[InstallRequest, InstallResponse]) (*fsm.Response[InstallResponse], error) {
		slog.Info("fsm_state_"+string(stage), "run_id", req.Msg.RunID)

		// A stage runs at most once per run.
		if retryCount := fsm.RetryFromContext(ctx); retryCount > 0 {
			slog.Error("fsm_retry_refused", "run_id", req.Msg.RunID, "stage", stage, "retry", retryCount)
			return nil, fsm.Abort(fmt.Errorf("stage %s already attempted", stage))
		}

		resp, err := m.apply(ctx, req.Msg.RunID, stage, req.W.Msg)
		m.remember(req.Msg.RunID, resp)
		if err != nil {
			return nil, fsm.Abort(err)
		}
		return fsm.NewResponse(resp), nil
	}
}

// apply runs stage against the accumulated response. A returned error ends
// the run; the failure is already journaled.
func (m *Machine) apply(ctx context.Context, runID string, stage pipeline.Stage, resp *InstallResponse) (*InstallResponse, error) {
	if resp == nil {
		resp = &InstallResponse{}
	}
	ic := pipeline.Restore(resp.Context)

	res := m.pipeline.Step(ctx, runID, stage, ic)
	if !res.OK() {
		out := m.pipeline.Fail(runID, res, ic)
		resp.Context = out.Context
		resp.State = string(out.State)
		resp.FailedStage = string(out.FailedStage)
		resp.FailureKind = string(out.Failure.Kind)
		resp.ErrorMessage = strings.TrimPrefix(out.Failure.Error(), string(out.Failure.Kind)+": ")
		return resp, res.Err
	}

	resp.Context = ic.Snapshot()
	resp.State = string(stage.Reached())

	if stage == pipeline.StageInstall {
		out := m.pipeline.Complete(runID, ic, res.Install)
		resp.PluginPath = out.PluginPath
		resp.LicenseCopyPath = out.LicenseCopyPath
		resp.Warnings = out.Warnings
		slog.Info("fsm_complete", "run_id", runID, "state", resp.State)
	}

	return resp, nil
}

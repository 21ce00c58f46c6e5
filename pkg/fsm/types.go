package fsm

import "github.com/whitebeard-ai/pawn-installer/pkg/pipeline"

// InstallRequest is the FSM input
type InstallRequest struct {
	RunID string
}

// InstallResponse is the FSM output (accumulated across transitions)
type InstallResponse struct {
	// Written stage by stage, never overwritten
	Context pipeline.Snapshot

	// Last state reached
	State string

	// From install
	PluginPath      string
	LicenseCopyPath string
	Warnings        []string

	// From a failed transition
	FailedStage  string
	FailureKind  string
	ErrorMessage string
}

// State names. Each transition runs the pipeline stage of the same name.
const (
	StateLocate    = string(pipeline.StageLocate)
	StateParse     = string(pipeline.StageParse)
	StateVerify    = string(pipeline.StageVerify)
	StateDetect    = string(pipeline.StageDetect)
	StateInstall   = string(pipeline.StageInstall)
	StateInstalled = "installed"
)

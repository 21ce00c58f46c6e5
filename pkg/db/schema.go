package db

// Schema defines the SQLite journal of installation attempts. One row per
// run, updated after every pipeline stage.
const Schema = `
CREATE TABLE IF NOT EXISTS install_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL UNIQUE,
    state TEXT NOT NULL CHECK(state IN ('started', 'license_resolved', 'identity_extracted', 'verified', 'environment_resolved', 'installed', 'aborted')),
    failed_stage TEXT NOT NULL DEFAULT '',
    failure_kind TEXT NOT NULL DEFAULT '',
    error_message TEXT,
    license_path TEXT NOT NULL DEFAULT '',
    organization_name TEXT NOT NULL DEFAULT '',
    contact_email TEXT NOT NULL DEFAULT '',
    target_root TEXT NOT NULL DEFAULT '',
    install_source_dir TEXT NOT NULL DEFAULT '',
    elevated INTEGER NOT NULL DEFAULT 0,
    elevated_checked INTEGER NOT NULL DEFAULT 0,
    plugin_path TEXT NOT NULL DEFAULT '',
    license_copy_path TEXT NOT NULL DEFAULT '',
    warnings TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_install_runs_state ON install_runs(state);
CREATE INDEX IF NOT EXISTS idx_install_runs_created_at ON install_runs(created_at);
`

// State constants
const (
	StateStarted             = "started"
	StateLicenseResolved     = "license_resolved"
	StateIdentityExtracted   = "identity_extracted"
	StateVerified            = "verified"
	StateEnvironmentResolved = "environment_resolved"
	StateInstalled           = "installed"
	StateAborted             = "aborted"
)

// Run represents one installation attempt
type Run struct {
	ID               int64
	RunID            string
	State            string
	FailedStage      string
	FailureKind      string
	ErrorMessage     string
	LicensePath      string
	OrganizationName string
	ContactEmail     string
	TargetRoot       string
	InstallSourceDir string
	Elevated         bool
	ElevatedChecked  bool
	PluginPath       string
	LicenseCopyPath  string
	Warnings         []string
	CreatedAt        string
	UpdatedAt        string
}

package pipeline

import (
	"encoding/json"

	"github.com/whitebeard-ai/pawn-installer/pkg/errors"
)

// InstallationContext is the record threaded through one installation
// attempt. Every field is write-once: a stage may fill in its own outputs
// but never replace what an earlier stage wrote.
type InstallationContext struct {
	licensePath      string
	organizationName string
	contactEmail     string
	targetRoot       string
	installSourceDir string

	hasElevatedRights bool
	elevatedChecked   bool
}

// NewContext returns an empty context for a new run.
func NewContext() *InstallationContext {
	return &InstallationContext{}
}

// LicensePath is the located license file.
func (c *InstallationContext) LicensePath() string { return c.licensePath }

// OrganizationName is the company named in the license.
func (c *InstallationContext) OrganizationName() string { return c.organizationName }

// ContactEmail is the contact address named in the license.
func (c *InstallationContext) ContactEmail() string { return c.contactEmail }

// TargetRoot is the MetaTrader 5 installation directory.
func (c *InstallationContext) TargetRoot() string { return c.targetRoot }

// InstallSourceDir is where the plugin payload is copied from.
func (c *InstallationContext) InstallSourceDir() string { return c.installSourceDir }

// HasElevatedRights reports the privilege probe result and whether the
// probe has run yet.
func (c *InstallationContext) HasElevatedRights() (elevated, checked bool) {
	return c.hasElevatedRights, c.elevatedChecked
}

func setOnce(field *string, name, value string) error {
	if *field != "" {
		return errors.Newf(errors.KindInternal, "set "+name, "%s already set to %q", name, *field)
	}
	if value == "" {
		return errors.Newf(errors.KindInternal, "set "+name, "%s must not be empty", name)
	}
	*field = value
	return nil
}

// SetLicensePath records the located license. It fails once the path is set.
func (c *InstallationContext) SetLicensePath(path string) error {
	return setOnce(&c.licensePath, "licensePath", path)
}

// SetIdentity writes both identity fields or neither.
func (c *InstallationContext) SetIdentity(organization, email string) error {
	if c.organizationName != "" || c.contactEmail != "" {
		return errors.Newf(errors.KindInternal, "set identity", "identity already set to %q <%s>",
			c.organizationName, c.contactEmail)
	}
	if organization == "" || email == "" {
		return errors.Newf(errors.KindInternal, "set identity", "identity must have both fields")
	}
	c.organizationName = organization
	c.contactEmail = email
	return nil
}

// SetTargetRoot records the detected MetaTrader 5 root.
func (c *InstallationContext) SetTargetRoot(path string) error {
	return setOnce(&c.targetRoot, "targetRoot", path)
}

// SetInstallSourceDir records the payload source directory.
func (c *InstallationContext) SetInstallSourceDir(dir string) error {
	return setOnce(&c.installSourceDir, "installSourceDir", dir)
}

// SetElevatedRights records the privilege probe result. It can be written
// once, false included.
func (c *InstallationContext) SetElevatedRights(elevated bool) error {
	if c.elevatedChecked {
		return errors.Newf(errors.KindInternal, "set hasElevatedRights", "hasElevatedRights already set")
	}
	c.hasElevatedRights = elevated
	c.elevatedChecked = true
	return nil
}

// Snapshot is the serializable view of an InstallationContext.
type Snapshot struct {
	LicensePath       string `json:"license_path,omitempty" yaml:"license_path,omitempty"`
	OrganizationName  string `json:"organization_name,omitempty" yaml:"organization_name,omitempty"`
	ContactEmail      string `json:"contact_email,omitempty" yaml:"contact_email,omitempty"`
	TargetRoot        string `json:"target_root,omitempty" yaml:"target_root,omitempty"`
	InstallSourceDir  string `json:"install_source_dir,omitempty" yaml:"install_source_dir,omitempty"`
	HasElevatedRights bool   `json:"has_elevated_rights" yaml:"has_elevated_rights"`
	ElevatedChecked   bool   `json:"elevated_checked" yaml:"elevated_checked"`
}

// Snapshot copies the context into its serializable form.
func (c *InstallationContext) Snapshot() Snapshot {
	return Snapshot{
		LicensePath:       c.licensePath,
		OrganizationName:  c.organizationName,
		ContactEmail:      c.contactEmail,
		TargetRoot:        c.targetRoot,
		InstallSourceDir:  c.installSourceDir,
		HasElevatedRights: c.hasElevatedRights,
		ElevatedChecked:   c.elevatedChecked,
	}
}

// Restore rebuilds a context from a snapshot. Fields present in the
// snapshot count as written.
func Restore(s Snapshot) *InstallationContext {
	return &InstallationContext{
		licensePath:       s.LicensePath,
		organizationName:  s.OrganizationName,
		contactEmail:      s.ContactEmail,
		targetRoot:        s.TargetRoot,
		installSourceDir:  s.InstallSourceDir,
		hasElevatedRights: s.HasElevatedRights,
		elevatedChecked:   s.ElevatedChecked,
	}
}

// MarshalJSON encodes the context as its Snapshot.
func (c *InstallationContext) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Snapshot())
}

// UnmarshalJSON restores a context encoded by MarshalJSON.
func (c *InstallationContext) UnmarshalJSON(data []byte) error {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = *Restore(s)
	return nil
}

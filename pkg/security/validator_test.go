package security

import (
	"testing"
)

func TestValidatePath_PathTraversal(t *testing.T) {
	v := NewValidator(1024)

	tests := []struct {
		path      string
		shouldErr bool
	}{
		{"Plugins", false},
		{"Plugins/PawnPlugin64.dll", false},
		{"../etc/passwd", true},
		{"/etc/passwd", true},
		{"dir/../file.txt", false},
		{"dir/../../etc/passwd", true},
		{"..", true},
		{"..data", false},
	}

	for _, tt := range tests {
		err := v.ValidatePath(tt.path)
		if tt.shouldErr && err == nil {
			t.Errorf("expected error for path: %s", tt.path)
		}
		if !tt.shouldErr && err != nil {
			t.Errorf("unexpected error for path %s: %v", tt.path, err)
		}
	}
}

func TestValidateFileName(t *testing.T) {
	v := NewValidator(1024)

	tests := []struct {
		name      string
		shouldErr bool
	}{
		{"acme_pawn_plugin.lic", false},
		{"PawnPlugin64.dll", false},
		{"", true},
		{".", true},
		{"..", true},
		{"sub/acme.lic", true},
		{`sub\acme.lic`, true},
		{"/abs.lic", true},
	}

	for _, tt := range tests {
		err := v.ValidateFileName(tt.name)
		if tt.shouldErr && err == nil {
			t.Errorf("expected error for name: %q", tt.name)
		}
		if !tt.shouldErr && err != nil {
			t.Errorf("unexpected error for name %q: %v", tt.name, err)
		}
	}
}

func TestValidatePayloadSize(t *testing.T) {
	v := NewValidator(1000)

	if err := v.ValidatePayloadSize(1000); err != nil {
		t.Errorf("expected no error at the limit, got: %v", err)
	}

	if err := v.ValidatePayloadSize(1001); err == nil {
		t.Error("expected error for size 1001 exceeding limit 1000")
	}
}

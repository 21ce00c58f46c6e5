// Package errors provides error wrapping utilities and the installer's
// stage failure taxonomy.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Wrap wraps an error with additional context information.
// If err is nil, it returns nil without wrapping.
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// Kind classifies a stage failure.
type Kind string

const (
	KindNotFound             Kind = "not_found"
	KindParseDegraded        Kind = "parse_degraded"
	KindVerificationRejected Kind = "verification_rejected"
	KindPermissionDenied     Kind = "permission_denied"
	KindIOFailure            Kind = "io_failure"
	// KindInternal marks a broken contract between stages, e.g. a second
	// write to an installation context field.
	KindInternal Kind = "internal"
)

// StageError is the typed failure every pipeline stage reports.
type StageError struct {
	Kind   Kind
	Op     string
	Source string
	Dest   string
	Err    error
}

func (e *StageError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Source != "" || e.Dest != "" {
		fmt.Fprintf(&b, " (%s -> %s)", e.Source, e.Dest)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// New builds a StageError without file context.
func New(kind Kind, op string, err error) *StageError {
	return &StageError{Kind: kind, Op: op, Err: err}
}

// Newf builds a StageError whose cause is a formatted message.
func Newf(kind Kind, op, format string, args ...any) *StageError {
	return &StageError{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// IO builds an IOFailure carrying the operation, both paths and the cause.
func IO(op, src, dst string, err error) *StageError {
	return &StageError{Kind: KindIOFailure, Op: op, Source: src, Dest: dst, Err: err}
}

// KindOf returns the kind of the first StageError in err's chain, or
// KindInternal for anything untyped.
func KindOf(err error) Kind {
	var se *StageError
	if stderrors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// As reports whether err holds a StageError and returns it.
func As(err error) (*StageError, bool) {
	var se *StageError
	ok := stderrors.As(err, &se)
	return se, ok
}

// Support contact shown when the license authority rejects a license.
const (
	SupportWebsite = "www.whitebeard.ai"
	SupportEmail   = "info@whitebeard.ai"
	SupportPhone   = "+1 646 422 8482"
)

// UserMessage returns the dialog title and actionable text for a failure of
// the given kind raised by the named pipeline stage.
func UserMessage(kind Kind, stage string) (title, text string) {
	switch kind {
	case KindVerificationRejected:
		return "License Verification Failed", fmt.Sprintf(
			"License verification failed. Please contact WhiteBeard support.\n\nWebsite: %s\nEmail: %s\nPhone: %s",
			SupportWebsite, SupportEmail, SupportPhone)
	case KindNotFound:
		if stage == "detect" {
			return "MT5 Not Found", "MetaTrader 5 not found on this system. Please install MetaTrader 5 before continuing."
		}
		return "License Not Found", "No WhiteBeard license file was found or selected. Place your *_pawn_plugin.lic file in the WhiteBeard data directory and run the installer again."
	case KindPermissionDenied:
		return "Admin Rights Required", "This installer requires administrator privileges to write to the system data directory. Run it again as an administrator."
	case KindParseDegraded:
		return "Invalid License File", "The license file could not be read. Please request a new license file from WhiteBeard support."
	case KindIOFailure:
		return "Plugin Installation Error", "Failed to copy installation files. Close MetaTrader 5, check free disk space and permissions, then run the installer again."
	default:
		return "Installation Error", "The installation failed unexpectedly. See the installer log for details."
	}
}

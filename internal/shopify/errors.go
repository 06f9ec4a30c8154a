package shopify

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCommandFailed indicates the theme CLI exited non-zero.
	ErrCommandFailed = errors.New("theme command failed")

	// ErrCatalog indicates the theme list could not be fetched or parsed.
	ErrCatalog = errors.New("theme catalog unavailable")
)

// CommandError carries the diagnostics of a failed CLI call.
type CommandError struct {
	Args     []string
	ExitCode int
	Message  string
}

func (e *CommandError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "no output"
	}
	return fmt.Sprintf("%s (exit %d): %s", strings.Join(e.Args, " "), e.ExitCode, msg)
}

func (e *CommandError) Unwrap() error { return ErrCommandFailed }

// CatalogError reports a failure to list or parse the theme catalog.
type CatalogError struct {
	Message string
	Err     error
}

func (e *CatalogError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("theme catalog: %s: %v", e.Message, e.Err)
	}
	return "theme catalog: " + e.Message
}

func (e *CatalogError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrCatalog, e.Err}
	}
	return []error{ErrCatalog}
}

// commandError builds a CommandError from a result, preferring stderr and
// falling back to stdout when stderr is empty.
func commandError(res *Result) *CommandError {
	msg := strings.TrimSpace(res.Stderr)
	if msg == "" {
		msg = strings.TrimSpace(res.Stdout)
	}
	return &CommandError{Args: res.Args, ExitCode: res.ExitCode, Message: msg}
}

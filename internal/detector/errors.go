package detector

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidConfiguration is returned before any work starts when the scan
// parameters cannot produce a meaningful result.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// MalformedRecordError describes a feed record that was skipped.
type MalformedRecordError struct {
	Hash  string
	Field string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record %q: field %s: %v", e.Hash, e.Field, e.Err)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// OracleUnavailableError means the activity oracle could not classify Address.
type OracleUnavailableError struct {
	Address string
	Err     error
}

func (e *OracleUnavailableError) Error() string {
	return fmt.Sprintf("activity oracle unavailable for %s: %v", e.Address, e.Err)
}

func (e *OracleUnavailableError) Unwrap() error { return e.Err }

// IncompleteError is returned by Classify alongside the findings it could
// establish when one or more recipients could not be classified.
type IncompleteError struct {
	Failures []*OracleUnavailableError
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("classification incomplete, oracle failed for %d address(es): %s",
		len(e.Failures), strings.Join(e.Addresses(), ", "))
}

func (e *IncompleteError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}

func (e *IncompleteError) Addresses() []string {
	addrs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		addrs = append(addrs, f.Address)
	}
	return addrs
}

func invalidConfiguration(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidConfiguration, format, args...)
}

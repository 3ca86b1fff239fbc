// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

// Package sgdiags is a small diagnostics model for the slot engine and
// its callers: an accumulating list of errors and warnings that can be
// returned through several layers before being rendered or collapsed
// into a single error.
package sgdiags

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
)

// Diagnostics is a list of diagnostics. The zero value is an empty
// list, so it can be used immediately with Append.
type Diagnostics []Diagnostic

// Append adds new diagnostics to the receiver and returns the result.
// It accepts Diagnostic values, other Diagnostics lists, native errors
// and hcl.Diagnostics, converting as needed. Nils are ignored.
func (diags Diagnostics) Append(new ...interface{}) Diagnostics {
	for _, item := range new {
		if item == nil {
			continue
		}

		switch ti := item.(type) {
		case Diagnostic:
			diags = append(diags, ti)
		case Diagnostics:
			diags = append(diags, ti...)
		case hcl.Diagnostics:
			for _, hclDiag := range ti {
				diags = append(diags, hclDiagnostic{hclDiag})
			}
		case *hcl.Diagnostic:
			diags = append(diags, hclDiagnostic{ti})
		case *multierror.Error:
			for _, err := range ti.Errors {
				diags = append(diags, nativeError{err})
			}
		case error:
			diags = append(diags, nativeError{ti})
		default:
			panic(fmt.Errorf("can't construct diagnostic(s) from %T", item))
		}
	}

	return diags
}

// HasErrors returns true if any of the diagnostics has severity Error.
func (diags Diagnostics) HasErrors() bool {
	for _, diag := range diags {
		if diag.Severity() == Error {
			return true
		}
	}
	return false
}

// Err flattens the diagnostics into a single error, or nil if there
// are no error-severity diagnostics. Warnings are dropped.
func (diags Diagnostics) Err() error {
	if !diags.HasErrors() {
		return nil
	}

	var err *multierror.Error
	for _, diag := range diags {
		if diag.Severity() != Error {
			continue
		}
		desc := diag.Description()
		if desc.Detail != "" {
			err = multierror.Append(err, fmt.Errorf("%s: %s", desc.Summary, desc.Detail))
		} else {
			err = multierror.Append(err, fmt.Errorf("%s", desc.Summary))
		}
	}
	return err.ErrorOrNil()
}

// nativeError wraps a plain Go error as an error diagnostic.
type nativeError struct {
	err error
}

func (e nativeError) Severity() Severity {
	return Error
}

func (e nativeError) Description() Description {
	return Description{
		Summary: e.err.Error(),
	}
}

// hclDiagnostic adapts an HCL diagnostic, preserving its source range
// in the detail so graph definition errors point at the offending
// configuration.
type hclDiagnostic struct {
	diag *hcl.Diagnostic
}

func (d hclDiagnostic) Severity() Severity {
	if d.diag.Severity == hcl.DiagWarning {
		return Warning
	}
	return Error
}

func (d hclDiagnostic) Description() Description {
	desc := Description{
		Summary: d.diag.Summary,
		Detail:  d.diag.Detail,
	}
	if d.diag.Subject != nil {
		rng := d.diag.Subject
		loc := fmt.Sprintf("%s:%d,%d", rng.Filename, rng.Start.Line, rng.Start.Column)
		if desc.Detail != "" {
			desc.Detail = fmt.Sprintf("%s: %s", loc, desc.Detail)
		} else {
			desc.Detail = loc
		}
	}
	return desc
}

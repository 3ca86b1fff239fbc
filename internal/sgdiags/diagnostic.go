// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

package sgdiags

// Diagnostic is a single problem report, either an error that blocks
// the requested operation or a warning the caller may surface to the
// user and continue.
type Diagnostic interface {
	Severity() Severity
	Description() Description
}

type Severity rune

const (
	Error   Severity = 'E'
	Warning Severity = 'W'
)

// Description is the human-readable content of a diagnostic: a short
// summary and an optional multi-sentence detail.
type Description struct {
	Summary string
	Detail  string
}

type diagnosticBase struct {
	severity Severity
	summary  string
	detail   string
}

func (d diagnosticBase) Severity() Severity {
	return d.severity
}

func (d diagnosticBase) Description() Description {
	return Description{
		Summary: d.summary,
		Detail:  d.detail,
	}
}

// Diag constructs a basic diagnostic with no source location.
func Diag(severity Severity, summary, detail string) Diagnostic {
	return diagnosticBase{
		severity: severity,
		summary:  summary,
		detail:   detail,
	}
}

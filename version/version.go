// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

// Package version holds the canonical version of slotgraph. It lives in
// its own package so that both the CLI and embedding editors can report
// the engine version without importing the engine itself.
package version

import (
	"fmt"

	version "github.com/hashicorp/go-version"
)

// Version is the main version number currently in development.
var Version = "0.3.0"

// Prerelease is a marker for the version. If this is "" (empty string)
// then it means that it is a final release. Otherwise, this is a
// pre-release such as "dev" (in development).
var Prerelease = "dev"

// SemVer is an instance of version.Version representing the main
// version without any pre-release information.
var SemVer *version.Version

func init() {
	SemVer = version.Must(version.NewVersion(Version))
}

// String returns the complete version string, including prerelease.
func String() string {
	if Prerelease != "" {
		return fmt.Sprintf("%s-%s", Version, Prerelease)
	}
	return Version
}

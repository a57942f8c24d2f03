// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package version

// Version is the groundctl version. It is meant to be set via -ldflags during
// build time, e.g.
//
//	-ldflags="-X 'github.com/orbital-telemetry/groundctl/pkg/version.Version=v1.2.3'"
var Version = "v0.1.0-dev"

// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package gcp

import (
	iam "google.golang.org/api/iam/v1"

	"github.com/orbital-telemetry/groundctl/pkg/core/registry"
)

// IAMClientset provides the registry of GCP API clients for interfacing with
// the IAM API service.
var IAMClientset = registry.New[string, *Client[*iam.Service]]()

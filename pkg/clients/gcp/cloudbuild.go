// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package gcp

import (
	cloudbuild "cloud.google.com/go/cloudbuild/apiv1/v2"

	"github.com/orbital-telemetry/groundctl/pkg/core/registry"
)

// CloudBuildClientset provides the registry of GCP API clients for interfacing
// with the Cloud Build API service.
var CloudBuildClientset = registry.New[string, *Client[*cloudbuild.Client]]()

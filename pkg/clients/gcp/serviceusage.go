// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package gcp

import (
	serviceusage "cloud.google.com/go/serviceusage/apiv1"

	"github.com/orbital-telemetry/groundctl/pkg/core/registry"
)

// ServiceUsageClientset provides the registry of GCP API clients for
// interfacing with the Service Usage API service.
var ServiceUsageClientset = registry.New[string, *Client[*serviceusage.Client]]()

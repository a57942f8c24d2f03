// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package gcp

import (
	scheduler "cloud.google.com/go/scheduler/apiv1"

	"github.com/orbital-telemetry/groundctl/pkg/core/registry"
)

// SchedulerClientset provides the registry of GCP API clients for interfacing
// with the Cloud Scheduler API service.
var SchedulerClientset = registry.New[string, *Client[*scheduler.CloudSchedulerClient]]()

// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package gcp

import (
	bigquery "google.golang.org/api/bigquery/v2"

	"github.com/orbital-telemetry/groundctl/pkg/core/registry"
)

// BigQueryClientset provides the registry of GCP API clients for interfacing
// with the BigQuery API service.
var BigQueryClientset = registry.New[string, *Client[*bigquery.Service]]()

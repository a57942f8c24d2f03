// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package gcp

import (
	"cloud.google.com/go/storage"

	"github.com/orbital-telemetry/groundctl/pkg/core/registry"
)

// StorageClientset provides the registry of GCP API clients for interfacing
// with the storage API service.
var StorageClientset = registry.New[string, *Client[*storage.Client]]()

// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package gcp

import (
	"cloud.google.com/go/pubsub"

	"github.com/orbital-telemetry/groundctl/pkg/core/registry"
)

// PubSubClientset provides the registry of GCP API clients for interfacing
// with the Pub/Sub API service.
var PubSubClientset = registry.New[string, *Client[*pubsub.Client]]()

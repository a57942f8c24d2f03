// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"github.com/orbital-telemetry/groundctl/pkg/core/registry"
	apiclient "github.com/orbital-telemetry/groundctl/pkg/vault/client"
)

// Clientset provides the registry of Vault API clients, which serve as a
// source of GCP credentials.
var Clientset = registry.New[string, *apiclient.Client]()

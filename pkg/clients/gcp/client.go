// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package gcp

import (
	"errors"
	"fmt"

	"github.com/orbital-telemetry/groundctl/pkg/core/registry"
)

// ErrClientNotFound is an error, which is returned when a GCP API client was
// not found in the clientset registries for a given project.
var ErrClientNotFound = errors.New("gcp client not found")

// Client is a wrapper for a GCP API client, which comes with additional
// metadata such as the named credentials which were used to create the client,
// and the Project ID with which the client is associated with.
type Client[T any] struct {
	// NamedCredentials is the name of the credentials, which were used to
	// create the API client.
	NamedCredentials string

	// ProjectID is the immutable, globally unique GCP Project ID associated
	// with the client.
	ProjectID string

	// Client is the client used to make API calls to the GCP API services.
	Client T
}

// FromRegistry returns the [Client] registered for the given project from the
// provided clientset registry, or [ErrClientNotFound] when no client was
// configured for the project.
func FromRegistry[T any](r *registry.Registry[string, *Client[T]], projectID string) (*Client[T], error) {
	client, ok := r.Get(projectID)
	if !ok {
		return nil, fmt.Errorf("%w: project %s", ErrClientNotFound, projectID)
	}

	return client, nil
}

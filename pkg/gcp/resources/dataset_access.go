// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package resources

import (
	"context"
	"fmt"

	bigquery "google.golang.org/api/bigquery/v2"

	gcpclients "github.com/orbital-telemetry/groundctl/pkg/clients/gcp"
	slogutils "github.com/orbital-telemetry/groundctl/pkg/utils/slog"
)

// DatasetAccess declares a member-level grant on a BigQuery dataset.
//
// The grant is expressed as a dataset access entry. The BigQuery API
// normalizes IAM dataset roles to the legacy primitive ones, e.g.
// `roles/bigquery.dataEditor' is reported back as `WRITER', which the differ
// treats as equal.
type DatasetAccess struct {
	// ProjectID is the project in which the dataset resides.
	ProjectID string

	// DatasetID is the id of the dataset whose access list is amended.
	DatasetID string

	// Role is the role to grant, e.g. `roles/bigquery.dataEditor'.
	Role string

	// UserByEmail is the email of the principal to grant the role to.
	UserByEmail string

	// Dependencies are the names of the resources, which must be
	// converged before the grant.
	Dependencies []string
}

var _ Resource = &DatasetAccess{}

// Kind implements the [Resource] interface.
func (d *DatasetAccess) Kind() string { return KindDatasetAccess }

// Name implements the [Resource] interface.
func (d *DatasetAccess) Name() string {
	return fmt.Sprintf("%s/%s", d.DatasetID, d.Role)
}

// DependsOn implements the [Resource] interface.
func (d *DatasetAccess) DependsOn() []string { return d.Dependencies }

// Attributes implements the [Resource] interface.
func (d *DatasetAccess) Attributes() map[string]string {
	return map[string]string{
		"dataset_id":    d.DatasetID,
		"role":          d.Role,
		"user_by_email": d.UserByEmail,
	}
}

// normalizeDatasetRole maps the IAM dataset roles to the legacy primitive
// roles, which the BigQuery API reports back.
func normalizeDatasetRole(role string) string {
	switch role {
	case "roles/bigquery.dataEditor", "WRITER":
		return "WRITER"
	case "roles/bigquery.dataViewer", "READER":
		return "READER"
	case "roles/bigquery.dataOwner", "OWNER":
		return "OWNER"
	default:
		return role
	}
}

// hasAccessEntry returns a boolean indicating whether the given access list
// contains a grant of the role to the principal.
func hasAccessEntry(access []*bigquery.DatasetAccess, role, userByEmail string) bool {
	for _, entry := range access {
		if entry == nil {
			continue
		}
		if normalizeDatasetRole(entry.Role) == normalizeDatasetRole(role) && entry.UserByEmail == userByEmail {
			return true
		}
	}

	return false
}

// Diff implements the [Resource] interface.
func (d *DatasetAccess) Diff(ctx context.Context) (*Diff, error) {
	client, err := gcpclients.FromRegistry(gcpclients.BigQueryClientset, d.ProjectID)
	if err != nil {
		return nil, err
	}

	live, err := client.Client.Datasets.Get(d.ProjectID, d.DatasetID).Context(ctx).Do()
	switch {
	case IsNotFound(err):
		// Dataset does not exist yet, the grant is applied after it.
		return &Diff{Action: ActionCreate, Changes: created(d.Attributes())}, nil
	case err != nil:
		return nil, fmt.Errorf("cannot get dataset %s: %w", d.DatasetID, err)
	}

	if hasAccessEntry(live.Access, d.Role, d.UserByEmail) {
		return &Diff{Action: ActionNone}, nil
	}

	return &Diff{Action: ActionCreate, Changes: created(d.Attributes())}, nil
}

// Apply implements the [Resource] interface.
func (d *DatasetAccess) Apply(ctx context.Context) error {
	logger := slogutils.GetLogger(ctx)
	client, err := gcpclients.FromRegistry(gcpclients.BigQueryClientset, d.ProjectID)
	if err != nil {
		return err
	}

	live, err := client.Client.Datasets.Get(d.ProjectID, d.DatasetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("cannot get dataset %s: %w", d.DatasetID, err)
	}

	if hasAccessEntry(live.Access, d.Role, d.UserByEmail) {
		return nil
	}

	logger.Info(
		"granting dataset role",
		"dataset", d.DatasetID,
		"role", d.Role,
		"member", d.UserByEmail,
	)
	access := append(live.Access, &bigquery.DatasetAccess{
		Role:        d.Role,
		UserByEmail: d.UserByEmail,
	})
	patch := &bigquery.Dataset{Access: access}
	if _, err := client.Client.Datasets.Patch(d.ProjectID, d.DatasetID, patch).Context(ctx).Do(); err != nil {
		return fmt.Errorf("cannot update access of dataset %s: %w", d.DatasetID, err)
	}

	return nil
}

// Destroy implements the [Resource] interface. Only this specific grant is
// removed from the dataset access list.
func (d *DatasetAccess) Destroy(ctx context.Context) error {
	logger := slogutils.GetLogger(ctx)
	client, err := gcpclients.FromRegistry(gcpclients.BigQueryClientset, d.ProjectID)
	if err != nil {
		return err
	}

	live, err := client.Client.Datasets.Get(d.ProjectID, d.DatasetID).Context(ctx).Do()
	switch {
	case IsNotFound(err):
		return nil
	case err != nil:
		return fmt.Errorf("cannot get dataset %s: %w", d.DatasetID, err)
	}

	if !hasAccessEntry(live.Access, d.Role, d.UserByEmail) {
		return nil
	}

	logger.Info(
		"revoking dataset role",
		"dataset", d.DatasetID,
		"role", d.Role,
		"member", d.UserByEmail,
	)
	access := make([]*bigquery.DatasetAccess, 0, len(live.Access))
	for _, entry := range live.Access {
		if entry != nil &&
			normalizeDatasetRole(entry.Role) == normalizeDatasetRole(d.Role) &&
			entry.UserByEmail == d.UserByEmail {
			continue
		}
		access = append(access, entry)
	}

	patch := &bigquery.Dataset{
		Access:          access,
		ForceSendFields: []string{"Access"},
	}
	if _, err := client.Client.Datasets.Patch(d.ProjectID, d.DatasetID, patch).Context(ctx).Do(); err != nil {
		return fmt.Errorf("cannot update access of dataset %s: %w", d.DatasetID, err)
	}

	return nil
}

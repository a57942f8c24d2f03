// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package resources

import (
	"context"
	"fmt"
	"strings"

	bigquery "google.golang.org/api/bigquery/v2"

	gcpclients "github.com/orbital-telemetry/groundctl/pkg/clients/gcp"
	slogutils "github.com/orbital-telemetry/groundctl/pkg/utils/slog"
)

// Dataset declares a BigQuery dataset.
//
// Dataset id and location are immutable after creation. No tables are
// declared, the ingestion pipeline creates them at runtime.
type Dataset struct {
	// ProjectID is the project in which the dataset resides.
	ProjectID string

	// DatasetID is the id of the dataset.
	DatasetID string

	// Location is the location of the dataset, immutable after creation.
	Location string

	// Labels are the labels to attach to the dataset.
	Labels map[string]string

	// Dependencies are the names of the resources, which must be
	// converged before the dataset.
	Dependencies []string
}

var _ Resource = &Dataset{}

// Kind implements the [Resource] interface.
func (d *Dataset) Kind() string { return KindDataset }

// Name implements the [Resource] interface.
func (d *Dataset) Name() string { return d.DatasetID }

// DependsOn implements the [Resource] interface.
func (d *Dataset) DependsOn() []string { return d.Dependencies }

// Attributes implements the [Resource] interface.
func (d *Dataset) Attributes() map[string]string {
	attrs := map[string]string{
		"dataset_id": d.DatasetID,
		"location":   d.Location,
	}

	for k, v := range d.Labels {
		attrs["labels."+k] = v
	}

	return attrs
}

// Diff implements the [Resource] interface.
func (d *Dataset) Diff(ctx context.Context) (*Diff, error) {
	client, err := gcpclients.FromRegistry(gcpclients.BigQueryClientset, d.ProjectID)
	if err != nil {
		return nil, err
	}

	live, err := client.Client.Datasets.Get(d.ProjectID, d.DatasetID).Context(ctx).Do()
	switch {
	case IsNotFound(err):
		return &Diff{Action: ActionCreate, Changes: created(d.Attributes())}, nil
	case err != nil:
		return nil, fmt.Errorf("cannot get dataset %s: %w", d.DatasetID, err)
	}

	return diffDataset(live, d), nil
}

// diffDataset compares the live dataset against the declared one.
func diffDataset(live *bigquery.Dataset, d *Dataset) *Diff {
	// Location is immutable. Multi-region locations are reported
	// upper-case by the API.
	if !strings.EqualFold(live.Location, d.Location) {
		return &Diff{
			Action: ActionRecreate,
			Changes: []FieldChange{
				{Path: "location", Live: live.Location, Want: d.Location},
			},
		}
	}

	changes := labelsDiff(live.Labels, d.Labels)
	if len(changes) == 0 {
		return &Diff{Action: ActionNone}
	}

	return &Diff{Action: ActionUpdate, Changes: changes}
}

// Apply implements the [Resource] interface.
func (d *Dataset) Apply(ctx context.Context) error {
	logger := slogutils.GetLogger(ctx)
	client, err := gcpclients.FromRegistry(gcpclients.BigQueryClientset, d.ProjectID)
	if err != nil {
		return err
	}

	live, err := client.Client.Datasets.Get(d.ProjectID, d.DatasetID).Context(ctx).Do()
	switch {
	case IsNotFound(err):
		logger.Info("creating dataset", "dataset", d.DatasetID, "location", d.Location)
		dataset := &bigquery.Dataset{
			DatasetReference: &bigquery.DatasetReference{
				ProjectId: d.ProjectID,
				DatasetId: d.DatasetID,
			},
			Location: d.Location,
			Labels:   d.Labels,
		}
		if _, err := client.Client.Datasets.Insert(d.ProjectID, dataset).Context(ctx).Do(); err != nil {
			return fmt.Errorf("cannot create dataset %s: %w", d.DatasetID, err)
		}

		return nil
	case err != nil:
		return fmt.Errorf("cannot get dataset %s: %w", d.DatasetID, err)
	}

	logger.Info("updating dataset", "dataset", d.DatasetID)
	patch := &bigquery.Dataset{
		Labels: mergeLabels(live.Labels, d.Labels),
	}
	if _, err := client.Client.Datasets.Patch(d.ProjectID, d.DatasetID, patch).Context(ctx).Do(); err != nil {
		return fmt.Errorf("cannot update dataset %s: %w", d.DatasetID, err)
	}

	return nil
}

// Destroy implements the [Resource] interface. The dataset contents are
// deleted together with the dataset.
func (d *Dataset) Destroy(ctx context.Context) error {
	logger := slogutils.GetLogger(ctx)
	client, err := gcpclients.FromRegistry(gcpclients.BigQueryClientset, d.ProjectID)
	if err != nil {
		return err
	}

	logger.Info("deleting dataset", "dataset", d.DatasetID)
	err = client.Client.Datasets.Delete(d.ProjectID, d.DatasetID).DeleteContents(true).Context(ctx).Do()
	switch {
	case IsNotFound(err):
		return nil
	case err != nil:
		return fmt.Errorf("cannot delete dataset %s: %w", d.DatasetID, err)
	}

	return nil
}

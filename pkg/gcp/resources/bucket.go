// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package resources

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	gcpclients "github.com/orbital-telemetry/groundctl/pkg/clients/gcp"
	slogutils "github.com/orbital-telemetry/groundctl/pkg/utils/slog"
)

// Bucket declares a Cloud Storage bucket.
//
// Bucket name and location are immutable, a divergence of either forces a
// destroy-and-recreate, which unconditionally deletes the bucket contents
// first. Public access prevention is always enforced.
type Bucket struct {
	// ProjectID is the project in which the bucket resides.
	ProjectID string

	// BucketName is the globally unique name of the bucket.
	BucketName string

	// Location is the location of the bucket, immutable after creation.
	Location string

	// Versioning enables object versioning, when set.
	Versioning bool

	// ObjectMaxAgeDays, when non-zero, declares a single lifecycle rule,
	// which deletes objects on or after the given age in days.
	ObjectMaxAgeDays int64

	// Labels are the labels to attach to the bucket.
	Labels map[string]string

	// Dependencies are the names of the resources, which must be
	// converged before the bucket.
	Dependencies []string
}

var _ Resource = &Bucket{}

// Kind implements the [Resource] interface.
func (b *Bucket) Kind() string { return KindBucket }

// Name implements the [Resource] interface.
func (b *Bucket) Name() string { return b.BucketName }

// DependsOn implements the [Resource] interface.
func (b *Bucket) DependsOn() []string { return b.Dependencies }

// Attributes implements the [Resource] interface.
func (b *Bucket) Attributes() map[string]string {
	attrs := map[string]string{
		"name":                        b.BucketName,
		"location":                    b.Location,
		"versioning":                  strconv.FormatBool(b.Versioning),
		"public_access_prevention":    storage.PublicAccessPreventionEnforced.String(),
		"uniform_bucket_level_access": "true",
	}

	if b.ObjectMaxAgeDays > 0 {
		attrs["lifecycle.delete_age_days"] = strconv.FormatInt(b.ObjectMaxAgeDays, 10)
	}

	for k, v := range b.Labels {
		attrs["labels."+k] = v
	}

	return attrs
}

// desiredAttrs returns the declared [storage.BucketAttrs] of the bucket.
func (b *Bucket) desiredAttrs() *storage.BucketAttrs {
	attrs := &storage.BucketAttrs{
		Name:                     b.BucketName,
		Location:                 b.Location,
		VersioningEnabled:        b.Versioning,
		PublicAccessPrevention:   storage.PublicAccessPreventionEnforced,
		UniformBucketLevelAccess: storage.UniformBucketLevelAccess{Enabled: true},
		Labels:                   b.Labels,
		Lifecycle:                b.desiredLifecycle(),
	}

	return attrs
}

// desiredLifecycle returns the declared lifecycle configuration of the
// bucket.
func (b *Bucket) desiredLifecycle() storage.Lifecycle {
	if b.ObjectMaxAgeDays <= 0 {
		return storage.Lifecycle{}
	}

	return storage.Lifecycle{
		Rules: []storage.LifecycleRule{
			{
				Action: storage.LifecycleAction{
					Type: storage.DeleteAction,
				},
				Condition: storage.LifecycleCondition{
					AgeInDays: b.ObjectMaxAgeDays,
				},
			},
		},
	}
}

// Diff implements the [Resource] interface.
func (b *Bucket) Diff(ctx context.Context) (*Diff, error) {
	client, err := gcpclients.FromRegistry(gcpclients.StorageClientset, b.ProjectID)
	if err != nil {
		return nil, err
	}

	live, err := client.Client.Bucket(b.BucketName).Attrs(ctx)
	switch {
	case IsNotFound(err):
		return &Diff{Action: ActionCreate, Changes: created(b.Attributes())}, nil
	case err != nil:
		return nil, fmt.Errorf("cannot get bucket %s: %w", b.BucketName, err)
	}

	return diffBucketAttrs(live, b), nil
}

// diffBucketAttrs compares the live bucket attributes against the declared
// ones.
func diffBucketAttrs(live *storage.BucketAttrs, b *Bucket) *Diff {
	// Location is immutable. The API reports it in upper-case.
	if !strings.EqualFold(live.Location, b.Location) {
		return &Diff{
			Action: ActionRecreate,
			Changes: []FieldChange{
				{Path: "location", Live: live.Location, Want: b.Location},
			},
		}
	}

	changes := make([]FieldChange, 0)

	if live.PublicAccessPrevention != storage.PublicAccessPreventionEnforced {
		changes = append(changes, FieldChange{
			Path: "public_access_prevention",
			Live: live.PublicAccessPrevention.String(),
			Want: storage.PublicAccessPreventionEnforced.String(),
		})
	}

	if live.VersioningEnabled != b.Versioning {
		changes = append(changes, FieldChange{
			Path: "versioning",
			Live: strconv.FormatBool(live.VersioningEnabled),
			Want: strconv.FormatBool(b.Versioning),
		})
	}

	if !live.UniformBucketLevelAccess.Enabled {
		changes = append(changes, FieldChange{
			Path: "uniform_bucket_level_access",
			Live: "false",
			Want: "true",
		})
	}

	changes = append(changes, diffLifecycle(live.Lifecycle, b.ObjectMaxAgeDays)...)
	changes = append(changes, labelsDiff(live.Labels, b.Labels)...)

	if len(changes) == 0 {
		return &Diff{Action: ActionNone}
	}

	return &Diff{Action: ActionUpdate, Changes: changes}
}

// diffLifecycle compares the live lifecycle configuration against the
// declared delete-at-age rule. A zero maxAgeDays declares no lifecycle rules
// at all.
func diffLifecycle(live storage.Lifecycle, maxAgeDays int64) []FieldChange {
	liveDesc := describeLifecycle(live)
	wantDesc := ""
	if maxAgeDays > 0 {
		wantDesc = fmt.Sprintf("delete after %d days", maxAgeDays)
	}

	if liveDesc == wantDesc {
		return nil
	}

	return []FieldChange{
		{Path: "lifecycle", Live: liveDesc, Want: wantDesc},
	}
}

// describeLifecycle renders a lifecycle configuration in the normalized form
// used for diffing. Configurations, which consist of anything else than a
// single delete-at-age rule never match a declared one.
func describeLifecycle(lc storage.Lifecycle) string {
	if len(lc.Rules) == 0 {
		return ""
	}

	if len(lc.Rules) == 1 {
		rule := lc.Rules[0]
		cond := rule.Condition
		onlyAge := cond.AgeInDays > 0 &&
			cond.CreatedBefore.IsZero() &&
			cond.CustomTimeBefore.IsZero() &&
			cond.NoncurrentTimeBefore.IsZero() &&
			cond.DaysSinceCustomTime == 0 &&
			cond.DaysSinceNoncurrentTime == 0 &&
			cond.NumNewerVersions == 0 &&
			len(cond.MatchesPrefix) == 0 &&
			len(cond.MatchesSuffix) == 0 &&
			len(cond.MatchesStorageClasses) == 0 &&
			cond.Liveness == storage.LiveAndArchived

		if rule.Action.Type == storage.DeleteAction && onlyAge {
			return fmt.Sprintf("delete after %d days", cond.AgeInDays)
		}
	}

	return fmt.Sprintf("%d unmanaged rules", len(lc.Rules))
}

// Apply implements the [Resource] interface.
func (b *Bucket) Apply(ctx context.Context) error {
	logger := slogutils.GetLogger(ctx)
	client, err := gcpclients.FromRegistry(gcpclients.StorageClientset, b.ProjectID)
	if err != nil {
		return err
	}

	bucket := client.Client.Bucket(b.BucketName)
	_, err = bucket.Attrs(ctx)
	switch {
	case IsNotFound(err):
		logger.Info("creating bucket", "bucket", b.BucketName, "location", b.Location)
		if err := bucket.Create(ctx, b.ProjectID, b.desiredAttrs()); err != nil {
			return fmt.Errorf("cannot create bucket %s: %w", b.BucketName, err)
		}

		return nil
	case err != nil:
		return fmt.Errorf("cannot get bucket %s: %w", b.BucketName, err)
	}

	logger.Info("updating bucket", "bucket", b.BucketName)
	lifecycle := b.desiredLifecycle()
	uattrs := storage.BucketAttrsToUpdate{
		VersioningEnabled:        b.Versioning,
		PublicAccessPrevention:   storage.PublicAccessPreventionEnforced,
		UniformBucketLevelAccess: &storage.UniformBucketLevelAccess{Enabled: true},
		Lifecycle:                &lifecycle,
	}
	for k, v := range b.Labels {
		uattrs.SetLabel(k, v)
	}

	if _, err := bucket.Update(ctx, uattrs); err != nil {
		return fmt.Errorf("cannot update bucket %s: %w", b.BucketName, err)
	}

	return nil
}

// Destroy implements the [Resource] interface. The bucket contents, including
// noncurrent object versions, are deleted first.
func (b *Bucket) Destroy(ctx context.Context) error {
	logger := slogutils.GetLogger(ctx)
	client, err := gcpclients.FromRegistry(gcpclients.StorageClientset, b.ProjectID)
	if err != nil {
		return err
	}

	bucket := client.Client.Bucket(b.BucketName)
	if _, err := bucket.Attrs(ctx); err != nil {
		if IsNotFound(err) {
			return nil
		}

		return fmt.Errorf("cannot get bucket %s: %w", b.BucketName, err)
	}

	logger.Info("deleting bucket contents", "bucket", b.BucketName)
	it := bucket.Objects(ctx, &storage.Query{Versions: true})
	for {
		objAttrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return fmt.Errorf("cannot list objects in bucket %s: %w", b.BucketName, err)
		}

		obj := bucket.Object(objAttrs.Name)
		if objAttrs.Generation != 0 {
			obj = obj.Generation(objAttrs.Generation)
		}

		if err := obj.Delete(ctx); err != nil && !IsNotFound(err) {
			return fmt.Errorf("cannot delete object %s/%s: %w", b.BucketName, objAttrs.Name, err)
		}
	}

	logger.Info("deleting bucket", "bucket", b.BucketName)
	if err := bucket.Delete(ctx); err != nil {
		return fmt.Errorf("cannot delete bucket %s: %w", b.BucketName, err)
	}

	return nil
}

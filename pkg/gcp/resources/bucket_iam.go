// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package resources

import (
	"context"
	"fmt"

	"cloud.google.com/go/iam"

	gcpclients "github.com/orbital-telemetry/groundctl/pkg/clients/gcp"
	slogutils "github.com/orbital-telemetry/groundctl/pkg/utils/slog"
)

// BucketIAMMember declares a member-level grant on a bucket IAM policy.
//
// The grant is additive, applying it adds the member to the role without
// touching other members, and destroying it removes only this specific
// member.
type BucketIAMMember struct {
	// ProjectID is the project in which the bucket resides.
	ProjectID string

	// Bucket is the name of the bucket whose policy is amended.
	Bucket string

	// Role is the role to grant, e.g. `roles/storage.objectAdmin'.
	Role string

	// Member is the principal to grant the role to.
	Member string

	// Dependencies are the names of the resources, which must be
	// converged before the grant.
	Dependencies []string
}

var _ Resource = &BucketIAMMember{}

// Kind implements the [Resource] interface.
func (b *BucketIAMMember) Kind() string { return KindBucketIAMMember }

// Name implements the [Resource] interface.
func (b *BucketIAMMember) Name() string {
	return fmt.Sprintf("%s/%s", b.Bucket, b.Role)
}

// DependsOn implements the [Resource] interface.
func (b *BucketIAMMember) DependsOn() []string { return b.Dependencies }

// Attributes implements the [Resource] interface.
func (b *BucketIAMMember) Attributes() map[string]string {
	return map[string]string{
		"bucket": b.Bucket,
		"role":   b.Role,
		"member": b.Member,
	}
}

// Diff implements the [Resource] interface.
func (b *BucketIAMMember) Diff(ctx context.Context) (*Diff, error) {
	client, err := gcpclients.FromRegistry(gcpclients.StorageClientset, b.ProjectID)
	if err != nil {
		return nil, err
	}

	policy, err := client.Client.Bucket(b.Bucket).IAM().Policy(ctx)
	switch {
	case IsNotFound(err):
		// Bucket does not exist yet. The grant is applied after the
		// bucket has been created, which the dependency order
		// guarantees.
		return &Diff{Action: ActionCreate, Changes: created(b.Attributes())}, nil
	case err != nil:
		return nil, fmt.Errorf("cannot get IAM policy of bucket %s: %w", b.Bucket, err)
	}

	if policy.HasRole(b.Member, iam.RoleName(b.Role)) {
		return &Diff{Action: ActionNone}, nil
	}

	return &Diff{Action: ActionCreate, Changes: created(b.Attributes())}, nil
}

// Apply implements the [Resource] interface.
func (b *BucketIAMMember) Apply(ctx context.Context) error {
	logger := slogutils.GetLogger(ctx)
	client, err := gcpclients.FromRegistry(gcpclients.StorageClientset, b.ProjectID)
	if err != nil {
		return err
	}

	handle := client.Client.Bucket(b.Bucket).IAM()
	policy, err := handle.Policy(ctx)
	if err != nil {
		return fmt.Errorf("cannot get IAM policy of bucket %s: %w", b.Bucket, err)
	}

	if policy.HasRole(b.Member, iam.RoleName(b.Role)) {
		return nil
	}

	logger.Info(
		"granting bucket role",
		"bucket", b.Bucket,
		"role", b.Role,
		"member", b.Member,
	)
	policy.Add(b.Member, iam.RoleName(b.Role))
	if err := handle.SetPolicy(ctx, policy); err != nil {
		return fmt.Errorf("cannot set IAM policy of bucket %s: %w", b.Bucket, err)
	}

	return nil
}

// Destroy implements the [Resource] interface. Only this specific grant is
// removed from the bucket policy.
func (b *BucketIAMMember) Destroy(ctx context.Context) error {
	logger := slogutils.GetLogger(ctx)
	client, err := gcpclients.FromRegistry(gcpclients.StorageClientset, b.ProjectID)
	if err != nil {
		return err
	}

	handle := client.Client.Bucket(b.Bucket).IAM()
	policy, err := handle.Policy(ctx)
	switch {
	case IsNotFound(err):
		return nil
	case err != nil:
		return fmt.Errorf("cannot get IAM policy of bucket %s: %w", b.Bucket, err)
	}

	if !policy.HasRole(b.Member, iam.RoleName(b.Role)) {
		return nil
	}

	logger.Info(
		"revoking bucket role",
		"bucket", b.Bucket,
		"role", b.Role,
		"member", b.Member,
	)
	policy.Remove(b.Member, iam.RoleName(b.Role))
	if err := handle.SetPolicy(ctx, policy); err != nil {
		return fmt.Errorf("cannot set IAM policy of bucket %s: %w", b.Bucket, err)
	}

	return nil
}

// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

// Package resources provides the declared resources of the orbital telemetry
// pipeline.
//
// Each resource describes the desired state of a single GCP asset. A resource
// knows how to diff itself against the live infrastructure and how to
// converge towards the declared state. Resources never mutate anything during
// [Resource.Diff], only [Resource.Apply] and [Resource.Destroy] do.
package resources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Resource kinds of the pipeline assets.
const (
	KindBucket            = "storage_bucket"
	KindBucketIAMMember   = "storage_bucket_iam_member"
	KindDataset           = "bigquery_dataset"
	KindDatasetAccess     = "bigquery_dataset_access"
	KindServiceAccount    = "service_account"
	KindServiceAccountIAM = "service_account_iam_member"
	KindProjectIAMMember  = "project_iam_member"
	KindProjectServices   = "project_services"
	KindBuildTrigger      = "cloudbuild_trigger"
	KindSchedulerJob      = "cloud_scheduler_job"
	KindTopic             = "pubsub_topic"
)

// ErrResourceAbsent is an error, which is returned by operations that require
// the live resource to exist, e.g. destroying a resource, which was never
// created.
var ErrResourceAbsent = errors.New("resource is absent")

// Action represents the operation, which the reconciler needs to perform in
// order to converge a resource towards its declared state.
type Action string

const (
	// ActionNone means the live resource matches the declaration.
	ActionNone Action = "none"

	// ActionCreate means the resource is absent and will be created.
	ActionCreate Action = "create"

	// ActionUpdate means a mutable attribute diverged and will be updated
	// in-place.
	ActionUpdate Action = "update"

	// ActionRecreate means an immutable attribute diverged and the
	// resource must be destroyed and created anew.
	ActionRecreate Action = "recreate"

	// ActionDelete means the live resource will be removed during
	// teardown.
	ActionDelete Action = "delete"

	// ActionSkip means the operation is suppressed for the resource, e.g.
	// API enablement is never undone during teardown.
	ActionSkip Action = "skip"
)

// FieldChange describes the divergence of a single resource attribute.
type FieldChange struct {
	// Path is the dot-separated path of the attribute.
	Path string

	// Live is the value observed on the live resource. Empty for absent
	// resources.
	Live string

	// Want is the declared value.
	Want string
}

// String implements the [fmt.Stringer] interface.
func (fc FieldChange) String() string {
	if fc.Live == "" {
		return fmt.Sprintf("%s = %q", fc.Path, fc.Want)
	}

	return fmt.Sprintf("%s: %q -> %q", fc.Path, fc.Live, fc.Want)
}

// Diff represents the result of comparing a declared resource against the
// live infrastructure.
type Diff struct {
	// Action is the operation needed to converge the resource.
	Action Action

	// Changes are the diverged attributes. Empty when Action is
	// [ActionNone].
	Changes []FieldChange
}

// HasChanges returns a boolean indicating whether converging the resource
// would modify the live infrastructure.
func (d *Diff) HasChanges() bool {
	switch d.Action {
	case ActionCreate, ActionUpdate, ActionRecreate, ActionDelete:
		return true
	default:
		return false
	}
}

// Resource is the interface, which is implemented by every declared pipeline
// resource.
type Resource interface {
	// Kind returns the stable kind of the resource, e.g. `storage_bucket'.
	Kind() string

	// Name returns the name of the resource. The kind/name pair is unique
	// within the declarations.
	Name() string

	// DependsOn returns the kind/name identifiers of the resources,
	// which must be converged before this one. See [ID].
	DependsOn() []string

	// Attributes returns the declared attributes of the resource, which
	// are recorded in the state snapshot after a successful apply.
	Attributes() map[string]string

	// Diff compares the declared state against the live infrastructure.
	Diff(ctx context.Context) (*Diff, error)

	// Apply converges the live resource towards the declared state by
	// creating it or updating it in-place.
	Apply(ctx context.Context) error

	// Destroy removes the live resource.
	Destroy(ctx context.Context) error
}

// ID returns the kind/name identifier of the given resource.
func ID(r Resource) string {
	return fmt.Sprintf("%s/%s", r.Kind(), r.Name())
}

// IsNotFound returns a boolean indicating whether the given error represents
// a `not found' API response. The GCP API surface is mixed, gRPC transports
// surface [codes.NotFound], the REST ones surface [googleapi.Error] with 404,
// and the storage client has its own sentinel errors.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrResourceAbsent) {
		return true
	}

	if errors.Is(err, storage.ErrBucketNotExist) || errors.Is(err, storage.ErrObjectNotExist) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return true
	}

	return status.Code(err) == codes.NotFound
}

// created returns the field changes for a resource, which is absent from the
// live infrastructure, derived from its declared attributes.
func created(attrs map[string]string) []FieldChange {
	changes := make([]FieldChange, 0, len(attrs))
	for _, path := range sortedKeys(attrs) {
		changes = append(changes, FieldChange{Path: path, Want: attrs[path]})
	}

	return changes
}

// sortedKeys returns the keys of the given map in lexicographic order, so
// that rendered diffs are stable.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

// labelsDiff compares the live labels against the declared ones and returns
// the field changes for missing or diverged labels. Extra live labels are
// left alone, other actors are allowed to attach their own labels.
func labelsDiff(live, want map[string]string) []FieldChange {
	changes := make([]FieldChange, 0)
	for _, k := range sortedKeys(want) {
		if live[k] != want[k] {
			changes = append(changes, FieldChange{
				Path: fmt.Sprintf("labels.%s", k),
				Live: live[k],
				Want: want[k],
			})
		}
	}

	return changes
}

// mergeLabels returns a copy of the live labels with the declared ones set on
// top of them.
func mergeLabels(live, want map[string]string) map[string]string {
	merged := make(map[string]string, len(live)+len(want))
	for k, v := range live {
		merged[k] = v
	}
	for k, v := range want {
		merged[k] = v
	}

	return merged
}

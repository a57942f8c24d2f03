// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package plan

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/orbital-telemetry/groundctl/pkg/gcp/resources"
)

// fakeResource is a declared resource for tests, which records the
// operations performed on it.
type fakeResource struct {
	kind       string
	name       string
	deps       []string
	diff       *resources.Diff
	diffErr    error
	applyErr   error
	destroyErr error

	// log records the operations across all fakes of a test in order.
	log *[]string
}

var _ resources.Resource = &fakeResource{}

func (f *fakeResource) Kind() string                  { return f.kind }
func (f *fakeResource) Name() string                  { return f.name }
func (f *fakeResource) DependsOn() []string           { return f.deps }
func (f *fakeResource) Attributes() map[string]string { return map[string]string{"name": f.name} }

func (f *fakeResource) Diff(ctx context.Context) (*resources.Diff, error) {
	if f.diffErr != nil {
		return nil, f.diffErr
	}
	if f.diff == nil {
		return &resources.Diff{Action: resources.ActionNone}, nil
	}

	return f.diff, nil
}

func (f *fakeResource) Apply(ctx context.Context) error {
	if f.log != nil {
		*f.log = append(*f.log, "apply "+resources.ID(f))
	}

	return f.applyErr
}

func (f *fakeResource) Destroy(ctx context.Context) error {
	if f.log != nil {
		*f.log = append(*f.log, "destroy "+resources.ID(f))
	}

	return f.destroyErr
}

func sortedIDs(t *testing.T, g *Graph) []string {
	t.Helper()
	sorted, err := g.Sort()
	if err != nil {
		t.Fatal(err)
	}

	ids := make([]string, 0, len(sorted))
	for _, item := range sorted {
		ids = append(ids, resources.ID(item))
	}

	return ids
}

func TestGraphSort(t *testing.T) {
	// Diamond: account and bucket depend on apis, the grant depends on
	// both.
	apis := &fakeResource{kind: "project_services", name: "required-apis"}
	account := &fakeResource{kind: "service_account", name: "orbital-pipeline", deps: []string{"project_services/required-apis"}}
	bucket := &fakeResource{kind: "storage_bucket", name: "orbital-staging", deps: []string{"project_services/required-apis"}}
	grant := &fakeResource{
		kind: "storage_bucket_iam_member",
		name: "orbital-staging/roles/storage.objectAdmin",
		deps: []string{"storage_bucket/orbital-staging", "service_account/orbital-pipeline"},
	}

	g, err := NewGraph([]resources.Resource{grant, apis, account, bucket})
	if err != nil {
		t.Fatal(err)
	}

	wanted := []string{
		"project_services/required-apis",
		"service_account/orbital-pipeline",
		"storage_bucket/orbital-staging",
		"storage_bucket_iam_member/orbital-staging/roles/storage.objectAdmin",
	}
	got := sortedIDs(t, g)
	if diff := cmp.Diff(wanted, got); diff != "" {
		t.Fatalf("unexpected order: %s", diff)
	}
}

func TestGraphSortKeepsDeclarationOrder(t *testing.T) {
	// Independent resources stay in declaration order.
	c := &fakeResource{kind: "pubsub_topic", name: "c"}
	a := &fakeResource{kind: "pubsub_topic", name: "a"}
	b := &fakeResource{kind: "pubsub_topic", name: "b"}

	g, err := NewGraph([]resources.Resource{c, a, b})
	if err != nil {
		t.Fatal(err)
	}

	wanted := []string{"pubsub_topic/c", "pubsub_topic/a", "pubsub_topic/b"}
	got := sortedIDs(t, g)
	if diff := cmp.Diff(wanted, got); diff != "" {
		t.Fatalf("unexpected order: %s", diff)
	}
}

func TestGraphReverseSort(t *testing.T) {
	apis := &fakeResource{kind: "project_services", name: "required-apis"}
	topic := &fakeResource{kind: "pubsub_topic", name: "orbital-telemetry-events", deps: []string{"project_services/required-apis"}}

	g, err := NewGraph([]resources.Resource{apis, topic})
	if err != nil {
		t.Fatal(err)
	}

	sorted, err := g.ReverseSort()
	if err != nil {
		t.Fatal(err)
	}

	if resources.ID(sorted[0]) != "pubsub_topic/orbital-telemetry-events" {
		t.Fatalf("wanted the topic first got %s", resources.ID(sorted[0]))
	}
}

func TestGraphDuplicateResource(t *testing.T) {
	a := &fakeResource{kind: "pubsub_topic", name: "dup"}
	b := &fakeResource{kind: "pubsub_topic", name: "dup"}

	_, err := NewGraph([]resources.Resource{a, b})
	if !errors.Is(err, ErrDuplicateResource) {
		t.Fatalf("wanted %v got %v", ErrDuplicateResource, err)
	}
}

func TestGraphUnknownDependency(t *testing.T) {
	a := &fakeResource{kind: "pubsub_topic", name: "a", deps: []string{"storage_bucket/missing"}}

	_, err := NewGraph([]resources.Resource{a})
	if !errors.Is(err, ErrUnknownDependency) {
		t.Fatalf("wanted %v got %v", ErrUnknownDependency, err)
	}
}

func TestGraphCycle(t *testing.T) {
	a := &fakeResource{kind: "pubsub_topic", name: "a", deps: []string{"pubsub_topic/b"}}
	b := &fakeResource{kind: "pubsub_topic", name: "b", deps: []string{"pubsub_topic/a"}}

	g, err := NewGraph([]resources.Resource{a, b})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := g.Sort(); !errors.Is(err, ErrDependencyCycle) {
		t.Fatalf("wanted %v got %v", ErrDependencyCycle, err)
	}
}

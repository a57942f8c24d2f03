// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package resources

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/google/go-cmp/cmp"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestIsNotFound(t *testing.T) {
	testCases := []struct {
		desc   string
		err    error
		wanted bool
	}{
		{
			desc:   "nil error",
			err:    nil,
			wanted: false,
		},
		{
			desc:   "resource absent sentinel",
			err:    ErrResourceAbsent,
			wanted: true,
		},
		{
			desc:   "wrapped resource absent sentinel",
			err:    fmt.Errorf("get failed: %w", ErrResourceAbsent),
			wanted: true,
		},
		{
			desc:   "bucket does not exist",
			err:    storage.ErrBucketNotExist,
			wanted: true,
		},
		{
			desc:   "object does not exist",
			err:    storage.ErrObjectNotExist,
			wanted: true,
		},
		{
			desc:   "googleapi 404",
			err:    &googleapi.Error{Code: http.StatusNotFound},
			wanted: true,
		},
		{
			desc:   "googleapi 403",
			err:    &googleapi.Error{Code: http.StatusForbidden},
			wanted: false,
		},
		{
			desc:   "grpc not found",
			err:    status.Error(codes.NotFound, "no such trigger"),
			wanted: true,
		},
		{
			desc:   "grpc permission denied",
			err:    status.Error(codes.PermissionDenied, "nope"),
			wanted: false,
		},
		{
			desc:   "plain error",
			err:    errors.New("boom"),
			wanted: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got := IsNotFound(tc.err)
			if got != tc.wanted {
				t.Fatalf("wanted %t got %t", tc.wanted, got)
			}
		})
	}
}

func TestFieldChangeString(t *testing.T) {
	testCases := []struct {
		desc   string
		change FieldChange
		wanted string
	}{
		{
			desc:   "new attribute",
			change: FieldChange{Path: "location", Want: "europe-west1"},
			wanted: `location = "europe-west1"`,
		},
		{
			desc:   "diverged attribute",
			change: FieldChange{Path: "versioning", Live: "false", Want: "true"},
			wanted: `versioning: "false" -> "true"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got := tc.change.String()
			if got != tc.wanted {
				t.Fatalf("wanted %s got %s", tc.wanted, got)
			}
		})
	}
}

func TestDiffHasChanges(t *testing.T) {
	testCases := []struct {
		desc   string
		action Action
		wanted bool
	}{
		{desc: "none", action: ActionNone, wanted: false},
		{desc: "skip", action: ActionSkip, wanted: false},
		{desc: "create", action: ActionCreate, wanted: true},
		{desc: "update", action: ActionUpdate, wanted: true},
		{desc: "recreate", action: ActionRecreate, wanted: true},
		{desc: "delete", action: ActionDelete, wanted: true},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			d := &Diff{Action: tc.action}
			if got := d.HasChanges(); got != tc.wanted {
				t.Fatalf("wanted %t got %t", tc.wanted, got)
			}
		})
	}
}

func TestResourceID(t *testing.T) {
	bucket := &Bucket{BucketName: "orbital-state"}
	wanted := "storage_bucket/orbital-state"
	if got := ID(bucket); got != wanted {
		t.Fatalf("wanted %s got %s", wanted, got)
	}
}

func TestLabelsDiff(t *testing.T) {
	testCases := []struct {
		desc   string
		live   map[string]string
		want   map[string]string
		wanted []FieldChange
	}{
		{
			desc:   "in sync",
			live:   map[string]string{"managed-by": "groundctl"},
			want:   map[string]string{"managed-by": "groundctl"},
			wanted: []FieldChange{},
		},
		{
			desc:   "extra live labels are tolerated",
			live:   map[string]string{"managed-by": "groundctl", "team": "flight-ops"},
			want:   map[string]string{"managed-by": "groundctl"},
			wanted: []FieldChange{},
		},
		{
			desc: "missing label",
			live: map[string]string{},
			want: map[string]string{"managed-by": "groundctl"},
			wanted: []FieldChange{
				{Path: "labels.managed-by", Live: "", Want: "groundctl"},
			},
		},
		{
			desc: "diverged label",
			live: map[string]string{"managed-by": "legacy"},
			want: map[string]string{"managed-by": "groundctl"},
			wanted: []FieldChange{
				{Path: "labels.managed-by", Live: "legacy", Want: "groundctl"},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got := labelsDiff(tc.live, tc.want)
			if diff := cmp.Diff(tc.wanted, got); diff != "" {
				t.Fatalf("unexpected changes: %s", diff)
			}
		})
	}
}

func TestMergeLabels(t *testing.T) {
	live := map[string]string{"team": "flight-ops", "managed-by": "legacy"}
	want := map[string]string{"managed-by": "groundctl"}

	wanted := map[string]string{
		"managed-by": "groundctl",
		"team":       "flight-ops",
	}
	got := mergeLabels(live, want)
	if diff := cmp.Diff(wanted, got); diff != "" {
		t.Fatalf("unexpected merged labels: %s", diff)
	}
}

func TestCreatedChangesAreSorted(t *testing.T) {
	attrs := map[string]string{
		"versioning": "true",
		"location":   "europe-west1",
		"name":       "orbital-state",
	}

	wanted := []FieldChange{
		{Path: "location", Want: "europe-west1"},
		{Path: "name", Want: "orbital-state"},
		{Path: "versioning", Want: "true"},
	}
	got := created(attrs)
	if diff := cmp.Diff(wanted, got); diff != "" {
		t.Fatalf("unexpected changes: %s", diff)
	}
}

// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package resources

import (
	"testing"

	"cloud.google.com/go/storage"
)

func TestDescribeLifecycle(t *testing.T) {
	deleteAfter := func(days int64) storage.LifecycleRule {
		return storage.LifecycleRule{
			Action:    storage.LifecycleAction{Type: storage.DeleteAction},
			Condition: storage.LifecycleCondition{AgeInDays: days},
		}
	}

	testCases := []struct {
		desc   string
		lc     storage.Lifecycle
		wanted string
	}{
		{
			desc:   "no rules",
			lc:     storage.Lifecycle{},
			wanted: "",
		},
		{
			desc:   "single delete at age rule",
			lc:     storage.Lifecycle{Rules: []storage.LifecycleRule{deleteAfter(2)}},
			wanted: "delete after 2 days",
		},
		{
			desc: "delete rule with extra condition",
			lc: storage.Lifecycle{
				Rules: []storage.LifecycleRule{
					{
						Action: storage.LifecycleAction{Type: storage.DeleteAction},
						Condition: storage.LifecycleCondition{
							AgeInDays:        2,
							NumNewerVersions: 3,
						},
					},
				},
			},
			wanted: "1 unmanaged rules",
		},
		{
			desc: "non-delete action",
			lc: storage.Lifecycle{
				Rules: []storage.LifecycleRule{
					{
						Action: storage.LifecycleAction{
							Type:         storage.SetStorageClassAction,
							StorageClass: "COLDLINE",
						},
						Condition: storage.LifecycleCondition{AgeInDays: 2},
					},
				},
			},
			wanted: "1 unmanaged rules",
		},
		{
			desc: "multiple rules",
			lc: storage.Lifecycle{
				Rules: []storage.LifecycleRule{deleteAfter(2), deleteAfter(7)},
			},
			wanted: "2 unmanaged rules",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got := describeLifecycle(tc.lc)
			if got != tc.wanted {
				t.Fatalf("wanted %q got %q", tc.wanted, got)
			}
		})
	}
}

func TestDiffLifecycle(t *testing.T) {
	live := storage.Lifecycle{
		Rules: []storage.LifecycleRule{
			{
				Action:    storage.LifecycleAction{Type: storage.DeleteAction},
				Condition: storage.LifecycleCondition{AgeInDays: 2},
			},
		},
	}

	if changes := diffLifecycle(live, 2); len(changes) != 0 {
		t.Fatalf("wanted no changes got %v", changes)
	}

	changes := diffLifecycle(storage.Lifecycle{}, 2)
	if len(changes) != 1 {
		t.Fatalf("wanted 1 change got %d", len(changes))
	}
	if changes[0].Want != "delete after 2 days" {
		t.Fatalf("wanted `delete after 2 days' got %q", changes[0].Want)
	}
}

func TestDiffBucketAttrs(t *testing.T) {
	stateBucket := &Bucket{
		ProjectID:  "orbital-telemetry-prod",
		BucketName: "orbital-state",
		Location:   "europe-west1",
		Versioning: true,
		Labels:     map[string]string{"managed-by": "groundctl"},
	}
	stagingBucket := &Bucket{
		ProjectID:        "orbital-telemetry-prod",
		BucketName:       "orbital-staging",
		Location:         "europe-west1",
		ObjectMaxAgeDays: 2,
		Labels:           map[string]string{"managed-by": "groundctl"},
	}

	inSync := func(b *Bucket) *storage.BucketAttrs {
		attrs := b.desiredAttrs()
		attrs.Location = "EUROPE-WEST1"

		return attrs
	}

	testCases := []struct {
		desc        string
		bucket      *Bucket
		live        func(b *Bucket) *storage.BucketAttrs
		wanted      Action
		wantedPaths []string
	}{
		{
			desc:   "state bucket in sync",
			bucket: stateBucket,
			live:   inSync,
			wanted: ActionNone,
		},
		{
			desc:   "staging bucket in sync",
			bucket: stagingBucket,
			live:   inSync,
			wanted: ActionNone,
		},
		{
			desc:   "location diverged",
			bucket: stateBucket,
			live: func(b *Bucket) *storage.BucketAttrs {
				attrs := inSync(b)
				attrs.Location = "US-CENTRAL1"

				return attrs
			},
			wanted:      ActionRecreate,
			wantedPaths: []string{"location"},
		},
		{
			desc:   "public access prevention relaxed",
			bucket: stateBucket,
			live: func(b *Bucket) *storage.BucketAttrs {
				attrs := inSync(b)
				attrs.PublicAccessPrevention = storage.PublicAccessPreventionInherited

				return attrs
			},
			wanted:      ActionUpdate,
			wantedPaths: []string{"public_access_prevention"},
		},
		{
			desc:   "versioning disabled",
			bucket: stateBucket,
			live: func(b *Bucket) *storage.BucketAttrs {
				attrs := inSync(b)
				attrs.VersioningEnabled = false

				return attrs
			},
			wanted:      ActionUpdate,
			wantedPaths: []string{"versioning"},
		},
		{
			desc:   "uniform bucket level access disabled",
			bucket: stateBucket,
			live: func(b *Bucket) *storage.BucketAttrs {
				attrs := inSync(b)
				attrs.UniformBucketLevelAccess = storage.UniformBucketLevelAccess{}

				return attrs
			},
			wanted:      ActionUpdate,
			wantedPaths: []string{"uniform_bucket_level_access"},
		},
		{
			desc:   "lifecycle rule removed",
			bucket: stagingBucket,
			live: func(b *Bucket) *storage.BucketAttrs {
				attrs := inSync(b)
				attrs.Lifecycle = storage.Lifecycle{}

				return attrs
			},
			wanted:      ActionUpdate,
			wantedPaths: []string{"lifecycle"},
		},
		{
			desc:   "label diverged",
			bucket: stateBucket,
			live: func(b *Bucket) *storage.BucketAttrs {
				attrs := inSync(b)
				attrs.Labels = map[string]string{"managed-by": "legacy"}

				return attrs
			},
			wanted:      ActionUpdate,
			wantedPaths: []string{"labels.managed-by"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			diff := diffBucketAttrs(tc.live(tc.bucket), tc.bucket)
			if diff.Action != tc.wanted {
				t.Fatalf("wanted action %s got %s", tc.wanted, diff.Action)
			}

			if len(diff.Changes) != len(tc.wantedPaths) {
				t.Fatalf("wanted %d changes got %d: %v", len(tc.wantedPaths), len(diff.Changes), diff.Changes)
			}
			for i, path := range tc.wantedPaths {
				if diff.Changes[i].Path != path {
					t.Fatalf("wanted path %s got %s", path, diff.Changes[i].Path)
				}
			}
		})
	}
}

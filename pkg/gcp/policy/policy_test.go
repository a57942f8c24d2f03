// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"testing"

	"github.com/orbital-telemetry/groundctl/pkg/core/config"
	"github.com/orbital-telemetry/groundctl/pkg/gcp/catalog"
	"github.com/orbital-telemetry/groundctl/pkg/gcp/resources"
)

func testPipelineConfig() *config.PipelineConfig {
	return &config.PipelineConfig{
		Project:        "orbital-telemetry-prod",
		Region:         "europe-west1",
		Zone:           "europe-west1-b",
		StateBucket:    "orbital-telemetry-state",
		StagingBucket:  "orbital-telemetry-staging",
		Dataset:        "orbital_telemetry",
		ServiceAccount: "orbital-pipeline",
	}
}

func testCatalog(t *testing.T) []resources.Resource {
	t.Helper()
	items, err := catalog.New(testPipelineConfig())
	if err != nil {
		t.Fatal(err)
	}

	return items
}

func resultByName(t *testing.T, results []Result, name string) Result {
	t.Helper()
	for _, result := range results {
		if result.Name == name {
			return result
		}
	}
	t.Fatalf("no result for check %s", name)

	return Result{}
}

func TestRunAllChecksPass(t *testing.T) {
	results, ok := Run(testPipelineConfig(), testCatalog(t))
	if !ok {
		t.Fatalf("wanted all checks to pass, got %+v", results)
	}

	if len(results) != len(Checks()) {
		t.Fatalf("wanted %d results got %d", len(Checks()), len(results))
	}
	for _, result := range results {
		if !result.Passed {
			t.Fatalf("check %s failed: %s", result.Name, result.Detail)
		}
	}
}

func TestRunFlagsViolations(t *testing.T) {
	conf := testPipelineConfig()

	testCases := []struct {
		desc   string
		check  string
		mutate func(items []resources.Resource) []resources.Resource
	}{
		{
			desc:  "state bucket without versioning",
			check: "state-bucket-versioned",
			mutate: func(items []resources.Resource) []resources.Resource {
				for _, item := range items {
					if b, ok := item.(*resources.Bucket); ok && b.BucketName == conf.StateBucket {
						b.Versioning = false
					}
				}

				return items
			},
		},
		{
			desc:  "staging bucket keeps objects too long",
			check: "staging-bucket-expires-objects",
			mutate: func(items []resources.Resource) []resources.Resource {
				for _, item := range items {
					if b, ok := item.(*resources.Bucket); ok && b.BucketName == conf.StagingBucket {
						b.ObjectMaxAgeDays = 30
					}
				}

				return items
			},
		},
		{
			desc:  "dataset in another region",
			check: "dataset-in-region",
			mutate: func(items []resources.Resource) []resources.Resource {
				for _, item := range items {
					if d, ok := item.(*resources.Dataset); ok {
						d.Location = "us-central1"
					}
				}

				return items
			},
		},
		{
			desc:  "grant bound to a foreign principal",
			check: "grants-bound-to-pipeline-identity",
			mutate: func(items []resources.Resource) []resources.Resource {
				for _, item := range items {
					if g, ok := item.(*resources.ProjectIAMMember); ok {
						g.Member = "user:intruder@example.org"
						break
					}
				}

				return items
			},
		},
		{
			desc:  "grant missing from the set",
			check: "grant-set-is-exact",
			mutate: func(items []resources.Resource) []resources.Resource {
				kept := make([]resources.Resource, 0, len(items))
				for _, item := range items {
					if _, ok := item.(*resources.ServiceAccountIAMMember); ok {
						continue
					}
					kept = append(kept, item)
				}

				return kept
			},
		},
		{
			desc:  "api dropped from the enablement set",
			check: "required-apis-declared",
			mutate: func(items []resources.Resource) []resources.Resource {
				for _, item := range items {
					if s, ok := item.(*resources.Services); ok {
						s.Services = s.Services[:len(s.Services)-1]
					}
				}

				return items
			},
		},
		{
			desc:  "trigger watches all branches",
			check: "trigger-watches-main-only",
			mutate: func(items []resources.Resource) []resources.Resource {
				for _, item := range items {
					if tr, ok := item.(*resources.BuildTrigger); ok {
						tr.BranchPattern = ".*"
					}
				}

				return items
			},
		},
		{
			desc:  "substitution dropped",
			check: "trigger-substitutions",
			mutate: func(items []resources.Resource) []resources.Resource {
				for _, item := range items {
					if tr, ok := item.(*resources.BuildTrigger); ok {
						delete(tr.Substitutions, "_STAGING_BUCKET")
					}
				}

				return items
			},
		},
		{
			desc:  "schedule fires more than daily",
			check: "scheduler-runs-daily",
			mutate: func(items []resources.Resource) []resources.Resource {
				for _, item := range items {
					if j, ok := item.(*resources.SchedulerJob); ok {
						j.Schedule = "*/5 * * * *"
					}
				}

				return items
			},
		},
		{
			desc:  "retry count diverged",
			check: "scheduler-invocation",
			mutate: func(items []resources.Resource) []resources.Resource {
				for _, item := range items {
					if j, ok := item.(*resources.SchedulerJob); ok {
						j.RetryCount = 3
					}
				}

				return items
			},
		},
		{
			desc:  "audience keeps the trailing slash",
			check: "scheduler-invocation",
			mutate: func(items []resources.Resource) []resources.Resource {
				for _, item := range items {
					if j, ok := item.(*resources.SchedulerJob); ok {
						j.Audience = j.URI
					}
				}

				return items
			},
		},
		{
			desc:  "dependency on an undeclared resource",
			check: "dependency-graph-resolves",
			mutate: func(items []resources.Resource) []resources.Resource {
				for _, item := range items {
					if tr, ok := item.(*resources.BuildTrigger); ok {
						tr.Dependencies = append(tr.Dependencies, "storage_bucket/undeclared")
					}
				}

				return items
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			items := tc.mutate(testCatalog(t))
			results, ok := Run(conf, items)
			if ok {
				t.Fatal("wanted at least one failed check")
			}

			result := resultByName(t, results, tc.check)
			if result.Passed {
				t.Fatalf("wanted check %s to fail", tc.check)
			}
			if result.Detail == "" {
				t.Fatalf("wanted a failure detail for check %s", tc.check)
			}
		})
	}
}

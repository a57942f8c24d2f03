// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package resources

import (
	"testing"

	"cloud.google.com/go/cloudbuild/apiv1/v2/cloudbuildpb"
)

func testBuildTrigger() *BuildTrigger {
	return &BuildTrigger{
		ProjectID:       "orbital-telemetry-prod",
		TriggerName:     "orbital-telemetry-ingestion",
		RepoOwner:       "orbital-telemetry",
		RepoName:        "orbital-telemetry-pipeline",
		BranchPattern:   "^main$",
		IncludedFiles:   []string{"ingestion/**"},
		BuildConfigPath: "ingestion/ingestion.cloudbuild.yaml",
		Substitutions: map[string]string{
			"_PROJECT_ID":      "orbital-telemetry-prod",
			"_REGION":          "europe-west1",
			"_SERVICE_ACCOUNT": "orbital-pipeline@orbital-telemetry-prod.iam.gserviceaccount.com",
			"_STAGING_BUCKET":  "gs://orbital-staging",
		},
	}
}

func TestDiffTrigger(t *testing.T) {
	trigger := testBuildTrigger()

	testCases := []struct {
		desc        string
		live        func() *cloudbuildpb.BuildTrigger
		wantedPaths []string
	}{
		{
			desc: "in sync",
			live: trigger.desiredTrigger,
		},
		{
			desc: "branch pattern diverged",
			live: func() *cloudbuildpb.BuildTrigger {
				live := trigger.desiredTrigger()
				live.GetGithub().Event = &cloudbuildpb.GitHubEventsConfig_Push{
					Push: &cloudbuildpb.PushFilter{
						GitRef: &cloudbuildpb.PushFilter_Branch{Branch: ".*"},
					},
				}

				return live
			},
			wantedPaths: []string{"branch"},
		},
		{
			desc: "build config diverged",
			live: func() *cloudbuildpb.BuildTrigger {
				live := trigger.desiredTrigger()
				live.BuildTemplate = &cloudbuildpb.BuildTrigger_Filename{
					Filename: "cloudbuild.yaml",
				}

				return live
			},
			wantedPaths: []string{"build_config"},
		},
		{
			desc: "path filter dropped",
			live: func() *cloudbuildpb.BuildTrigger {
				live := trigger.desiredTrigger()
				live.IncludedFiles = nil

				return live
			},
			wantedPaths: []string{"included_files"},
		},
		{
			desc: "trigger disabled out of band",
			live: func() *cloudbuildpb.BuildTrigger {
				live := trigger.desiredTrigger()
				live.Disabled = true

				return live
			},
			wantedPaths: []string{"disabled"},
		},
		{
			desc: "substitution diverged",
			live: func() *cloudbuildpb.BuildTrigger {
				live := trigger.desiredTrigger()
				live.Substitutions = map[string]string{
					"_PROJECT_ID":      "orbital-telemetry-prod",
					"_REGION":          "us-central1",
					"_SERVICE_ACCOUNT": "orbital-pipeline@orbital-telemetry-prod.iam.gserviceaccount.com",
					"_STAGING_BUCKET":  "gs://orbital-staging",
				}

				return live
			},
			wantedPaths: []string{"substitutions._REGION"},
		},
		{
			desc: "extra substitution removed",
			live: func() *cloudbuildpb.BuildTrigger {
				live := trigger.desiredTrigger()
				live.Substitutions = map[string]string{
					"_PROJECT_ID":      "orbital-telemetry-prod",
					"_REGION":          "europe-west1",
					"_SERVICE_ACCOUNT": "orbital-pipeline@orbital-telemetry-prod.iam.gserviceaccount.com",
					"_STAGING_BUCKET":  "gs://orbital-staging",
					"_DEBUG":           "true",
				}

				return live
			},
			wantedPaths: []string{"substitutions._DEBUG"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			changes := diffTrigger(tc.live(), trigger.desiredTrigger())
			if len(changes) != len(tc.wantedPaths) {
				t.Fatalf("wanted %d changes got %d: %v", len(tc.wantedPaths), len(changes), changes)
			}
			for i, path := range tc.wantedPaths {
				if changes[i].Path != path {
					t.Fatalf("wanted path %s got %s", path, changes[i].Path)
				}
			}
		})
	}
}

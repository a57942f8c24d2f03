// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package utils_test

import (
	"strings"
	"testing"

	"github.com/orbital-telemetry/groundctl/pkg/gcp/constants"
	"github.com/orbital-telemetry/groundctl/pkg/gcp/utils"
)

func TestProjectFQN(t *testing.T) {
	testCases := []struct {
		desc   string
		input  string
		wanted string
	}{
		{
			desc:   "input includes projects/ prefix",
			input:  constants.ProjectsPrefix + "testproject",
			wanted: constants.ProjectsPrefix + "testproject",
		},
		{
			desc:   "input does not include projects/ prefix",
			input:  "testproject",
			wanted: constants.ProjectsPrefix + "testproject",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			output := utils.ProjectFQN(tc.input)
			if strings.Compare(tc.wanted, output) != 0 {
				t.Fatalf("wanted %s got %s", tc.wanted, output)
			}
		})
	}
}

func TestLocationFQN(t *testing.T) {
	testCases := []struct {
		desc     string
		project  string
		location string
		wanted   string
	}{
		{
			desc:     "plain project id",
			project:  "testproject",
			location: "europe-west1",
			wanted:   "projects/testproject/locations/europe-west1",
		},
		{
			desc:     "qualified project id",
			project:  "projects/testproject",
			location: "europe-west1",
			wanted:   "projects/testproject/locations/europe-west1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			output := utils.LocationFQN(tc.project, tc.location)
			if strings.Compare(tc.wanted, output) != 0 {
				t.Fatalf("wanted %s got %s", tc.wanted, output)
			}
		})
	}
}

func TestServiceAccountHelpers(t *testing.T) {
	email := utils.ServiceAccountEmail("pipeline", "testproject")
	wantedEmail := "pipeline@testproject.iam.gserviceaccount.com"
	if email != wantedEmail {
		t.Fatalf("wanted %s got %s", wantedEmail, email)
	}

	member := utils.ServiceAccountMember(email)
	wantedMember := "serviceAccount:" + wantedEmail
	if member != wantedMember {
		t.Fatalf("wanted %s got %s", wantedMember, member)
	}

	fqn := utils.ServiceAccountFQN("testproject", email)
	wantedFQN := "projects/testproject/serviceAccounts/" + wantedEmail
	if fqn != wantedFQN {
		t.Fatalf("wanted %s got %s", wantedFQN, fqn)
	}
}

func TestServiceFQN(t *testing.T) {
	output := utils.ServiceFQN("testproject", "pubsub.googleapis.com")
	wanted := "projects/testproject/services/pubsub.googleapis.com"
	if output != wanted {
		t.Fatalf("wanted %s got %s", wanted, output)
	}
}

func TestSchedulerJobFQN(t *testing.T) {
	output := utils.SchedulerJobFQN("testproject", "europe-west1", "daily-run")
	wanted := "projects/testproject/locations/europe-west1/jobs/daily-run"
	if output != wanted {
		t.Fatalf("wanted %s got %s", wanted, output)
	}
}

func TestFunctionURLAndAudience(t *testing.T) {
	url := utils.FunctionURL("europe-west1", "testproject", "orbital-telemetry-pipeline")
	wantedURL := "https://europe-west1-testproject.cloudfunctions.net/orbital-telemetry-pipeline/"
	if url != wantedURL {
		t.Fatalf("wanted %s got %s", wantedURL, url)
	}

	audience := utils.OIDCAudience(url)
	wantedAudience := strings.TrimSuffix(wantedURL, "/")
	if audience != wantedAudience {
		t.Fatalf("wanted %s got %s", wantedAudience, audience)
	}
}

func TestBucketURL(t *testing.T) {
	output := utils.BucketURL("testbucket")
	wanted := "gs://testbucket"
	if output != wanted {
		t.Fatalf("wanted %s got %s", wanted, output)
	}
}

func TestZoneInRegion(t *testing.T) {
	testCases := []struct {
		desc   string
		region string
		zone   string
		wanted bool
	}{
		{
			desc:   "zone resides in region",
			region: "europe-west1",
			zone:   "europe-west1-b",
			wanted: true,
		},
		{
			desc:   "zone resides in another region",
			region: "europe-west1",
			zone:   "us-east1-c",
			wanted: false,
		},
		{
			desc:   "zone equal to region is not a zone",
			region: "europe-west1",
			zone:   "europe-west1",
			wanted: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			output := utils.ZoneInRegion(tc.region, tc.zone)
			if output != tc.wanted {
				t.Fatalf("wanted %t got %t", tc.wanted, output)
			}
		})
	}
}

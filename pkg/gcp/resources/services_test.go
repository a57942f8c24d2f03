// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package resources

import (
	"testing"

	"cloud.google.com/go/serviceusage/apiv1/serviceusagepb"
	"github.com/google/go-cmp/cmp"
)

func TestServiceID(t *testing.T) {
	testCases := []struct {
		desc   string
		name   string
		wanted string
	}{
		{
			desc:   "fully qualified name",
			name:   "projects/123456/services/pubsub.googleapis.com",
			wanted: "pubsub.googleapis.com",
		},
		{
			desc:   "bare service id",
			name:   "pubsub.googleapis.com",
			wanted: "pubsub.googleapis.com",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got := serviceID(tc.name)
			if got != tc.wanted {
				t.Fatalf("wanted %s got %s", tc.wanted, got)
			}
		})
	}
}

func TestDisabledServices(t *testing.T) {
	service := func(id string, state serviceusagepb.State) *serviceusagepb.Service {
		return &serviceusagepb.Service{
			Name:  "projects/123456/services/" + id,
			State: state,
		}
	}

	want := []string{
		"cloudbuild.googleapis.com",
		"cloudscheduler.googleapis.com",
		"pubsub.googleapis.com",
	}

	testCases := []struct {
		desc   string
		live   []*serviceusagepb.Service
		wanted []string
	}{
		{
			desc: "all enabled",
			live: []*serviceusagepb.Service{
				service("cloudbuild.googleapis.com", serviceusagepb.State_ENABLED),
				service("cloudscheduler.googleapis.com", serviceusagepb.State_ENABLED),
				service("pubsub.googleapis.com", serviceusagepb.State_ENABLED),
			},
			wanted: nil,
		},
		{
			desc: "one disabled",
			live: []*serviceusagepb.Service{
				service("cloudbuild.googleapis.com", serviceusagepb.State_ENABLED),
				service("cloudscheduler.googleapis.com", serviceusagepb.State_DISABLED),
				service("pubsub.googleapis.com", serviceusagepb.State_ENABLED),
			},
			wanted: []string{"cloudscheduler.googleapis.com"},
		},
		{
			desc:   "nothing reported",
			live:   nil,
			wanted: want,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got := disabledServices(tc.live, want)
			if diff := cmp.Diff(tc.wanted, got); diff != "" {
				t.Fatalf("unexpected services: %s", diff)
			}
		})
	}
}

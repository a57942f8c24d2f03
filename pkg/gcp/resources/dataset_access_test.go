// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package resources

import (
	"testing"

	bigquery "google.golang.org/api/bigquery/v2"
)

func TestNormalizeDatasetRole(t *testing.T) {
	testCases := []struct {
		desc   string
		role   string
		wanted string
	}{
		{desc: "data editor", role: "roles/bigquery.dataEditor", wanted: "WRITER"},
		{desc: "legacy writer", role: "WRITER", wanted: "WRITER"},
		{desc: "data viewer", role: "roles/bigquery.dataViewer", wanted: "READER"},
		{desc: "legacy reader", role: "READER", wanted: "READER"},
		{desc: "data owner", role: "roles/bigquery.dataOwner", wanted: "OWNER"},
		{desc: "legacy owner", role: "OWNER", wanted: "OWNER"},
		{desc: "unknown role", role: "roles/bigquery.admin", wanted: "roles/bigquery.admin"},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got := normalizeDatasetRole(tc.role)
			if got != tc.wanted {
				t.Fatalf("wanted %s got %s", tc.wanted, got)
			}
		})
	}
}

func TestHasAccessEntry(t *testing.T) {
	saEmail := "orbital-pipeline@orbital-telemetry-prod.iam.gserviceaccount.com"
	access := []*bigquery.DatasetAccess{
		{Role: "OWNER", SpecialGroup: "projectOwners"},
		{Role: "WRITER", UserByEmail: saEmail},
		nil,
	}

	testCases := []struct {
		desc   string
		role   string
		email  string
		wanted bool
	}{
		{
			desc:   "grant reported as legacy role",
			role:   "roles/bigquery.dataEditor",
			email:  saEmail,
			wanted: true,
		},
		{
			desc:   "grant matched verbatim",
			role:   "WRITER",
			email:  saEmail,
			wanted: true,
		},
		{
			desc:   "different principal",
			role:   "roles/bigquery.dataEditor",
			email:  "someone-else@orbital-telemetry-prod.iam.gserviceaccount.com",
			wanted: false,
		},
		{
			desc:   "different role",
			role:   "roles/bigquery.dataOwner",
			email:  saEmail,
			wanted: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got := hasAccessEntry(access, tc.role, tc.email)
			if got != tc.wanted {
				t.Fatalf("wanted %t got %t", tc.wanted, got)
			}
		})
	}
}

// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"fmt"
	"strings"

	"github.com/orbital-telemetry/groundctl/pkg/gcp/constants"
)

// ProjectFQN returns the full-qualified name for the given project id.
func ProjectFQN(s string) string {
	if strings.HasPrefix(s, constants.ProjectsPrefix) {
		return s
	}

	return fmt.Sprintf("%s%s", constants.ProjectsPrefix, s)
}

// LocationFQN returns the full-qualified name for the given location within a
// project, e.g. `projects/my-project/locations/europe-west1'.
func LocationFQN(project, location string) string {
	return fmt.Sprintf("%s/%s%s", ProjectFQN(project), constants.LocationsPrefix, location)
}

// ServiceAccountEmail returns the email address of the service account with
// the given account id within a project.
func ServiceAccountEmail(accountID, project string) string {
	return fmt.Sprintf("%s@%s%s", accountID, project, constants.ServiceAccountEmailSuffix)
}

// ServiceAccountFQN returns the full-qualified name for the service account
// with the given email within a project.
func ServiceAccountFQN(project, email string) string {
	return fmt.Sprintf("%s/%s%s", ProjectFQN(project), constants.ServiceAccountsPrefix, email)
}

// ServiceAccountMember returns the IAM member string, which refers to the
// service account with the given email.
func ServiceAccountMember(email string) string {
	return fmt.Sprintf("%s%s", constants.ServiceAccountMemberPrefix, email)
}

// ServiceFQN returns the full-qualified name for the given API service within
// a project, e.g. `projects/my-project/services/pubsub.googleapis.com'.
func ServiceFQN(project, service string) string {
	return fmt.Sprintf("%s/services/%s", ProjectFQN(project), service)
}

// SchedulerJobFQN returns the full-qualified name for the scheduler job with
// the given name within a project and region.
func SchedulerJobFQN(project, region, name string) string {
	return fmt.Sprintf("%s/jobs/%s", LocationFQN(project, region), name)
}

// FunctionURL returns the invocation URL of the HTTP-triggered Cloud Function
// with the given name. The URL ends with a trailing slash, which is how the
// scheduler invokes it.
func FunctionURL(region, project, function string) string {
	return fmt.Sprintf("https://%s-%s.%s/%s/", region, project, constants.CloudFunctionsDomain, function)
}

// OIDCAudience returns the audience of the OIDC identity token for the given
// invocation URL, which is the URL without its trailing slash.
func OIDCAudience(url string) string {
	return strings.TrimSuffix(url, "/")
}

// BucketURL returns the gs:// URL of the bucket with the given name.
func BucketURL(name string) string {
	return fmt.Sprintf("%s%s", constants.BucketURLScheme, name)
}

// ZoneInRegion returns a boolean indicating whether the given zone resides in
// the given region, e.g. zone `europe-west1-b' resides in region
// `europe-west1'.
func ZoneInRegion(region, zone string) bool {
	return strings.HasPrefix(zone, region+"-")
}

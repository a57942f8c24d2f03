// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package constants

import "time"

const (
	// ProjectsPrefix is the prefix for project identifiers.
	ProjectsPrefix = "projects/"

	// LocationsPrefix is the prefix for location identifiers.
	LocationsPrefix = "locations/"

	// ServiceAccountsPrefix is the prefix for service account identifiers.
	ServiceAccountsPrefix = "serviceAccounts/"

	// ServiceAccountMemberPrefix is the prefix of IAM member strings, which
	// refer to a service account principal.
	ServiceAccountMemberPrefix = "serviceAccount:"

	// ServiceAccountEmailSuffix is the domain suffix of service account
	// email addresses.
	ServiceAccountEmailSuffix = ".iam.gserviceaccount.com"

	// CloudFunctionsDomain is the domain on which HTTP-triggered Cloud
	// Functions are served.
	CloudFunctionsDomain = "cloudfunctions.net"

	// BucketURLScheme is the URL scheme of Cloud Storage buckets.
	BucketURLScheme = "gs://"
)

// Names of the pipeline resources, which are fixed in the declarations rather
// than derived from the declared inputs.
const (
	// FunctionName is the name of the ingestion Cloud Function invoked by
	// the scheduler. The function itself is deployed by the build
	// pipeline, outside of groundctl.
	FunctionName = "orbital-telemetry-pipeline"

	// TriggerName is the name of the ingestion build trigger.
	TriggerName = "orbital-telemetry-ingestion"

	// SchedulerJobName is the name of the daily scheduler job.
	SchedulerJobName = "orbital-telemetry-daily-run"

	// TopicName is the name of the topic on which the ingestion function
	// publishes pipeline completion events.
	TopicName = "orbital-telemetry-events"

	// ServiceAccountDisplayName is the display name of the pipeline
	// service account.
	ServiceAccountDisplayName = "Orbital telemetry pipeline"
)

// Build trigger settings.
const (
	// TriggerRepoOwner is the owner of the watched source repository.
	TriggerRepoOwner = "orbital-telemetry"

	// TriggerRepoName is the name of the watched source repository.
	TriggerRepoName = "orbital-telemetry-pipeline"

	// TriggerBranchPattern is the anchored branch pattern on which the
	// trigger fires. Only pushes to the default branch match.
	TriggerBranchPattern = "^main$"

	// TriggerIncludedFiles restricts triggering to changes under the
	// ingestion tree.
	TriggerIncludedFiles = "ingestion/**"

	// TriggerBuildConfigPath is the path to the build pipeline definition
	// within the source repository.
	TriggerBuildConfigPath = "ingestion/ingestion.cloudbuild.yaml"
)

// Names of the build trigger substitution variables.
const (
	SubstitutionRegion         = "_REGION"
	SubstitutionProjectID      = "_PROJECT_ID"
	SubstitutionServiceAccount = "_SERVICE_ACCOUNT"
	SubstitutionStagingBucket  = "_STAGING_BUCKET"
)

// Scheduler job settings.
const (
	// SchedulerJobSchedule fires the job once daily.
	SchedulerJobSchedule = "0 6 * * *"

	// SchedulerJobTimeZone is the timezone in which the schedule is
	// evaluated.
	SchedulerJobTimeZone = "Etc/UTC"

	// SchedulerJobRetryCount bounds the number of retries per invocation.
	SchedulerJobRetryCount = 1

	// SchedulerJobAttemptDeadline aborts an invocation attempt when the
	// endpoint has not responded within this duration.
	SchedulerJobAttemptDeadline = 320 * time.Second

	// ContentTypeHeader is the name of the content type HTTP header sent
	// with each scheduler invocation.
	ContentTypeHeader = "Content-Type"

	// ContentTypeJSON is the content type sent with each scheduler
	// invocation.
	ContentTypeJSON = "application/json"
)

// Storage settings.
const (
	// StagingObjectMaxAgeDays is the age in days at which staging objects
	// are deleted. The storage backend evaluates the rule asynchronously,
	// so objects are deleted on or after this day, not exactly at it.
	StagingObjectMaxAgeDays = 2
)

// Roles granted to the pipeline service account.
const (
	RoleStorageObjectAdmin      = "roles/storage.objectAdmin"
	RoleBigQueryDataEditor      = "roles/bigquery.dataEditor"
	RoleBigQueryJobUser         = "roles/bigquery.jobUser"
	RoleLoggingLogWriter        = "roles/logging.logWriter"
	RoleCloudFunctionsDeveloper = "roles/cloudfunctions.developer"
	RoleRunInvoker              = "roles/run.invoker"
	RoleServiceAccountUser      = "roles/iam.serviceAccountUser"
)

// RequiredServices are the APIs which must be enabled before the dependent
// pipeline resources can be created. Teardown never disables them.
var RequiredServices = []string{
	"artifactregistry.googleapis.com",
	"cloudbuild.googleapis.com",
	"cloudfunctions.googleapis.com",
	"cloudscheduler.googleapis.com",
	"eventarc.googleapis.com",
	"pubsub.googleapis.com",
	"run.googleapis.com",
}

// Labels attached to every labelable pipeline resource.
const (
	LabelManagedBy = "managed-by"
	LabelPipeline  = "pipeline"

	LabelManagedByValue = "groundctl"
	LabelPipelineValue  = "orbital-telemetry"
)

// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

// Package catalog materializes the declared resources of the orbital
// telemetry pipeline from the pipeline configuration.
package catalog

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/orbital-telemetry/groundctl/pkg/core/config"
	"github.com/orbital-telemetry/groundctl/pkg/gcp/constants"
	"github.com/orbital-telemetry/groundctl/pkg/gcp/resources"
	gcputils "github.com/orbital-telemetry/groundctl/pkg/gcp/utils"
)

// ErrRequiredInput is an error, which is returned when a required pipeline
// input is missing from the configuration. No input has a default.
var ErrRequiredInput = errors.New("required pipeline input is missing")

// ErrInvalidInput is an error, which is returned when a pipeline input does
// not conform to the syntax the respective service expects.
var ErrInvalidInput = errors.New("invalid pipeline input")

var (
	// Bucket names are 3-63 characters of lowercase letters, digits,
	// dashes, underscores and dots, starting and ending alphanumeric.
	bucketNameRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{1,61}[a-z0-9]$`)

	// Dataset ids allow letters, digits and underscores only.
	datasetIDRegexp = regexp.MustCompile(`^\w{1,1024}$`)

	// Service account ids are 6-30 characters, starting with a letter,
	// ending alphanumeric.
	serviceAccountIDRegexp = regexp.MustCompile(`^[a-z][a-z0-9-]{4,28}[a-z0-9]$`)

	// Regions look like europe-west1, zones like europe-west1-b.
	regionRegexp = regexp.MustCompile(`^[a-z]+-[a-z]+[0-9]+$`)
	zoneRegexp   = regexp.MustCompile(`^[a-z]+-[a-z]+[0-9]+-[a-z]$`)
)

// Validate validates the pipeline inputs. Every input is required and must
// conform to the syntax of the service it names, so that bad declarations
// fail before any API call is made.
func Validate(conf *config.PipelineConfig) error {
	required := []struct {
		name  string
		value string
	}{
		{name: "project", value: conf.Project},
		{name: "region", value: conf.Region},
		{name: "zone", value: conf.Zone},
		{name: "state_bucket", value: conf.StateBucket},
		{name: "staging_bucket", value: conf.StagingBucket},
		{name: "dataset", value: conf.Dataset},
		{name: "service_account", value: conf.ServiceAccount},
	}
	for _, input := range required {
		if input.value == "" {
			return fmt.Errorf("%w: %s", ErrRequiredInput, input.name)
		}
	}

	if !regionRegexp.MatchString(conf.Region) {
		return fmt.Errorf("%w: region %q", ErrInvalidInput, conf.Region)
	}

	if !zoneRegexp.MatchString(conf.Zone) {
		return fmt.Errorf("%w: zone %q", ErrInvalidInput, conf.Zone)
	}

	if !gcputils.ZoneInRegion(conf.Region, conf.Zone) {
		return fmt.Errorf("%w: zone %q is not in region %q", ErrInvalidInput, conf.Zone, conf.Region)
	}

	for _, bucket := range []string{conf.StateBucket, conf.StagingBucket} {
		if !bucketNameRegexp.MatchString(bucket) {
			return fmt.Errorf("%w: bucket name %q", ErrInvalidInput, bucket)
		}
	}

	if conf.StateBucket == conf.StagingBucket {
		return fmt.Errorf("%w: state_bucket and staging_bucket are the same bucket %q", ErrInvalidInput, conf.StateBucket)
	}

	if !datasetIDRegexp.MatchString(conf.Dataset) {
		return fmt.Errorf("%w: dataset %q", ErrInvalidInput, conf.Dataset)
	}

	if !serviceAccountIDRegexp.MatchString(conf.ServiceAccount) {
		return fmt.Errorf("%w: service_account %q", ErrInvalidInput, conf.ServiceAccount)
	}

	return nil
}

// Labels returns the labels attached to every labelable pipeline resource.
func Labels() map[string]string {
	return map[string]string{
		constants.LabelManagedBy: constants.LabelManagedByValue,
		constants.LabelPipeline:  constants.LabelPipelineValue,
	}
}

// New validates the pipeline inputs and materializes the declared resources
// in declaration order. The returned slice contains every resource of the
// pipeline, the dependency edges between them are expressed via
// [resources.Resource.DependsOn].
func New(conf *config.PipelineConfig) ([]resources.Resource, error) {
	if err := Validate(conf); err != nil {
		return nil, err
	}

	labels := Labels()

	services := &resources.Services{
		ProjectID: conf.Project,
		Services:  constants.RequiredServices,
	}

	stateBucket := &resources.Bucket{
		ProjectID:  conf.Project,
		BucketName: conf.StateBucket,
		Location:   conf.Region,
		Versioning: true,
		Labels:     labels,
	}

	stagingBucket := &resources.Bucket{
		ProjectID:        conf.Project,
		BucketName:       conf.StagingBucket,
		Location:         conf.Region,
		ObjectMaxAgeDays: constants.StagingObjectMaxAgeDays,
		Labels:           labels,
	}

	dataset := &resources.Dataset{
		ProjectID: conf.Project,
		DatasetID: conf.Dataset,
		Location:  conf.Region,
		Labels:    labels,
	}

	account := &resources.ServiceAccount{
		ProjectID:   conf.Project,
		AccountID:   conf.ServiceAccount,
		DisplayName: constants.ServiceAccountDisplayName,
	}

	email := account.Email()
	member := gcputils.ServiceAccountMember(email)

	stagingGrant := &resources.BucketIAMMember{
		ProjectID: conf.Project,
		Bucket:    conf.StagingBucket,
		Role:      constants.RoleStorageObjectAdmin,
		Member:    member,
		Dependencies: []string{
			resources.ID(stagingBucket),
			resources.ID(account),
		},
	}

	datasetGrant := &resources.DatasetAccess{
		ProjectID:   conf.Project,
		DatasetID:   conf.Dataset,
		Role:        constants.RoleBigQueryDataEditor,
		UserByEmail: email,
		Dependencies: []string{
			resources.ID(dataset),
			resources.ID(account),
		},
	}

	projectRoles := []string{
		constants.RoleBigQueryJobUser,
		constants.RoleLoggingLogWriter,
		constants.RoleCloudFunctionsDeveloper,
		constants.RoleRunInvoker,
	}
	projectGrants := make([]resources.Resource, 0, len(projectRoles))
	for _, role := range projectRoles {
		projectGrants = append(projectGrants, &resources.ProjectIAMMember{
			ProjectID:    conf.Project,
			Role:         role,
			Member:       member,
			Dependencies: []string{resources.ID(account)},
		})
	}

	selfGrant := &resources.ServiceAccountIAMMember{
		ProjectID:           conf.Project,
		ServiceAccountEmail: email,
		Role:                constants.RoleServiceAccountUser,
		Member:              member,
		Dependencies:        []string{resources.ID(account)},
	}

	topic := &resources.Topic{
		ProjectID:    conf.Project,
		TopicID:      constants.TopicName,
		Labels:       labels,
		Dependencies: []string{resources.ID(services)},
	}

	trigger := &resources.BuildTrigger{
		ProjectID:       conf.Project,
		TriggerName:     constants.TriggerName,
		Description:     "Builds and deploys the orbital telemetry ingestion function on pushes to main",
		RepoOwner:       constants.TriggerRepoOwner,
		RepoName:        constants.TriggerRepoName,
		BranchPattern:   constants.TriggerBranchPattern,
		IncludedFiles:   []string{constants.TriggerIncludedFiles},
		BuildConfigPath: constants.TriggerBuildConfigPath,
		Substitutions: map[string]string{
			constants.SubstitutionRegion:         conf.Region,
			constants.SubstitutionProjectID:      conf.Project,
			constants.SubstitutionServiceAccount: email,
			constants.SubstitutionStagingBucket:  gcputils.BucketURL(conf.StagingBucket),
		},
		Dependencies: []string{
			resources.ID(services),
			resources.ID(account),
			resources.ID(stagingBucket),
		},
	}

	functionURL := gcputils.FunctionURL(conf.Region, conf.Project, constants.FunctionName)
	job := &resources.SchedulerJob{
		ProjectID:   conf.Project,
		Region:      conf.Region,
		JobName:     constants.SchedulerJobName,
		Description: "Daily run of the orbital telemetry ingestion pipeline",
		Schedule:    constants.SchedulerJobSchedule,
		TimeZone:    constants.SchedulerJobTimeZone,
		URI:         functionURL,
		Headers: map[string]string{
			constants.ContentTypeHeader: constants.ContentTypeJSON,
		},
		ServiceAccountEmail: email,
		Audience:            gcputils.OIDCAudience(functionURL),
		RetryCount:          constants.SchedulerJobRetryCount,
		AttemptDeadline:     constants.SchedulerJobAttemptDeadline,
		Dependencies: []string{
			resources.ID(services),
			resources.ID(account),
		},
	}

	items := []resources.Resource{
		services,
		stateBucket,
		stagingBucket,
		dataset,
		account,
		stagingGrant,
		datasetGrant,
	}
	items = append(items, projectGrants...)
	items = append(items,
		selfGrant,
		topic,
		trigger,
		job,
	)

	return items, nil
}

// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

// Package policy verifies the declared pipeline resources against the
// security and shape constraints of the orbital telemetry pipeline.
//
// The checks run at plan time against the materialized declarations, before
// any API call is made. They guard the properties, which must hold no matter
// what the pipeline inputs are, e.g. buckets always deny public access and
// every IAM grant is bound to the single pipeline identity.
package policy

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/orbital-telemetry/groundctl/pkg/core/config"
	"github.com/orbital-telemetry/groundctl/pkg/gcp/constants"
	"github.com/orbital-telemetry/groundctl/pkg/gcp/plan"
	"github.com/orbital-telemetry/groundctl/pkg/gcp/resources"
	gcputils "github.com/orbital-telemetry/groundctl/pkg/gcp/utils"
)

// Result is the outcome of a single policy check.
type Result struct {
	// Name is the name of the check.
	Name string `json:"name"`

	// Passed indicates whether the check passed.
	Passed bool `json:"passed"`

	// Detail describes the failure. Empty for passed checks.
	Detail string `json:"detail,omitempty"`
}

// Check is a single policy check over the declared resources.
type Check struct {
	// Name is the name of the check.
	Name string

	// Run performs the check. A nil error means the check passed.
	Run func(in *Input) error
}

// Input is the declared state a check runs against.
type Input struct {
	// Config are the pipeline inputs.
	Config *config.PipelineConfig

	// Items are the materialized declarations.
	Items []resources.Resource
}

// email returns the email address of the pipeline service account.
func (in *Input) email() string {
	return gcputils.ServiceAccountEmail(in.Config.ServiceAccount, in.Config.Project)
}

// buckets returns the declared buckets indexed by name.
func (in *Input) buckets() map[string]*resources.Bucket {
	buckets := make(map[string]*resources.Bucket)
	for _, item := range in.Items {
		if b, ok := item.(*resources.Bucket); ok {
			buckets[b.BucketName] = b
		}
	}

	return buckets
}

// trigger returns the declared build trigger, or nil.
func (in *Input) trigger() *resources.BuildTrigger {
	for _, item := range in.Items {
		if t, ok := item.(*resources.BuildTrigger); ok {
			return t
		}
	}

	return nil
}

// schedulerJob returns the declared scheduler job, or nil.
func (in *Input) schedulerJob() *resources.SchedulerJob {
	for _, item := range in.Items {
		if j, ok := item.(*resources.SchedulerJob); ok {
			return j
		}
	}

	return nil
}

// Checks returns the policy checks in evaluation order.
func Checks() []Check {
	return []Check{
		{Name: "state-bucket-versioned", Run: checkStateBucket},
		{Name: "staging-bucket-expires-objects", Run: checkStagingBucket},
		{Name: "buckets-deny-public-access", Run: checkBucketsDenyPublicAccess},
		{Name: "dataset-in-region", Run: checkDatasetInRegion},
		{Name: "single-runtime-identity", Run: checkSingleRuntimeIdentity},
		{Name: "grants-bound-to-pipeline-identity", Run: checkGrantsBoundToIdentity},
		{Name: "grant-set-is-exact", Run: checkGrantSet},
		{Name: "required-apis-declared", Run: checkRequiredAPIs},
		{Name: "trigger-watches-main-only", Run: checkTriggerShape},
		{Name: "trigger-substitutions", Run: checkTriggerSubstitutions},
		{Name: "scheduler-runs-daily", Run: checkSchedulerDaily},
		{Name: "scheduler-invocation", Run: checkSchedulerInvocation},
		{Name: "dependency-graph-resolves", Run: checkDependencyGraph},
	}
}

// Run evaluates every policy check against the given declarations and
// returns their results. The boolean result indicates whether all checks
// passed.
func Run(conf *config.PipelineConfig, items []resources.Resource) ([]Result, bool) {
	in := &Input{Config: conf, Items: items}

	ok := true
	results := make([]Result, 0, len(Checks()))
	for _, check := range Checks() {
		result := Result{Name: check.Name, Passed: true}
		if err := check.Run(in); err != nil {
			result.Passed = false
			result.Detail = err.Error()
			ok = false
		}
		results = append(results, result)
	}

	return results, ok
}

func checkStateBucket(in *Input) error {
	bucket, ok := in.buckets()[in.Config.StateBucket]
	if !ok {
		return fmt.Errorf("state bucket %s is not declared", in.Config.StateBucket)
	}

	if !bucket.Versioning {
		return fmt.Errorf("state bucket %s does not declare versioning", bucket.BucketName)
	}

	if bucket.ObjectMaxAgeDays != 0 {
		return fmt.Errorf("state bucket %s must not expire objects", bucket.BucketName)
	}

	return nil
}

func checkStagingBucket(in *Input) error {
	bucket, ok := in.buckets()[in.Config.StagingBucket]
	if !ok {
		return fmt.Errorf("staging bucket %s is not declared", in.Config.StagingBucket)
	}

	if bucket.ObjectMaxAgeDays != constants.StagingObjectMaxAgeDays {
		return fmt.Errorf("staging bucket %s must delete objects at age %d days, declares %d",
			bucket.BucketName, constants.StagingObjectMaxAgeDays, bucket.ObjectMaxAgeDays)
	}

	if bucket.Versioning {
		return fmt.Errorf("staging bucket %s must not version objects", bucket.BucketName)
	}

	return nil
}

func checkBucketsDenyPublicAccess(in *Input) error {
	buckets := in.buckets()
	if len(buckets) != 2 {
		return fmt.Errorf("wanted 2 declared buckets, got %d", len(buckets))
	}

	for name, bucket := range buckets {
		if bucket.Attributes()["public_access_prevention"] != "enforced" {
			return fmt.Errorf("bucket %s does not enforce public access prevention", name)
		}
	}

	return nil
}

func checkDatasetInRegion(in *Input) error {
	for _, item := range in.Items {
		dataset, ok := item.(*resources.Dataset)
		if !ok {
			continue
		}

		if dataset.DatasetID != in.Config.Dataset {
			return fmt.Errorf("dataset %s does not match the declared input %s", dataset.DatasetID, in.Config.Dataset)
		}
		if dataset.Location != in.Config.Region {
			return fmt.Errorf("dataset %s resides in %s instead of %s", dataset.DatasetID, dataset.Location, in.Config.Region)
		}

		return nil
	}

	return fmt.Errorf("dataset %s is not declared", in.Config.Dataset)
}

func checkSingleRuntimeIdentity(in *Input) error {
	var accounts []*resources.ServiceAccount
	for _, item := range in.Items {
		if sa, ok := item.(*resources.ServiceAccount); ok {
			accounts = append(accounts, sa)
		}
	}

	if len(accounts) != 1 {
		return fmt.Errorf("wanted exactly one service account, got %d", len(accounts))
	}

	if accounts[0].AccountID != in.Config.ServiceAccount {
		return fmt.Errorf("service account %s does not match the declared input %s",
			accounts[0].AccountID, in.Config.ServiceAccount)
	}

	return nil
}

func checkGrantsBoundToIdentity(in *Input) error {
	member := gcputils.ServiceAccountMember(in.email())

	for _, item := range in.Items {
		switch grant := item.(type) {
		case *resources.BucketIAMMember:
			if grant.Member != member {
				return fmt.Errorf("grant %s binds %s instead of %s", resources.ID(grant), grant.Member, member)
			}
		case *resources.DatasetAccess:
			if grant.UserByEmail != in.email() {
				return fmt.Errorf("grant %s binds %s instead of %s", resources.ID(grant), grant.UserByEmail, in.email())
			}
		case *resources.ProjectIAMMember:
			if grant.Member != member {
				return fmt.Errorf("grant %s binds %s instead of %s", resources.ID(grant), grant.Member, member)
			}
		case *resources.ServiceAccountIAMMember:
			if grant.Member != member {
				return fmt.Errorf("grant %s binds %s instead of %s", resources.ID(grant), grant.Member, member)
			}
		}
	}

	return nil
}

func checkGrantSet(in *Input) error {
	var got []string
	for _, item := range in.Items {
		switch grant := item.(type) {
		case *resources.BucketIAMMember:
			got = append(got, fmt.Sprintf("bucket/%s:%s", grant.Bucket, grant.Role))
		case *resources.DatasetAccess:
			got = append(got, fmt.Sprintf("dataset/%s:%s", grant.DatasetID, grant.Role))
		case *resources.ProjectIAMMember:
			got = append(got, fmt.Sprintf("project:%s", grant.Role))
		case *resources.ServiceAccountIAMMember:
			got = append(got, fmt.Sprintf("service-account/%s:%s", grant.ServiceAccountEmail, grant.Role))
		}
	}

	wanted := []string{
		fmt.Sprintf("bucket/%s:%s", in.Config.StagingBucket, constants.RoleStorageObjectAdmin),
		fmt.Sprintf("dataset/%s:%s", in.Config.Dataset, constants.RoleBigQueryDataEditor),
		fmt.Sprintf("project:%s", constants.RoleBigQueryJobUser),
		fmt.Sprintf("project:%s", constants.RoleLoggingLogWriter),
		fmt.Sprintf("project:%s", constants.RoleCloudFunctionsDeveloper),
		fmt.Sprintf("project:%s", constants.RoleRunInvoker),
		fmt.Sprintf("service-account/%s:%s", in.email(), constants.RoleServiceAccountUser),
	}

	sort.Strings(got)
	sort.Strings(wanted)
	if !slices.Equal(got, wanted) {
		return fmt.Errorf("declared grants %v do not match the wanted set %v", got, wanted)
	}

	return nil
}

func checkRequiredAPIs(in *Input) error {
	for _, item := range in.Items {
		services, ok := item.(*resources.Services)
		if !ok {
			continue
		}

		got := slices.Clone(services.Services)
		wanted := slices.Clone(constants.RequiredServices)
		sort.Strings(got)
		sort.Strings(wanted)
		if !slices.Equal(got, wanted) {
			return fmt.Errorf("declared services %v do not match the wanted set %v", got, wanted)
		}

		return nil
	}

	return fmt.Errorf("required apis are not declared")
}

func checkTriggerShape(in *Input) error {
	trigger := in.trigger()
	if trigger == nil {
		return fmt.Errorf("build trigger is not declared")
	}

	if trigger.BranchPattern != constants.TriggerBranchPattern {
		return fmt.Errorf("trigger fires on %q instead of %q", trigger.BranchPattern, constants.TriggerBranchPattern)
	}

	if len(trigger.IncludedFiles) != 1 || trigger.IncludedFiles[0] != constants.TriggerIncludedFiles {
		return fmt.Errorf("trigger path filter %v does not match %q", trigger.IncludedFiles, constants.TriggerIncludedFiles)
	}

	if trigger.BuildConfigPath != constants.TriggerBuildConfigPath {
		return fmt.Errorf("trigger build config %q does not match %q", trigger.BuildConfigPath, constants.TriggerBuildConfigPath)
	}

	return nil
}

func checkTriggerSubstitutions(in *Input) error {
	trigger := in.trigger()
	if trigger == nil {
		return fmt.Errorf("build trigger is not declared")
	}

	wanted := map[string]string{
		constants.SubstitutionRegion:         in.Config.Region,
		constants.SubstitutionProjectID:      in.Config.Project,
		constants.SubstitutionServiceAccount: in.email(),
		constants.SubstitutionStagingBucket:  gcputils.BucketURL(in.Config.StagingBucket),
	}

	if len(trigger.Substitutions) != len(wanted) {
		return fmt.Errorf("wanted %d substitutions, got %d", len(wanted), len(trigger.Substitutions))
	}

	for key, value := range wanted {
		if trigger.Substitutions[key] != value {
			return fmt.Errorf("substitution %s is %q instead of %q", key, trigger.Substitutions[key], value)
		}
	}

	return nil
}

func checkSchedulerDaily(in *Input) error {
	job := in.schedulerJob()
	if job == nil {
		return fmt.Errorf("scheduler job is not declared")
	}

	sched, err := cron.ParseStandard(job.Schedule)
	if err != nil {
		return fmt.Errorf("schedule %q does not parse: %w", job.Schedule, err)
	}

	// A daily schedule fires exactly every 24 hours.
	first := sched.Next(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	second := sched.Next(first)
	if second.Sub(first) != 24*time.Hour {
		return fmt.Errorf("schedule %q does not fire daily", job.Schedule)
	}

	if job.TimeZone == "" || job.TimeZone == "Local" {
		return fmt.Errorf("time zone %q is not a named zone", job.TimeZone)
	}
	if _, err := time.LoadLocation(job.TimeZone); err != nil {
		return fmt.Errorf("time zone %q does not resolve: %w", job.TimeZone, err)
	}

	return nil
}

func checkSchedulerInvocation(in *Input) error {
	job := in.schedulerJob()
	if job == nil {
		return fmt.Errorf("scheduler job is not declared")
	}

	wantedURI := gcputils.FunctionURL(in.Config.Region, in.Config.Project, constants.FunctionName)
	if job.URI != wantedURI {
		return fmt.Errorf("job invokes %q instead of %q", job.URI, wantedURI)
	}

	if job.Headers[constants.ContentTypeHeader] != constants.ContentTypeJSON {
		return fmt.Errorf("job does not send %s: %s", constants.ContentTypeHeader, constants.ContentTypeJSON)
	}

	// The audience is the invocation URL with its trailing path segment
	// stripped.
	if wanted := gcputils.OIDCAudience(job.URI); job.Audience != wanted {
		return fmt.Errorf("audience %q does not match %q", job.Audience, wanted)
	}
	if strings.HasSuffix(job.Audience, "/") {
		return fmt.Errorf("audience %q keeps a trailing slash", job.Audience)
	}

	if job.RetryCount != constants.SchedulerJobRetryCount {
		return fmt.Errorf("wanted %d retry, got %d", constants.SchedulerJobRetryCount, job.RetryCount)
	}

	if job.AttemptDeadline != constants.SchedulerJobAttemptDeadline {
		return fmt.Errorf("wanted attempt deadline %s, got %s", constants.SchedulerJobAttemptDeadline, job.AttemptDeadline)
	}

	if job.ServiceAccountEmail != in.email() {
		return fmt.Errorf("job authenticates as %s instead of %s", job.ServiceAccountEmail, in.email())
	}

	return nil
}

func checkDependencyGraph(in *Input) error {
	graph, err := plan.NewGraph(in.Items)
	if err != nil {
		return err
	}

	if _, err := graph.Sort(); err != nil {
		return err
	}

	return nil
}

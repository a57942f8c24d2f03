// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package resources

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/scheduler/apiv1/schedulerpb"
	"github.com/robfig/cron/v3"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/fieldmaskpb"

	gcpclients "github.com/orbital-telemetry/groundctl/pkg/clients/gcp"
	gcputils "github.com/orbital-telemetry/groundctl/pkg/gcp/utils"
	slogutils "github.com/orbital-telemetry/groundctl/pkg/utils/slog"
)

// schedulerJobUpdateMask is the set of job fields, which are converged
// in-place when the live job diverges.
var schedulerJobUpdateMask = []string{
	"schedule",
	"time_zone",
	"http_target",
	"retry_config",
	"attempt_deadline",
}

// SchedulerJob declares the Cloud Scheduler job, which invokes the ingestion
// function once a day over HTTP with an OIDC identity token.
type SchedulerJob struct {
	// ProjectID is the project in which the job resides.
	ProjectID string

	// Region is the region in which the job resides.
	Region string

	// JobName is the short name of the job.
	JobName string

	// Description is the human-readable description of the job.
	Description string

	// Schedule is the cron schedule of the job.
	Schedule string

	// TimeZone is the named time zone, in which the schedule is
	// interpreted, e.g. Etc/UTC.
	TimeZone string

	// URI is the HTTP endpoint, which the job invokes.
	URI string

	// Headers are the HTTP headers sent with each invocation.
	Headers map[string]string

	// ServiceAccountEmail is the service account, which mints the OIDC
	// token for the invocation.
	ServiceAccountEmail string

	// Audience is the audience claim of the OIDC token.
	Audience string

	// RetryCount is the number of retry attempts for a failed invocation.
	RetryCount int32

	// AttemptDeadline is the deadline for a single invocation attempt.
	AttemptDeadline time.Duration

	// Dependencies are the names of the resources, which must be
	// converged before the job.
	Dependencies []string
}

var _ Resource = &SchedulerJob{}

// Kind implements the [Resource] interface.
func (j *SchedulerJob) Kind() string { return KindSchedulerJob }

// Name implements the [Resource] interface.
func (j *SchedulerJob) Name() string { return j.JobName }

// DependsOn implements the [Resource] interface.
func (j *SchedulerJob) DependsOn() []string { return j.Dependencies }

// Attributes implements the [Resource] interface.
func (j *SchedulerJob) Attributes() map[string]string {
	return map[string]string{
		"audience":         j.Audience,
		"attempt_deadline": j.AttemptDeadline.String(),
		"oidc_sa":          j.ServiceAccountEmail,
		"retry_count":      fmt.Sprintf("%d", j.RetryCount),
		"schedule":         j.Schedule,
		"time_zone":        j.TimeZone,
		"uri":              j.URI,
	}
}

// FQN returns the fully qualified name of the job.
func (j *SchedulerJob) FQN() string {
	return gcputils.SchedulerJobFQN(j.ProjectID, j.Region, j.JobName)
}

// NextRun returns the next time the job fires after the given moment,
// according to its schedule and time zone.
func (j *SchedulerJob) NextRun(now time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(j.TimeZone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time zone %q: %w", j.TimeZone, err)
	}

	sched, err := cron.ParseStandard(j.Schedule)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid schedule %q: %w", j.Schedule, err)
	}

	return sched.Next(now.In(loc)), nil
}

// desiredJob returns the declared state of the job.
func (j *SchedulerJob) desiredJob() *schedulerpb.Job {
	headers := make(map[string]string, len(j.Headers))
	for k, v := range j.Headers {
		headers[k] = v
	}

	return &schedulerpb.Job{
		Name:        j.FQN(),
		Description: j.Description,
		Schedule:    j.Schedule,
		TimeZone:    j.TimeZone,
		Target: &schedulerpb.Job_HttpTarget{
			HttpTarget: &schedulerpb.HttpTarget{
				Uri:        j.URI,
				HttpMethod: schedulerpb.HttpMethod_GET,
				Headers:    headers,
				AuthorizationHeader: &schedulerpb.HttpTarget_OidcToken{
					OidcToken: &schedulerpb.OidcToken{
						ServiceAccountEmail: j.ServiceAccountEmail,
						Audience:            j.Audience,
					},
				},
			},
		},
		RetryConfig: &schedulerpb.RetryConfig{
			RetryCount: j.RetryCount,
		},
		AttemptDeadline: durationpb.New(j.AttemptDeadline),
	}
}

// diffJob compares the live job against the desired job and returns the list
// of field changes. Extra live headers are tolerated, the service attaches
// its own headers to each invocation.
func diffJob(live *schedulerpb.Job, want *schedulerpb.Job) []FieldChange {
	var changes []FieldChange

	if live.GetSchedule() != want.GetSchedule() {
		changes = append(changes, FieldChange{
			Path: "schedule",
			Live: live.GetSchedule(),
			Want: want.GetSchedule(),
		})
	}

	if live.GetTimeZone() != want.GetTimeZone() {
		changes = append(changes, FieldChange{
			Path: "time_zone",
			Live: live.GetTimeZone(),
			Want: want.GetTimeZone(),
		})
	}

	liveTarget := live.GetHttpTarget()
	wantTarget := want.GetHttpTarget()

	if liveTarget.GetUri() != wantTarget.GetUri() {
		changes = append(changes, FieldChange{
			Path: "http_target.uri",
			Live: liveTarget.GetUri(),
			Want: wantTarget.GetUri(),
		})
	}

	if liveTarget.GetHttpMethod() != wantTarget.GetHttpMethod() {
		changes = append(changes, FieldChange{
			Path: "http_target.http_method",
			Live: liveTarget.GetHttpMethod().String(),
			Want: wantTarget.GetHttpMethod().String(),
		})
	}

	liveHeaders := liveTarget.GetHeaders()
	for _, key := range sortedKeys(wantTarget.GetHeaders()) {
		if liveHeaders[key] != wantTarget.GetHeaders()[key] {
			changes = append(changes, FieldChange{
				Path: "http_target.headers." + key,
				Live: liveHeaders[key],
				Want: wantTarget.GetHeaders()[key],
			})
		}
	}

	if liveTarget.GetOidcToken().GetServiceAccountEmail() != wantTarget.GetOidcToken().GetServiceAccountEmail() {
		changes = append(changes, FieldChange{
			Path: "http_target.oidc_token.service_account_email",
			Live: liveTarget.GetOidcToken().GetServiceAccountEmail(),
			Want: wantTarget.GetOidcToken().GetServiceAccountEmail(),
		})
	}

	if liveTarget.GetOidcToken().GetAudience() != wantTarget.GetOidcToken().GetAudience() {
		changes = append(changes, FieldChange{
			Path: "http_target.oidc_token.audience",
			Live: liveTarget.GetOidcToken().GetAudience(),
			Want: wantTarget.GetOidcToken().GetAudience(),
		})
	}

	if live.GetRetryConfig().GetRetryCount() != want.GetRetryConfig().GetRetryCount() {
		changes = append(changes, FieldChange{
			Path: "retry_config.retry_count",
			Live: fmt.Sprintf("%d", live.GetRetryConfig().GetRetryCount()),
			Want: fmt.Sprintf("%d", want.GetRetryConfig().GetRetryCount()),
		})
	}

	if live.GetAttemptDeadline().AsDuration() != want.GetAttemptDeadline().AsDuration() {
		changes = append(changes, FieldChange{
			Path: "attempt_deadline",
			Live: live.GetAttemptDeadline().AsDuration().String(),
			Want: want.GetAttemptDeadline().AsDuration().String(),
		})
	}

	if live.GetState() == schedulerpb.Job_PAUSED {
		changes = append(changes, FieldChange{
			Path: "state",
			Live: schedulerpb.Job_PAUSED.String(),
			Want: schedulerpb.Job_ENABLED.String(),
		})
	}

	return changes
}

func (j *SchedulerJob) getLiveJob(ctx context.Context) (*schedulerpb.Job, error) {
	client, err := gcpclients.FromRegistry(gcpclients.SchedulerClientset, j.ProjectID)
	if err != nil {
		return nil, err
	}

	req := &schedulerpb.GetJobRequest{Name: j.FQN()}
	job, err := client.Client.GetJob(ctx, req)
	switch {
	case IsNotFound(err):
		return nil, ErrResourceAbsent
	case err != nil:
		return nil, fmt.Errorf("cannot get scheduler job %s: %w", j.JobName, err)
	}

	return job, nil
}

// Diff implements the [Resource] interface.
func (j *SchedulerJob) Diff(ctx context.Context) (*Diff, error) {
	live, err := j.getLiveJob(ctx)
	switch {
	case err == nil:
		break
	case IsNotFound(err):
		return &Diff{Action: ActionCreate, Changes: created(j.Attributes())}, nil
	default:
		return nil, err
	}

	changes := diffJob(live, j.desiredJob())
	if len(changes) == 0 {
		return &Diff{Action: ActionNone}, nil
	}

	return &Diff{Action: ActionUpdate, Changes: changes}, nil
}

// Apply implements the [Resource] interface.
func (j *SchedulerJob) Apply(ctx context.Context) error {
	logger := slogutils.GetLogger(ctx)
	client, err := gcpclients.FromRegistry(gcpclients.SchedulerClientset, j.ProjectID)
	if err != nil {
		return err
	}

	live, err := j.getLiveJob(ctx)
	switch {
	case err == nil:
		break
	case IsNotFound(err):
		logger.Info("creating scheduler job", "job", j.JobName, "schedule", j.Schedule)
		req := &schedulerpb.CreateJobRequest{
			Parent: gcputils.LocationFQN(j.ProjectID, j.Region),
			Job:    j.desiredJob(),
		}
		if _, err := client.Client.CreateJob(ctx, req); err != nil {
			return fmt.Errorf("cannot create scheduler job %s: %w", j.JobName, err)
		}

		return nil
	default:
		return err
	}

	changes := diffJob(live, j.desiredJob())
	if len(changes) == 0 {
		return nil
	}

	logger.Info("updating scheduler job", "job", j.JobName)
	req := &schedulerpb.UpdateJobRequest{
		Job: j.desiredJob(),
		UpdateMask: &fieldmaskpb.FieldMask{
			Paths: schedulerJobUpdateMask,
		},
	}
	if _, err := client.Client.UpdateJob(ctx, req); err != nil {
		return fmt.Errorf("cannot update scheduler job %s: %w", j.JobName, err)
	}

	if live.GetState() == schedulerpb.Job_PAUSED {
		logger.Info("resuming scheduler job", "job", j.JobName)
		resumeReq := &schedulerpb.ResumeJobRequest{Name: j.FQN()}
		if _, err := client.Client.ResumeJob(ctx, resumeReq); err != nil {
			return fmt.Errorf("cannot resume scheduler job %s: %w", j.JobName, err)
		}
	}

	return nil
}

// Destroy implements the [Resource] interface.
func (j *SchedulerJob) Destroy(ctx context.Context) error {
	logger := slogutils.GetLogger(ctx)
	client, err := gcpclients.FromRegistry(gcpclients.SchedulerClientset, j.ProjectID)
	if err != nil {
		return err
	}

	logger.Info("deleting scheduler job", "job", j.JobName)
	req := &schedulerpb.DeleteJobRequest{Name: j.FQN()}
	err = client.Client.DeleteJob(ctx, req)
	switch {
	case IsNotFound(err):
		return nil
	case err != nil:
		return fmt.Errorf("cannot delete scheduler job %s: %w", j.JobName, err)
	}

	return nil
}

// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package resources

import (
	"context"
	"fmt"
	"slices"

	"cloud.google.com/go/cloudbuild/apiv1/v2/cloudbuildpb"

	gcpclients "github.com/orbital-telemetry/groundctl/pkg/clients/gcp"
	slogutils "github.com/orbital-telemetry/groundctl/pkg/utils/slog"
)

// BuildTrigger declares the Cloud Build trigger, which builds and deploys
// the ingestion function on pushes to the main branch of the pipeline
// repository.
type BuildTrigger struct {
	// ProjectID is the project in which the trigger resides.
	ProjectID string

	// TriggerName is the name of the trigger.
	TriggerName string

	// Description is the human-readable description of the trigger.
	Description string

	// RepoOwner is the owner of the GitHub repository, which the trigger
	// watches.
	RepoOwner string

	// RepoName is the name of the GitHub repository, which the trigger
	// watches.
	RepoName string

	// BranchPattern is the regular expression, which a pushed branch must
	// match for the trigger to fire.
	BranchPattern string

	// IncludedFiles are the path globs, which a push must touch for the
	// trigger to fire.
	IncludedFiles []string

	// BuildConfigPath is the path to the build config file within the
	// repository.
	BuildConfigPath string

	// Substitutions are the user-defined substitutions passed to the
	// build.
	Substitutions map[string]string

	// Dependencies are the names of the resources, which must be
	// converged before the trigger.
	Dependencies []string
}

var _ Resource = &BuildTrigger{}

// Kind implements the [Resource] interface.
func (t *BuildTrigger) Kind() string { return KindBuildTrigger }

// Name implements the [Resource] interface.
func (t *BuildTrigger) Name() string { return t.TriggerName }

// DependsOn implements the [Resource] interface.
func (t *BuildTrigger) DependsOn() []string { return t.Dependencies }

// Attributes implements the [Resource] interface.
func (t *BuildTrigger) Attributes() map[string]string {
	attrs := map[string]string{
		"branch":  t.BranchPattern,
		"config":  t.BuildConfigPath,
		"files":   fmt.Sprintf("%v", t.IncludedFiles),
		"repo":    fmt.Sprintf("%s/%s", t.RepoOwner, t.RepoName),
		"trigger": t.TriggerName,
	}
	for _, key := range sortedKeys(t.Substitutions) {
		attrs["substitutions."+key] = t.Substitutions[key]
	}

	return attrs
}

// desiredTrigger returns the declared state of the trigger.
func (t *BuildTrigger) desiredTrigger() *cloudbuildpb.BuildTrigger {
	return &cloudbuildpb.BuildTrigger{
		Name:        t.TriggerName,
		Description: t.Description,
		Github: &cloudbuildpb.GitHubEventsConfig{
			Owner: t.RepoOwner,
			Name:  t.RepoName,
			Event: &cloudbuildpb.GitHubEventsConfig_Push{
				Push: &cloudbuildpb.PushFilter{
					GitRef: &cloudbuildpb.PushFilter_Branch{
						Branch: t.BranchPattern,
					},
				},
			},
		},
		BuildTemplate: &cloudbuildpb.BuildTrigger_Filename{
			Filename: t.BuildConfigPath,
		},
		IncludedFiles: slices.Clone(t.IncludedFiles),
		Substitutions: t.Substitutions,
	}
}

// diffTrigger compares the live trigger against the desired trigger and
// returns the list of field changes.
func diffTrigger(live *cloudbuildpb.BuildTrigger, want *cloudbuildpb.BuildTrigger) []FieldChange {
	var changes []FieldChange

	if live.GetGithub().GetOwner() != want.GetGithub().GetOwner() ||
		live.GetGithub().GetName() != want.GetGithub().GetName() {
		changes = append(changes, FieldChange{
			Path: "repository",
			Live: fmt.Sprintf("%s/%s", live.GetGithub().GetOwner(), live.GetGithub().GetName()),
			Want: fmt.Sprintf("%s/%s", want.GetGithub().GetOwner(), want.GetGithub().GetName()),
		})
	}

	if live.GetGithub().GetPush().GetBranch() != want.GetGithub().GetPush().GetBranch() {
		changes = append(changes, FieldChange{
			Path: "branch",
			Live: live.GetGithub().GetPush().GetBranch(),
			Want: want.GetGithub().GetPush().GetBranch(),
		})
	}

	if live.GetFilename() != want.GetFilename() {
		changes = append(changes, FieldChange{
			Path: "build_config",
			Live: live.GetFilename(),
			Want: want.GetFilename(),
		})
	}

	if !slices.Equal(live.GetIncludedFiles(), want.GetIncludedFiles()) {
		changes = append(changes, FieldChange{
			Path: "included_files",
			Live: fmt.Sprintf("%v", live.GetIncludedFiles()),
			Want: fmt.Sprintf("%v", want.GetIncludedFiles()),
		})
	}

	if live.GetDisabled() != want.GetDisabled() {
		changes = append(changes, FieldChange{
			Path: "disabled",
			Live: fmt.Sprintf("%t", live.GetDisabled()),
			Want: fmt.Sprintf("%t", want.GetDisabled()),
		})
	}

	liveSubs := live.GetSubstitutions()
	wantSubs := want.GetSubstitutions()
	for _, key := range sortedKeys(wantSubs) {
		if liveSubs[key] != wantSubs[key] {
			changes = append(changes, FieldChange{
				Path: "substitutions." + key,
				Live: liveSubs[key],
				Want: wantSubs[key],
			})
		}
	}
	for _, key := range sortedKeys(liveSubs) {
		if _, ok := wantSubs[key]; !ok {
			changes = append(changes, FieldChange{
				Path: "substitutions." + key,
				Live: liveSubs[key],
				Want: "(removed)",
			})
		}
	}

	return changes
}

func (t *BuildTrigger) getLiveTrigger(ctx context.Context) (*cloudbuildpb.BuildTrigger, error) {
	client, err := gcpclients.FromRegistry(gcpclients.CloudBuildClientset, t.ProjectID)
	if err != nil {
		return nil, err
	}

	// The v1 API accepts the trigger name in place of the trigger id, as
	// long as the name is unique within the project.
	req := &cloudbuildpb.GetBuildTriggerRequest{
		ProjectId: t.ProjectID,
		TriggerId: t.TriggerName,
	}

	trigger, err := client.Client.GetBuildTrigger(ctx, req)
	switch {
	case IsNotFound(err):
		return nil, ErrResourceAbsent
	case err != nil:
		return nil, fmt.Errorf("cannot get build trigger %s: %w", t.TriggerName, err)
	}

	return trigger, nil
}

// Diff implements the [Resource] interface.
func (t *BuildTrigger) Diff(ctx context.Context) (*Diff, error) {
	live, err := t.getLiveTrigger(ctx)
	switch {
	case err == nil:
		break
	case IsNotFound(err):
		return &Diff{Action: ActionCreate, Changes: created(t.Attributes())}, nil
	default:
		return nil, err
	}

	changes := diffTrigger(live, t.desiredTrigger())
	if len(changes) == 0 {
		return &Diff{Action: ActionNone}, nil
	}

	return &Diff{Action: ActionUpdate, Changes: changes}, nil
}

// Apply implements the [Resource] interface.
func (t *BuildTrigger) Apply(ctx context.Context) error {
	logger := slogutils.GetLogger(ctx)
	client, err := gcpclients.FromRegistry(gcpclients.CloudBuildClientset, t.ProjectID)
	if err != nil {
		return err
	}

	live, err := t.getLiveTrigger(ctx)
	switch {
	case err == nil:
		break
	case IsNotFound(err):
		logger.Info("creating build trigger", "trigger", t.TriggerName)
		req := &cloudbuildpb.CreateBuildTriggerRequest{
			ProjectId: t.ProjectID,
			Trigger:   t.desiredTrigger(),
		}
		if _, err := client.Client.CreateBuildTrigger(ctx, req); err != nil {
			return fmt.Errorf("cannot create build trigger %s: %w", t.TriggerName, err)
		}

		return nil
	default:
		return err
	}

	if len(diffTrigger(live, t.desiredTrigger())) == 0 {
		return nil
	}

	logger.Info("updating build trigger", "trigger", t.TriggerName)
	desired := t.desiredTrigger()
	desired.Id = live.GetId()
	req := &cloudbuildpb.UpdateBuildTriggerRequest{
		ProjectId: t.ProjectID,
		TriggerId: live.GetId(),
		Trigger:   desired,
	}
	if _, err := client.Client.UpdateBuildTrigger(ctx, req); err != nil {
		return fmt.Errorf("cannot update build trigger %s: %w", t.TriggerName, err)
	}

	return nil
}

// Destroy implements the [Resource] interface.
func (t *BuildTrigger) Destroy(ctx context.Context) error {
	logger := slogutils.GetLogger(ctx)
	client, err := gcpclients.FromRegistry(gcpclients.CloudBuildClientset, t.ProjectID)
	if err != nil {
		return err
	}

	live, err := t.getLiveTrigger(ctx)
	switch {
	case IsNotFound(err):
		return nil
	case err != nil:
		return err
	}

	logger.Info("deleting build trigger", "trigger", t.TriggerName)
	req := &cloudbuildpb.DeleteBuildTriggerRequest{
		ProjectId: t.ProjectID,
		TriggerId: live.GetId(),
	}
	err = client.Client.DeleteBuildTrigger(ctx, req)
	switch {
	case IsNotFound(err):
		return nil
	case err != nil:
		return fmt.Errorf("cannot delete build trigger %s: %w", t.TriggerName, err)
	}

	return nil
}

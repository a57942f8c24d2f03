// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package resources

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/serviceusage/apiv1/serviceusagepb"

	gcpclients "github.com/orbital-telemetry/groundctl/pkg/clients/gcp"
	gcputils "github.com/orbital-telemetry/groundctl/pkg/gcp/utils"
	slogutils "github.com/orbital-telemetry/groundctl/pkg/utils/slog"
)

// Services declares the set of APIs, which must be enabled on the project
// before any of the other resources can be converged. Enablement is one-way.
// Destroying the pipeline never disables an API, because other workloads in
// the project may depend on it.
type Services struct {
	// ProjectID is the project on which the services are enabled.
	ProjectID string

	// Services are the service ids to enable, e.g. pubsub.googleapis.com.
	Services []string

	// Dependencies are the names of the resources, which must be
	// converged before the services.
	Dependencies []string
}

var _ Resource = &Services{}

// Kind implements the [Resource] interface.
func (s *Services) Kind() string { return KindProjectServices }

// Name implements the [Resource] interface.
func (s *Services) Name() string { return "required-apis" }

// DependsOn implements the [Resource] interface.
func (s *Services) DependsOn() []string { return s.Dependencies }

// Attributes implements the [Resource] interface.
func (s *Services) Attributes() map[string]string {
	return map[string]string{
		"project":  s.ProjectID,
		"services": strings.Join(s.Services, ","),
	}
}

// serviceID extracts the service id from a fully qualified service name,
// e.g. projects/123/services/pubsub.googleapis.com.
func serviceID(name string) string {
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		return name[idx+1:]
	}

	return name
}

// disabledServices returns the service ids from want, which are not enabled
// according to the live services. The result is sorted.
func disabledServices(live []*serviceusagepb.Service, want []string) []string {
	enabled := make(map[string]bool)
	for _, svc := range live {
		if svc.GetState() == serviceusagepb.State_ENABLED {
			enabled[serviceID(svc.GetName())] = true
		}
	}

	var missing []string
	for _, id := range want {
		if !enabled[id] {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)

	return missing
}

func (s *Services) getLiveServices(ctx context.Context) ([]*serviceusagepb.Service, error) {
	client, err := gcpclients.FromRegistry(gcpclients.ServiceUsageClientset, s.ProjectID)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(s.Services))
	for _, id := range s.Services {
		names = append(names, gcputils.ServiceFQN(s.ProjectID, id))
	}

	req := &serviceusagepb.BatchGetServicesRequest{
		Parent: gcputils.ProjectFQN(s.ProjectID),
		Names:  names,
	}

	resp, err := client.Client.BatchGetServices(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("cannot get services of project %s: %w", s.ProjectID, err)
	}

	return resp.GetServices(), nil
}

// Diff implements the [Resource] interface.
func (s *Services) Diff(ctx context.Context) (*Diff, error) {
	live, err := s.getLiveServices(ctx)
	if err != nil {
		return nil, err
	}

	missing := disabledServices(live, s.Services)
	if len(missing) == 0 {
		return &Diff{Action: ActionNone}, nil
	}

	changes := make([]FieldChange, 0, len(missing))
	for _, id := range missing {
		changes = append(changes, FieldChange{Path: id, Live: "disabled", Want: "enabled"})
	}

	return &Diff{Action: ActionUpdate, Changes: changes}, nil
}

// Apply implements the [Resource] interface.
func (s *Services) Apply(ctx context.Context) error {
	logger := slogutils.GetLogger(ctx)
	live, err := s.getLiveServices(ctx)
	if err != nil {
		return err
	}

	missing := disabledServices(live, s.Services)
	if len(missing) == 0 {
		return nil
	}

	logger.Info("enabling services", "project", s.ProjectID, "services", missing)
	client, err := gcpclients.FromRegistry(gcpclients.ServiceUsageClientset, s.ProjectID)
	if err != nil {
		return err
	}

	req := &serviceusagepb.BatchEnableServicesRequest{
		Parent:     gcputils.ProjectFQN(s.ProjectID),
		ServiceIds: missing,
	}

	op, err := client.Client.BatchEnableServices(ctx, req)
	if err != nil {
		return fmt.Errorf("cannot enable services on project %s: %w", s.ProjectID, err)
	}

	if _, err := op.Wait(ctx); err != nil {
		return fmt.Errorf("cannot enable services on project %s: %w", s.ProjectID, err)
	}

	return nil
}

// Destroy implements the [Resource] interface. Services are never disabled,
// so the destroy is a no-op.
func (s *Services) Destroy(ctx context.Context) error {
	logger := slogutils.GetLogger(ctx)
	logger.Info("skipping services, apis are never disabled", "project", s.ProjectID)

	return nil
}

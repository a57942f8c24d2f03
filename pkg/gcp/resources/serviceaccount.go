// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package resources

import (
	"context"
	"fmt"

	iam "google.golang.org/api/iam/v1"

	gcpclients "github.com/orbital-telemetry/groundctl/pkg/clients/gcp"
	gcputils "github.com/orbital-telemetry/groundctl/pkg/gcp/utils"
	slogutils "github.com/orbital-telemetry/groundctl/pkg/utils/slog"
)

// ServiceAccount declares the service account, which represents the runtime
// identity of the pipeline. Every privileged operation the pipeline performs
// runs as this single identity.
type ServiceAccount struct {
	// ProjectID is the project in which the service account resides.
	ProjectID string

	// AccountID is the account id of the service account.
	AccountID string

	// DisplayName is the human-readable name of the service account.
	DisplayName string

	// Dependencies are the names of the resources, which must be
	// converged before the service account.
	Dependencies []string
}

var _ Resource = &ServiceAccount{}

// Kind implements the [Resource] interface.
func (s *ServiceAccount) Kind() string { return KindServiceAccount }

// Name implements the [Resource] interface.
func (s *ServiceAccount) Name() string { return s.AccountID }

// DependsOn implements the [Resource] interface.
func (s *ServiceAccount) DependsOn() []string { return s.Dependencies }

// Email returns the email address of the service account.
func (s *ServiceAccount) Email() string {
	return gcputils.ServiceAccountEmail(s.AccountID, s.ProjectID)
}

// Attributes implements the [Resource] interface.
func (s *ServiceAccount) Attributes() map[string]string {
	return map[string]string{
		"account_id":   s.AccountID,
		"display_name": s.DisplayName,
		"email":        s.Email(),
	}
}

// Diff implements the [Resource] interface.
func (s *ServiceAccount) Diff(ctx context.Context) (*Diff, error) {
	client, err := gcpclients.FromRegistry(gcpclients.IAMClientset, s.ProjectID)
	if err != nil {
		return nil, err
	}

	fqn := gcputils.ServiceAccountFQN(s.ProjectID, s.Email())
	live, err := client.Client.Projects.ServiceAccounts.Get(fqn).Context(ctx).Do()
	switch {
	case IsNotFound(err):
		return &Diff{Action: ActionCreate, Changes: created(s.Attributes())}, nil
	case err != nil:
		return nil, fmt.Errorf("cannot get service account %s: %w", s.Email(), err)
	}

	if live.DisplayName != s.DisplayName {
		return &Diff{
			Action: ActionUpdate,
			Changes: []FieldChange{
				{Path: "display_name", Live: live.DisplayName, Want: s.DisplayName},
			},
		}, nil
	}

	return &Diff{Action: ActionNone}, nil
}

// Apply implements the [Resource] interface.
func (s *ServiceAccount) Apply(ctx context.Context) error {
	logger := slogutils.GetLogger(ctx)
	client, err := gcpclients.FromRegistry(gcpclients.IAMClientset, s.ProjectID)
	if err != nil {
		return err
	}

	fqn := gcputils.ServiceAccountFQN(s.ProjectID, s.Email())
	live, err := client.Client.Projects.ServiceAccounts.Get(fqn).Context(ctx).Do()
	switch {
	case IsNotFound(err):
		logger.Info("creating service account", "account_id", s.AccountID, "email", s.Email())
		req := &iam.CreateServiceAccountRequest{
			AccountId: s.AccountID,
			ServiceAccount: &iam.ServiceAccount{
				DisplayName: s.DisplayName,
			},
		}
		project := gcputils.ProjectFQN(s.ProjectID)
		if _, err := client.Client.Projects.ServiceAccounts.Create(project, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("cannot create service account %s: %w", s.Email(), err)
		}

		return nil
	case err != nil:
		return fmt.Errorf("cannot get service account %s: %w", s.Email(), err)
	}

	if live.DisplayName == s.DisplayName {
		return nil
	}

	logger.Info("updating service account", "email", s.Email())
	req := &iam.PatchServiceAccountRequest{
		ServiceAccount: &iam.ServiceAccount{
			Name:        fqn,
			DisplayName: s.DisplayName,
		},
		UpdateMask: "display_name",
	}
	if _, err := client.Client.Projects.ServiceAccounts.Patch(fqn, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("cannot update service account %s: %w", s.Email(), err)
	}

	return nil
}

// Destroy implements the [Resource] interface.
func (s *ServiceAccount) Destroy(ctx context.Context) error {
	logger := slogutils.GetLogger(ctx)
	client, err := gcpclients.FromRegistry(gcpclients.IAMClientset, s.ProjectID)
	if err != nil {
		return err
	}

	logger.Info("deleting service account", "email", s.Email())
	fqn := gcputils.ServiceAccountFQN(s.ProjectID, s.Email())
	_, err = client.Client.Projects.ServiceAccounts.Delete(fqn).Context(ctx).Do()
	switch {
	case IsNotFound(err):
		return nil
	case err != nil:
		return fmt.Errorf("cannot delete service account %s: %w", s.Email(), err)
	}

	return nil
}

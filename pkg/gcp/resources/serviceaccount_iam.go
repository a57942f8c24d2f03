// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package resources

import (
	"context"
	"fmt"
	"slices"

	iam "google.golang.org/api/iam/v1"

	gcpclients "github.com/orbital-telemetry/groundctl/pkg/clients/gcp"
	gcputils "github.com/orbital-telemetry/groundctl/pkg/gcp/utils"
	slogutils "github.com/orbital-telemetry/groundctl/pkg/utils/slog"
)

// ServiceAccountIAMMember declares a role granted to a member on a service
// account. The grant is additive and leaves any other bindings on the
// service account untouched.
type ServiceAccountIAMMember struct {
	// ProjectID is the project in which the service account resides.
	ProjectID string

	// ServiceAccountEmail is the email of the service account on which the
	// role is granted.
	ServiceAccountEmail string

	// Role is the role to grant, e.g. roles/iam.serviceAccountUser.
	Role string

	// Member is the member to which the role is granted.
	Member string

	// Dependencies are the names of the resources, which must be
	// converged before the binding.
	Dependencies []string
}

var _ Resource = &ServiceAccountIAMMember{}

// Kind implements the [Resource] interface.
func (s *ServiceAccountIAMMember) Kind() string { return KindServiceAccountIAM }

// Name implements the [Resource] interface.
func (s *ServiceAccountIAMMember) Name() string {
	return fmt.Sprintf("%s/%s", s.ServiceAccountEmail, s.Role)
}

// DependsOn implements the [Resource] interface.
func (s *ServiceAccountIAMMember) DependsOn() []string { return s.Dependencies }

// Attributes implements the [Resource] interface.
func (s *ServiceAccountIAMMember) Attributes() map[string]string {
	return map[string]string{
		"member":          s.Member,
		"role":            s.Role,
		"service_account": s.ServiceAccountEmail,
	}
}

// bindingsHaveMember returns true, if the given role is bound to the given
// member in any of the bindings.
func bindingsHaveMember(bindings []*iam.Binding, role string, member string) bool {
	for _, binding := range bindings {
		if binding.Role != role {
			continue
		}
		if slices.Contains(binding.Members, member) {
			return true
		}
	}

	return false
}

// Diff implements the [Resource] interface.
func (s *ServiceAccountIAMMember) Diff(ctx context.Context) (*Diff, error) {
	client, err := gcpclients.FromRegistry(gcpclients.IAMClientset, s.ProjectID)
	if err != nil {
		return nil, err
	}

	fqn := gcputils.ServiceAccountFQN(s.ProjectID, s.ServiceAccountEmail)
	policy, err := client.Client.Projects.ServiceAccounts.GetIamPolicy(fqn).Context(ctx).Do()
	switch {
	case IsNotFound(err):
		// The service account does not exist yet. It is converged
		// before the binding, so the grant is a create.
		return &Diff{Action: ActionCreate, Changes: created(s.Attributes())}, nil
	case err != nil:
		return nil, fmt.Errorf("cannot get iam policy of %s: %w", s.ServiceAccountEmail, err)
	}

	if bindingsHaveMember(policy.Bindings, s.Role, s.Member) {
		return &Diff{Action: ActionNone}, nil
	}

	return &Diff{
		Action: ActionCreate,
		Changes: []FieldChange{
			{Path: "member", Live: "", Want: fmt.Sprintf("%s (%s)", s.Member, s.Role)},
		},
	}, nil
}

// Apply implements the [Resource] interface.
func (s *ServiceAccountIAMMember) Apply(ctx context.Context) error {
	logger := slogutils.GetLogger(ctx)
	client, err := gcpclients.FromRegistry(gcpclients.IAMClientset, s.ProjectID)
	if err != nil {
		return err
	}

	fqn := gcputils.ServiceAccountFQN(s.ProjectID, s.ServiceAccountEmail)
	policy, err := client.Client.Projects.ServiceAccounts.GetIamPolicy(fqn).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("cannot get iam policy of %s: %w", s.ServiceAccountEmail, err)
	}

	if bindingsHaveMember(policy.Bindings, s.Role, s.Member) {
		return nil
	}

	logger.Info("granting role on service account",
		"service_account", s.ServiceAccountEmail,
		"role", s.Role,
		"member", s.Member,
	)

	var binding *iam.Binding
	for _, b := range policy.Bindings {
		if b.Role == s.Role {
			binding = b
			break
		}
	}
	if binding == nil {
		binding = &iam.Binding{Role: s.Role}
		policy.Bindings = append(policy.Bindings, binding)
	}
	binding.Members = append(binding.Members, s.Member)

	req := &iam.SetIamPolicyRequest{Policy: policy}
	if _, err := client.Client.Projects.ServiceAccounts.SetIamPolicy(fqn, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("cannot set iam policy of %s: %w", s.ServiceAccountEmail, err)
	}

	return nil
}

// Destroy implements the [Resource] interface.
func (s *ServiceAccountIAMMember) Destroy(ctx context.Context) error {
	logger := slogutils.GetLogger(ctx)
	client, err := gcpclients.FromRegistry(gcpclients.IAMClientset, s.ProjectID)
	if err != nil {
		return err
	}

	fqn := gcputils.ServiceAccountFQN(s.ProjectID, s.ServiceAccountEmail)
	policy, err := client.Client.Projects.ServiceAccounts.GetIamPolicy(fqn).Context(ctx).Do()
	switch {
	case IsNotFound(err):
		return nil
	case err != nil:
		return fmt.Errorf("cannot get iam policy of %s: %w", s.ServiceAccountEmail, err)
	}

	if !bindingsHaveMember(policy.Bindings, s.Role, s.Member) {
		return nil
	}

	logger.Info("revoking role on service account",
		"service_account", s.ServiceAccountEmail,
		"role", s.Role,
		"member", s.Member,
	)

	bindings := make([]*iam.Binding, 0, len(policy.Bindings))
	for _, binding := range policy.Bindings {
		if binding.Role == s.Role {
			binding.Members = slices.DeleteFunc(binding.Members, func(m string) bool {
				return m == s.Member
			})
		}
		if len(binding.Members) == 0 {
			continue
		}
		bindings = append(bindings, binding)
	}
	policy.Bindings = bindings

	req := &iam.SetIamPolicyRequest{Policy: policy}
	if _, err := client.Client.Projects.ServiceAccounts.SetIamPolicy(fqn, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("cannot set iam policy of %s: %w", s.ServiceAccountEmail, err)
	}

	return nil
}

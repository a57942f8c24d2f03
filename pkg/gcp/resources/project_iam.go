// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package resources

import (
	"context"
	"fmt"
	"slices"

	"cloud.google.com/go/iam/apiv1/iampb"
	"google.golang.org/protobuf/proto"

	gcpclients "github.com/orbital-telemetry/groundctl/pkg/clients/gcp"
	gcputils "github.com/orbital-telemetry/groundctl/pkg/gcp/utils"
	slogutils "github.com/orbital-telemetry/groundctl/pkg/utils/slog"
)

// ProjectIAMMember declares a role granted to a member on the project. The
// grant is additive. Existing bindings on the project, including bindings
// managed outside of groundctl, are never removed or replaced.
type ProjectIAMMember struct {
	// ProjectID is the project on which the role is granted.
	ProjectID string

	// Role is the role to grant, e.g. roles/bigquery.jobUser.
	Role string

	// Member is the member to which the role is granted.
	Member string

	// Dependencies are the names of the resources, which must be
	// converged before the binding.
	Dependencies []string
}

var _ Resource = &ProjectIAMMember{}

// Kind implements the [Resource] interface.
func (p *ProjectIAMMember) Kind() string { return KindProjectIAMMember }

// Name implements the [Resource] interface.
func (p *ProjectIAMMember) Name() string {
	return fmt.Sprintf("project/%s", p.Role)
}

// DependsOn implements the [Resource] interface.
func (p *ProjectIAMMember) DependsOn() []string { return p.Dependencies }

// Attributes implements the [Resource] interface.
func (p *ProjectIAMMember) Attributes() map[string]string {
	return map[string]string{
		"member":  p.Member,
		"project": p.ProjectID,
		"role":    p.Role,
	}
}

// policyHasMember returns true, if the given role is bound to the given
// member in the policy.
func policyHasMember(policy *iampb.Policy, role string, member string) bool {
	for _, binding := range policy.GetBindings() {
		if binding.GetRole() != role {
			continue
		}
		if slices.Contains(binding.GetMembers(), member) {
			return true
		}
	}

	return false
}

func (p *ProjectIAMMember) getPolicy(ctx context.Context) (*iampb.Policy, error) {
	client, err := gcpclients.FromRegistry(gcpclients.ProjectsClientset, p.ProjectID)
	if err != nil {
		return nil, err
	}

	req := &iampb.GetIamPolicyRequest{
		Resource: gcputils.ProjectFQN(p.ProjectID),
	}

	policy, err := client.Client.GetIamPolicy(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("cannot get iam policy of project %s: %w", p.ProjectID, err)
	}

	return policy, nil
}

func (p *ProjectIAMMember) setPolicy(ctx context.Context, policy *iampb.Policy) error {
	client, err := gcpclients.FromRegistry(gcpclients.ProjectsClientset, p.ProjectID)
	if err != nil {
		return err
	}

	req := &iampb.SetIamPolicyRequest{
		Resource: gcputils.ProjectFQN(p.ProjectID),
		Policy:   policy,
	}

	if _, err := client.Client.SetIamPolicy(ctx, req); err != nil {
		return fmt.Errorf("cannot set iam policy of project %s: %w", p.ProjectID, err)
	}

	return nil
}

// Diff implements the [Resource] interface.
func (p *ProjectIAMMember) Diff(ctx context.Context) (*Diff, error) {
	policy, err := p.getPolicy(ctx)
	if err != nil {
		return nil, err
	}

	if policyHasMember(policy, p.Role, p.Member) {
		return &Diff{Action: ActionNone}, nil
	}

	return &Diff{
		Action: ActionCreate,
		Changes: []FieldChange{
			{Path: "member", Live: "", Want: fmt.Sprintf("%s (%s)", p.Member, p.Role)},
		},
	}, nil
}

// Apply implements the [Resource] interface.
func (p *ProjectIAMMember) Apply(ctx context.Context) error {
	logger := slogutils.GetLogger(ctx)
	policy, err := p.getPolicy(ctx)
	if err != nil {
		return err
	}

	if policyHasMember(policy, p.Role, p.Member) {
		return nil
	}

	logger.Info("granting role on project",
		"project", p.ProjectID,
		"role", p.Role,
		"member", p.Member,
	)

	desired := proto.Clone(policy).(*iampb.Policy)
	var binding *iampb.Binding
	for _, b := range desired.GetBindings() {
		if b.GetRole() == p.Role {
			binding = b
			break
		}
	}
	if binding == nil {
		binding = &iampb.Binding{Role: p.Role}
		desired.Bindings = append(desired.Bindings, binding)
	}
	binding.Members = append(binding.Members, p.Member)

	return p.setPolicy(ctx, desired)
}

// Destroy implements the [Resource] interface.
func (p *ProjectIAMMember) Destroy(ctx context.Context) error {
	logger := slogutils.GetLogger(ctx)
	policy, err := p.getPolicy(ctx)
	if err != nil {
		return err
	}

	if !policyHasMember(policy, p.Role, p.Member) {
		return nil
	}

	logger.Info("revoking role on project",
		"project", p.ProjectID,
		"role", p.Role,
		"member", p.Member,
	)

	desired := proto.Clone(policy).(*iampb.Policy)
	bindings := make([]*iampb.Binding, 0, len(desired.GetBindings()))
	for _, binding := range desired.GetBindings() {
		if binding.GetRole() == p.Role {
			binding.Members = slices.DeleteFunc(binding.Members, func(m string) bool {
				return m == p.Member
			})
		}
		if len(binding.GetMembers()) == 0 {
			continue
		}
		bindings = append(bindings, binding)
	}
	desired.Bindings = bindings

	return p.setPolicy(ctx, desired)
}

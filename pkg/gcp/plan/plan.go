// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

// Package plan computes and executes reconciliation plans for the declared
// pipeline resources.
//
// A plan is the ordered list of actions needed to converge the live
// infrastructure towards the declarations. Computing a plan never mutates
// anything, executing one does.
package plan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orbital-telemetry/groundctl/pkg/gcp/resources"
	slogutils "github.com/orbital-telemetry/groundctl/pkg/utils/slog"
)

// ErrRecreateNotAllowed is an error, which is returned when a plan contains a
// recreate step and recreates were not explicitly allowed. Recreating a
// resource destroys it first, together with its data.
var ErrRecreateNotAllowed = errors.New("recreate not allowed")

// Step is a single entry of a plan.
type Step struct {
	// Resource is the declared resource.
	Resource resources.Resource `json:"-"`

	// ID is the kind/name identifier of the resource.
	ID string `json:"id"`

	// Action is the operation needed to converge the resource.
	Action resources.Action `json:"action"`

	// Changes are the diverged attributes.
	Changes []resources.FieldChange `json:"changes,omitempty"`
}

// Summary counts the steps of a plan per action.
type Summary struct {
	Create   int `json:"create"`
	Update   int `json:"update"`
	Recreate int `json:"recreate"`
	Delete   int `json:"delete"`
	Skip     int `json:"skip"`
	InSync   int `json:"in_sync"`
}

// String implements the [fmt.Stringer] interface.
func (s Summary) String() string {
	return fmt.Sprintf("%d to create, %d to update, %d to recreate, %d to delete, %d skipped, %d in sync",
		s.Create, s.Update, s.Recreate, s.Delete, s.Skip, s.InSync)
}

// Plan is the ordered list of actions needed to converge the live
// infrastructure towards the declarations.
type Plan struct {
	// CreatedAt is the time at which the plan was computed.
	CreatedAt time.Time `json:"created_at"`

	// Steps are the plan entries in execution order.
	Steps []Step `json:"steps"`

	// Summary counts the steps per action.
	Summary Summary `json:"summary"`
}

// HasChanges returns a boolean indicating whether executing the plan would
// modify the live infrastructure.
func (p *Plan) HasChanges() bool {
	return p.Summary.Create+p.Summary.Update+p.Summary.Recreate+p.Summary.Delete > 0
}

// summarize recounts the steps per action.
func (p *Plan) summarize() {
	var summary Summary
	for _, step := range p.Steps {
		switch step.Action {
		case resources.ActionCreate:
			summary.Create++
		case resources.ActionUpdate:
			summary.Update++
		case resources.ActionRecreate:
			summary.Recreate++
		case resources.ActionDelete:
			summary.Delete++
		case resources.ActionSkip:
			summary.Skip++
		default:
			summary.InSync++
		}
	}
	p.Summary = summary
}

// Compute diffs the declared resources against the live infrastructure and
// returns the convergence plan. Resources are diffed in dependency order.
func Compute(ctx context.Context, items []resources.Resource) (*Plan, error) {
	graph, err := NewGraph(items)
	if err != nil {
		return nil, err
	}

	sorted, err := graph.Sort()
	if err != nil {
		return nil, err
	}

	p := &Plan{
		CreatedAt: time.Now(),
		Steps:     make([]Step, 0, len(sorted)),
	}

	for _, item := range sorted {
		diff, err := item.Diff(ctx)
		if err != nil {
			return nil, fmt.Errorf("diff %s: %w", resources.ID(item), err)
		}

		p.Steps = append(p.Steps, Step{
			Resource: item,
			ID:       resources.ID(item),
			Action:   diff.Action,
			Changes:  diff.Changes,
		})
	}

	p.summarize()

	return p, nil
}

// ComputeDestroy returns the teardown plan for the declared resources.
// Resources are destroyed in reverse dependency order. API enablements are
// never undone, their steps are marked as skipped. Resources, which are
// already absent produce no step.
func ComputeDestroy(ctx context.Context, items []resources.Resource) (*Plan, error) {
	graph, err := NewGraph(items)
	if err != nil {
		return nil, err
	}

	sorted, err := graph.ReverseSort()
	if err != nil {
		return nil, err
	}

	p := &Plan{
		CreatedAt: time.Now(),
		Steps:     make([]Step, 0, len(sorted)),
	}

	for _, item := range sorted {
		if item.Kind() == resources.KindProjectServices {
			p.Steps = append(p.Steps, Step{
				Resource: item,
				ID:       resources.ID(item),
				Action:   resources.ActionSkip,
			})

			continue
		}

		diff, err := item.Diff(ctx)
		if err != nil {
			return nil, fmt.Errorf("diff %s: %w", resources.ID(item), err)
		}

		action := resources.ActionDelete
		if diff.Action == resources.ActionCreate {
			// The resource does not exist, there is nothing to
			// tear down.
			action = resources.ActionNone
		}

		p.Steps = append(p.Steps, Step{
			Resource: item,
			ID:       resources.ID(item),
			Action:   action,
		})
	}

	p.summarize()

	return p, nil
}

// ApplyOptions configure the execution of a plan.
type ApplyOptions struct {
	// AllowRecreate permits executing recreate steps. A recreate destroys
	// the live resource, including its data, before creating it anew.
	AllowRecreate bool
}

// Execute converges the live infrastructure towards the declarations by
// executing the given plan. Steps run in plan order and execution stops at
// the first failed step.
func Execute(ctx context.Context, p *Plan, opts ApplyOptions) error {
	logger := slogutils.GetLogger(ctx)

	for _, step := range p.Steps {
		switch step.Action {
		case resources.ActionNone:
			continue
		case resources.ActionSkip:
			logger.Info("skipping resource", "resource", step.ID)
			continue
		case resources.ActionCreate, resources.ActionUpdate:
			if err := step.Resource.Apply(ctx); err != nil {
				return fmt.Errorf("apply %s: %w", step.ID, err)
			}
		case resources.ActionRecreate:
			if !opts.AllowRecreate {
				return fmt.Errorf("%w: %s diverged on an immutable attribute", ErrRecreateNotAllowed, step.ID)
			}
			logger.Warn("recreating resource", "resource", step.ID)
			if err := step.Resource.Destroy(ctx); err != nil {
				return fmt.Errorf("destroy %s: %w", step.ID, err)
			}
			if err := step.Resource.Apply(ctx); err != nil {
				return fmt.Errorf("apply %s: %w", step.ID, err)
			}
		case resources.ActionDelete:
			if err := step.Resource.Destroy(ctx); err != nil {
				return fmt.Errorf("destroy %s: %w", step.ID, err)
			}
		}
	}

	return nil
}

// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/orbital-telemetry/groundctl/pkg/gcp/catalog"
	"github.com/orbital-telemetry/groundctl/pkg/gcp/plan"
	"github.com/orbital-telemetry/groundctl/pkg/gcp/state"
	slogutils "github.com/orbital-telemetry/groundctl/pkg/utils/slog"
)

// errApplyCancelled is an error, which is returned when the operator did not
// approve the plan.
var errApplyCancelled = errors.New("apply cancelled")

// NewApplyCommand returns a new command for converging the live
// infrastructure towards the declarations.
func NewApplyCommand() *cli.Command {
	cmd := &cli.Command{
		Name:    "apply",
		Usage:   "converge infrastructure towards the declarations",
		Aliases: []string{"a"},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "auto-approve",
				Usage: "apply without prompting for confirmation",
			},
			&cli.BoolFlag{
				Name:  "allow-recreate",
				Usage: "authorize destroying and recreating resources on immutable drift",
			},
		},
		Before: setupGCPClients,
		Action: func(ctx *cli.Context) error {
			conf := getConfig(ctx)
			logger := slogutils.GetLogger(ctx.Context)

			items, err := catalog.New(&conf.GCP.Pipeline)
			if err != nil {
				return err
			}

			p, err := plan.Compute(ctx.Context, items)
			if err != nil {
				return err
			}

			renderPlan(os.Stdout, p)
			if !p.HasChanges() {
				return nil
			}

			if !ctx.Bool("auto-approve") && !confirm("Do you want to perform these actions?") {
				return errApplyCancelled
			}

			// The state bucket hosts the snapshot and the lock, make
			// sure it exists before touching the backend.
			if err := ensureStateBucket(ctx.Context, conf, items); err != nil {
				return err
			}

			store, err := newStateStore(conf)
			if err != nil {
				return err
			}

			lockInfo := state.NewLockInfo("apply", lockOwner())
			if err := store.Lock(ctx.Context, lockInfo); err != nil {
				return err
			}
			defer func() {
				if err := store.Unlock(ctx.Context); err != nil {
					logger.Error("cannot release state lock", "reason", err)
				}
			}()

			opts := plan.ApplyOptions{
				AllowRecreate: ctx.Bool("allow-recreate"),
			}
			if err := plan.Execute(ctx.Context, p, opts); err != nil {
				return err
			}

			if err := pushSnapshot(ctx.Context, store, items); err != nil {
				return err
			}

			fmt.Printf("\nApply complete: %s\n", p.Summary)

			return nil
		},
	}

	return cmd
}

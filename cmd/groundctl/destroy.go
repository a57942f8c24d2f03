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
)

// errDestroyCancelled is an error, which is returned when the operator did
// not approve the teardown.
var errDestroyCancelled = errors.New("destroy cancelled")

// NewDestroyCommand returns a new command for tearing down the declared
// infrastructure.
func NewDestroyCommand() *cli.Command {
	cmd := &cli.Command{
		Name:  "destroy",
		Usage: "tear down the declared infrastructure",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "auto-approve",
				Usage: "destroy without prompting for confirmation",
			},
		},
		Before: setupGCPClients,
		Action: func(ctx *cli.Context) error {
			conf := getConfig(ctx)
			items, err := catalog.New(&conf.GCP.Pipeline)
			if err != nil {
				return err
			}

			p, err := plan.ComputeDestroy(ctx.Context, items)
			if err != nil {
				return err
			}

			renderPlan(os.Stdout, p)
			if !p.HasChanges() {
				return nil
			}

			if !ctx.Bool("auto-approve") && !confirm("Do you really want to destroy the declared infrastructure?") {
				return errDestroyCancelled
			}

			// No state lock here. The teardown removes the state bucket
			// itself, together with the snapshot and the lock object.
			if err := plan.Execute(ctx.Context, p, plan.ApplyOptions{}); err != nil {
				return err
			}

			fmt.Printf("\nDestroy complete: %s\n", p.Summary)

			return nil
		},
	}

	return cmd
}

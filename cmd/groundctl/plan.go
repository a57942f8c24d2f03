// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/orbital-telemetry/groundctl/pkg/gcp/catalog"
	"github.com/orbital-telemetry/groundctl/pkg/gcp/plan"
)

// NewPlanCommand returns a new command for computing the convergence plan.
func NewPlanCommand() *cli.Command {
	cmd := &cli.Command{
		Name:    "plan",
		Usage:   "compute the convergence plan",
		Aliases: []string{"p"},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "output format to use (table|json)",
				Value: formatTable,
			},
		},
		Before: setupGCPClients,
		Action: func(ctx *cli.Context) error {
			conf := getConfig(ctx)
			items, err := catalog.New(&conf.GCP.Pipeline)
			if err != nil {
				return err
			}

			p, err := plan.Compute(ctx.Context, items)
			if err != nil {
				return err
			}

			switch ctx.String("format") {
			case formatTable:
				renderPlan(os.Stdout, p)
			case formatJSON:
				data, err := json.MarshalIndent(p, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
			default:
				return fmt.Errorf("%w: %s", errUnknownFormat, ctx.String("format"))
			}

			// A plan with pending changes exits with code 2
			if p.HasChanges() {
				return cli.Exit("", 2)
			}

			return nil
		},
	}

	return cmd
}

// renderPlan renders the given plan as a table to the given writer.
func renderPlan(w io.Writer, p *plan.Plan) {
	headers := []string{
		"ACTION",
		"RESOURCE",
		"CHANGES",
	}

	table := newTableWriter(w, headers)
	for _, step := range p.Steps {
		changes := make([]string, 0, len(step.Changes))
		for _, change := range step.Changes {
			changes = append(changes, change.String())
		}

		row := []string{
			string(step.Action),
			step.ID,
			strings.Join(changes, "\n"),
		}
		table.Append(row)
	}
	table.Render()

	fmt.Fprintf(w, "\nPlan: %s\n", p.Summary)
}

// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/orbital-telemetry/groundctl/pkg/gcp/catalog"
	"github.com/orbital-telemetry/groundctl/pkg/gcp/policy"
)

// NewValidateCommand returns a new command for verifying the declarations
// against the pipeline policy.
func NewValidateCommand() *cli.Command {
	cmd := &cli.Command{
		Name:    "validate",
		Usage:   "verify the declarations against the pipeline policy",
		Aliases: []string{"v"},
		Before: func(ctx *cli.Context) error {
			return validatePipelineConfig(getConfig(ctx))
		},
		Action: func(ctx *cli.Context) error {
			conf := getConfig(ctx)
			items, err := catalog.New(&conf.GCP.Pipeline)
			if err != nil {
				return err
			}

			results, ok := policy.Run(&conf.GCP.Pipeline, items)

			headers := []string{
				"CHECK",
				"STATUS",
				"DETAIL",
			}
			table := newTableWriter(os.Stdout, headers)
			for _, result := range results {
				status := "PASS"
				if !result.Passed {
					status = "FAIL"
				}

				row := []string{
					result.Name,
					status,
					result.Detail,
				}
				table.Append(row)
			}
			table.Render()

			if !ok {
				return cli.Exit("policy validation failed", 1)
			}

			return nil
		},
	}

	return cmd
}

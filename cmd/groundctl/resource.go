// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/orbital-telemetry/groundctl/pkg/gcp/catalog"
	"github.com/orbital-telemetry/groundctl/pkg/gcp/resources"
)

// errResourceNotFound is an error, which is returned when the catalog does
// not contain the requested resource.
var errResourceNotFound = errors.New("resource not found")

// errNoResourceName is an error, which is returned when no resource name was
// given on the command-line.
var errNoResourceName = errors.New("no resource name specified")

// NewResourceCommand returns a new command for inspecting the declared
// resources.
func NewResourceCommand() *cli.Command {
	cmd := &cli.Command{
		Name:    "resource",
		Usage:   "declared resource operations",
		Aliases: []string{"r"},
		Before: func(ctx *cli.Context) error {
			return validatePipelineConfig(getConfig(ctx))
		},
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Usage:   "list the declared resources",
				Aliases: []string{"ls"},
				Action: func(ctx *cli.Context) error {
					conf := getConfig(ctx)
					items, err := catalog.New(&conf.GCP.Pipeline)
					if err != nil {
						return err
					}

					headers := []string{
						"KIND",
						"NAME",
						"DEPENDS-ON",
					}
					table := newTableWriter(os.Stdout, headers)
					for _, item := range items {
						dependsOn := na
						if deps := item.DependsOn(); len(deps) > 0 {
							dependsOn = strings.Join(deps, "\n")
						}

						row := []string{
							item.Kind(),
							item.Name(),
							dependsOn,
						}
						table.Append(row)
					}
					table.Render()

					return nil
				},
			},
			{
				Name:      "show",
				Usage:     "show a declared resource",
				ArgsUsage: "NAME",
				Action: func(ctx *cli.Context) error {
					if ctx.NArg() != 1 {
						return errNoResourceName
					}

					conf := getConfig(ctx)
					items, err := catalog.New(&conf.GCP.Pipeline)
					if err != nil {
						return err
					}

					name := ctx.Args().First()
					for _, item := range items {
						if resources.ID(item) != name && item.Name() != name {
							continue
						}

						renderResource(item)

						return nil
					}

					return fmt.Errorf("%w: %s", errResourceNotFound, name)
				},
			},
		},
	}

	return cmd
}

// renderResource renders the declared attributes of the given resource as a
// table.
func renderResource(item resources.Resource) {
	headers := []string{
		"ATTRIBUTE",
		"VALUE",
	}
	table := newTableWriter(os.Stdout, headers)

	dependsOn := na
	if deps := item.DependsOn(); len(deps) > 0 {
		dependsOn = strings.Join(deps, "\n")
	}

	table.Append([]string{"kind", item.Kind()})
	table.Append([]string{"name", item.Name()})
	table.Append([]string{"depends_on", dependsOn})

	attrs := item.Attributes()
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		table.Append([]string{k, attrs[k]})
	}
	table.Render()
}

// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/orbital-telemetry/groundctl/pkg/version"
)

// NewVersionCommand returns a new command for displaying the groundctl
// version.
func NewVersionCommand() *cli.Command {
	cmd := &cli.Command{
		Name:  "version",
		Usage: "print the groundctl version",
		Action: func(_ *cli.Context) error {
			fmt.Println(version.Version)

			return nil
		},
	}

	return cmd
}

// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/orbital-telemetry/groundctl/pkg/core/config"
)

// na is displayed in place of values, which are not available.
const na = "N/A"

// Supported output formats.
const (
	formatTable = "table"
	formatJSON  = "json"
)

// errUnknownFormat is an error, which is returned when an unknown output
// format was requested.
var errUnknownFormat = errors.New("unknown output format")

// configKey is the context key under which the parsed [config.Config] is
// stored by the app.
type configKey struct{}

// getConfig returns the [config.Config] associated with the given CLI
// context. The config is stored in the context by the Before handler of the
// app.
func getConfig(ctx *cli.Context) *config.Config {
	return ctx.Context.Value(configKey{}).(*config.Config)
}

// newTableWriter creates a new [tablewriter.Table] with the given headers,
// which renders to the given writer.
func newTableWriter(w io.Writer, headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.Header(headers)

	return table
}

// confirm prompts on stdin for approval of the given action and returns true
// only when the exact answer `yes' was given.
func confirm(prompt string) bool {
	fmt.Printf("%s\nOnly `yes' will be accepted to approve: ", prompt)

	var answer string
	if _, err := fmt.Scanln(&answer); err != nil {
		return false
	}

	return answer == "yes"
}

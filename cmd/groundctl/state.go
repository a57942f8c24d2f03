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
	"time"

	"github.com/urfave/cli/v2"

	"github.com/orbital-telemetry/groundctl/pkg/gcp/state"
	slogutils "github.com/orbital-telemetry/groundctl/pkg/utils/slog"
)

// errLockIDMismatch is an error, which is returned when force-releasing the
// state lock with an id, which does not match the current holder.
var errLockIDMismatch = errors.New("lock id mismatch")

// NewStateCommand returns a new command for interfacing with the state
// snapshot and the state lock.
func NewStateCommand() *cli.Command {
	cmd := &cli.Command{
		Name:   "state",
		Usage:  "state snapshot operations",
		Before: setupStateClients,
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "show the state snapshot",
				Action: func(ctx *cli.Context) error {
					conf := getConfig(ctx)
					store, err := newStateStore(conf)
					if err != nil {
						return err
					}

					snapshot, err := store.Pull(ctx.Context)
					if err != nil {
						return err
					}

					lock := na
					holder, err := store.LockInfo(ctx.Context)
					switch {
					case err == nil:
						lock = fmt.Sprintf("held by %s for %s (id %s)", holder.Who, holder.Operation, holder.ID)
					case errors.Is(err, state.ErrNotLocked):
						lock = "unlocked"
					default:
						return err
					}

					fmt.Printf("Version:    %d\n", snapshot.Version)
					fmt.Printf("Serial:     %d\n", snapshot.Serial)
					fmt.Printf("Lineage:    %s\n", snapshot.Lineage)
					fmt.Printf("Updated at: %s\n", snapshot.UpdatedAt.Format(time.RFC3339))
					fmt.Printf("Lock:       %s\n\n", lock)

					headers := []string{
						"KIND",
						"NAME",
						"ATTRIBUTES",
					}
					table := newTableWriter(os.Stdout, headers)
					for _, record := range snapshot.Resources {
						attrs := na
						if len(record.Attributes) > 0 {
							keys := make([]string, 0, len(record.Attributes))
							for k := range record.Attributes {
								keys = append(keys, k)
							}
							sort.Strings(keys)

							pairs := make([]string, 0, len(keys))
							for _, k := range keys {
								pairs = append(pairs, fmt.Sprintf("%s=%s", k, record.Attributes[k]))
							}
							attrs = strings.Join(pairs, "\n")
						}

						row := []string{
							record.Kind,
							record.Name,
							attrs,
						}
						table.Append(row)
					}
					table.Render()

					return nil
				},
			},
			{
				Name:  "pull",
				Usage: "print the raw state snapshot",
				Action: func(ctx *cli.Context) error {
					conf := getConfig(ctx)
					store, err := newStateStore(conf)
					if err != nil {
						return err
					}

					snapshot, err := store.Pull(ctx.Context)
					if err != nil {
						return err
					}

					data, err := snapshot.Encode()
					if err != nil {
						return err
					}

					_, err = os.Stdout.Write(data)

					return err
				},
			},
			{
				Name:  "unlock",
				Usage: "force-release the state lock",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "id of the lock to release",
						Required: true,
					},
				},
				Action: func(ctx *cli.Context) error {
					conf := getConfig(ctx)
					store, err := newStateStore(conf)
					if err != nil {
						return err
					}

					holder, err := store.LockInfo(ctx.Context)
					if err != nil {
						return err
					}

					if holder.ID != ctx.String("id") {
						return fmt.Errorf("%w: lock is held with id %s", errLockIDMismatch, holder.ID)
					}

					if err := store.Unlock(ctx.Context); err != nil {
						return err
					}

					logger := slogutils.GetLogger(ctx.Context)
					logger.Info(
						"released state lock",
						"id", holder.ID,
						"who", holder.Who,
						"operation", holder.Operation,
					)

					return nil
				},
			},
		},
	}

	return cmd
}

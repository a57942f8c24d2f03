// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/orbital-telemetry/groundctl/pkg/gcp/catalog"
	"github.com/orbital-telemetry/groundctl/pkg/gcp/plan"
	"github.com/orbital-telemetry/groundctl/pkg/gcp/resources"
	"github.com/orbital-telemetry/groundctl/pkg/metrics"
	slogutils "github.com/orbital-telemetry/groundctl/pkg/utils/slog"
)

// Defaults for watch mode.
const (
	defaultDriftInterval = 5 * time.Minute
	defaultDriftAddress  = ":6080"
	defaultDriftPath     = "/metrics"
)

// NewDriftCommand returns a new command for detecting drift between the
// declarations and the live infrastructure.
func NewDriftCommand() *cli.Command {
	cmd := &cli.Command{
		Name:  "drift",
		Usage: "detect drift from the declarations",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "keep checking for drift on an interval and expose metrics",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "interval between drift checks in watch mode",
				Value: defaultDriftInterval,
			},
			&cli.StringFlag{
				Name:  "address",
				Usage: "address on which the metrics endpoint listens",
				Value: defaultDriftAddress,
			},
		},
		Before: setupGCPClients,
		Action: func(ctx *cli.Context) error {
			conf := getConfig(ctx)
			items, err := catalog.New(&conf.GCP.Pipeline)
			if err != nil {
				return err
			}

			if ctx.Bool("watch") {
				return watchDrift(ctx, items)
			}

			p, err := plan.Compute(ctx.Context, items)
			if err != nil {
				return err
			}

			if !p.HasChanges() {
				fmt.Println("No drift detected.")

				return nil
			}

			renderDrift(os.Stdout, p)

			return cli.Exit("", 2)
		},
	}

	return cmd
}

// renderDrift renders the diverged resources of the given plan as a table.
func renderDrift(w io.Writer, p *plan.Plan) {
	headers := []string{
		"ACTION",
		"RESOURCE",
		"CHANGES",
	}

	table := newTableWriter(w, headers)
	for _, step := range p.Steps {
		if step.Action == resources.ActionNone || step.Action == resources.ActionSkip {
			continue
		}

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

	fmt.Fprintf(w, "\nDrift: %s\n", p.Summary)
}

// watchDrift periodically recomputes the drift plan and exposes the results
// as metrics.
func watchDrift(ctx *cli.Context, items []resources.Resource) error {
	conf := getConfig(ctx)
	logger := slogutils.GetLogger(ctx.Context)

	address := ctx.String("address")
	if conf.Metrics.Address != "" && !ctx.IsSet("address") {
		address = conf.Metrics.Address
	}

	path := conf.Metrics.Path
	if path == "" {
		path = defaultDriftPath
	}

	interval := ctx.Duration("interval")
	if conf.Metrics.Interval != "" && !ctx.IsSet("interval") {
		parsed, err := time.ParseDuration(conf.Metrics.Interval)
		if err != nil {
			return fmt.Errorf("invalid metrics interval: %w", err)
		}
		interval = parsed
	}

	srv := metrics.NewServer(address, path)
	go func() {
		logger.Info("starting metrics server", "address", address, "path", path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "reason", err)
		}
	}()

	// First check runs immediately, the rest on the interval.
	if err := observeDrift(ctx.Context, items); err != nil {
		logger.Error("drift check failed", "reason", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Context.Done():
			return ctx.Context.Err()
		case <-ticker.C:
			if err := observeDrift(ctx.Context, items); err != nil {
				logger.Error("drift check failed", "reason", err)
			}
		}
	}
}

// observeDrift recomputes the drift plan and records the outcome as metrics.
func observeDrift(ctx context.Context, items []resources.Resource) error {
	logger := slogutils.GetLogger(ctx)
	started := time.Now()

	p, err := plan.Compute(ctx, items)
	if err != nil {
		metrics.DriftChecksTotal.WithLabelValues("error").Inc()

		return err
	}
	metrics.DriftChecksTotal.WithLabelValues("ok").Inc()

	for _, step := range p.Steps {
		if step.Action == resources.ActionNone || step.Action == resources.ActionSkip {
			continue
		}

		metric := prometheus.MustNewConstMetric(
			metrics.ResourceDrift,
			prometheus.GaugeValue,
			1.0,
			step.Resource.Kind(),
			step.Resource.Name(),
			string(step.Action),
		)
		key := metrics.Key("drift", step.ID)
		metrics.DefaultCollector.AddMetric(key, metric)
	}

	drifted := p.Summary.Create + p.Summary.Update + p.Summary.Recreate + p.Summary.Delete
	duration := time.Since(started)

	metrics.DefaultCollector.AddMetric(
		metrics.Key("drift", "resources"),
		prometheus.MustNewConstMetric(metrics.DriftedResources, prometheus.GaugeValue, float64(drifted)),
	)
	metrics.DefaultCollector.AddMetric(
		metrics.Key("drift", "duration"),
		prometheus.MustNewConstMetric(metrics.DriftCheckDuration, prometheus.GaugeValue, duration.Seconds()),
	)
	metrics.DefaultCollector.AddMetric(
		metrics.Key("drift", "last_check"),
		prometheus.MustNewConstMetric(metrics.DriftLastCheckTimestamp, prometheus.GaugeValue, float64(time.Now().Unix())),
	)

	logger.Info(
		"drift check completed",
		"drifted", drifted,
		"duration", duration.String(),
	)

	return nil
}

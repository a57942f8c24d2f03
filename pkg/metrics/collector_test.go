// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func collect(c *Collector) []prometheus.Metric {
	ch := make(chan prometheus.Metric, 16)
	c.Collect(ch)
	close(ch)

	items := make([]prometheus.Metric, 0, len(ch))
	for metric := range ch {
		items = append(items, metric)
	}

	return items
}

func TestCollectorOverwritesSameKey(t *testing.T) {
	c := NewCollector()
	c.AddDesc(ResourceDrift)

	key := Key("drift", "storage_bucket", "orbital-state")
	c.AddMetric(key, prometheus.MustNewConstMetric(
		ResourceDrift, prometheus.GaugeValue, 0, "storage_bucket", "orbital-state", "none",
	))
	c.AddMetric(key, prometheus.MustNewConstMetric(
		ResourceDrift, prometheus.GaugeValue, 1, "storage_bucket", "orbital-state", "update",
	))

	items := collect(c)
	if len(items) != 1 {
		t.Fatalf("wanted 1 metric got %d", len(items))
	}
}

func TestCollectorDrainsOnScrape(t *testing.T) {
	c := NewCollector()
	c.AddDesc(ResourceDrift)

	c.AddMetric(Key("drift", "pubsub_topic", "orbital-telemetry-events"), prometheus.MustNewConstMetric(
		ResourceDrift, prometheus.GaugeValue, 1, "pubsub_topic", "orbital-telemetry-events", "create",
	))

	if items := collect(c); len(items) != 1 {
		t.Fatalf("wanted 1 metric got %d", len(items))
	}

	// A removed resource must not linger after the scrape.
	if items := collect(c); len(items) != 0 {
		t.Fatalf("wanted no metrics got %d", len(items))
	}
}

func TestKey(t *testing.T) {
	wanted := "drift/storage_bucket/orbital-state"
	if got := Key("drift", "storage_bucket", "orbital-state"); got != wanted {
		t.Fatalf("wanted %s got %s", wanted, got)
	}
}

// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/orbital-telemetry/groundctl/pkg/gcp/resources"
)

func TestSnapshotRecord(t *testing.T) {
	snapshot := NewSnapshot()
	if snapshot.Lineage == "" {
		t.Fatal("wanted a lineage to be assigned")
	}
	if snapshot.Serial != 0 {
		t.Fatalf("wanted serial 0 got %d", snapshot.Serial)
	}

	items := []resources.Resource{
		&resources.Topic{TopicID: "orbital-telemetry-events"},
		&resources.Bucket{BucketName: "orbital-state", Location: "europe-west1", Versioning: true},
	}

	snapshot.Record(items)
	if snapshot.Serial != 1 {
		t.Fatalf("wanted serial 1 got %d", snapshot.Serial)
	}
	if snapshot.UpdatedAt.IsZero() {
		t.Fatal("wanted updated_at to be set")
	}

	// Records are sorted by identifier.
	wanted := []string{"pubsub_topic/orbital-telemetry-events", "storage_bucket/orbital-state"}
	got := make([]string, 0, len(snapshot.Resources))
	for _, record := range snapshot.Resources {
		got = append(got, record.ID)
	}
	if diff := cmp.Diff(wanted, got); diff != "" {
		t.Fatalf("unexpected record order: %s", diff)
	}

	lineage := snapshot.Lineage
	snapshot.Record(items)
	if snapshot.Serial != 2 {
		t.Fatalf("wanted serial 2 got %d", snapshot.Serial)
	}
	if snapshot.Lineage != lineage {
		t.Fatal("lineage must not change across records")
	}
}

func TestSnapshotEncodeDecode(t *testing.T) {
	snapshot := NewSnapshot()
	snapshot.Record([]resources.Resource{
		&resources.Bucket{BucketName: "orbital-state", Location: "europe-west1", Versioning: true},
	})

	data, err := snapshot.Encode()
	if err != nil {
		t.Fatal(err)
	}

	decoded, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatal(err)
	}

	if decoded.Lineage != snapshot.Lineage {
		t.Fatalf("wanted lineage %s got %s", snapshot.Lineage, decoded.Lineage)
	}
	if decoded.Serial != snapshot.Serial {
		t.Fatalf("wanted serial %d got %d", snapshot.Serial, decoded.Serial)
	}
	if len(decoded.Resources) != 1 {
		t.Fatalf("wanted 1 record got %d", len(decoded.Resources))
	}
}

func TestDecodeSnapshotUnsupportedVersion(t *testing.T) {
	_, err := DecodeSnapshot([]byte(`{"version": 42}`))
	if !errors.Is(err, ErrUnsupportedSnapshot) {
		t.Fatalf("wanted %v got %v", ErrUnsupportedSnapshot, err)
	}
}

func TestDecodeSnapshotGarbage(t *testing.T) {
	if _, err := DecodeSnapshot([]byte("not json")); err == nil {
		t.Fatal("expected error for malformed snapshot")
	}
}

func TestNewLockInfo(t *testing.T) {
	info := NewLockInfo("apply", "ops@mission-control")
	if info.ID == "" {
		t.Fatal("wanted a lock id")
	}
	if info.Operation != "apply" {
		t.Fatalf("wanted operation apply got %s", info.Operation)
	}
	if info.Who != "ops@mission-control" {
		t.Fatalf("wanted holder ops@mission-control got %s", info.Who)
	}
	if info.CreatedAt.IsZero() {
		t.Fatal("wanted created_at to be set")
	}
}

// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

// Package state persists snapshots of the converged pipeline resources in the
// state bucket.
//
// A snapshot records what the last successful apply converged, so that
// operators can inspect what is managed without touching the live
// infrastructure. Concurrent mutations are fenced with an advisory lock
// object, which is created with a generation precondition.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/orbital-telemetry/groundctl/pkg/gcp/resources"
)

// SnapshotVersion is the current version of the snapshot format.
const SnapshotVersion = 1

// ErrNoSnapshot is an error, which is returned when the state bucket holds no
// snapshot yet.
var ErrNoSnapshot = errors.New("no state snapshot")

// ErrUnsupportedSnapshot is an error, which is returned when the persisted
// snapshot was written by an incompatible version.
var ErrUnsupportedSnapshot = errors.New("unsupported snapshot version")

// ErrLocked is an error, which is returned when the state is locked by
// another operation.
var ErrLocked = errors.New("state is locked")

// ErrNotLocked is an error, which is returned when unlocking a state, which
// is not locked.
var ErrNotLocked = errors.New("state is not locked")

// ResourceRecord is the persisted record of a single converged resource.
type ResourceRecord struct {
	// ID is the kind/name identifier of the resource.
	ID string `json:"id"`

	// Kind is the kind of the resource.
	Kind string `json:"kind"`

	// Name is the name of the resource.
	Name string `json:"name"`

	// Attributes are the declared attributes at the time of the apply.
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Snapshot is the persisted state of the pipeline after a successful apply.
type Snapshot struct {
	// Version is the snapshot format version.
	Version int `json:"version"`

	// Serial increments with every persisted snapshot.
	Serial uint64 `json:"serial"`

	// Lineage identifies the lifetime of the state, it is assigned once
	// when the first snapshot is taken and never changes afterwards.
	Lineage string `json:"lineage"`

	// UpdatedAt is the time at which the snapshot was taken.
	UpdatedAt time.Time `json:"updated_at"`

	// Resources are the converged resources in lexicographic identifier
	// order.
	Resources []ResourceRecord `json:"resources"`
}

// NewSnapshot creates a new empty snapshot with a fresh lineage.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Version: SnapshotVersion,
		Lineage: uuid.NewString(),
	}
}

// Record replaces the recorded resources with the given declarations and
// bumps the serial. Records are sorted by identifier, so that consecutive
// snapshots diff cleanly.
func (s *Snapshot) Record(items []resources.Resource) {
	records := make([]ResourceRecord, 0, len(items))
	for _, item := range items {
		records = append(records, ResourceRecord{
			ID:         resources.ID(item),
			Kind:       item.Kind(),
			Name:       item.Name(),
			Attributes: item.Attributes(),
		})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})

	s.Version = SnapshotVersion
	s.Serial++
	s.UpdatedAt = time.Now().UTC()
	s.Resources = records
}

// Encode renders the snapshot as indented JSON.
func (s *Snapshot) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}

	return append(data, '\n'), nil
}

// DecodeSnapshot parses a persisted snapshot and validates its version.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("cannot decode snapshot: %w", err)
	}

	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSnapshot, snapshot.Version)
	}

	return &snapshot, nil
}

// LockInfo describes the holder of the state lock.
type LockInfo struct {
	// ID uniquely identifies the lock acquisition.
	ID string `json:"id"`

	// Operation is the operation holding the lock, e.g. apply.
	Operation string `json:"operation"`

	// Who identifies the principal holding the lock as user@host.
	Who string `json:"who"`

	// CreatedAt is the time at which the lock was acquired.
	CreatedAt time.Time `json:"created_at"`
}

// NewLockInfo creates the lock info for the given operation on behalf of the
// given principal.
func NewLockInfo(operation string, who string) *LockInfo {
	return &LockInfo{
		ID:        uuid.NewString(),
		Operation: operation,
		Who:       who,
		CreatedAt: time.Now().UTC(),
	}
}

// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"github.com/orbital-telemetry/groundctl/pkg/gcp/resources"
)

// Objects under which the state and its lock live within the state bucket.
const (
	snapshotObject = "groundctl/state.json"
	lockObject     = "groundctl/state.lock"
)

// Store persists snapshots in the state bucket.
type Store struct {
	bucket     *storage.BucketHandle
	bucketName string
}

// NewStore creates a new store on top of the given state bucket.
func NewStore(client *storage.Client, bucket string) *Store {
	return &Store{
		bucket:     client.Bucket(bucket),
		bucketName: bucket,
	}
}

// Pull reads the persisted snapshot from the state bucket.
func (s *Store) Pull(ctx context.Context) (*Snapshot, error) {
	r, err := s.bucket.Object(snapshotObject).NewReader(ctx)
	switch {
	case resources.IsNotFound(err):
		return nil, ErrNoSnapshot
	case err != nil:
		return nil, fmt.Errorf("cannot read snapshot from gs://%s/%s: %w", s.bucketName, snapshotObject, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("cannot read snapshot from gs://%s/%s: %w", s.bucketName, snapshotObject, err)
	}

	return DecodeSnapshot(data)
}

// Push persists the given snapshot in the state bucket.
func (s *Store) Push(ctx context.Context, snapshot *Snapshot) error {
	data, err := snapshot.Encode()
	if err != nil {
		return err
	}

	w := s.bucket.Object(snapshotObject).NewWriter(ctx)
	w.ContentType = "application/json"
	w.CacheControl = "no-store"
	if _, err := w.Write(data); err != nil {
		w.Close()

		return fmt.Errorf("cannot write snapshot to gs://%s/%s: %w", s.bucketName, snapshotObject, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("cannot write snapshot to gs://%s/%s: %w", s.bucketName, snapshotObject, err)
	}

	return nil
}

// isPreconditionFailed returns a boolean indicating whether the given error
// represents a failed generation precondition.
func isPreconditionFailed(err error) bool {
	var apiErr *googleapi.Error

	return errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed
}

// Lock acquires the advisory state lock by creating the lock object with a
// does-not-exist precondition. When the lock is already held, the returned
// error wraps [ErrLocked] and names the holder.
func (s *Store) Lock(ctx context.Context, info *LockInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}

	w := s.bucket.Object(lockObject).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		w.Close()

		return fmt.Errorf("cannot acquire state lock: %w", err)
	}

	err = w.Close()
	switch {
	case err == nil:
		return nil
	case isPreconditionFailed(err):
		holder, infoErr := s.LockInfo(ctx)
		if infoErr != nil {
			return fmt.Errorf("%w: holder unknown", ErrLocked)
		}

		return fmt.Errorf("%w: held by %s for %s since %s (id %s)",
			ErrLocked, holder.Who, holder.Operation, holder.CreatedAt.Format("2006-01-02 15:04:05 MST"), holder.ID)
	default:
		return fmt.Errorf("cannot acquire state lock: %w", err)
	}
}

// Unlock releases the advisory state lock.
func (s *Store) Unlock(ctx context.Context) error {
	err := s.bucket.Object(lockObject).Delete(ctx)
	switch {
	case resources.IsNotFound(err):
		return ErrNotLocked
	case err != nil:
		return fmt.Errorf("cannot release state lock: %w", err)
	}

	return nil
}

// LockInfo reads the holder of the state lock. It returns [ErrNotLocked]
// when the lock is not held.
func (s *Store) LockInfo(ctx context.Context) (*LockInfo, error) {
	r, err := s.bucket.Object(lockObject).NewReader(ctx)
	switch {
	case resources.IsNotFound(err):
		return nil, ErrNotLocked
	case err != nil:
		return nil, fmt.Errorf("cannot read state lock: %w", err)
	}
	defer r.Close()

	var info LockInfo
	if err := json.NewDecoder(r).Decode(&info); err != nil {
		return nil, fmt.Errorf("cannot decode state lock: %w", err)
	}

	return &info, nil
}

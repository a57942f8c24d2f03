// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package resources

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"

	gcpclients "github.com/orbital-telemetry/groundctl/pkg/clients/gcp"
	slogutils "github.com/orbital-telemetry/groundctl/pkg/utils/slog"
)

// Topic declares the Pub/Sub topic, on which the ingestion function publishes
// lifecycle events about each pipeline run.
type Topic struct {
	// ProjectID is the project in which the topic resides.
	ProjectID string

	// TopicID is the id of the topic.
	TopicID string

	// Labels are the labels attached to the topic.
	Labels map[string]string

	// Dependencies are the names of the resources, which must be
	// converged before the topic.
	Dependencies []string
}

var _ Resource = &Topic{}

// Kind implements the [Resource] interface.
func (t *Topic) Kind() string { return KindTopic }

// Name implements the [Resource] interface.
func (t *Topic) Name() string { return t.TopicID }

// DependsOn implements the [Resource] interface.
func (t *Topic) DependsOn() []string { return t.Dependencies }

// Attributes implements the [Resource] interface.
func (t *Topic) Attributes() map[string]string {
	attrs := map[string]string{
		"topic": t.TopicID,
	}
	for _, key := range sortedKeys(t.Labels) {
		attrs["labels."+key] = t.Labels[key]
	}

	return attrs
}

// Diff implements the [Resource] interface.
func (t *Topic) Diff(ctx context.Context) (*Diff, error) {
	client, err := gcpclients.FromRegistry(gcpclients.PubSubClientset, t.ProjectID)
	if err != nil {
		return nil, err
	}

	topic := client.Client.Topic(t.TopicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot check topic %s: %w", t.TopicID, err)
	}

	if !exists {
		return &Diff{Action: ActionCreate, Changes: created(t.Attributes())}, nil
	}

	cfg, err := topic.Config(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot get config of topic %s: %w", t.TopicID, err)
	}

	changes := labelsDiff(cfg.Labels, t.Labels)
	if len(changes) == 0 {
		return &Diff{Action: ActionNone}, nil
	}

	return &Diff{Action: ActionUpdate, Changes: changes}, nil
}

// Apply implements the [Resource] interface.
func (t *Topic) Apply(ctx context.Context) error {
	logger := slogutils.GetLogger(ctx)
	client, err := gcpclients.FromRegistry(gcpclients.PubSubClientset, t.ProjectID)
	if err != nil {
		return err
	}

	topic := client.Client.Topic(t.TopicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return fmt.Errorf("cannot check topic %s: %w", t.TopicID, err)
	}

	if !exists {
		logger.Info("creating topic", "topic", t.TopicID)
		cfg := &pubsub.TopicConfig{Labels: t.Labels}
		if _, err := client.Client.CreateTopicWithConfig(ctx, t.TopicID, cfg); err != nil {
			return fmt.Errorf("cannot create topic %s: %w", t.TopicID, err)
		}

		return nil
	}

	cfg, err := topic.Config(ctx)
	if err != nil {
		return fmt.Errorf("cannot get config of topic %s: %w", t.TopicID, err)
	}

	if len(labelsDiff(cfg.Labels, t.Labels)) == 0 {
		return nil
	}

	logger.Info("updating topic", "topic", t.TopicID)
	update := pubsub.TopicConfigToUpdate{
		Labels: mergeLabels(cfg.Labels, t.Labels),
	}
	if _, err := topic.Update(ctx, update); err != nil {
		return fmt.Errorf("cannot update topic %s: %w", t.TopicID, err)
	}

	return nil
}

// Destroy implements the [Resource] interface.
func (t *Topic) Destroy(ctx context.Context) error {
	logger := slogutils.GetLogger(ctx)
	client, err := gcpclients.FromRegistry(gcpclients.PubSubClientset, t.ProjectID)
	if err != nil {
		return err
	}

	logger.Info("deleting topic", "topic", t.TopicID)
	err = client.Client.Topic(t.TopicID).Delete(ctx)
	switch {
	case IsNotFound(err):
		return nil
	case err != nil:
		return fmt.Errorf("cannot delete topic %s: %w", t.TopicID, err)
	}

	return nil
}

// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"cloud.google.com/go/auth/credentials"
	cloudbuild "cloud.google.com/go/cloudbuild/apiv1/v2"
	"cloud.google.com/go/pubsub"
	resourcemanager "cloud.google.com/go/resourcemanager/apiv3"
	scheduler "cloud.google.com/go/scheduler/apiv1"
	serviceusage "cloud.google.com/go/serviceusage/apiv1"
	"cloud.google.com/go/storage"
	"github.com/urfave/cli/v2"
	bigquery "google.golang.org/api/bigquery/v2"
	iam "google.golang.org/api/iam/v1"
	"google.golang.org/api/option"

	gcpclients "github.com/orbital-telemetry/groundctl/pkg/clients/gcp"
	"github.com/orbital-telemetry/groundctl/pkg/core/config"
	"github.com/orbital-telemetry/groundctl/pkg/gcp/catalog"
	"github.com/orbital-telemetry/groundctl/pkg/gcp/resources"
	"github.com/orbital-telemetry/groundctl/pkg/gcp/state"
	slogutils "github.com/orbital-telemetry/groundctl/pkg/utils/slog"
	"github.com/orbital-telemetry/groundctl/pkg/version"
)

// errNoCredentials is an error, which is returned when no named credentials
// were specified for the GCP API clients.
var errNoCredentials = errors.New("no named credentials specified")

// errUnknownNamedCredentials is an error, which is returned when the GCP API
// clients refer to named credentials, which are not defined.
var errUnknownNamedCredentials = errors.New("unknown named credentials")

// errNoGCPAuthenticationMethod is an error, which is returned when using an
// unknown/unsupported GCP authentication method.
var errNoGCPAuthenticationMethod = errors.New("no GCP authentication method specified")

// errUnknownGCPAuthenticationMethod is an error, which is returned when using
// an unknown/unsupported GCP authentication method/strategy.
var errUnknownGCPAuthenticationMethod = errors.New("unknown GCP authentication method specified")

// errNoGCPKeyFile is an error, which is returned when no path to a service
// account JSON Key File was specified for a named credential.
var errNoGCPKeyFile = errors.New("no service account JSON key file specified")

// validateGCPConfig validates the GCP configuration settings.
func validateGCPConfig(conf *config.Config) error {
	if conf.GCP.UserAgent == "" {
		conf.GCP.UserAgent = fmt.Sprintf("groundctl/%s", version.Version)
	}

	// We expect named credentials to be specified explicitly
	if conf.GCP.UseCredentials == "" {
		return fmt.Errorf("gcp: %w", errNoCredentials)
	}

	creds, ok := conf.GCP.Credentials[conf.GCP.UseCredentials]
	if !ok {
		return fmt.Errorf("gcp: %w: %s", errUnknownNamedCredentials, conf.GCP.UseCredentials)
	}

	// Validate the named credentials for using valid authentication
	// methods/strategies.
	supportedAuthnMethods := []string{
		config.GCPAuthenticationMethodNone,
		config.GCPAuthenticationMethodKeyFile,
		config.GCPAuthenticationMethodVault,
	}

	if creds.Authentication == "" {
		return fmt.Errorf("gcp: %w: credentials %s", errNoGCPAuthenticationMethod, conf.GCP.UseCredentials)
	}

	if !slices.Contains(supportedAuthnMethods, creds.Authentication) {
		return fmt.Errorf("gcp: %w: %s uses %s", errUnknownGCPAuthenticationMethod, conf.GCP.UseCredentials, creds.Authentication)
	}

	switch creds.Authentication {
	case config.GCPAuthenticationMethodKeyFile:
		if creds.KeyFile.Path == "" {
			return fmt.Errorf("gcp: %w: credentials %s", errNoGCPKeyFile, conf.GCP.UseCredentials)
		}
	case config.GCPAuthenticationMethodVault:
		if err := validateVaultSecretConfig(conf, &creds); err != nil {
			return err
		}
	}

	return nil
}

// validatePipelineConfig validates the declared pipeline inputs.
func validatePipelineConfig(conf *config.Config) error {
	return catalog.Validate(&conf.GCP.Pipeline)
}

// getGCPClientOptions returns the slice of [option.ClientOption], which are
// derived from the configured named credentials settings.
func getGCPClientOptions(ctx context.Context, conf *config.Config) ([]option.ClientOption, error) {
	name := conf.GCP.UseCredentials
	creds, ok := conf.GCP.Credentials[name]
	if !ok {
		return nil, fmt.Errorf("gcp: %w: %s", errUnknownNamedCredentials, name)
	}

	// Default set of options
	opts := []option.ClientOption{
		option.WithUserAgent(conf.GCP.UserAgent),
	}

	switch creds.Authentication {
	case config.GCPAuthenticationMethodNone:
		// Application Default Credentials. Detect them upfront, so that
		// a missing ADC setup surfaces here instead of on the first API
		// call.
		detected, err := credentials.DetectDefault(&credentials.DetectOptions{
			Scopes: []string{"https://www.googleapis.com/auth/cloud-platform"},
		})
		if err != nil {
			return nil, fmt.Errorf("gcp: cannot detect default credentials: %w", err)
		}
		opts = append(opts, option.WithAuthCredentials(detected))
	case config.GCPAuthenticationMethodKeyFile:
		// JSON Key file authentication
		if creds.KeyFile.Path == "" {
			return nil, fmt.Errorf("gcp: %w: credentials %s", errNoGCPKeyFile, name)
		}
		opts = append(opts, option.WithCredentialsFile(creds.KeyFile.Path))
	case config.GCPAuthenticationMethodVault:
		// Service account JSON key read from a Vault secret
		key, err := readVaultCredentials(ctx, &creds)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithCredentialsJSON(key))
	default:
		return nil, fmt.Errorf("gcp: %w: %s uses %s", errUnknownGCPAuthenticationMethod, name, creds.Authentication)
	}

	return opts, nil
}

// configureGCPStorageClientsets configures the GCP Storage API clientsets.
func configureGCPStorageClientsets(ctx context.Context, conf *config.Config, opts []option.ClientOption) error {
	project := conf.GCP.Pipeline.Project
	c, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("gcp: cannot create client for %s: %w", conf.GCP.UseCredentials, err)
	}

	client := &gcpclients.Client[*storage.Client]{
		NamedCredentials: conf.GCP.UseCredentials,
		ProjectID:        project,
		Client:           c,
	}
	gcpclients.StorageClientset.Overwrite(project, client)
	slog.Info(
		"configured GCP client",
		"service", "storage",
		"credentials", client.NamedCredentials,
		"project", project,
	)

	return nil
}

// configureGCPBigQueryClientsets configures the GCP BigQuery API clientsets.
func configureGCPBigQueryClientsets(ctx context.Context, conf *config.Config, opts []option.ClientOption) error {
	project := conf.GCP.Pipeline.Project
	c, err := bigquery.NewService(ctx, opts...)
	if err != nil {
		return fmt.Errorf("gcp: cannot create client for %s: %w", conf.GCP.UseCredentials, err)
	}

	client := &gcpclients.Client[*bigquery.Service]{
		NamedCredentials: conf.GCP.UseCredentials,
		ProjectID:        project,
		Client:           c,
	}
	gcpclients.BigQueryClientset.Overwrite(project, client)
	slog.Info(
		"configured GCP client",
		"service", "bigquery",
		"credentials", client.NamedCredentials,
		"project", project,
	)

	return nil
}

// configureGCPIAMClientsets configures the GCP IAM API clientsets.
func configureGCPIAMClientsets(ctx context.Context, conf *config.Config, opts []option.ClientOption) error {
	project := conf.GCP.Pipeline.Project
	c, err := iam.NewService(ctx, opts...)
	if err != nil {
		return fmt.Errorf("gcp: cannot create client for %s: %w", conf.GCP.UseCredentials, err)
	}

	client := &gcpclients.Client[*iam.Service]{
		NamedCredentials: conf.GCP.UseCredentials,
		ProjectID:        project,
		Client:           c,
	}
	gcpclients.IAMClientset.Overwrite(project, client)
	slog.Info(
		"configured GCP client",
		"service", "iam",
		"credentials", client.NamedCredentials,
		"project", project,
	)

	return nil
}

// configureGCPResourceManagerClientsets configures the GCP Resource Manager
// API clientsets.
func configureGCPResourceManagerClientsets(ctx context.Context, conf *config.Config, opts []option.ClientOption) error {
	project := conf.GCP.Pipeline.Project
	c, err := resourcemanager.NewProjectsRESTClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("gcp: cannot create client for %s: %w", conf.GCP.UseCredentials, err)
	}

	client := &gcpclients.Client[*resourcemanager.ProjectsClient]{
		NamedCredentials: conf.GCP.UseCredentials,
		ProjectID:        project,
		Client:           c,
	}
	gcpclients.ProjectsClientset.Overwrite(project, client)
	slog.Info(
		"configured GCP client",
		"service", "resource_manager",
		"sub_service", "projects",
		"credentials", client.NamedCredentials,
		"project", project,
	)

	return nil
}

// configureGCPServiceUsageClientsets configures the GCP Service Usage API
// clientsets.
func configureGCPServiceUsageClientsets(ctx context.Context, conf *config.Config, opts []option.ClientOption) error {
	project := conf.GCP.Pipeline.Project
	c, err := serviceusage.NewClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("gcp: cannot create client for %s: %w", conf.GCP.UseCredentials, err)
	}

	client := &gcpclients.Client[*serviceusage.Client]{
		NamedCredentials: conf.GCP.UseCredentials,
		ProjectID:        project,
		Client:           c,
	}
	gcpclients.ServiceUsageClientset.Overwrite(project, client)
	slog.Info(
		"configured GCP client",
		"service", "service_usage",
		"credentials", client.NamedCredentials,
		"project", project,
	)

	return nil
}

// configureGCPCloudBuildClientsets configures the GCP Cloud Build API
// clientsets.
func configureGCPCloudBuildClientsets(ctx context.Context, conf *config.Config, opts []option.ClientOption) error {
	project := conf.GCP.Pipeline.Project
	c, err := cloudbuild.NewClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("gcp: cannot create client for %s: %w", conf.GCP.UseCredentials, err)
	}

	client := &gcpclients.Client[*cloudbuild.Client]{
		NamedCredentials: conf.GCP.UseCredentials,
		ProjectID:        project,
		Client:           c,
	}
	gcpclients.CloudBuildClientset.Overwrite(project, client)
	slog.Info(
		"configured GCP client",
		"service", "cloud_build",
		"credentials", client.NamedCredentials,
		"project", project,
	)

	return nil
}

// configureGCPSchedulerClientsets configures the GCP Cloud Scheduler API
// clientsets.
func configureGCPSchedulerClientsets(ctx context.Context, conf *config.Config, opts []option.ClientOption) error {
	project := conf.GCP.Pipeline.Project
	c, err := scheduler.NewCloudSchedulerClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("gcp: cannot create client for %s: %w", conf.GCP.UseCredentials, err)
	}

	client := &gcpclients.Client[*scheduler.CloudSchedulerClient]{
		NamedCredentials: conf.GCP.UseCredentials,
		ProjectID:        project,
		Client:           c,
	}
	gcpclients.SchedulerClientset.Overwrite(project, client)
	slog.Info(
		"configured GCP client",
		"service", "cloud_scheduler",
		"credentials", client.NamedCredentials,
		"project", project,
	)

	return nil
}

// configureGCPPubSubClientsets configures the GCP Pub/Sub API clientsets.
func configureGCPPubSubClientsets(ctx context.Context, conf *config.Config, opts []option.ClientOption) error {
	project := conf.GCP.Pipeline.Project
	c, err := pubsub.NewClient(ctx, project, opts...)
	if err != nil {
		return fmt.Errorf("gcp: cannot create client for %s: %w", conf.GCP.UseCredentials, err)
	}

	client := &gcpclients.Client[*pubsub.Client]{
		NamedCredentials: conf.GCP.UseCredentials,
		ProjectID:        project,
		Client:           c,
	}
	gcpclients.PubSubClientset.Overwrite(project, client)
	slog.Info(
		"configured GCP client",
		"service", "pubsub",
		"credentials", client.NamedCredentials,
		"project", project,
	)

	return nil
}

// configureGCPClients creates the GCP API clients from the specified
// configuration.
func configureGCPClients(ctx context.Context, conf *config.Config) error {
	slog.Info("configuring GCP clients")
	opts, err := getGCPClientOptions(ctx, conf)
	if err != nil {
		return err
	}

	configFuncs := map[string]func(ctx context.Context, conf *config.Config, opts []option.ClientOption) error{
		"storage":          configureGCPStorageClientsets,
		"bigquery":         configureGCPBigQueryClientsets,
		"iam":              configureGCPIAMClientsets,
		"resource_manager": configureGCPResourceManagerClientsets,
		"service_usage":    configureGCPServiceUsageClientsets,
		"cloud_build":      configureGCPCloudBuildClientsets,
		"cloud_scheduler":  configureGCPSchedulerClientsets,
		"pubsub":           configureGCPPubSubClientsets,
	}

	for svc, configFunc := range configFuncs {
		if err := configFunc(ctx, conf, opts); err != nil {
			return fmt.Errorf("unable to configure GCP clients for %s: %w", svc, err)
		}
	}

	return nil
}

// setupGCPClients validates the configuration and configures the API clients
// for all GCP services used by the reconciler. It is meant to be used as a
// Before handler of commands, which talk to the GCP APIs.
func setupGCPClients(ctx *cli.Context) error {
	conf := getConfig(ctx)
	validatorFuncs := []func(c *config.Config) error{
		validateGCPConfig,
		validatePipelineConfig,
	}

	for _, validator := range validatorFuncs {
		if err := validator(conf); err != nil {
			return err
		}
	}

	if err := configureVaultClients(ctx.Context, conf); err != nil {
		return err
	}

	return configureGCPClients(ctx.Context, conf)
}

// setupStateClients validates the configuration and configures the Storage
// API clients only, which is all the state backend needs.
func setupStateClients(ctx *cli.Context) error {
	conf := getConfig(ctx)
	validatorFuncs := []func(c *config.Config) error{
		validateGCPConfig,
		validatePipelineConfig,
	}

	for _, validator := range validatorFuncs {
		if err := validator(conf); err != nil {
			return err
		}
	}

	if err := configureVaultClients(ctx.Context, conf); err != nil {
		return err
	}

	opts, err := getGCPClientOptions(ctx.Context, conf)
	if err != nil {
		return err
	}

	return configureGCPStorageClientsets(ctx.Context, conf, opts)
}

// newStateStore returns a [state.Store] backed by the state bucket of the
// pipeline.
func newStateStore(conf *config.Config) (*state.Store, error) {
	client, err := gcpclients.FromRegistry(gcpclients.StorageClientset, conf.GCP.Pipeline.Project)
	if err != nil {
		return nil, err
	}

	return state.NewStore(client.Client, conf.GCP.Pipeline.StateBucket), nil
}

// ensureStateBucket makes sure that the bucket hosting the state snapshot and
// lock exists before the state backend is used. The bucket is part of the
// declarations themselves, so on first use it is converged here, ahead of the
// rest of the plan.
func ensureStateBucket(ctx context.Context, conf *config.Config, items []resources.Resource) error {
	for _, item := range items {
		if item.Kind() != resources.KindBucket || item.Name() != conf.GCP.Pipeline.StateBucket {
			continue
		}

		diff, err := item.Diff(ctx)
		if err != nil {
			return err
		}

		if diff.Action == resources.ActionCreate {
			return item.Apply(ctx)
		}

		return nil
	}

	return nil
}

// pushSnapshot records the converged resources in a new state snapshot
// revision and uploads it to the state bucket.
func pushSnapshot(ctx context.Context, store *state.Store, items []resources.Resource) error {
	snapshot, err := store.Pull(ctx)
	switch {
	case errors.Is(err, state.ErrNoSnapshot):
		snapshot = state.NewSnapshot()
	case err != nil:
		return err
	}

	snapshot.Record(items)
	if err := store.Push(ctx, snapshot); err != nil {
		return err
	}

	slogutils.GetLogger(ctx).Info(
		"pushed state snapshot",
		"serial", snapshot.Serial,
		"lineage", snapshot.Lineage,
	)

	return nil
}

// lockOwner returns the identity recorded as the holder of the state lock.
func lockOwner() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	if user := os.Getenv("USER"); user != "" {
		return user + "@" + hostname
	}

	return hostname
}

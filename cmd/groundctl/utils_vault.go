// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	vaultclients "github.com/orbital-telemetry/groundctl/pkg/clients/vault"
	"github.com/orbital-telemetry/groundctl/pkg/core/config"
	apiclient "github.com/orbital-telemetry/groundctl/pkg/vault/client"
)

// errNoVaultServer is an error, which is returned when named credentials use
// the `vault' authentication method without naming a Vault server.
var errNoVaultServer = errors.New("no vault server specified")

// errUnknownVaultServer is an error, which is returned when named credentials
// refer to a Vault server, which is not defined.
var errUnknownVaultServer = errors.New("unknown vault server specified")

// errNoVaultSecret is an error, which is returned when named credentials use
// the `vault' authentication method without fully specifying the secret
// holding the service account key.
var errNoVaultSecret = errors.New("no vault secret specified")

// validateVaultSecretConfig validates the Vault secret settings of the given
// named credentials.
func validateVaultSecretConfig(conf *config.Config, creds *config.GCPCredentialsConfig) error {
	name := conf.GCP.UseCredentials
	if creds.Vault.Server == "" {
		return fmt.Errorf("vault: %w: credentials %s", errNoVaultServer, name)
	}

	if _, ok := conf.Vault.Servers[creds.Vault.Server]; !ok {
		return fmt.Errorf("vault: %w: credentials %s refer to %s", errUnknownVaultServer, name, creds.Vault.Server)
	}

	if creds.Vault.MountPath == "" || creds.Vault.SecretPath == "" || creds.Vault.SecretField == "" {
		return fmt.Errorf("vault: %w: credentials %s", errNoVaultSecret, name)
	}

	return nil
}

// configureVaultClients creates the Vault API clients from the specified
// configuration. Clients are only created when the named credentials in use
// read the service account key from Vault.
func configureVaultClients(_ context.Context, conf *config.Config) error {
	creds, ok := conf.GCP.Credentials[conf.GCP.UseCredentials]
	if !ok || creds.Authentication != config.GCPAuthenticationMethodVault {
		return nil
	}

	slog.Info("configuring vault clients")
	for name, serverConfig := range conf.Vault.Servers {
		c, err := apiclient.NewFromConfig(&serverConfig)
		if err != nil {
			return fmt.Errorf("vault: cannot configure client for %s: %w", name, err)
		}

		vaultclients.Clientset.Overwrite(name, c)
		slog.Info(
			"configured vault client",
			"name", name,
			"address", c.Address(),
		)
	}

	return nil
}

// readVaultCredentials reads the service account JSON key from the Vault
// secret referenced by the given named credentials.
func readVaultCredentials(ctx context.Context, creds *config.GCPCredentialsConfig) ([]byte, error) {
	client, ok := vaultclients.Clientset.Get(creds.Vault.Server)
	if !ok {
		return nil, fmt.Errorf("vault: %w: %s", errUnknownVaultServer, creds.Vault.Server)
	}

	return client.ReadKVSecretField(ctx, creds.Vault.MountPath, creds.Vault.SecretPath, creds.Vault.SecretField)
}

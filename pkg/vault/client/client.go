// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"fmt"

	vault "github.com/hashicorp/vault/api"

	"github.com/orbital-telemetry/groundctl/pkg/core/config"
)

// ErrSecretFieldNotFound is an error, which is returned when a secret does not
// contain the requested field.
var ErrSecretFieldNotFound = errors.New("secret field not found")

// ErrSecretFieldNotString is an error, which is returned when a secret field
// does not contain a string value.
var ErrSecretFieldNotString = errors.New("secret field is not a string")

// Option is a function which configures the [Client].
type Option func(c *Client) error

// Client is a wrapper around [vault.Client], which reads secrets used as a
// source of GCP credentials.
type Client struct {
	*vault.Client
}

// NewFromConfig creates a new [Client] for the Vault server described by the
// given [config.VaultServerConfig]. The client authenticates with the token
// from the environment, e.g. via the VAULT_TOKEN environment variable.
func NewFromConfig(conf *config.VaultServerConfig) (*Client, error) {
	vaultConfig := vault.DefaultConfig()
	if conf.Endpoint != "" {
		vaultConfig.Address = conf.Endpoint
	}

	return New(vaultConfig, WithNamespace(conf.Namespace))
}

// New creates a new [Client] from the given config and options.
func New(config *vault.Config, opts ...Option) (*Client, error) {
	vaultClient, err := vault.NewClient(config)
	if err != nil {
		return nil, err
	}

	c := &Client{
		Client: vaultClient,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// WithNamespace is an [Option], which configures the [Client] to use the given
// Vault namespace.
func WithNamespace(namespace string) Option {
	opt := func(c *Client) error {
		if namespace != "" {
			c.SetNamespace(namespace)
		}

		return nil
	}

	return opt
}

// WithToken is an [Option], which configures the [Client] to authenticate with
// the given token. An empty token keeps whatever the environment provided,
// e.g. via the VAULT_TOKEN environment variable.
func WithToken(token string) Option {
	opt := func(c *Client) error {
		if token != "" {
			c.SetToken(token)
		}

		return nil
	}

	return opt
}

// ReadKVSecretField reads the given field from the KV-v2 secret at the
// specified mount path and secret path.
func (c *Client) ReadKVSecretField(ctx context.Context, mountPath, secretPath, field string) ([]byte, error) {
	secret, err := c.KVv2(mountPath).Get(ctx, secretPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read secret %s/%s: %w", mountPath, secretPath, err)
	}

	value, ok := secret.Data[field]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s field %s", ErrSecretFieldNotFound, mountPath, secretPath, field)
	}

	data, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s field %s", ErrSecretFieldNotString, mountPath, secretPath, field)
	}

	return []byte(data), nil
}

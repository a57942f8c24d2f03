// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrNoConfigVersion error is returned when the configuration does not specify
// config format version.
var ErrNoConfigVersion = errors.New("config format version not specified")

// ErrUnsupportedVersion is an error, which is returned when the config file
// uses an incompatible version format.
var ErrUnsupportedVersion = errors.New("unsupported config format version")

// ConfigFormatVersion represents the supported config format version.
const ConfigFormatVersion = "v1alpha1"

// Supported GCP authentication methods/strategies for named credentials.
const (
	// GCPAuthenticationMethodNone relies on Application Default Credentials
	// being present in the environment.
	GCPAuthenticationMethodNone = "none"

	// GCPAuthenticationMethodKeyFile authenticates using a service account
	// JSON key file from the local filesystem.
	GCPAuthenticationMethodKeyFile = "key_file"

	// GCPAuthenticationMethodVault authenticates using a service account
	// JSON key read from a Vault KV-v2 secret.
	GCPAuthenticationMethodVault = "vault"
)

// Config represents the groundctl configuration.
type Config struct {
	// Version is the version of the config file.
	Version string `yaml:"version"`

	// Debug configures debug mode, if set to true.
	Debug bool `yaml:"debug"`

	// Logging provides the logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// GCP provides the GCP configuration.
	GCP GCPConfig `yaml:"gcp"`

	// Vault provides the configuration of Vault servers, which are used
	// as a source of GCP credentials.
	Vault VaultConfig `yaml:"vault"`

	// Metrics provides the drift metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig provides the logging configuration settings.
type LoggingConfig struct {
	// Level specifies the log level. Valid values are `info', `warn',
	// `error' and `debug'.
	Level string `yaml:"level"`

	// Format specifies the format of log events. Valid values are `text'
	// and `json'.
	Format string `yaml:"format"`

	// AddSource configures the log handlers to also include the source
	// code position of the log statements.
	AddSource bool `yaml:"add_source"`

	// Attributes specifies additional attributes to add to each log event.
	Attributes map[string]string `yaml:"attributes"`
}

// GCPConfig provides GCP specific configuration settings.
type GCPConfig struct {
	// UserAgent is the User-Agent header which API clients present
	// themselves with. When empty, a default one derived from the
	// groundctl version is used.
	UserAgent string `yaml:"user_agent"`

	// UseCredentials specifies the named credentials with which the API
	// clients for the pipeline project are configured.
	UseCredentials string `yaml:"use_credentials"`

	// Credentials provides the named credentials.
	Credentials map[string]GCPCredentialsConfig `yaml:"credentials"`

	// Pipeline describes the declared pipeline infrastructure.
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// GCPCredentialsConfig represents the settings of a GCP named credential.
type GCPCredentialsConfig struct {
	// Authentication specifies the authentication method/strategy. Valid
	// values are `none', `key_file' and `vault'.
	Authentication string `yaml:"authentication"`

	// KeyFile provides the settings of the `key_file' authentication
	// method.
	KeyFile GCPKeyFileConfig `yaml:"key_file"`

	// Vault provides the settings of the `vault' authentication method.
	Vault GCPVaultSecretConfig `yaml:"vault"`
}

// GCPKeyFileConfig represents the settings of the `key_file' authentication
// method.
type GCPKeyFileConfig struct {
	// Path is the path to a service account JSON key file.
	Path string `yaml:"path"`
}

// GCPVaultSecretConfig represents the settings of the `vault' authentication
// method. The secret identified by these settings is expected to contain the
// service account JSON key as one of its fields.
type GCPVaultSecretConfig struct {
	// Server is the name of the Vault server from [VaultConfig.Servers]
	// to read the secret from.
	Server string `yaml:"server"`

	// MountPath is the mount path of the KV-v2 secrets engine.
	MountPath string `yaml:"mount_path"`

	// SecretPath is the path to the secret within the secrets engine.
	SecretPath string `yaml:"secret_path"`

	// SecretField is the field of the secret, which contains the service
	// account JSON key.
	SecretField string `yaml:"secret_field"`
}

// PipelineConfig describes the declared telemetry pipeline infrastructure.
// All fields are required and have no defaults.
type PipelineConfig struct {
	// Project is the GCP project id hosting the pipeline.
	Project string `yaml:"project"`

	// Region is the region in which regional resources reside.
	Region string `yaml:"region"`

	// Zone is the zone within [PipelineConfig.Region] used by zonal
	// resources of the pipeline runtime.
	Zone string `yaml:"zone"`

	// StateBucket is the name of the bucket holding the state snapshots.
	StateBucket string `yaml:"state_bucket"`

	// StagingBucket is the name of the bucket used as a scratch landing
	// zone for pipeline data.
	StagingBucket string `yaml:"staging_bucket"`

	// Dataset is the id of the analytical BigQuery dataset.
	Dataset string `yaml:"dataset"`

	// ServiceAccount is the account id of the pipeline service account.
	ServiceAccount string `yaml:"service_account"`
}

// VaultConfig provides the configuration of Vault servers.
type VaultConfig struct {
	// Servers provides the named Vault servers.
	Servers map[string]VaultServerConfig `yaml:"servers"`
}

// VaultServerConfig represents the settings of a single Vault server.
type VaultServerConfig struct {
	// Endpoint is the address of the Vault server.
	Endpoint string `yaml:"endpoint"`

	// Namespace is an optional Vault namespace.
	Namespace string `yaml:"namespace"`
}

// MetricsConfig provides the drift metrics configuration settings.
type MetricsConfig struct {
	// Address is the network address on which the metrics HTTP server
	// listens.
	Address string `yaml:"address"`

	// Path is the HTTP path on which metrics are exposed.
	Path string `yaml:"path"`

	// Interval specifies how often drift is recomputed when watching,
	// e.g. `5m'.
	Interval string `yaml:"interval"`
}

// Parse parses the config from the given path.
func Parse(path string) (*Config, error) {
	var conf Config
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, &conf); err != nil {
		return nil, err
	}

	if conf.Version == "" {
		return nil, ErrNoConfigVersion
	}

	if conf.Version != ConfigFormatVersion {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, conf.Version)
	}

	return &conf, nil
}

// MustParse parses the config from the given path, or panics in case of errors.
func MustParse(path string) *Config {
	config, err := Parse(path)
	if err != nil {
		panic(err)
	}

	return config
}

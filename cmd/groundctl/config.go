// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/orbital-telemetry/groundctl/pkg/core/config"
)

// redactedValue is displayed in place of sensitive configuration values.
const redactedValue = "REDACTED"

// NewConfigCommand returns a new command for inspecting the configuration.
func NewConfigCommand() *cli.Command {
	cmd := &cli.Command{
		Name:  "config",
		Usage: "configuration operations",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "show the effective configuration",
				Action: func(ctx *cli.Context) error {
					conf := getConfig(ctx)

					// The coordinates of the credentials material are
					// masked in the output.
					redacted := *conf
					redacted.GCP.Credentials = make(map[string]config.GCPCredentialsConfig, len(conf.GCP.Credentials))
					for name, creds := range conf.GCP.Credentials {
						if creds.KeyFile.Path != "" {
							creds.KeyFile.Path = redactedValue
						}
						if creds.Vault.SecretPath != "" {
							creds.Vault.SecretPath = redactedValue
						}
						if creds.Vault.SecretField != "" {
							creds.Vault.SecretField = redactedValue
						}
						redacted.GCP.Credentials[name] = creds
					}

					data, err := yaml.Marshal(&redacted)
					if err != nil {
						return err
					}
					fmt.Print(string(data))

					return nil
				},
			},
			{
				Name:  "validate",
				Usage: "validate the configuration",
				Action: func(ctx *cli.Context) error {
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

					fmt.Println("config is valid")

					return nil
				},
			},
		},
	}

	return cmd
}

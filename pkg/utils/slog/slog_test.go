// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/orbital-telemetry/groundctl/pkg/core/config"
	slogutils "github.com/orbital-telemetry/groundctl/pkg/utils/slog"
)

func TestNewFromConfig(t *testing.T) {
	testCases := []struct {
		desc    string
		conf    config.LoggingConfig
		wantErr error
	}{
		{
			desc:    "empty config uses defaults",
			conf:    config.LoggingConfig{},
			wantErr: nil,
		},
		{
			desc:    "valid level and format",
			conf:    config.LoggingConfig{Level: "debug", Format: "json"},
			wantErr: nil,
		},
		{
			desc:    "invalid level",
			conf:    config.LoggingConfig{Level: "trace"},
			wantErr: slogutils.ErrInvalidLogLevel,
		},
		{
			desc:    "invalid format",
			conf:    config.LoggingConfig{Format: "logfmt"},
			wantErr: slogutils.ErrInvalidLogFormat,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := slogutils.NewFromConfig(&buf, tc.conf)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("wanted %s got %s", tc.wantErr, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("cannot create logger: %s", err)
			}

			logger.Info("hello")
			if !strings.Contains(buf.String(), "hello") {
				t.Fatalf("log event not written: %q", buf.String())
			}
		})
	}
}

func TestLoggerAttributes(t *testing.T) {
	var buf bytes.Buffer
	conf := config.LoggingConfig{
		Format:     "json",
		Attributes: map[string]string{"component": "test"},
	}

	logger, err := slogutils.NewFromConfig(&buf, conf)
	if err != nil {
		t.Fatalf("cannot create logger: %s", err)
	}

	logger.Info("with attributes")
	if !strings.Contains(buf.String(), `"component":"test"`) {
		t.Fatalf("default attributes missing from log event: %q", buf.String())
	}
}

func TestGetLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := slogutils.IntoContext(context.Background(), logger)
	if got := slogutils.GetLogger(ctx); got != logger {
		t.Fatal("GetLogger did not return the logger from the context")
	}

	// A context without a logger falls back to the default one.
	if got := slogutils.GetLogger(context.Background()); got != slog.Default() {
		t.Fatal("GetLogger did not fall back to the default logger")
	}
}

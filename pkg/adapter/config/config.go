// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package config is an adapter which accepts yaml formatted config
// files from its users and allows the clientstx command to instantiate
// different components, from the adapter or use cases layers, using
// those loaded configuration settings.
// The parsed and validated configurations are passed to their ultimate
// components as a series of individual params (for the mandatory items)
// and a series of functional options (for the optional items).
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// These constants control how the configuration file path is found
// when it is not passed explicitly.
const (
	PathEnv     = "CONFIG_FILE"
	DefaultPath = "configs/sample-config.yaml"
)

// Config contains all settings which are required by different parts
// of the project, such as adapters or use cases. It is implemented with
// primitive fields or structs which are defined locally, not models
// which are defined in lower layers, so the configuration format can be
// kept intact while other layers change freely.
type Config struct {
	Database Database // PostgreSQL database connection settings
	Gin      Gin      // Gin-Gonic instantiation settings
	Logging  Logging  // Structured logging settings
	Session  Session  // Manual session and refresh settings
}

// Path returns p if it is not empty. Otherwise, the CONFIG_FILE
// environment variable or the DefaultPath is returned.
func Path(p string) string {
	if p != "" {
		return p
	}
	if p = os.Getenv(PathEnv); p != "" {
		return p
	}
	return DefaultPath
}

// Load function loads, validates, and normalizes the configuration
// file and returns its settings as an instance of the Config struct.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", path, err)
	}
	return c, nil
}

// Parse unmarshals the data byte slice and loads a Config instance.
// Extra items in the data will be ignored and missing items will take
// their default values. Thereafter, loaded Config will be validated
// and normalized in order to ensure that provided settings are
// acceptable.
func Parse(data []byte) (*Config, error) {
	n := &yaml.Node{}
	if err := yaml.Unmarshal(data, n); err != nil {
		return nil, fmt.Errorf("unmarshalling yaml: %w", err)
	}
	if l := len(n.Content); l != 1 {
		return nil, fmt.Errorf(
			"found %d children nodes, instead of 1 mapping child", l,
		)
	}
	if n.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("top-level node is not a mapping")
	}
	c := &Config{}
	if err := n.Decode(c); err != nil {
		return nil, fmt.Errorf("decoding yaml node: %w", err)
	}
	if err := c.ValidateAndNormalize(); err != nil {
		return nil, fmt.Errorf("validating configs: %w", err)
	}
	return c, nil
}

// ValidateAndNormalize validates the configuration settings and
// returns an error if they were not acceptable. It can also modify
// settings in order to normalize them or replace some zero values with
// their expected default values (if any).
func (c *Config) ValidateAndNormalize() error {
	if err := c.Database.ValidateAndNormalize(); err != nil {
		return fmt.Errorf("validating database settings: %w", err)
	}
	if err := c.Gin.ValidateAndNormalize(); err != nil {
		return fmt.Errorf("validating gin settings: %w", err)
	}
	if err := c.Logging.ValidateAndNormalize(); err != nil {
		return fmt.Errorf("validating logging settings: %w", err)
	}
	if err := c.Session.ValidateAndNormalize(); err != nil {
		return fmt.Errorf("validating session settings: %w", err)
	}
	return nil
}

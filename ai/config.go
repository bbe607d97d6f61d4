// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for the generative completion service.
type Config struct {
	// Endpoint is the base URL of the Azure OpenAI resource.
	// Example: "https://my-resource.openai.azure.com"
	Endpoint string

	// APIKey authenticates requests against the endpoint.
	APIKey string

	// Deployment is the model deployment name to call.
	Deployment string

	// APIVersion selects the service API version.
	// Default: "2024-02-01"
	APIVersion string

	// Temperature is the sampling temperature. Near-zero keeps synthesis
	// close to deterministic. Default: 0.1
	Temperature float64

	// MaxTokens caps the completion length per request. Default: 1024
	MaxTokens int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEndpoint sets the service endpoint URL.
func WithEndpoint(endpoint string) ConfigOption {
	return func(c *Config) {
		c.Endpoint = endpoint
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithDeployment sets the model deployment name.
func WithDeployment(deployment string) ConfigOption {
	return func(c *Config) {
		c.Deployment = deployment
	}
}

// WithAPIVersion sets the service API version.
func WithAPIVersion(version string) ConfigOption {
	return func(c *Config) {
		c.APIVersion = version
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = temperature
	}
}

// WithMaxTokens sets the per-request completion token cap.
func WithMaxTokens(maxTokens int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = maxTokens
	}
}

// DefaultConfig returns a Config with the default generation parameters.
// Endpoint, APIKey, and Deployment have no defaults and must be supplied.
func DefaultConfig() *Config {
	return &Config{
		APIVersion:  "2024-02-01",
		Temperature: 0.1,
		MaxTokens:   1024,
	}
}

// NewConfig creates a Config with the default values and applies the
// provided options. This is the recommended way to create a Config.
//
// Example:
//
//	cfg := NewConfig(
//	    WithEndpoint("https://my-resource.openai.azure.com"),
//	    WithAPIKey(key),
//	    WithDeployment("gpt-4o-mini"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form: trailing
// slashes are stripped from the endpoint and unset generation parameters
// get their defaults.
func (c *Config) Normalize() {
	c.Endpoint = strings.TrimSuffix(strings.TrimSpace(c.Endpoint), "/")

	if c.APIVersion == "" {
		c.APIVersion = "2024-02-01"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.1
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 1024
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Endpoint == "" {
		return errors.New("ai config: Endpoint is required")
	}
	if c.APIKey == "" {
		return errors.New("ai config: APIKey is required")
	}
	if c.Deployment == "" {
		return errors.New("ai config: Deployment is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("ai config: Temperature must be between 0 and 2")
	}
	if c.MaxTokens < 1 {
		return errors.New("ai config: MaxTokens must be positive")
	}
	return nil
}

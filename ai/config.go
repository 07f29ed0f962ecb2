// Copyright 2025 Verdantis Labs
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

// Config holds configuration for the embedding service.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for a local OpenAI-compatible server
	EmbeddingHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "jina-embeddings-v3", "text-embedding-3-small"
	EmbeddingModel string

	// Dimensions is the vector dimensionality agreed at corpus-build time.
	// When set (> 0), embedders reject vectors of any other length with
	// ErrDimensionMismatch instead of silently mixing spaces.
	Dimensions int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithDimensions sets the expected vector dimensionality.
func WithDimensions(dims int) ConfigOption {
	return func(c *Config) {
		c.Dimensions = dims
	}
}

// DefaultConfig returns a Config with sensible defaults for local
// OpenAI-compatible services.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingHost:  "http://localhost:11434/v1",
		EmbeddingModel: "jina-embeddings-v3",
	}
}

// NewConfig creates a Config from DefaultConfig plus the given options.
func NewConfig(opts ...ConfigOption) *Config {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}
	return config
}

var (
	// ErrEmptyHost indicates a missing embedding host URL.
	ErrEmptyHost = errors.New("embedding host cannot be empty")

	// ErrEmptyModel indicates a missing embedding model identifier.
	ErrEmptyModel = errors.New("embedding model cannot be empty")

	// ErrInvalidHost indicates a host URL without an http(s) scheme.
	ErrInvalidHost = errors.New("embedding host must start with http:// or https://")

	// ErrInvalidDimensions indicates a negative dimensionality.
	ErrInvalidDimensions = errors.New("dimensions cannot be negative")
)

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.EmbeddingHost) == "" {
		return ErrEmptyHost
	}
	if !strings.HasPrefix(c.EmbeddingHost, "http://") && !strings.HasPrefix(c.EmbeddingHost, "https://") {
		return ErrInvalidHost
	}
	if strings.TrimSpace(c.EmbeddingModel) == "" {
		return ErrEmptyModel
	}
	if c.Dimensions < 0 {
		return ErrInvalidDimensions
	}
	return nil
}

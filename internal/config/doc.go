// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for deskchat.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// .env files, environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - BackendConfig: Endpoint, timeout and user agent for the /ask backend
//   - UIConfig: Title, subtitle, caption and theme shown by every front end
//   - ServerConfig: Listen address, session cookie and rate limits for serve
//   - Watcher: Reloads a config file when it changes on disk
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Command line flags (applied by the caller)
//   - Environment variables (DESKCHAT_*), including those from ./.env
//   - ~/.deskchat/config.toml
//   - ~/.deskchat/config.json
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	endpoint := cfg.Backend.URL
//	timeout := cfg.Backend.Timeout()
package config

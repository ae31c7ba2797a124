// Package config resolves named configuration profiles into validated,
// immutable Settings. Values are merged from a sectioned profile file (TOML or
// YAML), APP_-prefixed environment variables, and CLI flags with precedence:
// CLI flags > environment variables > profile section > default section >
// built-in defaults. The Manager holds the active Settings behind an atomic
// pointer so reloads swap the whole instance without disturbing readers.
package config

// Package config loads server settings from an optional YAML file and
// TASKSYNC_* environment variables using viper, then validates them.
package config

// Package config handles configuration loading, parsing, and validation
// from environment variables, an optional .env file and an optional
// config.yaml. It provides type-safe access to the settings of the task
// store, attachment bucket, label recognition and identity resolution while
// keeping configuration details separate from business logic.
package config

// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// An optional .env file is read first so that secrets (database password, redis
// password) can be kept out of the YAML.
package config

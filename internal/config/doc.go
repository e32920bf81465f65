// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// All sections are optional; missing values fall back to defaults that
// poll the public StreamElements API and serve metrics on 127.0.0.1:9001.
package config

package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load fills cfg from environment variables according to its `env` tags.
// Every missing or malformed variable is reported, not only the first.
//
//	type Config struct {
//	    Port     int    `env:"HTTP_PORT" envDefault:"8080"`
//	    LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// MissingVars lists the variables a Load error reported as required but
// unset.
func MissingVars(err error) []string {
	var agg env.AggregateError
	if !errors.As(err, &agg) {
		return nil
	}
	var vars []string
	for _, e := range agg.Errors {
		var missing env.EnvVarIsNotSetError
		if errors.As(e, &missing) {
			vars = append(vars, missing.Key)
		}
	}
	return vars
}

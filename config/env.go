package config

import (
	"os"
	"strings"
)

// Environment selects where secrets are read from, how verbose logging is and
// which settings are mandatory.
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// GetEnvironment reads ENV. CI=true wins over ENV.
func GetEnvironment() Environment {
	if os.Getenv("CI") == "true" {
		return CI
	}
	return ParseEnvironment(os.Getenv("ENV"))
}

// ParseEnvironment maps an ENV value to an Environment. Empty or unknown values mean development.
func ParseEnvironment(s string) Environment {
	switch env := Environment(strings.ToLower(strings.TrimSpace(s))); env {
	case Production, Test, CI:
		return env
	case "prod":
		return Production
	default:
		return Development
	}
}

// IsDevelopment reports whether e is a local development environment
func (e Environment) IsDevelopment() bool {
	return e == Development
}

// IsProduction reports whether e serves real traffic
func (e Environment) IsProduction() bool {
	return e == Production
}

// RequiresSecrets reports whether database credentials must be configured explicitly.
func (e Environment) RequiresSecrets() bool {
	return e == Production || e == CI
}

// Package basic implements an auth.Provider for a single generic
// registry secured with a static username/password, grounded on
// auth/basic/basicauth.py (BasicAuthenticator) and
// auth/creds/credbuilder.py's build_basic_credentials.
package basic

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	envUser         = "BASIC_AUTH_USER"
	envPass         = "BASIC_AUTH_PASS"
	envRegistry     = "BASIC_AUTH_REGISTRY"
	envShouldReauth = "BASIC_AUTH_SHOULD_REAUTH"
	envReauthHours  = "BASIC_AUTH_REAUTH_HOURS"

	defaultReauthHours = 6
)

// Provider authenticates against one statically-configured registry.
type Provider struct {
	user, password, registry string
	mustRenew                bool
	renewInterval            time.Duration
	authenticatedOnce        bool
}

// FromEnv builds a Provider from the BASIC_AUTH_* environment variables.
// Returns (nil, nil) — not an error — when the required trio of
// user/pass/registry is absent, matching build_basic_credentials'
// "assume no authentication required" behavior; AuthBroker simply omits
// the provider in that case.
func FromEnv() (*Provider, error) {
	user := strings.TrimSpace(os.Getenv(envUser))
	password, err := readSecret(envPass)
	if err != nil {
		return nil, err
	}
	registry := strings.TrimSpace(os.Getenv(envRegistry))

	if user == "" || password == "" || registry == "" {
		return nil, nil
	}

	p := &Provider{user: user, password: password, registry: registry}

	shouldRenew := truthy(os.Getenv(envShouldReauth))
	if shouldRenew {
		hours := defaultReauthHours
		if v := os.Getenv(envReauthHours); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				hours = parsed
			}
		}
		p.mustRenew = true
		p.renewInterval = time.Duration(hours) * time.Hour
	}

	return p, nil
}

// readSecret reads BASIC_AUTH_PASS, or the file named by
// BASIC_AUTH_PASS_FILE when set (the docker/Kubernetes secrets
// convention) — a supplemented feature the Python original didn't need
// since it only ever ran via plain env vars.
func readSecret(envName string) (string, error) {
	if fileName := os.Getenv(envName + "_FILE"); fileName != "" {
		data, err := os.ReadFile(fileName)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}
	return strings.TrimSpace(os.Getenv(envName)), nil
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "yes", "y", "true", "t", "1":
		return true
	default:
		return false
	}
}

// ShouldAuthenticate reports whether another login is due.
func (p *Provider) ShouldAuthenticate(lastLogin time.Time) bool {
	if !p.authenticatedOnce {
		return true
	}
	if !p.mustRenew {
		return false
	}
	return lastLogin.IsZero() || time.Since(lastLogin) > p.renewInterval
}

// ObtainAuth returns the configured username, password and registry.
func (p *Provider) ObtainAuth(_ context.Context) (string, string, string, error) {
	p.authenticatedOnce = true
	return p.user, p.password, p.registry, nil
}

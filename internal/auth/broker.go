// Package auth coordinates registry logins that must happen before the
// backend client creates a container service against a private registry.
//
// Grounded on auth/authfactory.py's AuthenticationFactory, but the
// original's pkg_resources entry-point discovery is replaced with an
// explicit registry built at construction time (design notes §9):
// providers are plain values handed to NewBroker, not looked up from
// process-wide plugin state.
package auth

import (
	"context"
	"log"
	"time"
)

// Provider is one credential source capable of authenticating a registry
// login. Grounded on auth/authenticator.py's Authenticator ABC.
type Provider interface {
	// ShouldAuthenticate reports whether another login should be
	// performed given the last successful login time (zero value means
	// "never logged in").
	ShouldAuthenticate(lastLogin time.Time) bool

	// ObtainAuth returns the username, password and registry URL to log
	// into, or an error if credentials could not be produced.
	ObtainAuth(ctx context.Context) (user, password, registry string, err error)
}

type entry struct {
	provider  Provider
	lastLogin time.Time
}

// Broker is a registry of zero or more credential providers.
type Broker struct {
	entries []*entry
}

// NewBroker builds a broker from an explicit list of providers. A nil or
// empty slice yields a broker with AnyRequireLogin always false, letting
// the backend client skip the login path entirely on hot calls.
func NewBroker(providers ...Provider) *Broker {
	b := &Broker{}
	for _, p := range providers {
		if p == nil {
			continue
		}
		b.entries = append(b.entries, &entry{provider: p})
	}
	return b
}

// HasProviders reports whether any provider was registered.
func (b *Broker) HasProviders() bool {
	return len(b.entries) > 0
}

// AnyRequireLogin reports whether at least one provider currently needs
// to authenticate, letting BackendClient cheaply skip the login path on
// hot calls when nothing needs renewing.
func (b *Broker) AnyRequireLogin() bool {
	for _, e := range b.entries {
		if e.provider.ShouldAuthenticate(e.lastLogin) {
			return true
		}
	}
	return false
}

// Login is the capability the backend client authenticates against: a
// Docker-client-shaped registry login call.
type Login func(ctx context.Context, user, password, registry string) error

// PerformLogins runs login for every provider that currently reports it
// should authenticate, recording the last-login time per provider.
// Login is a collaborator concern: a failed login is logged and does not
// abort remaining providers, matching the original's best-effort loop in
// AuthenticationFactory.perform_logins.
func (b *Broker) PerformLogins(ctx context.Context, login Login) {
	if !b.HasProviders() {
		return
	}

	for _, e := range b.entries {
		if !e.provider.ShouldAuthenticate(e.lastLogin) {
			continue
		}

		user, password, registry, err := e.provider.ObtainAuth(ctx)
		if err != nil {
			log.Printf("[AuthBroker] failed to obtain credentials: %v", err)
			continue
		}

		if err := login(ctx, user, password, registry); err != nil {
			log.Printf("[AuthBroker] login to %s failed: %v", registry, err)
			continue
		}

		e.lastLogin = time.Now()
	}
}

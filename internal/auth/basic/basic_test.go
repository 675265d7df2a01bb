package basic

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvMissingCredentials(t *testing.T) {
	t.Setenv(envUser, "")
	t.Setenv(envPass, "")
	t.Setenv(envRegistry, "")

	p, err := FromEnv()
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestFromEnvCompleteCredentials(t *testing.T) {
	t.Setenv(envUser, "alice")
	t.Setenv(envPass, "hunter2")
	t.Setenv(envRegistry, "registry.example.com")
	t.Setenv(envShouldReauth, "")

	p, err := FromEnv()
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.True(t, p.ShouldAuthenticate(time.Time{}))

	user, pass, registry, err := p.ObtainAuth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", user)
	assert.Equal(t, "hunter2", pass)
	assert.Equal(t, "registry.example.com", registry)

	// Having authenticated once, with no reauth configured, no further
	// login should be required.
	assert.False(t, p.ShouldAuthenticate(time.Now()))
}

func TestFromEnvReauthInterval(t *testing.T) {
	t.Setenv(envUser, "alice")
	t.Setenv(envPass, "hunter2")
	t.Setenv(envRegistry, "registry.example.com")
	t.Setenv(envShouldReauth, "true")
	t.Setenv(envReauthHours, "1")

	p, err := FromEnv()
	require.NoError(t, err)
	require.NotNil(t, p)

	_, _, _, err = p.ObtainAuth(context.Background())
	require.NoError(t, err)

	assert.False(t, p.ShouldAuthenticate(time.Now()))
	assert.True(t, p.ShouldAuthenticate(time.Now().Add(-2*time.Hour)))
}

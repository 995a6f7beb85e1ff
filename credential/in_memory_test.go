package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aprendecomigo-edu/courier/core"
)

// Interface compliance (compile-time assertion)
var _ core.CredentialStore = (*InMemoryStore)(nil)

func TestInMemoryStore_RoundTrip(t *testing.T) {
	s := NewInMemoryStore()

	_, err := s.Get(core.CredentialKeyAuthToken)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(core.CredentialKeyAuthToken, "tok-123"))
	v, err := s.Get(core.CredentialKeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", v)

	require.NoError(t, s.Remove(core.CredentialKeyAuthToken))
	assert.ErrorIs(t, s.Remove(core.CredentialKeyAuthToken), ErrNotFound)
}

package auth

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(tokenEnv, "")
}

func TestLoginRoundTrip(t *testing.T) {
	isolate(t)

	ti, err := GetToken()
	require.NoError(t, err)
	require.Nil(t, ti)

	_, err = Require()
	require.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, SetToken("  Bearer abc123 ", nil))

	ti, err = GetToken()
	require.NoError(t, err)
	require.Equal(t, "abc123", ti.Token)
	require.Equal(t, "file", ti.Source)

	p, err := CredFilePath()
	require.NoError(t, err)
	st, err := os.Stat(p)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	require.NoError(t, DeleteToken())
	require.NoError(t, DeleteToken())
	ti, err = GetToken()
	require.NoError(t, err)
	require.Nil(t, ti)
}

func TestEnvOverridesFile(t *testing.T) {
	isolate(t)
	require.NoError(t, SetToken("from-file", nil))
	t.Setenv(tokenEnv, "bearer from-env")

	ti, err := Require()
	require.NoError(t, err)
	require.Equal(t, "from-env", ti.Token)
	require.Equal(t, "env", ti.Source)
}

func TestSetTokenRejectsEmpty(t *testing.T) {
	isolate(t)
	require.Error(t, SetToken("   ", nil))
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, src, err := Load(LoadOptions{Getenv: envMap(map[string]string{"XDG_CONFIG_HOME": dir})})
	require.NoError(t, err)

	assert.Empty(t, src.File)
	assert.Equal(t, DefaultAPIHost, cfg.APIHost)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.True(t, cfg.BaseURLFromDefault)

	u, err := cfg.APIURL()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api", u)
	assert.Equal(t, "API: /api (default)", cfg.APILabel())
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records", "config.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{
		// comments and trailing commas are fine
		"api_host": "http://file:1",
		"api_base_url": "/v1",
		"timeout": "3s",
		"theme": "mono",
	}`), 0o644))

	env := map[string]string{
		"XDG_CONFIG_HOME": dir,
		EnvAPIHost:        "http://env:2",
		EnvLogLevel:       "debug",
	}
	cfg, src, err := Load(LoadOptions{
		Getenv:    envMap(env),
		Overrides: Config{Theme: "classic"},
	})
	require.NoError(t, err)

	assert.Equal(t, path, src.File)
	assert.Equal(t, "http://env:2", cfg.APIHost)
	assert.Equal(t, "/v1", cfg.APIBaseURL)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, "classic", cfg.Theme)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.BaseURLFromDefault)

	u, err := cfg.APIURL()
	require.NoError(t, err)
	assert.Equal(t, "http://env:2/v1", u)
}

func TestBlankEnvBaseURLFallsBack(t *testing.T) {
	cfg, _, err := Load(LoadOptions{Getenv: envMap(map[string]string{
		"XDG_CONFIG_HOME": t.TempDir(),
		EnvAPIBaseURL:     "   ",
	})})
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIBaseURL, cfg.APIBaseURL)
	assert.True(t, cfg.BaseURLFromDefault)
}

func TestAbsoluteBaseURLIgnoresHost(t *testing.T) {
	cfg := Default()
	cfg.APIHost = "not a url"
	cfg.APIBaseURL = "https://records.example.com/api/"
	u, err := cfg.APIURL()
	require.NoError(t, err)
	assert.Equal(t, "https://records.example.com/api", u)
}

func TestExplicitConfigMustExist(t *testing.T) {
	_, _, err := Load(LoadOptions{
		ConfigPath: filepath.Join(t.TempDir(), "missing.json"),
		Getenv:     envMap(nil),
	})
	require.ErrorIs(t, err, ErrFileNotFound)
}

func TestInvalidValues(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"timeout": "soon"}`), 0o644))

	_, _, err := Load(LoadOptions{ConfigPath: bad, Getenv: envMap(nil)})
	require.ErrorIs(t, err, ErrInvalid)

	_, _, err = Load(LoadOptions{
		Getenv:    envMap(map[string]string{"XDG_CONFIG_HOME": dir}),
		Overrides: Config{APIHost: "localhost"},
	})
	require.ErrorIs(t, err, ErrInvalid)

	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte(`{not json`), 0o644))
	_, _, err = Load(LoadOptions{ConfigPath: garbage, Getenv: envMap(nil)})
	require.ErrorIs(t, err, ErrInvalid)
}

func TestFormat(t *testing.T) {
	out, err := Format(Default())
	require.NoError(t, err)
	assert.Contains(t, out, `"api_url": "http://localhost:8080/api"`)
	assert.Contains(t, out, `"timeout": "10s"`)
}

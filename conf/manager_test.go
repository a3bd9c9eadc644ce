package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestManagerLayerPrecedence(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "application.yaml", `
server:
  host: filehost
  port: 8080
feature: base
`)
	writeFile(t, dir, "application-prod.yaml", `
server:
  port: 8443
feature: prod
`)

	t.Setenv("LPT_PROFILE", "prod")
	t.Setenv("LPT_SERVER_PORT", "9090")

	mgr, err := New(
		WithPrefix("LPT"),
		WithFile(base),
		WithDefaults(map[string]any{
			"server":  map[string]any{"host": "default", "port": 1, "timeout": 30},
			"feature": "default",
		}),
	)
	require.NoError(t, err)

	assert.Equal(t, "prod", mgr.Profile())

	host, err := mgr.GetString("server.host")
	require.NoError(t, err)
	assert.Equal(t, "filehost", host, "base file beats defaults")

	timeout, err := mgr.GetInt("server.timeout")
	require.NoError(t, err)
	assert.Equal(t, int64(30), timeout, "defaults survive where no layer overrides")

	feature, err := mgr.GetString("feature")
	require.NoError(t, err)
	assert.Equal(t, "prod", feature, "profile file beats base file")

	port, err := mgr.GetInt("server.port")
	require.NoError(t, err)
	assert.Equal(t, int64(9090), port, "environment beats every file layer")
}

func TestManagerProfileResolution(t *testing.T) {
	t.Run("defaults to dev", func(t *testing.T) {
		mgr, err := New(WithPrefix("PRT1"), WithoutEnv())
		require.NoError(t, err)
		assert.Equal(t, "dev", mgr.Profile())
	})

	t.Run("from config key", func(t *testing.T) {
		mgr, err := New(
			WithPrefix("PRT2"),
			WithDefaults(map[string]any{"profile": "staging"}),
		)
		require.NoError(t, err)
		assert.Equal(t, "staging", mgr.Profile())
	})

	t.Run("env beats config key", func(t *testing.T) {
		t.Setenv("PRT3_PROFILE", "prod")
		mgr, err := New(
			WithPrefix("PRT3"),
			WithDefaults(map[string]any{"profile": "staging"}),
		)
		require.NoError(t, err)
		assert.Equal(t, "prod", mgr.Profile())
	})

	t.Run("explicit option beats env", func(t *testing.T) {
		t.Setenv("PRT4_PROFILE", "prod")
		mgr, err := New(WithPrefix("PRT4"), WithProfile("test"))
		require.NoError(t, err)
		assert.Equal(t, "test", mgr.Profile())
	})
}

func TestManagerMissingFiles(t *testing.T) {
	dir := t.TempDir()

	t.Run("optional base file is skipped", func(t *testing.T) {
		mgr, err := New(
			WithPrefix("MFT1"),
			WithFile(filepath.Join(dir, "absent.yaml")),
			WithDefaults(map[string]any{"k": "v"}),
		)
		require.NoError(t, err)
		v, err := mgr.GetString("k")
		require.NoError(t, err)
		assert.Equal(t, "v", v)
	})

	t.Run("required base file fails the load", func(t *testing.T) {
		_, err := New(
			WithPrefix("MFT2"),
			WithRequiredFile(filepath.Join(dir, "absent.yaml")),
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSource)
	})

	t.Run("malformed yaml fails the load", func(t *testing.T) {
		bad := writeFile(t, dir, "bad.yaml", "server: [unclosed")
		_, err := New(WithPrefix("MFT3"), WithFile(bad))
		require.Error(t, err)
		var serr SourceError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, bad, serr.Source)
	})
}

func TestManagerDotenvBelowProcessEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "DET_DB_HOST=fromfile\nDET_DB_NAME=appdb\nOTHER=ignored\n")

	t.Setenv("DET_DB_HOST", "fromenv")

	mgr, err := New(WithPrefix("DET"), WithDotenv(envFile))
	require.NoError(t, err)

	host, err := mgr.GetString("db.host")
	require.NoError(t, err)
	assert.Equal(t, "fromenv", host, "process env wins over .env")

	name, err := mgr.GetString("db.name")
	require.NoError(t, err)
	assert.Equal(t, "appdb", name)

	assert.False(t, mgr.Has("other"), "entries without the prefix are ignored")
}

func TestManagerEnvPathMapping(t *testing.T) {
	t.Setenv("EPM_SERVER_TLS_ENABLED", "true")

	mgr, err := New(WithPrefix("EPM"))
	require.NoError(t, err)

	enabled, err := mgr.GetBool("server.tls.enabled")
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestManagerCustomSources(t *testing.T) {
	mgr, err := New(
		WithPrefix("CST"),
		WithSources(
			Static("low", map[string]any{"a": 1, "b": 1}),
			Static("high", map[string]any{"b": 2}),
		),
	)
	require.NoError(t, err)

	a, err := mgr.GetInt("a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), a)

	b, err := mgr.GetInt("b")
	require.NoError(t, err)
	assert.Equal(t, int64(2), b, "later source wins")
}

func TestManagerReloadSwapsTree(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "application.yaml", "port: 1\n")

	mgr, err := New(WithPrefix("RLT"), WithFile(base), WithoutEnv())
	require.NoError(t, err)

	before := mgr.Tree()
	port, err := mgr.GetInt("port")
	require.NoError(t, err)
	assert.Equal(t, int64(1), port)

	writeFile(t, dir, "application.yaml", "port: 2\n")
	require.NoError(t, mgr.Reload())

	port, err = mgr.GetInt("port")
	require.NoError(t, err)
	assert.Equal(t, int64(2), port)

	// The old snapshot is untouched.
	old, err := before.GetInt("port")
	require.NoError(t, err)
	assert.Equal(t, int64(1), old)
}

func TestManagerKeysAndHas(t *testing.T) {
	mgr, err := New(
		WithPrefix("KHT"),
		WithDefaults(map[string]any{
			"server": map[string]any{"port": 8080},
			"name":   "svc",
		}),
	)
	require.NoError(t, err)

	assert.True(t, mgr.Has("server.port"))
	assert.False(t, mgr.Has("server.host"))
	assert.Contains(t, mgr.Keys(), "server.port")
	assert.Equal(t, []string{"server", "server.port"}, mgr.KeysWithPrefix("server"))
}

package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/outcal/internal/core/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MissingFileYieldsEmptyConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))

	require.NoError(t, err)
	assert.Empty(t, cfg.TargetNames())
}

func TestLoad_MalformedTOML(t *testing.T) {
	path := writeConfig(t, "[targets.work\nusername = oops")

	_, err := Load(path)

	assert.ErrorIs(t, err, domain.ErrConfigInvalid)
}

func TestTarget(t *testing.T) {
	path := writeConfig(t, `
[targets.work]
username = "alice@example.com"
password = "hunter2"

[targets.personal]
username = "alice@outlook.com"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	t.Run("with password", func(t *testing.T) {
		profile, err := cfg.Target("work")

		require.NoError(t, err)
		assert.Equal(t, "work", profile.Name)
		assert.Equal(t, "alice@example.com", profile.Username)
		assert.Equal(t, "hunter2", profile.Password)
	})

	t.Run("without password", func(t *testing.T) {
		profile, err := cfg.Target("personal")

		require.NoError(t, err)
		assert.Empty(t, profile.Password)
	})

	t.Run("unknown target", func(t *testing.T) {
		_, err := cfg.Target("nope")

		assert.ErrorIs(t, err, domain.ErrTargetNotFound)
	})
}

func TestTargetNames_Sorted(t *testing.T) {
	path := writeConfig(t, `
[targets.zulu]
username = "z@example.com"

[targets.alpha]
username = "a@example.com"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "zulu"}, cfg.TargetNames())
}

func TestPostURL(t *testing.T) {
	t.Run("configured", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, "[post]\nurl = \"https://sink.example.com/cal\"\n"))
		require.NoError(t, err)

		url, err := cfg.PostURL()

		require.NoError(t, err)
		assert.Equal(t, "https://sink.example.com/cal", url)
	})

	t.Run("missing", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, ""))
		require.NoError(t, err)

		_, err = cfg.PostURL()

		assert.ErrorIs(t, err, domain.ErrNoPostURL)
	})
}

func TestMTLSPaths(t *testing.T) {
	dir := t.TempDir()
	ca := filepath.Join(dir, "ca.pem")
	cert := filepath.Join(dir, "crt.pem")
	key := filepath.Join(dir, "key.pem")
	for _, p := range []string{ca, cert, key} {
		require.NoError(t, os.WriteFile(p, []byte("pem"), 0o600))
	}

	t.Run("all present", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, `
[mtls]
ca = "`+ca+`"
cert = "`+cert+`"
key = "`+key+`"
`))
		require.NoError(t, err)

		paths, err := cfg.MTLSPaths()

		require.NoError(t, err)
		assert.Equal(t, ca, paths.CA)
		assert.Equal(t, cert, paths.Cert)
		assert.Equal(t, key, paths.Key)
	})

	t.Run("missing key file is a config error", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, `
[mtls]
ca = "`+ca+`"
cert = "`+cert+`"
key = "`+filepath.Join(dir, "absent.pem")+`"
`))
		require.NoError(t, err)

		_, err = cfg.MTLSPaths()

		assert.ErrorIs(t, err, domain.ErrMTLSIncomplete)
	})
}

func TestGraphApp(t *testing.T) {
	t.Run("configured", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, `
[graph]
tenant_id = "tenant-guid"
client_id = "client-guid"
`))
		require.NoError(t, err)

		app, err := cfg.GraphApp()

		require.NoError(t, err)
		assert.Equal(t, "tenant-guid", app.TenantID)
		assert.Equal(t, "client-guid", app.ClientID)
	})

	t.Run("missing", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, ""))
		require.NoError(t, err)

		_, err = cfg.GraphApp()

		assert.ErrorIs(t, err, domain.ErrGraphAppMissing)
	})
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	expanded, err := expandHome("~/certs/ca.pem")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "certs", "ca.pem"), expanded)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty directory with no DBSESSION_* overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, k := range []string{"DBSESSION_DRIVER", "DBSESSION_DSN", "DBSESSION_BIND_STYLE", "DBSESSION_LOG_LEVEL", "DATABASE_URL"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	return dir
}

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("driver", "", "")
	fs.String("dsn", "", "")
	fs.String("bind-style", "", "")
	fs.String("log-level", "", "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/app")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultDriver, cfg.Driver)
	assert.Equal(t, DefaultBindStyle, cfg.BindStyle)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, "postgres://localhost/app", cfg.DSN)
	assert.Empty(t, cfg.File)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Precedence(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
driver: mysql
dsn: 'env("APP_DSN")'
log_level: debug
bind_style: question
`), 0o644))
	t.Setenv("APP_DSN", "user:pw@tcp(localhost:3306)/app")
	t.Setenv("DBSESSION_LOG_LEVEL", "warn")

	cfg, err := Load(path, testFlags(t, "--driver", "sqlite"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Driver, "flag beats file")
	assert.Equal(t, "warn", cfg.LogLevel, "env beats file")
	assert.Equal(t, "question", cfg.BindStyle, "file beats default")
	assert.Equal(t, "user:pw@tcp(localhost:3306)/app", cfg.DSN)
	assert.Equal(t, path, cfg.File)
}

func TestLoad_UnsetFlagsDoNotOverride(t *testing.T) {
	isolate(t)
	t.Setenv("DBSESSION_DRIVER", "pgx")
	t.Setenv("DBSESSION_DSN", "postgres://db/app")

	cfg, err := Load("", testFlags(t))
	require.NoError(t, err)
	assert.Equal(t, "pgx", cfg.Driver)
	assert.Equal(t, "postgres://db/app", cfg.DSN)
}

func TestLoad_DefaultFileAndDotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dbsession.yaml"), []byte("driver: SQLite\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DBSESSION_DSN=file:app.db\n"), 0o644))

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "dbsession.yaml", cfg.File)
	assert.Equal(t, "sqlite", cfg.Driver)
	assert.Equal(t, "file:app.db", cfg.DSN)
}

func TestLoad_BadFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("driver: [unclosed\n"), 0o644))

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")

	_, err = Load(filepath.Join(dir, "absent.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	err := (&Config{Driver: "oracle", BindStyle: "colon", LogLevel: "loud"}).Validate()
	require.Error(t, err)
	for _, want := range []string{`unknown driver "oracle"`, "dsn is empty", `unknown bind_style "colon"`, `unknown log_level "loud"`} {
		assert.Contains(t, err.Error(), want)
	}

	ok := &Config{Driver: "sqlite", DSN: ":memory:", BindStyle: "Named", LogLevel: "DEBUG"}
	assert.NoError(t, ok.Validate())
}

func TestResolveDSN(t *testing.T) {
	t.Setenv("SOME_DSN", "mysql://x")
	t.Setenv("DATABASE_URL", "fallback")

	assert.Equal(t, "mysql://x", ResolveDSN(`env("SOME_DSN")`))
	assert.Equal(t, "fallback", ResolveDSN(""))
	assert.Equal(t, "literal", ResolveDSN("literal"))
	assert.Empty(t, ResolveDSN(`env("NOT_SET_ANYWHERE_123")`))
}

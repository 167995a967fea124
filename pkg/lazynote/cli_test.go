package lazynote

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvDBDriver, EnvDBDSN, EnvLogLevel, EnvLogDir, EnvAddr, EnvReadOnly} {
		t.Setenv(key, "")
	}
}

func TestCLIVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "lazynote version "+Version+"\n", out)
}

func TestCLIMigrateAndSections(t *testing.T) {
	clearEnv(t)
	dsn := filepath.Join(t.TempDir(), "notes.db")

	_, err := runCLI(t, "--db-dsn", dsn, "--log-level", "error", "inbox")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lazynote migrate")

	out, err := runCLI(t, "--db-dsn", dsn, "--log-level", "error", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrations applied")

	for _, section := range []string{"inbox", "today", "upcoming", "calendar"} {
		out, err = runCLI(t, "--db-dsn", dsn, "--log-level", "error", section)
		require.NoError(t, err, section)
		assert.Equal(t, "[]", strings.TrimSpace(out), section)
	}
}

func TestCLISessionLogs(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	logDir := filepath.Join(dir, "logs")

	_, err := runCLI(t, "--db-dsn", filepath.Join(dir, "notes.db"), "--log-dir", logDir, "migrate")
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(logDir, "lazynote-pid*.log"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestCLIRejectsBadConfig(t *testing.T) {
	clearEnv(t)
	_, err := runCLI(t, "--db-driver", "mysql", "migrate")
	assert.ErrorContains(t, err, "unsupported database driver")
}

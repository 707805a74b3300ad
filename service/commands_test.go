package service

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"cloudcanvas/app/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the command line with args and returns what it printed.
func execute(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func testOptions(dir string) *config.Options {
	opts := config.DefaultOptions()
	opts.Store.Path = dir
	return opts
}

func sortedTitles(t *testing.T, path string) []string {
	titles := listTitles(t, path)
	sort.Strings(titles)
	return titles
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "cloudcanvas version dev")
}

func TestConfigCommand(t *testing.T) {
	out, err := execute(t, "", "config", "--store-driver", "memory", "--remote-api-key", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "driver: memory")
	assert.Contains(t, out, "******")
	assert.NotContains(t, out, "secret")
}

func TestConfigCommandFromFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "cloudcanvas.yaml")
	require.NoError(t, os.WriteFile(file, []byte("listen: 127.0.0.1:9999\nstore:\n  driver: memory\n"), 0o600))

	out, err := execute(t, "", "config", "--config", file, "--listen", ":7000")
	require.NoError(t, err)
	assert.Contains(t, out, "driver: memory")
	assert.Contains(t, out, ":7000")
	assert.NotContains(t, out, "9999")
}

func TestInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "driver", args: []string{"version", "--store-driver", "floppy"}, want: `unknown store driver "floppy"`},
		{name: "remote", args: []string{"version", "--store-driver", "remote"}, want: "remote-url is required"},
		{name: "postgres", args: []string{"version", "--store-driver", "postgres"}, want: "postgres-dsn is required"},
		{name: "log level", args: []string{"version", "--log-level", "loud"}, want: `invalid log level "loud"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestStoreLifecycleCommands(t *testing.T) {
	dir := t.TempDir()
	storeFlag := "--store-path=" + dir

	out, err := execute(t, "", "clean", storeFlag)
	require.NoError(t, err)
	assert.Contains(t, out, "Database is already clean (does not exist)")

	out, err = execute(t, "", "init", storeFlag)
	require.NoError(t, err)
	assert.Contains(t, out, "Database initialized successfully")

	_, err = execute(t, "", "init", storeFlag)
	assert.ErrorIs(t, err, ErrStoreExists)

	out, err = execute(t, "", "seed", storeFlag)
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 6 posts")

	out, err = execute(t, "", "backup", storeFlag)
	require.NoError(t, err)
	assert.Contains(t, out, "Database backed up successfully to "+filepath.Join(dir, "backups", "backup_"))
	backups, err := filepath.Glob(filepath.Join(dir, "backups", "backup_*.db"))
	require.NoError(t, err)
	require.Len(t, backups, 1)

	out, err = execute(t, "n\n", "clean", storeFlag)
	require.NoError(t, err)
	assert.Contains(t, out, "Are you sure you want to clean the database?")
	assert.Contains(t, out, "Operation cancelled")
	assert.DirExists(t, LocalPath(testOptions(dir)))

	out, err = execute(t, "y\n", "clean", storeFlag)
	require.NoError(t, err)
	assert.Contains(t, out, "Database cleaned successfully")

	out, err = execute(t, "", "restore", backups[0], storeFlag)
	require.NoError(t, err)
	assert.Contains(t, out, "Database restored successfully")

	out, err = execute(t, "", "restore", backups[0], storeFlag)
	require.NoError(t, err)
	assert.Contains(t, out, "Operation cancelled")

	out, err = execute(t, "", "restore", "-y", backups[0], storeFlag)
	require.NoError(t, err)
	assert.Contains(t, out, "Database restored successfully")

	out, err = execute(t, "", "clean", "--yes", storeFlag)
	require.NoError(t, err)
	assert.Contains(t, out, "Database cleaned successfully")
}

func TestImportCommand(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "export.json")
	require.NoError(t, os.WriteFile(file, []byte(exportPosts), 0o600))

	out, err := execute(t, "", "import", file, "--store-path", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 posts")
	assert.Equal(t, []string{"Fluffy cat", "Wave"}, sortedTitles(t, LocalPath(testOptions(dir))))

	_, err = execute(t, "", "import", "--store-path", dir)
	assert.Error(t, err)
}

package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cloudcanvas/app/models"
	"cloudcanvas/app/repositories"
	"cloudcanvas/app/viewmodels"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createPost(t *testing.T, path, title string) {
	t.Helper()
	repo, err := repositories.NewRepository(path)
	require.NoError(t, err)
	defer repo.Close()

	_, err = repo.Posts().Create(context.Background(), &models.Post{
		Title:    title,
		ImageURL: "https://example.com/cloud.jpg",
	})
	require.NoError(t, err)
}

func listTitles(t *testing.T, path string) []string {
	t.Helper()
	repo, err := repositories.NewRepository(path)
	require.NoError(t, err)
	defer repo.Close()

	posts, err := repo.Posts().List(context.Background())
	require.NoError(t, err)
	var titles []string
	for _, p := range posts {
		titles = append(titles, p.Title)
	}
	return titles
}

func TestInitStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "badger")

	require.NoError(t, InitStore(path))
	assert.DirExists(t, path)
	assert.ErrorIs(t, InitStore(path), ErrStoreExists)
}

func TestCleanStore(t *testing.T) {
	t.Run("missing store", func(t *testing.T) {
		removed, err := CleanStore(filepath.Join(t.TempDir(), "badger"), viewmodels.Always)
		assert.NoError(t, err)
		assert.False(t, removed)
	})

	t.Run("declined", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "badger")
		require.NoError(t, InitStore(path))

		removed, err := CleanStore(path, viewmodels.Never)
		assert.ErrorIs(t, err, viewmodels.ErrCancelled)
		assert.False(t, removed)
		assert.DirExists(t, path)
	})

	t.Run("nil confirmer declines", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "badger")
		require.NoError(t, InitStore(path))

		_, err := CleanStore(path, nil)
		assert.ErrorIs(t, err, viewmodels.ErrCancelled)
	})

	t.Run("confirmed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "badger")
		require.NoError(t, InitStore(path))

		removed, err := CleanStore(path, viewmodels.Always)
		assert.NoError(t, err)
		assert.True(t, removed)
		assert.NoDirExists(t, path)
	})
}

func TestBackupAndRestore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "badger")
	backups := filepath.Join(dir, "backups")
	now := time.Unix(1700000000, 0)

	_, err := BackupStore(path, backups, now)
	assert.EqualError(t, err, "no database exists to backup")

	require.NoError(t, InitStore(path))
	createPost(t, path, "Anvil")

	file, err := BackupStore(path, backups, now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(backups, "backup_1700000000.db"), file)
	assert.FileExists(t, file)

	removed, err := CleanStore(path, viewmodels.Always)
	require.NoError(t, err)
	require.True(t, removed)

	require.NoError(t, RestoreStore(path, file, nil))
	assert.Equal(t, []string{"Anvil"}, listTitles(t, path))

	t.Run("existing store declined", func(t *testing.T) {
		createPost(t, path, "Mammatus")
		err := RestoreStore(path, file, viewmodels.Never)
		assert.ErrorIs(t, err, viewmodels.ErrCancelled)
		assert.Len(t, listTitles(t, path), 2)
	})

	t.Run("existing store replaced", func(t *testing.T) {
		require.NoError(t, RestoreStore(path, file, viewmodels.Always))
		assert.Equal(t, []string{"Anvil"}, listTitles(t, path))
	})
}

func TestRestoreStoreBadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "badger")

	err := RestoreStore(path, filepath.Join(dir, "missing.db"), viewmodels.Always)
	assert.ErrorContains(t, err, "backup file does not exist")

	empty := filepath.Join(dir, "empty.db")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	err = RestoreStore(path, empty, viewmodels.Always)
	assert.ErrorContains(t, err, "backup file is empty")
	assert.NoDirExists(t, path)
}

func TestPromptConfirmer(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{input: "y\n", want: true},
		{input: "Y\n", want: true},
		{input: "n\n", want: false},
		{input: "yes\n", want: false},
		{input: "\n", want: false},
		{input: "", want: false},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			c := PromptConfirmer(strings.NewReader(tt.input), &out)

			assert.Equal(t, tt.want, c.Confirm("Delete everything?"))
			assert.Equal(t, "Delete everything? [y/N] ", out.String())
		})
	}
}

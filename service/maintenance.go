package service

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"cloudcanvas/app/repositories"
	"cloudcanvas/app/viewmodels"
)

const (
	cleanPrompt   = "Are you sure you want to clean the database? This cannot be undone."
	restorePrompt = "Existing database found. Do you want to replace it?"
)

// ErrStoreExists is returned by InitStore when the directory is taken.
var ErrStoreExists = errors.New("database already exists, use 'clean' first if you want to reinitialize")

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// InitStore creates a new empty local store at path.
func InitStore(path string) error {
	if exists(path) {
		return ErrStoreExists
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	repo, err := repositories.NewRepository(path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	return repo.Close()
}

// CleanStore removes the local store at path once c agrees. It reports
// whether there was anything to remove.
func CleanStore(path string, c viewmodels.Confirmer) (bool, error) {
	if !exists(path) {
		return false, nil
	}
	if c == nil || !c.Confirm(cleanPrompt) {
		return false, viewmodels.ErrCancelled
	}
	if err := os.RemoveAll(path); err != nil {
		return false, fmt.Errorf("failed to clean database: %w", err)
	}
	return true, nil
}

// BackupStore writes a full backup of the local store at path into dir and
// returns the file name.
func BackupStore(path, dir string, now time.Time) (string, error) {
	if !exists(path) {
		return "", errors.New("no database exists to backup")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	repo, err := repositories.NewRepository(path)
	if err != nil {
		return "", err
	}
	defer repo.Close()

	file := filepath.Join(dir, fmt.Sprintf("backup_%d.db", now.Unix()))
	f, err := os.Create(file)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer f.Close()

	if err := repo.Backup(f); err != nil {
		return "", err
	}
	return file, nil
}

// RestoreStore replaces the local store at path with the backup in file. An
// existing store is only replaced once c agrees.
func RestoreStore(path, file string, c viewmodels.Confirmer) error {
	fi, err := os.Stat(file)
	if err != nil {
		return fmt.Errorf("backup file does not exist: %s", file)
	}
	if fi.Size() == 0 {
		return fmt.Errorf("backup file is empty: %s", file)
	}

	if exists(path) {
		if c == nil || !c.Confirm(restorePrompt) {
			return viewmodels.ErrCancelled
		}
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove existing database: %w", err)
		}
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	repo, err := repositories.NewRepository(path)
	if err != nil {
		return err
	}
	defer repo.Close()

	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer f.Close()
	return repo.Load(f)
}

// PromptConfirmer asks on out and reads a y/N answer from in.
func PromptConfirmer(in io.Reader, out io.Writer) viewmodels.Confirmer {
	return viewmodels.ConfirmFunc(func(prompt string) bool {
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		var response string
		fmt.Fscanln(in, &response)
		return response == "y" || response == "Y"
	})
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const (
	// MaxBackups is the maximum number of config backups to keep.
	MaxBackups = 3

	// BackupSuffix is the file extension for backup files.
	BackupSuffix = ".bak"
)

// BackupConfig copies the config at path to a timestamped sibling and
// returns the copy's path. A missing config is not an error; the result is
// empty.
func BackupConfig(path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read config for backup: %w", err)
	}

	backup := fmt.Sprintf("%s%s.%s", path, BackupSuffix, time.Now().Format("20060102-150405"))
	if err := os.WriteFile(backup, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	// Best effort: keep only the newest MaxBackups.
	_ = cleanupOldBackups(path)

	return backup, nil
}

// ListConfigBackups returns the backups of the config at path, newest
// first. Backup names embed a sortable timestamp, so newest first is
// reverse lexical order.
func ListConfigBackups(path string) ([]string, error) {
	backups, err := filepath.Glob(path + BackupSuffix + ".*")
	if err != nil {
		return nil, fmt.Errorf("failed to list config backups: %w", err)
	}

	slices.SortFunc(backups, func(a, b string) int {
		return strings.Compare(b, a)
	})
	return backups, nil
}

// cleanupOldBackups trims the backup set down to MaxBackups, newest kept.
func cleanupOldBackups(path string) error {
	backups, err := ListConfigBackups(path)
	if err != nil {
		return err
	}
	for _, old := range backups[min(len(backups), MaxBackups):] {
		_ = os.Remove(old)
	}
	return nil
}

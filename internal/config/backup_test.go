package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupConfig_CreatesTimestampedCopy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".globwalk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("patterns:\n  - \"*.go\"\n"), 0o644))

	backup, err := BackupConfig(path)
	require.NoError(t, err)
	require.NotEmpty(t, backup)

	data, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, "patterns:\n  - \"*.go\"\n", string(data))
	assert.Contains(t, backup, BackupSuffix)
}

func TestBackupConfig_MissingFileIsNoop(t *testing.T) {
	dir := t.TempDir()

	backup, err := BackupConfig(filepath.Join(dir, ".globwalk.yaml"))
	require.NoError(t, err)
	assert.Empty(t, backup)
}

func TestListConfigBackups_NewestFirst(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".globwalk.yaml")

	older := path + BackupSuffix + ".20240101-000000"
	newer := path + BackupSuffix + ".20240102-000000"
	require.NoError(t, os.WriteFile(older, []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(newer, []byte("new"), 0o644))

	backups, err := ListConfigBackups(path)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, newer, backups[0])
	assert.Equal(t, older, backups[1])
}

func TestListConfigBackups_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".globwalk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("y"), 0o644))

	backups, err := ListConfigBackups(path)
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestListConfigBackups_MissingDirIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone", ".globwalk.yaml")

	backups, err := ListConfigBackups(path)
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestCleanupOldBackups_KeepsNewest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".globwalk.yaml")

	// Ascending stamps, so the last two written are the newest.
	var names []string
	for i := 0; i < MaxBackups+2; i++ {
		name := fmt.Sprintf("%s%s.20240101-00000%d", path, BackupSuffix, i)
		require.NoError(t, os.WriteFile(name, []byte("b"), 0o644))
		names = append(names, name)
	}

	require.NoError(t, cleanupOldBackups(path))

	backups, err := ListConfigBackups(path)
	require.NoError(t, err)
	assert.Len(t, backups, MaxBackups)
	assert.NoFileExists(t, names[0])
	assert.NoFileExists(t, names[1])
}

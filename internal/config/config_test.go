package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlgudi/chance-man-sub000/internal/config"
)

func useTempConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := config.Dir
	config.Dir = dir
	t.Cleanup(func() { config.Dir = old })
	return dir
}

func TestLoadWritesDefaultsOnFirstRun(t *testing.T) {
	dir := useTempConfigDir(t)

	require.NoError(t, config.Load())

	assert.Equal(t, 8088, config.ChanceMan.Server.Port)
	assert.Equal(t, "logs", config.ChanceMan.LogSaveDirectory)

	_, err := os.Stat(filepath.Join(dir, "chanceman.yaml"))
	assert.NoError(t, err)

	// The defaults just written load back cleanly.
	require.NoError(t, config.Load())
}

func TestProfileRoundTrip(t *testing.T) {
	dir := useTempConfigDir(t)
	require.NoError(t, config.Load())

	cfg := &config.ProfileCfg{
		FreeToPlayOnly:          true,
		StrictPoisonRequirement: true,
		TickIntervalMs:          250,
	}
	require.NoError(t, config.SaveProfile("alice", cfg))

	_, err := os.Stat(filepath.Join(dir, "alice", "config.yaml"))
	require.NoError(t, err)

	require.NoError(t, config.Load())
	loaded := config.GetProfile("alice")
	assert.True(t, loaded.FreeToPlayOnly)
	assert.True(t, loaded.StrictPoisonRequirement)
	assert.False(t, loaded.IncludeFlatpacks)
	assert.Equal(t, 250, loaded.TickIntervalMs)
	assert.Equal(t, "alice", loaded.ProfileFolderName)
}

func TestGetProfileCreatesDefaults(t *testing.T) {
	useTempConfigDir(t)
	require.NoError(t, config.Load())

	cfg := config.GetProfile("fresh")
	assert.True(t, cfg.IncludeFlatpacks)
	assert.True(t, cfg.IncludeItemSets)
	assert.False(t, cfg.FreeToPlayOnly)

	opts := cfg.Eligibility()
	assert.True(t, opts.IncludeFlatpacks)
	assert.True(t, opts.IncludeItemSets)
	assert.False(t, opts.StrictPoison)
}

func TestValidationRejectsBadValues(t *testing.T) {
	useTempConfigDir(t)
	require.NoError(t, config.Load())

	bad := *config.ChanceMan
	bad.Server.Port = 70000
	assert.Error(t, config.ValidateAndSave(bad))

	badWebhook := *config.ChanceMan
	badWebhook.Discord.WebhookURL = "not a url"
	assert.Error(t, config.ValidateAndSave(badWebhook))

	assert.Error(t, config.SaveProfile("bob", &config.ProfileCfg{TickIntervalMs: -1}))
}

func TestLoadSkipsBackupsDirectory(t *testing.T) {
	dir := useTempConfigDir(t)
	require.NoError(t, config.Load())

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "backups"), 0755))
	require.NoError(t, config.SaveProfile("carol", &config.ProfileCfg{}))

	require.NoError(t, config.Load())
	profiles := config.GetProfiles()
	assert.Contains(t, profiles, "carol")
	assert.NotContains(t, profiles, "backups")
}

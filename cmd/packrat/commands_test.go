package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/packrat/pkg/paths"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "packrat", cmd.Use)

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"backup", "restore", "brew", "config", "version", "completion", "help"} {
		assert.True(t, names[want], "missing command %q", want)
	}

	assert.NotNil(t, cmd.PersistentFlags().Lookup("verbose"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("dry-run"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("root"))
}

func TestRootWithoutSubcommandFails(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(nil)

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no command specified")
}

func TestConfigCommand(t *testing.T) {
	home := t.TempDir()
	configDir := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(paths.EnvConfigDir, configDir)
	// Present-but-empty would override backup_root through the env layer.
	t.Setenv(paths.EnvBackupRoot, "")
	os.Unsetenv(paths.EnvBackupRoot)

	require.NoError(t, os.WriteFile(
		filepath.Join(configDir, paths.ConfigFileName),
		[]byte("backup_root = \"/backups/here\"\nmachine = \"test-box\"\n"),
		0644))

	out := new(bytes.Buffer)
	cmd := NewRootCmd()
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"config"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "backup_root = '/backups/here'")
	assert.Contains(t, out.String(), "machine = 'test-box'")
}

func TestRestoreFlags(t *testing.T) {
	cmd := NewRootCmd()
	restoreCmd, _, err := cmd.Find([]string{"restore"})
	require.NoError(t, err)
	assert.NotNil(t, restoreCmd.Flags().Lookup("skip-brew"))
}

func TestHelpTopicsRegistered(t *testing.T) {
	cmd := NewRootCmd()
	helpCmd, _, err := cmd.Find([]string{"help"})
	require.NoError(t, err)

	completions, _ := helpCmd.ValidArgsFunction(helpCmd, nil, "")
	assert.Contains(t, completions, "topics")
	assert.Contains(t, completions, "exclusions")
	assert.Contains(t, completions, "layout")
}

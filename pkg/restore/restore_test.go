package restore_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/arthur-debert/packrat/pkg/brew"
	"github.com/arthur-debert/packrat/pkg/config"
	"github.com/arthur-debert/packrat/pkg/errors"
	"github.com/arthur-debert/packrat/pkg/manifest"
	"github.com/arthur-debert/packrat/pkg/paths"
	"github.com/arthur-debert/packrat/pkg/progress"
	"github.com/arthur-debert/packrat/pkg/restore"
	"github.com/arthur-debert/packrat/pkg/sync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testBackup fabricates a populated backup root and a fresh home
// directory to restore into.
func testBackup(t *testing.T) (*config.Config, *paths.Paths) {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(paths.EnvBackupRoot, "")
	t.Setenv(paths.EnvConfigDir, "")

	root := filepath.Join(t.TempDir(), "backup")
	write := func(rel, content string) {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	write("dotfiles/.zshrc", "export EDITOR=vim\n")
	write("apps/nvim/init.lua", "-- init\n")
	write("launch_agents/com.example.agent.plist", "<plist/>")
	write("Documents/notes.txt", "notes")
	write("brew/formulae.txt", "git\njq\n")
	write("brew/taps.txt", "homebrew/cask\n")

	require.NoError(t, manifest.Write(filepath.Join(root, paths.ManifestFileName), &manifest.Manifest{
		CreatedAt: time.Now().UTC(),
		Machine:   "old-laptop",
		Sets:      []string{"dotfiles", "nvim", "brew", "Documents"},
	}))

	cfg := &config.Config{
		Dotfiles:     []string{".zshrc", ".vimrc"},
		HomeTrees:    []string{"Documents", "Pictures"},
		Apps:         []config.App{{Name: "nvim", Path: ".config/nvim"}},
		Brew:         config.Brew{Enabled: true},
		LaunchAgents: config.LaunchAgents{Enabled: true, Path: "Library/LaunchAgents"},
	}

	p, err := paths.New(root)
	require.NoError(t, err)
	return cfg, p
}

func nativeSyncer(reporter progress.Reporter) *sync.Syncer {
	return sync.New(sync.Options{
		Reporter: reporter,
		LookPath: func(string) (string, error) { return "", exec.ErrNotFound },
	})
}

func fakeBrewRunner(calls *[]string) *brew.Runner {
	return brew.New(brew.Options{
		Run: func(args ...string) ([]byte, error) {
			*calls = append(*calls, strings.Join(args, " "))
			return nil, nil
		},
		LookPath: func(string) (string, error) { return "/opt/homebrew/bin/brew", nil },
	})
}

func TestRunFullRestore(t *testing.T) {
	cfg, p := testBackup(t)
	var brewCalls []string

	runner, err := restore.New(restore.Options{
		Config: cfg,
		Paths:  p,
		Syncer: nativeSyncer(nil),
		Brew:   fakeBrewRunner(&brewCalls),
	})
	require.NoError(t, err)

	result, err := runner.Run()
	require.NoError(t, err)

	require.NotNil(t, result.Manifest)
	assert.Equal(t, "old-laptop", result.Manifest.Machine)

	// .vimrc is configured but absent from the backup.
	assert.Equal(t, 1, result.Dotfiles)
	assert.Equal(t, []string{"nvim"}, result.Apps)
	// Pictures is configured but absent from the backup.
	assert.Equal(t, []string{"Documents"}, result.Trees)
	assert.Equal(t, 1, result.Agents)
	assert.True(t, result.BrewRestored)
	assert.Empty(t, result.Soft)

	home := os.Getenv("HOME")
	assert.FileExists(t, filepath.Join(home, ".zshrc"))
	assert.FileExists(t, filepath.Join(home, ".config", "nvim", "init.lua"))
	assert.FileExists(t, filepath.Join(home, "Library", "LaunchAgents", "com.example.agent.plist"))
	assert.FileExists(t, filepath.Join(home, "Documents", "notes.txt"))

	// Taps are replayed before installs.
	require.NotEmpty(t, brewCalls)
	assert.Equal(t, "tap homebrew/cask", brewCalls[0])
	assert.Contains(t, brewCalls, "install git")
	assert.Contains(t, brewCalls, "install jq")
}

func TestRunDryRun(t *testing.T) {
	cfg, p := testBackup(t)
	rec := progress.NewRecorder()
	var brewCalls []string

	runner, err := restore.New(restore.Options{
		Config:   cfg,
		Paths:    p,
		Syncer:   nativeSyncer(rec),
		Brew:     fakeBrewRunner(&brewCalls),
		Reporter: rec,
		DryRun:   true,
	})
	require.NoError(t, err)

	_, err = runner.Run()
	require.NoError(t, err)

	home := os.Getenv("HOME")
	entries, err := os.ReadDir(home)
	require.NoError(t, err)
	assert.Empty(t, entries, "dry run must not touch the home directory")

	assert.Empty(t, brewCalls)
	joined := strings.Join(rec.Lines, "\n")
	assert.Contains(t, joined, "Would copy")
	assert.Contains(t, joined, "Would reinstall Homebrew")
}

func TestRunSkipBrew(t *testing.T) {
	cfg, p := testBackup(t)
	var brewCalls []string

	runner, err := restore.New(restore.Options{
		Config:   cfg,
		Paths:    p,
		Syncer:   nativeSyncer(nil),
		Brew:     fakeBrewRunner(&brewCalls),
		SkipBrew: true,
	})
	require.NoError(t, err)

	result, err := runner.Run()
	require.NoError(t, err)
	assert.False(t, result.BrewRestored)
	assert.Empty(t, brewCalls)
}

func TestRunPreservesNewerLocalFiles(t *testing.T) {
	cfg, p := testBackup(t)

	// A file the user created after the backup was taken.
	home := os.Getenv("HOME")
	local := filepath.Join(home, ".config", "nvim", "local.lua")
	require.NoError(t, os.MkdirAll(filepath.Dir(local), 0755))
	require.NoError(t, os.WriteFile(local, []byte("-- local\n"), 0644))

	runner, err := restore.New(restore.Options{
		Config:   cfg,
		Paths:    p,
		Syncer:   nativeSyncer(nil),
		Brew:     fakeBrewRunner(new([]string)),
		SkipBrew: true,
	})
	require.NoError(t, err)

	_, err = runner.Run()
	require.NoError(t, err)

	assert.FileExists(t, local)
	assert.FileExists(t, filepath.Join(home, ".config", "nvim", "init.lua"))
}

func TestRunMissingBackupRoot(t *testing.T) {
	cfg, _ := testBackup(t)

	p, err := paths.New(filepath.Join(t.TempDir(), "never-created"))
	require.NoError(t, err)

	runner, err := restore.New(restore.Options{Config: cfg, Paths: p, Syncer: nativeSyncer(nil)})
	require.NoError(t, err)

	_, err = runner.Run()
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrSourceNotFound))
}

func TestRunWithoutManifest(t *testing.T) {
	cfg, p := testBackup(t)
	require.NoError(t, os.Remove(p.ManifestFile()))

	runner, err := restore.New(restore.Options{
		Config:   cfg,
		Paths:    p,
		Syncer:   nativeSyncer(nil),
		Brew:     fakeBrewRunner(new([]string)),
		SkipBrew: true,
	})
	require.NoError(t, err)

	result, err := runner.Run()
	require.NoError(t, err)
	assert.Nil(t, result.Manifest)
	assert.Equal(t, 1, result.Dotfiles)
}

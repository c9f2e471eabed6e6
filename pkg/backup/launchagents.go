package backup

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"

	"github.com/arthur-debert/packrat/pkg/errors"
	"github.com/arthur-debert/packrat/pkg/sync"
)

// LaunchAgentsDir is the backup subdirectory holding launch agent plists.
const LaunchAgentsDir = "launch_agents"

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return name
}

// backupLaunchAgents copies the user's LaunchAgents plists and records
// their labels in the result, so the manifest lists which agents the
// backup carries.
func (r *Runner) backupLaunchAgents(result *Result) {
	if !r.cfg.LaunchAgents.Enabled {
		return
	}

	srcDir := r.paths.InHome(r.cfg.LaunchAgents.Path)
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		// No LaunchAgents directory on this machine; normal on Linux.
		r.logger.Debug().Str("dir", srcDir).Msg("No launch agents directory, skipping")
		return
	}

	destDir := filepath.Join(r.paths.BackupRoot(), LaunchAgentsDir)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".plist") {
			continue
		}

		src := filepath.Join(srcDir, entry.Name())
		_, err := r.syncer.CopyFile(sync.Request{
			Source:              src,
			Dest:                filepath.Join(destDir, entry.Name()),
			DryRun:              r.dryRun,
			PreservePermissions: true,
		})
		if err != nil {
			result.Soft = append(result.Soft, err)
			r.logger.Warn().Err(err).Str("plist", entry.Name()).Msg("Launch agent backup failed")
			continue
		}

		label, err := AgentLabel(src)
		if err != nil {
			r.logger.Debug().Err(err).Str("plist", entry.Name()).Msg("Cannot read agent label")
			continue
		}
		result.AgentLabels = append(result.AgentLabels, label)
	}
}

// AgentLabel extracts the Label key from a launchd property list.
// Launchd plists are XML documents of alternating <key>/<value>
// elements under the top-level dict.
func AgentLabel(path string) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "cannot parse plist %s", path)
	}

	dict := doc.FindElement("plist/dict")
	if dict == nil {
		return "", errors.Newf(errors.ErrInvalidInput, "no dict element in %s", path)
	}

	children := dict.ChildElements()
	for i, child := range children {
		if child.Tag == "key" && strings.TrimSpace(child.Text()) == "Label" && i+1 < len(children) {
			return strings.TrimSpace(children[i+1].Text()), nil
		}
	}
	return "", errors.Newf(errors.ErrInvalidInput, "no Label key in %s", path)
}

package style

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/packrat/pkg/backup"
	"github.com/arthur-debert/packrat/pkg/restore"
)

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// RenderBackupSummary renders a backup result for the terminal.
func RenderBackupSummary(result *backup.Result, root string, dryRun bool) string {
	var b strings.Builder

	if dryRun {
		b.WriteString(TitleStyle.Render("Backup preview") + "\n")
	} else {
		b.WriteString(TitleStyle.Render("Backup complete") + " " + PathStyle.Render(root) + "\n")
	}

	b.WriteString(Indent(fmt.Sprintf("%s %s", SuccessIndicator, plural(result.Dotfiles, "dotfile")), 1) + "\n")
	if len(result.Apps) > 0 {
		b.WriteString(Indent(fmt.Sprintf("%s apps: %s", SuccessIndicator, strings.Join(result.Apps, ", ")), 1) + "\n")
	}
	if len(result.Trees) > 0 {
		line := fmt.Sprintf("%s trees: %s", SuccessIndicator, strings.Join(result.Trees, ", "))
		if result.Bytes > 0 {
			line += MutedStyle.Render(fmt.Sprintf(" (%s)", humanBytes(result.Bytes)))
		}
		b.WriteString(Indent(line, 1) + "\n")
	}
	if len(result.AgentLabels) > 0 {
		b.WriteString(Indent(fmt.Sprintf("%s %s", SuccessIndicator, plural(len(result.AgentLabels), "launch agent")), 1) + "\n")
	}
	if result.Skipped > 0 {
		b.WriteString(Indent(fmt.Sprintf("%s %s could not be copied", WarningIndicator, plural(result.Skipped, "file")), 1) + "\n")
	}
	for _, err := range result.Soft {
		b.WriteString(Indent(fmt.Sprintf("%s %v", ErrorIndicator, err), 1) + "\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// RenderRestoreSummary renders a restore result for the terminal.
func RenderRestoreSummary(result *restore.Result, dryRun bool) string {
	var b strings.Builder

	if dryRun {
		b.WriteString(TitleStyle.Render("Restore preview") + "\n")
	} else {
		b.WriteString(TitleStyle.Render("Restore complete") + "\n")
	}

	if m := result.Manifest; m != nil {
		b.WriteString(Indent(MutedStyle.Render(
			fmt.Sprintf("backup of %s from %s", m.Machine, m.CreatedAt.Format("2006-01-02 15:04"))), 1) + "\n")
	}

	b.WriteString(Indent(fmt.Sprintf("%s %s", SuccessIndicator, plural(result.Dotfiles, "dotfile")), 1) + "\n")
	if len(result.Apps) > 0 {
		b.WriteString(Indent(fmt.Sprintf("%s apps: %s", SuccessIndicator, strings.Join(result.Apps, ", ")), 1) + "\n")
	}
	if len(result.Trees) > 0 {
		b.WriteString(Indent(fmt.Sprintf("%s trees: %s", SuccessIndicator, strings.Join(result.Trees, ", ")), 1) + "\n")
	}
	if result.Agents > 0 {
		b.WriteString(Indent(fmt.Sprintf("%s %s", SuccessIndicator, plural(result.Agents, "launch agent")), 1) + "\n")
	}
	if result.BrewRestored {
		b.WriteString(Indent(SuccessIndicator+" Homebrew packages", 1) + "\n")
	}
	for _, err := range result.Soft {
		b.WriteString(Indent(fmt.Sprintf("%s %v", ErrorIndicator, err), 1) + "\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

package main

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort = "Back up and restore your machine's configuration"
	MsgRootLong  = `packrat backs up the parts of a machine that make it yours: dotfiles,
application configuration, launch agents, Homebrew packages, and selected
home directories. A backup is a plain directory tree you can inspect,
version, or rsync anywhere; restore replays it onto a fresh machine.`
	MsgBackupShort      = "Back up this machine to the backup root"
	MsgBackupLong       = "Backup mirrors dotfiles, app configs, launch agents, Homebrew package lists, and configured home directories under the backup root."
	MsgRestoreShort     = "Restore a backup onto this machine"
	MsgRestoreLong      = "Restore copies dotfiles, app configs, launch agents, and home directories from the backup root back into your home directory, and reinstalls Homebrew packages from the saved lists."
	MsgBrewShort        = "Manage Homebrew package lists in the backup"
	MsgBrewLong         = "Brew dumps or replays the Homebrew package lists (formulae, casks, taps) stored under the backup root, without touching the rest of the backup."
	MsgBrewDumpShort    = "Write the installed package lists to the backup"
	MsgBrewRestoreShort = "Reinstall packages from the backup's lists"
	MsgConfigShort      = "Print the effective configuration"
	MsgConfigLong       = "Config prints the merged configuration: embedded defaults, your config file, and PACKRAT_* environment overrides."
	MsgVersionShort     = "Print version information"
	MsgCompletionShort  = "Generate shell completion script"

	// Flag descriptions
	MsgFlagVerbose  = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun   = "Preview changes without touching the filesystem"
	MsgFlagRoot     = "Backup root directory (overrides config and PACKRAT_BACKUP_ROOT)"
	MsgFlagSkipBrew = "Skip reinstalling Homebrew packages"

	// Error messages
	MsgErrInitPaths  = "failed to initialize paths: %w"
	MsgErrLoadConfig = "failed to load configuration: %w"
)

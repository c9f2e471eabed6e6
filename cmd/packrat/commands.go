package main

import (
	"embed"
	"fmt"
	"io/fs"
	"os"

	"github.com/arthur-debert/packrat/internal/version"
	"github.com/arthur-debert/packrat/pkg/backup"
	"github.com/arthur-debert/packrat/pkg/brew"
	"github.com/arthur-debert/packrat/pkg/cobrax/topics"
	"github.com/arthur-debert/packrat/pkg/config"
	"github.com/arthur-debert/packrat/pkg/logging"
	"github.com/arthur-debert/packrat/pkg/paths"
	"github.com/arthur-debert/packrat/pkg/progress"
	"github.com/arthur-debert/packrat/pkg/restore"
	"github.com/arthur-debert/packrat/pkg/style"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

//go:embed topics
var topicsFS embed.FS

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	var (
		verbosity  int
		dryRun     bool
		backupRoot string
	)

	rootCmd := &cobra.Command{
		Use:     "packrat",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand: show help but exit non-zero.
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	// Global flags
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, MsgFlagDryRun)
	rootCmd.PersistentFlags().StringVar(&backupRoot, "root", "", MsgFlagRoot)

	rootCmd.AddCommand(newBackupCmd(&dryRun, &backupRoot))
	rootCmd.AddCommand(newRestoreCmd(&dryRun, &backupRoot))
	rootCmd.AddCommand(newBrewCmd(&backupRoot))
	rootCmd.AddCommand(newConfigCmd(&backupRoot))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	// Topic-based help from the embedded docs, rendered with glamour.
	if docs, err := fs.Sub(topicsFS, "topics"); err == nil {
		_ = topics.Initialize(rootCmd, docs, topics.Options{
			Extensions: []string{".txt", ".md"},
			Renderer:   topics.NewGlamourRenderer(),
		})
	}

	return rootCmd
}

// initEnvironment resolves paths and loads the merged configuration.
// A backup root given on the command line wins over the environment,
// which wins over the config file.
func initEnvironment(backupRoot string) (*config.Config, *paths.Paths, error) {
	p, err := paths.New(backupRoot)
	if err != nil {
		return nil, nil, fmt.Errorf(MsgErrInitPaths, err)
	}

	cfg, err := config.Load(p.ConfigFile())
	if err != nil {
		return nil, nil, fmt.Errorf(MsgErrLoadConfig, err)
	}

	if p.BackupRoot() == "" && cfg.BackupRoot != "" {
		if err := p.SetBackupRoot(cfg.BackupRoot); err != nil {
			return nil, nil, err
		}
	}
	return cfg, p, nil
}

// runReporter picks the progress surface for one run. Dry runs record
// instead of rendering so the would-be actions can be printed even when
// stdout is not a terminal.
func runReporter(dryRun bool) (progress.Reporter, *progress.Recorder) {
	if dryRun {
		rec := progress.NewRecorder()
		return rec, rec
	}
	return progress.NewTerminalReporter(), nil
}

func newBackupCmd(dryRun *bool, backupRoot *string) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: MsgBackupShort,
		Long:  MsgBackupLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, p, err := initEnvironment(*backupRoot)
			if err != nil {
				return err
			}

			reporter, rec := runReporter(*dryRun)
			runner, err := backup.New(backup.Options{
				Config:   cfg,
				Paths:    p,
				Reporter: reporter,
				DryRun:   *dryRun,
			})
			if err != nil {
				return err
			}

			result, err := runner.Run()
			if err != nil {
				return err
			}

			if rec != nil {
				for _, line := range rec.Lines {
					fmt.Println(line)
				}
			}
			fmt.Println(style.RenderBackupSummary(result, p.BackupRoot(), *dryRun))
			if len(result.Soft) > 0 {
				return fmt.Errorf("backup finished with %d error(s)", len(result.Soft))
			}
			return nil
		},
	}
}

func newRestoreCmd(dryRun *bool, backupRoot *string) *cobra.Command {
	var skipBrew bool

	cmd := &cobra.Command{
		Use:   "restore",
		Short: MsgRestoreShort,
		Long:  MsgRestoreLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, p, err := initEnvironment(*backupRoot)
			if err != nil {
				return err
			}

			reporter, rec := runReporter(*dryRun)
			runner, err := restore.New(restore.Options{
				Config:   cfg,
				Paths:    p,
				Reporter: reporter,
				DryRun:   *dryRun,
				SkipBrew: skipBrew,
			})
			if err != nil {
				return err
			}

			result, err := runner.Run()
			if err != nil {
				return err
			}

			if rec != nil {
				for _, line := range rec.Lines {
					fmt.Println(line)
				}
			}
			fmt.Println(style.RenderRestoreSummary(result, *dryRun))
			if len(result.Soft) > 0 {
				return fmt.Errorf("restore finished with %d error(s)", len(result.Soft))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipBrew, "skip-brew", false, MsgFlagSkipBrew)
	return cmd
}

func newBrewCmd(backupRoot *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brew",
		Short: MsgBrewShort,
		Long:  MsgBrewLong,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: MsgBrewDumpShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, p, err := initEnvironment(*backupRoot)
			if err != nil {
				return err
			}
			runner := brew.New(brew.Options{})
			if !runner.Available() {
				return fmt.Errorf("brew is not installed")
			}
			if err := runner.Dump(p.BrewRoot()); err != nil {
				return err
			}
			fmt.Printf("Wrote Homebrew package lists to %s\n", p.BrewRoot())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "restore",
		Short: MsgBrewRestoreShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, p, err := initEnvironment(*backupRoot)
			if err != nil {
				return err
			}
			runner := brew.New(brew.Options{})
			if !runner.Available() {
				return fmt.Errorf("brew is not installed")
			}
			return runner.Restore(p.BrewRoot())
		},
	})

	return cmd
}

func newConfigCmd(backupRoot *string) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: MsgConfigShort,
		Long:  MsgConfigLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, p, err := initEnvironment(*backupRoot)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "# config file: %s\n", p.ConfigFile())
			data, err := toml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("packrat version %s\n", version.Version)
			fmt.Printf("  commit: %s\n", version.Commit)
			fmt.Printf("  built:  %s\n", version.Date)
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: MsgCompletionShort,
		Long: `To load completions:

Bash:
  $ source <(packrat completion bash)

Zsh:
  $ packrat completion zsh > "${fpath[1]}/_packrat"

Fish:
  $ packrat completion fish | source

PowerShell:
  PS> packrat completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
}

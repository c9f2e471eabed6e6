// Package topics provides a pluggable, topic-based help system for Cobra
// CLI applications. It extends the default Cobra help functionality with
// arbitrary help topics loaded from a file system, making CLIs
// self-documenting.
package topics

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// TopicManager manages help topics for a Cobra application
type TopicManager struct {
	fsys         fs.FS
	topics       map[string]*Topic
	originalHelp func(*cobra.Command, []string)
	extensions   []string
	renderer     Renderer
}

// Topic represents a help topic
type Topic struct {
	Name     string
	FilePath string
	Content  string
}

// Options configures the TopicManager
type Options struct {
	// Extensions is the list of file extensions to consider as topics.
	// Defaults to [".txt", ".md"] if not specified.
	Extensions []string

	// Renderer for formatting topic content (optional).
	// Defaults to PlainRenderer if not specified.
	Renderer Renderer
}

// New creates a TopicManager reading topics from fsys.
func New(fsys fs.FS, opts Options) *TopicManager {
	tm := &TopicManager{
		fsys:       fsys,
		topics:     make(map[string]*Topic),
		extensions: opts.Extensions,
		renderer:   opts.Renderer,
	}

	if len(tm.extensions) == 0 {
		tm.extensions = []string{".txt", ".md"}
	}
	if tm.renderer == nil {
		tm.renderer = &PlainRenderer{}
	}

	return tm
}

// scanTopics walks the file system for help files.
func (tm *TopicManager) scanTopics() error {
	return fs.WalkDir(tm.fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		supported := false
		for _, validExt := range tm.extensions {
			if ext == validExt {
				supported = true
				break
			}
		}
		if !supported {
			return nil
		}

		content, err := fs.ReadFile(tm.fsys, path)
		if err != nil {
			return err
		}

		name := strings.TrimSuffix(filepath.Base(path), ext)
		tm.topics[name] = &Topic{
			Name:     name,
			FilePath: path,
			Content:  string(content),
		}
		return nil
	})
}

// GetTopic retrieves a topic by name
func (tm *TopicManager) GetTopic(name string) (*Topic, bool) {
	// Handle flag-style topics (e.g., --dry-run -> dry-run)
	name = strings.TrimPrefix(name, "--")
	name = strings.TrimPrefix(name, "-")

	topic, exists := tm.topics[name]
	if exists {
		return topic, true
	}

	// For flag-style topics, also try with "option-" prefix
	topic, exists = tm.topics["option-"+name]
	return topic, exists
}

// ListTopics returns all available topic names
func (tm *TopicManager) ListTopics() []string {
	topics := make([]string, 0, len(tm.topics))
	for name := range tm.topics {
		topics = append(topics, name)
	}
	return topics
}

// Initialize sets up the topic-based help system on rootCmd, replacing
// the built-in help command with one that also knows the topics in fsys.
func Initialize(rootCmd *cobra.Command, fsys fs.FS, opts Options) error {
	tm := New(fsys, opts)

	if err := tm.scanTopics(); err != nil {
		return fmt.Errorf("failed to scan topics: %w", err)
	}

	tm.originalHelp = rootCmd.HelpFunc()

	helpCmd := &cobra.Command{
		Use:   "help [command or topic]",
		Short: "Help about any command or topic",
		Long: `Help provides help for any command or topic in the application.
Simply type ` + rootCmd.Name() + ` help [path to command or topic] for full details.

To see all available help topics:
  ` + rootCmd.Name() + ` help topics`,
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			completions := []string{"topics"}
			for _, c := range rootCmd.Commands() {
				if !c.Hidden {
					completions = append(completions, c.Name())
				}
			}
			completions = append(completions, tm.ListTopics()...)
			return completions, cobra.ShellCompDirectiveNoFileComp
		},
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 0 {
				tm.originalHelp(rootCmd, []string{})
				return
			}

			if args[0] == "topics" {
				tm.printTopicList(rootCmd.Name())
				return
			}

			if topic, exists := tm.GetTopic(args[0]); exists {
				fmt.Print(tm.renderer.Render(topic.Content, filepath.Ext(topic.FilePath)))
				return
			}

			tm.originalHelp(rootCmd, args)
		},
	}

	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == "help" {
			rootCmd.RemoveCommand(cmd)
			break
		}
	}
	rootCmd.AddCommand(helpCmd)

	// Also override the help function for the --help flag
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			if topic, exists := tm.GetTopic(args[0]); exists {
				fmt.Print(tm.renderer.Render(topic.Content, filepath.Ext(topic.FilePath)))
				return
			}
		}
		tm.originalHelp(cmd, args)
	})

	return nil
}

func (tm *TopicManager) printTopicList(appName string) {
	topics := tm.ListTopics()
	if len(topics) == 0 {
		fmt.Println("No help topics available.")
		return
	}
	sort.Strings(topics)

	var options []string
	var general []string
	for _, name := range topics {
		if strings.HasPrefix(name, "option-") {
			options = append(options, strings.TrimPrefix(name, "option-"))
		} else {
			general = append(general, name)
		}
	}

	fmt.Println("Available help topics:")
	if len(general) > 0 {
		fmt.Println("\nGeneral topics:")
		for _, name := range general {
			fmt.Printf("  %s\n", name)
		}
	}
	if len(options) > 0 {
		fmt.Println("\nOption topics:")
		for _, name := range options {
			fmt.Printf("  --%s\n", name)
		}
	}
	fmt.Printf("\nUse '%s help <topic>' to read about a specific topic.\n", appName)
}

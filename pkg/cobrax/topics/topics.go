// Package topics adds a topic-based help system to a Cobra application.
// Topics are documents loaded from an fs.FS, usually an embedded one, so
// a binary can ship long-form documentation beyond per-command help and
// serve it through `app help <topic>`.
package topics

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// Topic is a single help document.
type Topic struct {
	Name    string
	Path    string
	Content string
}

// Options configures the topic system.
type Options struct {
	// Extensions lists the file extensions loaded as topics.
	// Defaults to [".txt", ".md"] if not specified.
	Extensions []string

	// Renderer formats topic content for terminal display (optional).
	// Defaults to PlainRenderer if not specified.
	Renderer Renderer
}

// Manager holds the topics found in a filesystem and the help
// machinery wired around them.
type Manager struct {
	topics       map[string]*Topic
	extensions   []string
	renderer     Renderer
	originalHelp func(*cobra.Command, []string)
}

// New loads topics from fsys with default options.
func New(fsys fs.FS) (*Manager, error) {
	return NewWithOptions(fsys, Options{})
}

// NewWithOptions loads topics from fsys with custom options.
func NewWithOptions(fsys fs.FS, opts Options) (*Manager, error) {
	m := &Manager{
		topics:     make(map[string]*Topic),
		extensions: opts.Extensions,
		renderer:   opts.Renderer,
	}

	if len(m.extensions) == 0 {
		m.extensions = []string{".txt", ".md"}
	}
	if m.renderer == nil {
		m.renderer = &PlainRenderer{}
	}

	if err := m.scan(fsys); err != nil {
		return nil, fmt.Errorf("failed to scan topics: %w", err)
	}

	return m, nil
}

// scan walks fsys and loads every file with a supported extension. The
// topic name is the file name without its extension; directories group
// files but do not namespace them.
func (m *Manager) scan(fsys fs.FS) error {
	return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := path.Ext(p)
		if !m.supports(ext) {
			return nil
		}

		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}

		name := strings.TrimSuffix(path.Base(p), ext)
		m.topics[name] = &Topic{
			Name:    name,
			Path:    p,
			Content: string(content),
		}

		return nil
	})
}

func (m *Manager) supports(ext string) bool {
	for _, e := range m.extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// GetTopic retrieves a topic by name. Flag-style names are accepted
// too: "--dry-run" resolves to the "dry-run" topic, or to an
// "option-dry-run" one when only that exists.
func (m *Manager) GetTopic(name string) (*Topic, bool) {
	name = strings.TrimPrefix(name, "--")
	name = strings.TrimPrefix(name, "-")

	if topic, ok := m.topics[name]; ok {
		return topic, true
	}

	topic, ok := m.topics["option-"+name]
	return topic, ok
}

// ListTopics returns all topic names, sorted.
func (m *Manager) ListTopics() []string {
	names := make([]string, 0, len(m.topics))
	for name := range m.topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// render formats a topic for display, using its file extension to pick
// the format.
func (m *Manager) render(topic *Topic) string {
	return m.renderer.Render(topic.Content, path.Ext(topic.Path))
}

// printList writes the topic listing, separating general topics from
// option ones.
func (m *Manager) printList(appName string) {
	names := m.ListTopics()
	if len(names) == 0 {
		fmt.Println("No help topics available.")
		return
	}

	var options []string
	var general []string
	for _, name := range names {
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

// Initialize wires the topic system into rootCmd with default options.
func Initialize(rootCmd *cobra.Command, fsys fs.FS) error {
	return InitializeWithOptions(rootCmd, fsys, Options{})
}

// InitializeWithOptions replaces rootCmd's help command with one that
// also serves topics: `app help topics` lists them, `app help <topic>`
// renders one, and anything else falls through to the regular help.
func InitializeWithOptions(rootCmd *cobra.Command, fsys fs.FS, opts Options) error {
	m, err := NewWithOptions(fsys, opts)
	if err != nil {
		return err
	}

	// Keep the original help function for non-topic lookups.
	m.originalHelp = rootCmd.HelpFunc()

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
			completions = append(completions, m.ListTopics()...)
			return completions, cobra.ShellCompDirectiveNoFileComp
		},
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 0 {
				m.originalHelp(rootCmd, []string{})
				return
			}

			if args[0] == "topics" {
				m.printList(rootCmd.Name())
				return
			}

			if topic, ok := m.GetTopic(args[0]); ok {
				fmt.Print(m.render(topic))
				return
			}

			// Not a topic, so resolve it as a command the way the
			// default help command would.
			target, _, err := rootCmd.Find(args)
			if err != nil || target == nil {
				m.originalHelp(rootCmd, args)
				return
			}
			_ = target.Help()
		},
	}

	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == "help" {
			rootCmd.RemoveCommand(cmd)
			break
		}
	}
	rootCmd.AddCommand(helpCmd)

	// --help on the root should serve topics as well.
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			if topic, ok := m.GetTopic(args[0]); ok {
				fmt.Print(m.render(topic))
				return
			}
		}
		m.originalHelp(cmd, args)
	})

	return nil
}

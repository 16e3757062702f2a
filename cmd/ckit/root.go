package ckit

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ckit-sh/ckit/internal/version"
	"github.com/ckit-sh/ckit/pkg/cobrax/topics"
	"github.com/ckit-sh/ckit/pkg/logging"
)

// Long-form documentation served by `ckit help <topic>`.
//
//go:embed topics
var topicsFS embed.FS

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	// Initialize custom template formatting functions
	initTemplateFormatting()

	var verbosity int

	rootCmd := &cobra.Command{
		Use:     "ckit",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging based on verbosity
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand given. Show help but return an error to
			// signal incorrect usage.
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	// Global flags
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().Bool("dry-run", false, MsgFlagDryRun)
	rootCmd.PersistentFlags().Bool("force", false, MsgFlagForce)
	rootCmd.PersistentFlags().Bool("global", false, MsgFlagGlobal)
	rootCmd.PersistentFlags().String("root", "", MsgFlagRoot)
	rootCmd.PersistentFlags().String("format", "auto", MsgFlagFormat)

	// Disable automatic help command (the topics system installs its own)
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// Define command groups
	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "COMMANDS:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "misc",
		Title: "MISC:",
	})

	// Set custom help template
	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	// Add all commands
	rootCmd.AddCommand(newInstallCmd())
	rootCmd.AddCommand(newUpdateCmd())
	rootCmd.AddCommand(newUninstallCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newTopicsCmd())
	rootCmd.AddCommand(newCompletionCmd())

	// Initialize the topic-based help system from the embedded docs.
	if docs, err := fs.Sub(topicsFS, "topics"); err == nil {
		opts := topics.Options{
			Extensions: []string{".md"},
			Renderer:   topics.NewGlamourRenderer(),
		}
		if err := topics.InitializeWithOptions(rootCmd, docs, opts); err != nil {
			log.Warn().Err(err).Msg("Help topics unavailable")
		}
	}

	return rootCmd
}
